package s3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

func TestConfigure(t *testing.T) {
	cfg, err := New().Configure(adapter.Config{"driver": "s3", "database": "assets"})
	require.NoError(t, err)
	assert.Equal(t, "assets", cfg["bucket"])
	assert.Equal(t, DefaultRegion, cfg["region"])
	assert.Empty(t, Endpoint(cfg))

	cfg, err = New().Configure(adapter.Config{"driver": "s3", "host": "localstack", "port": 4566})
	require.NoError(t, err)
	assert.Equal(t, "http://localstack:4566", Endpoint(cfg))

	_, err = New().Configure(adapter.Config{"driver": "s3", "access_key": "AKIA"})
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestStartAndPing(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New()
	cfg, err := d.Configure(adapter.Config{
		"driver":     "s3",
		"endpoint":   srv.URL,
		"bucket":     "assets",
		"path_style": true,
		"access_key": "AKIA",
		"secret_key": "secret",
	})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	c := h.(*Client)
	assert.Equal(t, "assets", c.Bucket)
	assert.Equal(t, srv.URL, aws.ToString(c.Options().BaseEndpoint))

	require.NoError(t, d.Ping(context.Background(), h))
	assert.Equal(t, "/assets", path)
}
