package elasticsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

func TestConfigure(t *testing.T) {
	d := New()

	cfg, err := d.Configure(adapter.Config{"driver": "elasticsearch"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:9200"}, ClientConfig(cfg).Addresses)

	cfg, err = d.Configure(adapter.Config{"driver": "elasticsearch", "hosts": []any{"https://a:9200", "https://b:9200"}})
	require.NoError(t, err)
	assert.Len(t, ClientConfig(cfg).Addresses, 2)

	_, err = d.Configure(adapter.Config{"driver": "elasticsearch", "api_key": "k", "user": "elastic"})
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestCapabilities(t *testing.T) {
	b, err := adapter.Bind(New())
	require.NoError(t, err)
	assert.False(t, b.CanIntegrate())
	assert.False(t, b.CanEnd())
	assert.True(t, b.CanPing())
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "elasticsearch", "hosts": srv.URL})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &elasticsearch.Client{}, h)
	assert.NoError(t, d.Ping(context.Background(), h))
}
