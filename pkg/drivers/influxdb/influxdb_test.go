package influxdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

func TestConfigure(t *testing.T) {
	_, err := New().Configure(adapter.Config{"driver": "influxdb"})
	assert.True(t, adapter.IsConfigurationError(err))

	cfg, err := New().Configure(adapter.Config{"driver": "influxdb", "token": "t", "database": "metrics"})
	require.NoError(t, err)
	assert.Equal(t, "metrics", cfg["bucket"])
	assert.Equal(t, "http://localhost:8086", ServerURL(cfg))

	cfg, err = New().Configure(adapter.Config{"driver": "influxdb", "token": "t", "ssl": true, "host": "influx.example.com", "port": 443})
	require.NoError(t, err)
	assert.Equal(t, "https://influx.example.com:443", ServerURL(cfg))
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ping" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "influxdb", "token": "t", "server_url": srv.URL})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	assert.NoError(t, d.Ping(context.Background(), h))
	assert.NoError(t, d.End(context.Background(), h))
}
