package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

func TestConfigure(t *testing.T) {
	cfg, err := New().Configure(adapter.Config{"driver": "clickhouse", "host": "ch.internal"})
	require.NoError(t, err)

	opts := Options(cfg)
	assert.Equal(t, []string{"ch.internal:9000"}, opts.Addr)
	assert.Equal(t, "default", opts.Auth.Database)
	assert.Equal(t, "default", opts.Auth.Username)
	assert.Equal(t, 10*time.Second, opts.DialTimeout)
	assert.Nil(t, opts.TLS)

	cfg, err = New().Configure(adapter.Config{"driver": "clickhouse", "url": "clickhouse://u:p@ch:9440/events?secure=true"})
	require.NoError(t, err)
	opts = Options(cfg)
	assert.Equal(t, "events", opts.Auth.Database)
	assert.NotNil(t, opts.TLS)
}

func TestStartEnd(t *testing.T) {
	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "clickhouse", "port": 1, "connect_timeout": "50ms"})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	assert.Error(t, d.Ping(context.Background(), h))
	assert.NoError(t, d.End(context.Background(), h))
}
