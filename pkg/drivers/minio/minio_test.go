package minio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

func TestConfigure(t *testing.T) {
	_, err := New().Configure(adapter.Config{"driver": "minio"})
	assert.True(t, adapter.IsConfigurationError(err))

	cfg, err := New().Configure(adapter.Config{"driver": "minio", "access_key": "a", "secret_key": "s", "database": "media"})
	require.NoError(t, err)
	assert.Equal(t, "media", cfg["bucket"])
	assert.Equal(t, "localhost", cfg["host"])
	assert.Equal(t, 9000, cfg["port"])
}

func TestStart(t *testing.T) {
	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "minio", "access_key": "a", "secret_key": "s", "bucket": "media"})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	c := h.(*Client)
	assert.Equal(t, "media", c.Bucket)
	assert.Equal(t, "localhost:9000", c.EndpointURL().Host)

	b, err := adapter.Bind(d)
	require.NoError(t, err)
	assert.False(t, b.CanEnd())
}
