package keyring

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyring.json")
	store := NewFileStore(path, "master")

	_, err := store.Get("hopper", "primary")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Set("hopper", "primary", "s3cret"))
	require.NoError(t, store.Set("hopper", "primary", "rotated"))
	require.NoError(t, store.Set("hopper", "replica", "other"))

	secret, err := store.Get("hopper", "primary")
	require.NoError(t, err)
	assert.Equal(t, "rotated", secret)

	_, err = NewFileStore(path, "wrong").Get("hopper", "primary")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Delete("hopper", "primary"))
	_, err = store.Get("hopper", "primary")
	assert.ErrorIs(t, err, ErrNotFound)

	secret, err = store.Get("hopper", "replica")
	require.NoError(t, err)
	assert.Equal(t, "other", secret)
}

func TestSystemStore(t *testing.T) {
	gokeyring.MockInit()

	store, err := Open(BackendSystem, "", "")
	require.NoError(t, err)

	require.NoError(t, store.Set("hopper", "cache", "pw"))
	secret, err := store.Get("hopper", "cache")
	require.NoError(t, err)
	assert.Equal(t, "pw", secret)

	require.NoError(t, store.Delete("hopper", "cache"))
	require.NoError(t, store.Delete("hopper", "cache"))
	_, err = store.Get("hopper", "cache")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = Open("vault", "", "")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "keyring.json"), "")
	require.NoError(t, store.Set(DefaultService, "primary", "hunter2"))

	cfg := adapter.Config{"driver": "postgres", "password": "keyring:primary", "user": "app"}
	resolved, err := Resolve(cfg, store, "")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", resolved["password"])
	assert.Equal(t, "keyring:primary", cfg["password"])

	plain := adapter.Config{"driver": "redis", "prefix": "keyring:"}
	same, err := Resolve(plain, store, "")
	require.NoError(t, err)
	assert.Equal(t, plain, same)

	_, err = Resolve(adapter.Config{"driver": "mysql", "password": "keyring:missing"}, store, "")
	assert.True(t, adapter.IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrNotFound)
}
