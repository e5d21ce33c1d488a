package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/config"
	"github.com/redbco/redb-hopper/pkg/datastore"
)

func newApp(t *testing.T, extra string) (*App, *bytes.Buffer) {
	t.Helper()

	dir := t.TempDir()
	doc := fmt.Sprintf(`
default: local
logging:
  level: error
metrics:
  enabled: true
  namespace: hopper
health:
  interval: 50ms
connections:
  local:
    driver: sqlite
    path: %s
  kv:
    driver: pebble
    path: %s
    password: hunter2
%s`, filepath.Join(dir, "app.db"), filepath.Join(dir, "kv"), extra)

	file, err := config.Parse([]byte(doc))
	require.NoError(t, err)

	var out bytes.Buffer
	a, err := New(file, Options{Version: "test", Out: &out, LogOutput: io.Discard})
	require.NoError(t, err)
	return a, &out
}

func TestNewLoadsConnections(t *testing.T) {
	a, _ := newApp(t, "")

	assert.Equal(t, []string{"kv", "local"}, a.Registry.Names())
	assert.Equal(t, "local", a.Registry.DefaultName())

	store, ok := a.Registry.Get("")
	require.True(t, ok)
	assert.Equal(t, datastore.StatusConfigured, store.Status())
}

func TestListDrivers(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, ListDrivers(&out))

	text := out.String()
	assert.Contains(t, text, "postgres")
	assert.Contains(t, text, "127.0.0.1:5432")
	assert.Contains(t, text, "embedded")
	assert.Equal(t, 17, strings.Count(text, "\n"))
}

func TestListAndShowConnections(t *testing.T) {
	a, out := newApp(t, "")

	require.NoError(t, a.ListConnections())
	assert.Contains(t, out.String(), "local")
	assert.Contains(t, out.String(), "configured")

	out.Reset()
	require.NoError(t, a.ShowConnection("kv"))
	assert.Contains(t, out.String(), "Connection Details for 'kv'")
	assert.Contains(t, out.String(), "********")
	assert.NotContains(t, out.String(), "hunter2")

	assert.Error(t, a.ShowConnection("missing"))
}

func TestCheckConnections(t *testing.T) {
	a, out := newApp(t, "")

	require.NoError(t, a.CheckConnections(context.Background()))
	assert.Contains(t, out.String(), "healthy")

	for _, name := range a.Registry.Names() {
		store, _ := a.Registry.Get(name)
		assert.Equal(t, datastore.StatusClosed, store.Status())
		assert.Nil(t, store.Handle())
	}

	assert.Error(t, a.CheckConnections(context.Background(), "missing"))
}

func TestCheckConnectionsReportsFailures(t *testing.T) {
	a, out := newApp(t, `  broken:
    driver: pebble
    path: /proc/hopper/denied
    read_only: true
`)

	err := a.CheckConnections(context.Background(), "broken", "local")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Contains(t, out.String(), "unhealthy")
}

func TestServe(t *testing.T) {
	a, _ := newApp(t, "")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		res, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		defer res.Body.Close()
		return res.StatusCode == http.StatusOK && len(a.Health.GetAllChecks()) == 2
	}, 5*time.Second, 20*time.Millisecond)

	res, err := http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Contains(t, string(body), `hopper_connection_status{connection="local",driver="sqlite",status="opened"} 1`)
	assert.Contains(t, string(body), `hopper_connection_healthy{connection="kv"} 1`)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return")
	}

	store, _ := a.Registry.Get("kv")
	assert.Equal(t, datastore.StatusClosed, store.Status())
}
