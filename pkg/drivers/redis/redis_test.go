package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

type recorder struct {
	errs   []error
	events []any
}

func (r *recorder) AddError(err error) { r.errs = append(r.errs, err) }
func (r *recorder) AddEvent(e any)     { r.events = append(r.events, e) }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestConfigure(t *testing.T) {
	d := New()

	cfg, err := d.Configure(adapter.Config{"driver": "redis"})
	require.NoError(t, err)
	assert.Equal(t, "app", cfg["prefix"])
	assert.Equal(t, 0, cfg["db"])
	assert.Equal(t, []string{"127.0.0.1:6379"}, Options(cfg).Addrs)
	assert.Equal(t, "app:session", Key(cfg, "session"))

	cfg, err = d.Configure(adapter.Config{"driver": "redis", "url": "redis://cache:6380/2", "prefix": "shop"})
	require.NoError(t, err)
	assert.Equal(t, 2, Options(cfg).DB)
	assert.Equal(t, []string{"cache:6380"}, Options(cfg).Addrs)
	assert.Equal(t, "shop:cart", Key(cfg, "cart"))

	cfg, err = d.Configure(adapter.Config{"driver": "redis", "addrs": "a:7000, b:7001"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a:7000", "b:7001"}, Options(cfg).Addrs)

	_, err = d.Configure(adapter.Config{"driver": "redis", "db": 16})
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestHookReports(t *testing.T) {
	r := &recorder{}
	sink := &adapter.Sink{}
	sink.Bind(r)
	h := hook{sink: sink}

	h.report("get", nil)
	h.report("get", redis.Nil)
	assert.Empty(t, r.errs)

	h.report("set", errors.New("READONLY"))
	require.Len(t, r.errs, 1)

	h.report("dial cache:6379", timeoutError{})
	require.Len(t, r.events, 1)
	event := r.events[0].(adapter.Event)
	assert.Equal(t, "timeout", event.Kind)
	assert.Equal(t, "dial cache:6379", event.Detail)
	assert.Len(t, r.errs, 1)
}

func TestProcessHook(t *testing.T) {
	r := &recorder{}
	sink := &adapter.Sink{}
	sink.Bind(r)

	process := hook{sink: sink}.ProcessHook(func(context.Context, redis.Cmder) error {
		return errors.New("WRONGTYPE")
	})
	err := process(context.Background(), redis.NewStringCmd(context.Background(), "get", "k"))
	assert.Error(t, err)
	require.Len(t, r.errs, 1)
	assert.EqualError(t, r.errs[0], "WRONGTYPE")
}

func TestStartIsLazy(t *testing.T) {
	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "redis", "port": 1})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	require.Implements(t, (*redis.UniversalClient)(nil), h)

	d.Integrate(h, &recorder{})
	require.NoError(t, d.End(context.Background(), h))
}
