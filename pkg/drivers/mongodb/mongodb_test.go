package mongodb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/event"

	"github.com/redbco/redb-hopper/pkg/adapter"
)

type recorder struct {
	mu     sync.Mutex
	errs   []error
	events []any
}

func (r *recorder) AddError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func (r *recorder) AddEvent(e any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

func TestConfigure(t *testing.T) {
	d := New()

	cfg, err := d.Configure(adapter.Config{"driver": "mongodb", "database": "shop", "user": "app", "password": "pw", "authSource": "admin"})
	require.NoError(t, err)
	assert.Equal(t, "mongodb://app:pw@127.0.0.1:27017/shop?authSource=admin", URI(cfg))

	_, err = d.Configure(adapter.Config{"driver": "mongodb", "connect_timeout": "-1s"})
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestStartReturnsFuture(t *testing.T) {
	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "mongodb", "port": 1, "connect_timeout": "100ms"})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	future, ok := h.(*adapter.Future)
	require.True(t, ok)

	r := &recorder{}
	d.Integrate(h, r)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = future.Wait(ctx)
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.GreaterOrEqual(t, r.errorCount(), 1)

	assert.NoError(t, d.End(context.Background(), h))
}

func TestPoolMonitor(t *testing.T) {
	r := &recorder{}
	sink := &adapter.Sink{}
	sink.Bind(r)
	m := poolMonitor(sink)

	m.Event(&event.PoolEvent{Type: poolCleared, Address: "db:27017"})
	m.Event(&event.PoolEvent{Type: checkOutFailed, Reason: checkOutTimedOut, Address: "db:27017"})
	m.Event(&event.PoolEvent{Type: checkOutFailed, Reason: "connectionError", Address: "db:27017"})
	m.Event(&event.PoolEvent{Type: "ConnectionReady"})

	require.Len(t, r.events, 2)
	assert.Equal(t, "pool cleared", r.events[0].(adapter.Event).Kind)
	assert.Equal(t, "timeout", r.events[1].(adapter.Event).Kind)
	require.Len(t, r.errs, 1)
}

func TestHeartbeatFailure(t *testing.T) {
	r := &recorder{}
	sink := &adapter.Sink{}
	sink.Bind(r)

	cause := errors.New("connection refused")
	serverMonitor(sink).ServerHeartbeatFailed(&event.ServerHeartbeatFailedEvent{Failure: cause})
	require.Len(t, r.errs, 1)
	assert.ErrorIs(t, r.errs[0], cause)
}

func TestClientRejectsOtherHandles(t *testing.T) {
	_, err := Client(context.Background(), "nope")
	assert.ErrorIs(t, err, adapter.ErrUnexpectedHandle)
}
