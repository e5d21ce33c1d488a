package cassandra

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func TestConfigure(t *testing.T) {
	cfg, err := New().Configure(adapter.Config{"driver": "cassandra", "database": "shop", "user": "cassandra"})
	require.NoError(t, err)

	cluster := Cluster(cfg)
	assert.Equal(t, []string{"127.0.0.1"}, cluster.Hosts)
	assert.Equal(t, 9042, cluster.Port)
	assert.Equal(t, "shop", cluster.Keyspace)
	assert.Equal(t, gocql.Quorum, cluster.Consistency)
	assert.NotNil(t, cluster.Authenticator)

	cfg, err = New().Configure(adapter.Config{"driver": "cassandra", "hosts": "a,b,c", "consistency": "local_one"})
	require.NoError(t, err)
	cluster = Cluster(cfg)
	assert.Equal(t, []string{"a", "b", "c"}, cluster.Hosts)
	assert.Equal(t, gocql.LocalOne, cluster.Consistency)

	_, err = New().Configure(adapter.Config{"driver": "cassandra", "consistency": "most"})
	assert.True(t, adapter.IsConfigurationError(err))
}

func TestStartReturnsFuture(t *testing.T) {
	d := New()
	cfg, err := d.Configure(adapter.Config{"driver": "cassandra", "port": 1, "connect_timeout": "100ms", "timeout": "100ms"})
	require.NoError(t, err)

	h, err := d.Start(context.Background(), cfg)
	require.NoError(t, err)
	require.IsType(t, &adapter.Future{}, h)

	r := &recorder{}
	d.Integrate(h, r)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err = Session(ctx, h)
	require.Error(t, err)
	assert.True(t, adapter.IsConnectionError(err))
	assert.NoError(t, d.End(context.Background(), h))
}

func TestObserverReport(t *testing.T) {
	r := &recorder{}
	sink := &adapter.Sink{}
	sink.Bind(r)
	o := observer{sink: sink}

	o.ObserveQuery(context.Background(), gocql.ObservedQuery{Statement: "SELECT 1"})
	o.ObserveQuery(context.Background(), gocql.ObservedQuery{Statement: "SELECT 1", Err: gocql.ErrTimeoutNoResponse})
	o.ObserveQuery(context.Background(), gocql.ObservedQuery{Statement: "SELECT 1", Err: errors.New("unavailable")})

	require.Len(t, r.events, 1)
	assert.Equal(t, "timeout", r.events[0].(adapter.Event).Kind)
	require.Len(t, r.errs, 1)
	assert.Contains(t, r.errs[0].Error(), "unavailable")
}
