package adapter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture(t *testing.T) {
	t.Run("settles once", func(t *testing.T) {
		f := NewFuture()
		_, ok, _ := f.Result()
		assert.False(t, ok)

		assert.True(t, f.Resolve("client"))
		assert.False(t, f.Reject(errors.New("late")))

		v, ok, err := f.Result()
		require.True(t, ok)
		assert.NoError(t, err)
		assert.Equal(t, "client", v)
	})

	t.Run("go runs the work", func(t *testing.T) {
		boom := errors.New("unreachable")
		f := Go(func() (any, error) { return nil, boom })

		_, err := f.Wait(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("wait honours the context", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := NewFuture().Wait(ctx)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSink(t *testing.T) {
	var s Sink
	s.AddError(errors.New("dropped"))
	assert.False(t, s.Bound())

	r := &recorder{}
	s.Bind(r)
	s.AddError(errors.New("kept"))
	s.AddError(nil)
	s.AddEvent("timeout")
	s.AddEvent(nil)

	require.Len(t, r.errs, 1)
	assert.EqualError(t, r.errs[0], "kept")
	assert.Equal(t, []any{"timeout"}, r.events)

	s.Bind(nil)
	s.AddEvent("after")
	assert.Len(t, r.events, 1)
}

func TestSinks(t *testing.T) {
	var sinks Sinks
	h := &struct{ name string }{"pool"}
	sink := &Sink{}
	sinks.Track(h, sink)

	r := &recorder{}
	assert.True(t, sinks.Bind(h, r))
	assert.False(t, sinks.Bind(&struct{ name string }{"other"}, r))

	sink.AddError(errors.New("reset"))
	assert.Len(t, r.errs, 1)

	sinks.Release(h)
	assert.False(t, sink.Bound())
	sink.AddError(errors.New("after release"))
	assert.Len(t, r.errs, 1)
	assert.False(t, sinks.Bind(h, r))
}
