package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vertex(e float64) []PrimaryVertex {
	return []PrimaryVertex{{KineticEnergy: e, Particle: Gamma}}
}

func TestQueueSink_FIFO(t *testing.T) {
	store := &SliceSink{}
	q := NewQueueSink(store)

	for i := int64(1); i <= 3; i++ {
		require.NoError(t, q.AddPrimaries(i, vertex(float64(i))))
	}
	assert.Equal(t, 3, q.Len())
	q.Close()

	require.NoError(t, q.Run(context.Background()))
	require.Len(t, store.Events, 3)
	for i, ev := range store.Events {
		assert.Equal(t, int64(i+1), ev.ID)
		assert.Equal(t, float64(i+1), ev.Vertices[0].KineticEnergy)
	}
	assert.Zero(t, q.Len())
}

func TestQueueSink_RunWaitsForEvents(t *testing.T) {
	store := &SliceSink{}
	q := NewQueueSink(store)
	done := make(chan error, 1)
	go func() { done <- q.Run(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, q.AddPrimaries(1, vertex(1)))
	q.Close()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}
	assert.Len(t, store.Events, 1)
}

func TestQueueSink_ClosedRejects(t *testing.T) {
	q := NewQueueSink(&SliceSink{})
	q.Close()
	q.Close()
	assert.ErrorIs(t, q.AddPrimaries(1, vertex(1)), ErrQueueClosed)
}

func TestQueueSink_DownstreamErrorStopsQueue(t *testing.T) {
	q := NewQueueSink(failingSink{})
	require.NoError(t, q.AddPrimaries(1, vertex(1)))

	err := q.Run(context.Background())
	assert.ErrorContains(t, err, "disk full")
	assert.True(t, errors.Is(q.AddPrimaries(2, vertex(2)), ErrQueueClosed))
}

func TestQueueSink_ContextCancel(t *testing.T) {
	q := NewQueueSink(&SliceSink{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, q.Run(ctx), context.Canceled)
}
