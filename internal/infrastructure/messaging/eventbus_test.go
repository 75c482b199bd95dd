package messaging

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michi-haensler/EcoTrack/internal/domain/shared"
)

func newTestBus(t *testing.T) *InMemoryEventBus {
	t.Helper()
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func testEvent() shared.Event {
	return shared.NewActivityLoggedEvent("activity-1", "user-1", 50, shared.Today(), "")
}

func TestPublish_SynchronousDelivery(t *testing.T) {
	bus := newTestBus(t)

	var calls int32
	handler := func(event shared.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, handler))
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, handler))

	require.NoError(t, bus.Publish(testEvent()))

	// Sync mode: all handlers ran before Publish returned.
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPublish_HandlerOrderAndTypeFilter(t *testing.T) {
	bus := newTestBus(t)

	var order []string
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		order = append(order, "first")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		order = append(order, "second")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventChallengeGoalReached, func(shared.Event) error {
		order = append(order, "other")
		return nil
	}))

	require.NoError(t, bus.Publish(testEvent()))

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublish_HandlerErrorDoesNotStopSiblings(t *testing.T) {
	bus := newTestBus(t)

	var secondRan bool
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		return errors.New("handler failed")
	}))
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		secondRan = true
		return nil
	}))

	// Handler failures never surface to the publisher.
	assert.NoError(t, bus.Publish(testEvent()))
	assert.True(t, secondRan)
}

func TestPublish_PanicIsRecovered(t *testing.T) {
	bus := newTestBus(t)

	var secondRan bool
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		panic("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		secondRan = true
		return nil
	}))

	assert.NoError(t, bus.Publish(testEvent()))
	assert.True(t, secondRan)

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalHandlerExecs)
	assert.Equal(t, 0.5, snapshot.HandlerSuccessRate)
}

func TestPublish_NoHandlers(t *testing.T) {
	bus := newTestBus(t)
	assert.NoError(t, bus.Publish(testEvent()))
}

func TestSubscribeAll(t *testing.T) {
	bus := newTestBus(t)

	var types []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(event shared.Event) error {
		types = append(types, event.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(testEvent()))
	require.NoError(t, bus.Publish(shared.NewChallengeGoalReachedEvent("challenge-1", "user-1", 100)))

	assert.Equal(t, []shared.EventType{shared.EventActivityLogged, shared.EventChallengeGoalReached}, types)
}

func TestAsyncMode_DeliversEventually(t *testing.T) {
	config := DefaultInMemoryEventBusConfig()
	config.AsyncMode = true
	config.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(config)

	var calls int32
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}))

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(testEvent()))
	}

	// Close waits for in-flight handlers.
	require.NoError(t, bus.Close())
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClosedBus(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(testEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error { return nil }), ErrEventBusClosed)

	// Closing twice is fine.
	assert.NoError(t, bus.Close())
}

func TestSubscribe_NilHandler(t *testing.T) {
	bus := newTestBus(t)
	assert.Error(t, bus.Subscribe(shared.EventActivityLogged, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}

func TestMetrics_RecordsPublishes(t *testing.T) {
	bus := newTestBus(t)

	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(shared.Event) error { return nil }))
	require.NoError(t, bus.Publish(testEvent()))
	require.NoError(t, bus.Publish(testEvent()))

	snapshot := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snapshot.TotalPublished)
	assert.Equal(t, int64(2), snapshot.TotalHandlerExecs)
	assert.Equal(t, 1.0, snapshot.HandlerSuccessRate)
	assert.False(t, snapshot.LastReset.After(time.Now()))
}
