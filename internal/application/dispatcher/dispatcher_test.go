package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/estr/backoffice/internal/domain/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func caseEvent() *event.Event {
	return event.NewEvent(event.TypeCaseTransitioned, "CASE-1", "u-oc", map[string]interface{}{"to": "2"})
}

func noop(context.Context, *event.Event) error { return nil }

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.SubscribeNamed(event.TypeCaseTransitioned, "journal", func(context.Context, *event.Event) error {
		order = append(order, "journal")
		return nil
	})
	d.SubscribeNamed(event.TypeCaseTransitioned, "metrics", func(context.Context, *event.Event) error {
		order = append(order, "metrics")
		return nil
	})
	d.Subscribe(event.TypeParameterSaved, func(context.Context, *event.Event) error {
		order = append(order, "other")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), caseEvent()))
	assert.Equal(t, []string{"journal", "metrics"}, order)
}

func TestDispatch_FailureDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher(WithLogger(&mockLogger{}))
	errHub := errors.New("hub down")
	var gaugesCalled bool

	d.SubscribeNamed(event.TypeJobProgress, "progress-hub", func(context.Context, *event.Event) error {
		return errHub
	})
	d.SubscribeNamed(event.TypeJobProgress, "progress-panic", func(context.Context, *event.Event) error {
		panic("boom")
	})
	d.SubscribeNamed(event.TypeJobProgress, "progress-gauges", func(context.Context, *event.Event) error {
		gaugesCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), event.NewEvent(event.TypeJobProgress, "s-1", "", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, errHub)
	assert.Contains(t, err.Error(), "handler progress-hub")
	assert.Contains(t, err.Error(), "handler panic: boom")
	assert.True(t, gaugesCalled)
}

func TestDispatch_PassesContext(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeCaseTransitioned, func(ctx context.Context, _ *event.Event) error {
		return ctx.Err()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, d.Dispatch(ctx, caseEvent()), context.Canceled)
}

func TestDispatch_RejectsUnknownType(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.Type("case.deleted"), func(context.Context, *event.Event) error {
		t.Fatal("handler for unknown type must not run")
		return nil
	})

	assert.ErrorIs(t, d.Dispatch(context.Background(), event.NewEvent("case.deleted", "C", "u", nil)), ErrUnknownType)
	assert.ErrorIs(t, d.Dispatch(context.Background(), nil), ErrUnknownType)
}

func TestSubscribeNamed_ReplacesSameName(t *testing.T) {
	d := NewDispatcher()
	var calls []int

	d.SubscribeNamed(event.TypeJobProgress, "progress-hub", func(context.Context, *event.Event) error {
		calls = append(calls, 1)
		return nil
	})
	d.SubscribeNamed(event.TypeJobProgress, "progress-hub", func(context.Context, *event.Event) error {
		calls = append(calls, 2)
		return nil
	})

	require.Len(t, d.ListHandlers(event.TypeJobProgress), 1)
	require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(event.TypeJobProgress, "s", "", nil)))
	assert.Equal(t, []int{2}, calls)
}

func TestSubscribe_GeneratesUniqueNames(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeCaseTransitioned, noop)
	d.Subscribe(event.TypeCaseTransitioned, noop)
	d.Unsubscribe(event.TypeCaseTransitioned, "handler-1")
	d.Subscribe(event.TypeCaseTransitioned, noop)

	var names []string
	for _, h := range d.ListHandlers(event.TypeCaseTransitioned) {
		names = append(names, h.Name)
	}
	assert.Equal(t, []string{"handler-2", "handler-3"}, names)
}

func TestUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var called []string

	d.SubscribeNamed(event.TypeCaseTransitioned, "a", func(context.Context, *event.Event) error {
		called = append(called, "a")
		return nil
	})
	d.SubscribeNamed(event.TypeCaseTransitioned, "b", func(context.Context, *event.Event) error {
		called = append(called, "b")
		return nil
	})

	d.Unsubscribe(event.TypeCaseTransitioned, "a")
	d.Unsubscribe(event.TypeCaseTransitioned, "missing")

	require.NoError(t, d.Dispatch(context.Background(), caseEvent()))
	assert.Equal(t, []string{"b"}, called)
}

func TestSubscribeMany(t *testing.T) {
	d := NewDispatcher()
	var seen []event.Type

	d.SubscribeMany([]event.Type{event.TypeCaseTransitioned, event.TypeJobTriggered}, "metrics",
		func(_ context.Context, evt *event.Event) error {
			seen = append(seen, evt.Type)
			return nil
		})

	for _, typ := range []event.Type{event.TypeCaseTransitioned, event.TypeJobTriggered, event.TypeParameterSaved} {
		require.NoError(t, d.Dispatch(context.Background(), event.NewEvent(typ, "x", "u1", nil)))
	}

	assert.Equal(t, []event.Type{event.TypeCaseTransitioned, event.TypeJobTriggered}, seen)
	got := d.ListHandlers(event.TypeJobTriggered)
	require.Len(t, got, 1)
	assert.Equal(t, "metrics", got[0].Name)
	assert.Nil(t, got[0].Handler, "handler function is not exposed")
}

func TestDispatchAsync_CloseWaits(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	var completed atomic.Int32

	d.Subscribe(event.TypeCaseTransitioned, func(context.Context, *event.Event) error {
		time.Sleep(30 * time.Millisecond)
		completed.Add(1)
		return nil
	})
	d.Subscribe(event.TypeCaseTransitioned, func(context.Context, *event.Event) error {
		return errors.New("journal failed")
	})
	d.Subscribe(event.TypeCaseTransitioned, func(context.Context, *event.Event) error {
		panic("async panic")
	})

	d.DispatchAsync(context.Background(), caseEvent())
	require.NoError(t, d.Close())

	assert.Equal(t, int32(1), completed.Load())
	assert.Equal(t, 2, logger.errorCount())
}

func TestClose(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	var called atomic.Int32
	d.Subscribe(event.TypeCaseTransitioned, func(context.Context, *event.Event) error {
		called.Add(1)
		return nil
	})

	require.NoError(t, d.Close())
	assert.NoError(t, d.Close(), "second close is a no-op")

	assert.ErrorIs(t, d.Dispatch(context.Background(), caseEvent()), ErrClosed)

	d.DispatchAsync(context.Background(), caseEvent())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, called.Load())
	assert.Equal(t, 1, logger.errorCount())
}

func TestConcurrentSubscribeAndDispatch(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.SubscribeNamed(event.TypeJobProgress, fmt.Sprintf("viewer-%d", id), func(context.Context, *event.Event) error {
				calls.Add(1)
				return nil
			})
		}(i)
	}
	wg.Wait()
	require.Len(t, d.ListHandlers(event.TypeJobProgress), 10)

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.Dispatch(context.Background(), event.NewEvent(event.TypeJobProgress, "s", "", nil))
		}()
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.DispatchAsync(context.Background(), event.NewEvent(event.TypeJobProgress, "s", "", nil))
		}()
	}
	wg.Wait()
	require.NoError(t, d.Close())

	assert.Equal(t, int32(100), calls.Load())
}
