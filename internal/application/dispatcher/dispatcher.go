// Package dispatcher delivers domain events to in-process subscribers such as
// the metrics collector and the job progress hub.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/estr/backoffice/internal/domain/event"
)

var (
	ErrClosed      = errors.New("dispatcher is closed")
	ErrUnknownType = errors.New("unknown event type")
)

// Dispatcher routes events to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler under a generated name
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler under name, replacing an earlier
	// handler of the same name for that event type
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// SubscribeMany registers one named handler for several event types
	SubscribeMany(eventTypes []event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs every handler in registration order and waits for them.
	// A failing handler does not stop the ones after it; all failures are
	// returned joined.
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs every handler on its own goroutine and returns at once
	DispatchAsync(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close rejects new events and waits for async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	// mu guards handlers and closed; DispatchAsync holds it while adding to
	// wg so Close never waits on a group that is still growing
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	closed   bool
	seq      int

	logger Logger
	wg     sync.WaitGroup
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.Lock()
	d.seq++
	name := fmt.Sprintf("handler-%d", d.seq)
	d.mu.Unlock()
	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeMany(eventTypes []event.Type, name string, handler Handler) {
	for _, t := range eventTypes {
		d.SubscribeNamed(t, name, handler)
	}
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	info := HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	}

	replaced := false
	list := d.handlers[eventType]
	for i := range list {
		if list[i].Name == name {
			list[i] = info
			replaced = true
			break
		}
	}
	if !replaced {
		d.handlers[eventType] = append(list, info)
	}

	d.log("Handler registered", "event_type", eventType, "handler_name", name, "replaced", replaced)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	list := d.handlers[eventType]
	for i := range list {
		if list[i].Name == name {
			d.handlers[eventType] = append(list[:i:i], list[i+1:]...)
			d.log("Handler unregistered", "event_type", eventType, "handler_name", name)
			return
		}
	}
}

// snapshot copies the handler list so handlers may (un)subscribe while running
func (d *eventDispatcher) snapshot(eventType event.Type) ([]HandlerInfo, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return nil, false
	}
	list := d.handlers[eventType]
	out := make([]HandlerInfo, len(list))
	copy(out, list)
	return out, true
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if evt == nil || !evt.Type.IsValid() {
		return ErrUnknownType
	}
	handlers, open := d.snapshot(evt.Type)
	if !open {
		return ErrClosed
	}

	var errs []error
	for _, info := range handlers {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			d.logError("Handler error", evt, info.Name, err)
			errs = append(errs, fmt.Errorf("handler %s: %w", info.Name, err))
		}
	}
	return errors.Join(errs...)
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	if evt == nil || !evt.Type.IsValid() {
		if d.logger != nil {
			d.logger.Error("Async dispatch of unknown event type", "error", ErrUnknownType)
		}
		return
	}
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logError("Async dispatch after close", evt, "", ErrClosed)
		return
	}

	for _, info := range d.handlers[evt.Type] {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()
			if err := d.safeExecute(ctx, evt, h); err != nil {
				d.logError("Async handler error", evt, h.Name, err)
			}
		}(info)
	}
}

// ListHandlers returns handler metadata without the functions
func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	handlers := d.handlers[eventType]
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{
			Name:        h.Name,
			EventType:   h.EventType,
			Description: h.Description,
		}
	}
	return result
}

// Close is idempotent; later calls return nil at once
func (d *eventDispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()

	d.wg.Wait()
	d.log("Dispatcher closed")
	return nil
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) log(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, keysAndValues...)
	}
}

func (d *eventDispatcher) logError(msg string, evt *event.Event, handler string, err error) {
	if d.logger == nil {
		return
	}
	d.logger.Error(msg,
		"event_type", evt.Type,
		"event_id", evt.ID,
		"correlation_id", evt.CorrelationID,
		"handler_name", handler,
		"error", err,
	)
}
