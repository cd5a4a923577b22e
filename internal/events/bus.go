package events

import (
	"context"
	"fmt"
	"sync"

	"fleetrent-backend/internal/logger"
)

// Bus is an in-process Sink dispatching to registered handlers in registration order.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Name][]Handler
	all      []Handler
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[Name][]Handler)}
}

func (b *Bus) Subscribe(name Name, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

// SubscribeAll registers h for every event name.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.all)+len(b.handlers[e.Name]))
	handlers = append(handlers, b.all...)
	handlers = append(handlers, b.handlers[e.Name]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, h, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, h Handler, e Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Event handler panicked", "event", e.Name, "panic", fmt.Sprint(r))
		}
	}()
	if err := h(ctx, e); err != nil {
		logger.Warn("Event handler failed", "event", e.Name, "error", err)
	}
}
