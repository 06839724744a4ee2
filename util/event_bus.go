// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	logger "github.com/stonefield/resourcing/logging"
)

// Event types published by the engine and its services.
const (
	EventRequestCreated     = "request.created"
	EventRequestTransition  = "request.transition"
	EventResourceDepleted   = "resource.depleted"
	EventAgentConfigUpdated = "agent.config.updated"
	EventForecastsGenerated = "forecasts.generated"
)

// Event is one in-process notification.
type Event struct {
	Type    string
	Payload interface{}
}

// EventHandler consumes one event. Handlers run concurrently and must not
// assume ordering relative to other handlers of the same event.
type EventHandler func(context.Context, Event) error

// EventBus is the in-process pub/sub fabric connecting the request lifecycle,
// the scheduler and the notification layer. Handlers run in their own
// goroutines; failures are drained by Start and logged, never surfaced to
// the publisher.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	failures chan error
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[string][]EventHandler),
		failures: make(chan error, 100),
	}
}

// Subscribe registers a handler for an event type.
func (eb *EventBus) Subscribe(eventType string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
}

// Publish fans the event out to all registered handlers and returns without
// waiting for them.
func (eb *EventBus) Publish(ctx context.Context, eventType string, payload interface{}) {
	eb.mu.RLock()
	handlers := eb.handlers[eventType]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{Type: eventType, Payload: payload}
	for _, handler := range handlers {
		go func(h EventHandler) {
			err := h(ctx, event)
			if err == nil {
				return
			}
			select {
			case eb.failures <- fmt.Errorf("%s handler: %w", eventType, err):
			default:
				logger.Error("Event failure channel full, dropping",
					zap.Error(err),
					zap.String("eventType", eventType))
			}
		}(handler)
	}
}

// Start drains handler failures until the context is canceled.
func (eb *EventBus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case err := <-eb.failures:
				logger.Error("Event handler failed", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()
}
