package service

import (
	"context"
	"sync"
)

// EventType defines the type of event
type EventType string

const (
	EventTooltipState     EventType = "tooltip_state"
	EventSessionMounted   EventType = "session_mounted"
	EventSessionUnmounted EventType = "session_unmounted"
	EventCatalogSynced    EventType = "catalog_synced"
)

// Event represents an event that occurred in the system
type Event struct {
	Type EventType `json:"type"`
	// Session scopes the event to one mounted Hero, empty means everyone
	Session string `json:"session,omitempty"`
	Payload any    `json:"payload,omitempty"`
}

// EventBus allows publishing and subscribing to events
type EventBus struct {
	mu          sync.RWMutex
	subscribers []chan<- Event
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make([]chan<- Event, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (eb *EventBus) Subscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	eb.subscribers = append(eb.subscribers, ch)
}

// Unsubscribe removes a subscriber
func (eb *EventBus) Unsubscribe(ch chan<- Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	for i, sub := range eb.subscribers {
		if sub == ch {
			eb.subscribers = append(eb.subscribers[:i], eb.subscribers[i+1:]...)
			return
		}
	}
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is slow, skip
		}
	}
}

// Sink receives events relayed off the bus
type Sink interface {
	Send(session string, event any)
	Broadcast(event any)
}

// Relay forwards bus events to sink until ctx is done. Session-scoped events
// go to that session only.
func (eb *EventBus) Relay(ctx context.Context, sink Sink) {
	ch := make(chan Event, 256)
	eb.Subscribe(ch)
	defer eb.Unsubscribe(ch)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if ev.Session != "" {
				sink.Send(ev.Session, ev)
			} else {
				sink.Broadcast(ev)
			}
		}
	}
}
