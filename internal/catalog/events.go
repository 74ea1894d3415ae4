package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bece-prep/platform/internal/docstore"
)

// Event is a single analytics event.
type Event struct {
	Name      string
	UserID    string
	Payload   map[string]any
	CreatedAt time.Time
}

// EventLogger records analytics events.
type EventLogger interface {
	LogEvent(ctx context.Context, event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(context.Context, Event) error {
	return nil
}

// MemoryEventLogger keeps events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{events: []Event{}}
}

func (l *MemoryEventLogger) LogEvent(_ context.Context, event Event) error {
	if event.Name == "" {
		return fmt.Errorf("event name is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// StoreEventLogger appends events to the analytics collection.
type StoreEventLogger struct {
	store docstore.Store
}

func NewStoreEventLogger(store docstore.Store) *StoreEventLogger {
	return &StoreEventLogger{store: store}
}

func (l *StoreEventLogger) LogEvent(ctx context.Context, event Event) error {
	if l == nil || l.store == nil {
		return fmt.Errorf("event logger store is nil")
	}
	if event.Name == "" {
		return fmt.Errorf("event name is required")
	}

	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}

	_, err := l.store.Create(ctx, ColAnalytics, map[string]any{
		"name":    event.Name,
		"userId":  event.UserID,
		"payload": payload,
	})
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}
