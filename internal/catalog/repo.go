package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/bece-prep/platform/internal/docstore"
)

// Repo exposes typed CRUD and query operations per entity type. It is
// constructed with its dependencies so tests can substitute fakes; there is
// no package-level instance.
type Repo struct {
	store  docstore.Store
	events EventLogger
}

// New creates a repository over the given document store. A nil events
// logger discards analytics.
func New(store docstore.Store, events EventLogger) *Repo {
	if events == nil {
		events = NopEventLogger{}
	}
	return &Repo{store: store, events: events}
}

// Store returns the underlying document store.
func (r *Repo) Store() docstore.Store {
	return r.store
}

// LogEvent records an analytics event. Failures are logged and swallowed:
// analytics must never block or fail the action that triggered it.
func (r *Repo) LogEvent(ctx context.Context, event Event) {
	if err := r.events.LogEvent(ctx, event); err != nil {
		slog.Warn("analytics event dropped", "event", event.Name, "error", err)
	}
}

// isoTime normalizes a store timestamp to an RFC 3339 UTC string.
func isoTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// decodeDoc maps a document body onto an entity struct via its JSON tags.
// The caller stamps ID and timestamps afterwards.
func decodeDoc(doc docstore.Document, out any) error {
	body, err := json.Marshal(doc.Data)
	if err != nil {
		return fmt.Errorf("encode document %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return nil
}

// toFields flattens an entity into a document body, dropping the
// store-owned id and timestamp fields.
func toFields(entity any) (map[string]any, error) {
	body, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("encode entity: %w", err)
	}
	fields := map[string]any{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode entity: %w", err)
	}
	delete(fields, "id")
	delete(fields, "createdAt")
	delete(fields, "updatedAt")
	return fields, nil
}
