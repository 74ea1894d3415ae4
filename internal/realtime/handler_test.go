package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bece-prep/platform/internal/docstore"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(t.Context(), url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	var msg Message
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	return msg
}

func TestHandlerInitialSnapshot(t *testing.T) {
	ctx := t.Context()
	store := docstore.NewMemoryStore()
	if _, err := store.Create(ctx, "topics", map[string]any{"name": "Algebra"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	srv := httptest.NewServer(NewHandler(store, "topics"))
	defer srv.Close()

	conn := dial(t, srv.URL+"?collection=topics")
	msg := readMessage(t, conn)
	if msg.Collection != "topics" {
		t.Errorf("collection = %q, want %q", msg.Collection, "topics")
	}
	if len(msg.Documents) != 1 {
		t.Fatalf("initial documents = %d, want 1", len(msg.Documents))
	}
	if got := msg.Documents[0].Data["name"]; got != "Algebra" {
		t.Errorf("document name = %v, want Algebra", got)
	}
}

func TestHandlerPushesChanges(t *testing.T) {
	ctx := t.Context()
	store := docstore.NewMemoryStore()

	srv := httptest.NewServer(NewHandler(store, "subjects"))
	defer srv.Close()

	conn := dial(t, srv.URL+"?collection=subjects")
	if msg := readMessage(t, conn); len(msg.Documents) != 0 {
		t.Fatalf("initial documents = %d, want 0", len(msg.Documents))
	}

	if _, err := store.Create(ctx, "subjects", map[string]any{"name": "Mathematics"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msg := readMessage(t, conn)
	if len(msg.Documents) != 1 {
		t.Fatalf("documents after create = %d, want 1", len(msg.Documents))
	}
	if got := msg.Documents[0].Data["name"]; got != "Mathematics" {
		t.Errorf("document name = %v, want Mathematics", got)
	}
}

func TestHandlerIgnoresOtherCollections(t *testing.T) {
	ctx := t.Context()
	store := docstore.NewMemoryStore()

	srv := httptest.NewServer(NewHandler(store, "subjects"))
	defer srv.Close()

	conn := dial(t, srv.URL+"?collection=subjects")
	readMessage(t, conn)

	if _, err := store.Create(ctx, "topics", map[string]any{"name": "Algebra"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := store.Create(ctx, "subjects", map[string]any{"name": "English"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The next frame is the subjects snapshot; the topics write never
	// produced one.
	msg := readMessage(t, conn)
	if msg.Collection != "subjects" {
		t.Errorf("collection = %q, want %q", msg.Collection, "subjects")
	}
	if len(msg.Documents) != 1 {
		t.Errorf("documents = %d, want 1", len(msg.Documents))
	}
}

func TestHandlerRejectsUnknownCollection(t *testing.T) {
	store := docstore.NewMemoryStore()
	srv := httptest.NewServer(NewHandler(store, "subjects"))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "?collection=secrets")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}
