// Package realtime streams collection snapshots over websockets.
// Clients subscribe to one collection and receive the full document
// list on connect and again after every change.
package realtime

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bece-prep/platform/internal/docstore"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 10 * time.Second

// Message is one snapshot frame sent to a subscriber.
type Message struct {
	Collection string              `json:"collection"`
	Documents  []docstore.Document `json:"documents"`
}

// Handler upgrades requests to websockets and relays store snapshots.
type Handler struct {
	store   docstore.Store
	allowed map[string]struct{}
}

// NewHandler serves subscriptions for the named collections only;
// anything else is rejected before the upgrade.
func NewHandler(store docstore.Store, collections ...string) *Handler {
	allowed := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		allowed[c] = struct{}{}
	}
	return &Handler{store: store, allowed: allowed}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	collection := r.URL.Query().Get("collection")
	if _, ok := h.allowed[collection]; !ok {
		http.Error(w, "unknown collection", http.StatusBadRequest)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept", "error", err)
		return
	}
	defer conn.CloseNow()

	// Subscribers only listen; CloseRead surfaces client disconnects
	// through the returned context.
	ctx := conn.CloseRead(r.Context())

	updates := make(chan []docstore.Document, 1)
	cancel := h.store.Watch(collection, func(docs []docstore.Document) {
		// Latest snapshot wins; a slow client skips intermediate
		// states instead of backing up the store.
		for {
			select {
			case updates <- docs:
				return
			default:
				select {
				case <-updates:
				default:
				}
			}
		}
	})
	defer cancel()

	docs, err := h.store.List(ctx, collection)
	if err != nil {
		slog.Warn("initial snapshot", "collection", collection, "error", err)
		conn.Close(websocket.StatusInternalError, "snapshot failed")
		return
	}
	if err := h.send(ctx, conn, Message{Collection: collection, Documents: docs}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case docs := <-updates:
			if err := h.send(ctx, conn, Message{Collection: collection, Documents: docs}); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
