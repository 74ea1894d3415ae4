// Package docstore provides a collection/document data store: schemaless
// JSON documents grouped into named collections, with store-assigned ids
// and timestamps, equality queries, merge updates, atomic batch writes and
// change subscriptions.
package docstore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

var (
	// ErrNotFound reports a mutation against a document id that does not exist.
	// Reads never return it: Get reports absence as (nil, nil).
	ErrNotFound = errors.New("document not found")

	// ErrConflict reports that a conditional insert found a conflicting document.
	ErrConflict = errors.New("conflicting document exists")
)

// Document is a single stored document. CreatedAt and UpdatedAt are assigned
// by the store at write time, never by the caller.
type Document struct {
	ID        string         `json:"id"`
	Data      map[string]any `json:"data"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SchemaSet maps collection names to compiled JSON Schemas. Collections
// without an entry accept any document.
type SchemaSet map[string]*gojsonschema.Schema

// Store is the document store contract shared by all backends.
type Store interface {
	// List returns the full contents of a collection in store order.
	List(ctx context.Context, collection string) ([]Document, error)

	// Get returns a document by id, or (nil, nil) when absent.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Create writes a new document and returns its generated id.
	Create(ctx context.Context, collection string, data map[string]any) (string, error)

	// Put writes a document under a caller-chosen id, creating or replacing
	// its data. The created timestamp of an existing document is preserved.
	Put(ctx context.Context, collection, id string, data map[string]any) error

	// Update merges fields into an existing document and refreshes its
	// updated timestamp. Returns ErrNotFound when the id does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Returns ErrNotFound when absent. Deletes
	// never cascade to documents in other collections.
	Delete(ctx context.Context, collection, id string) error

	// Query returns all documents whose field equals value. Nested fields
	// are addressed with a dotted path ("preferences.theme").
	Query(ctx context.Context, collection, field string, value any) ([]Document, error)

	// BulkCreate writes all documents or none of them.
	BulkCreate(ctx context.Context, collection string, docs []map[string]any) ([]string, error)

	// PutIf writes a document (under id, or a generated id when id is
	// empty) only if no document in the collection has field equal to
	// value; an existing document under the same id is replaced, keeping
	// its created timestamp. Returns ErrConflict otherwise. The check and
	// the write are a single atomic step.
	PutIf(ctx context.Context, collection, id string, data map[string]any, field string, value any) (string, error)

	// Watch registers a callback invoked with the full current collection
	// contents after every successful mutation to that collection. The
	// returned cancel func unregisters it.
	Watch(collection string, fn func([]Document)) (cancel func())
}

// ValidationError reports a document rejected by a collection schema.
type ValidationError struct {
	Collection string
	Problems   []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("document for %s failed validation: %s", e.Collection, strings.Join(e.Problems, "; "))
}

// validate checks data against the collection schema, if one is configured.
func (s SchemaSet) validate(collection string, data map[string]any) error {
	schema, ok := s[collection]
	if !ok || schema == nil {
		return nil
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return fmt.Errorf("validate %s document: %w", collection, err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return &ValidationError{Collection: collection, Problems: problems}
}

// generateID returns a random 32-char hex document id.
func generateID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return fmt.Sprintf("%x", b)
}
