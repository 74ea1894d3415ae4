package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed Store. Every collection lives in a
// single documents table keyed by (collection, id), with the document body
// in a jsonb column and store-assigned timestamps.
type PostgresStore struct {
	pool     *pgxpool.Pool
	schemas  SchemaSet
	watchers notifier
}

// NewPostgresStore creates a PostgreSQL-backed document store.
func NewPostgresStore(pool *pgxpool.Pool, schemas SchemaSet) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool, schemas: schemas}, nil
}

// Migrate creates the documents table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection text        NOT NULL,
			id         text        NOT NULL,
			data       jsonb       NOT NULL DEFAULT '{}'::jsonb,
			created_at timestamptz NOT NULL DEFAULT now(),
			updated_at timestamptz NOT NULL DEFAULT now(),
			PRIMARY KEY (collection, id)
		);
		CREATE INDEX IF NOT EXISTS documents_collection_created_idx
			ON documents (collection, created_at);
		CREATE INDEX IF NOT EXISTS documents_data_idx
			ON documents USING gin (data jsonb_path_ops);
	`)
	if err != nil {
		return fmt.Errorf("migrate documents table: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, data, created_at, updated_at
		 FROM documents
		 WHERE collection = $1
		 ORDER BY created_at ASC, id ASC`,
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	defer rows.Close()

	return scanDocuments(rows, collection)
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	doc, err := scanDocument(s.pool.QueryRow(ctx,
		`SELECT id, data, created_at, updated_at
		 FROM documents
		 WHERE collection = $1 AND id = $2`,
		collection, id,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := s.schemas.validate(collection, data); err != nil {
		return "", err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	id := generateID()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
		collection, id, string(body),
	); err != nil {
		return "", fmt.Errorf("create %s document: %w", collection, err)
	}

	s.publish(ctx, collection)
	return id, nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, data map[string]any) error {
	if id == "" {
		return fmt.Errorf("put %s: id is required", collection)
	}
	if err := s.schemas.validate(collection, data); err != nil {
		return err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s document: %w", collection, err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, id, string(body),
	); err != nil {
		return fmt.Errorf("put %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	// The merged result has to satisfy the collection schema, so read and
	// merge before writing when a schema is configured.
	if _, ok := s.schemas[collection]; ok {
		current, err := s.Get(ctx, collection, id)
		if err != nil {
			return err
		}
		if current == nil {
			return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
		}
		merged := copyData(current.Data)
		for k, v := range fields {
			merged[k] = v
		}
		if err := s.schemas.validate(collection, merged); err != nil {
			return err
		}
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal %s fields: %w", collection, err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET data = data || $3::jsonb, updated_at = now()
		 WHERE collection = $1 AND id = $2`,
		collection, id, string(body),
	)
	if err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update %s/%s: %w", collection, id, ErrNotFound)
	}

	s.publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	cmd, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete %s/%s: %w", collection, id, ErrNotFound)
	}

	s.publish(ctx, collection)
	return nil
}

func (s *PostgresStore) Query(ctx context.Context, collection, field string, value any) ([]Document, error) {
	filter, err := json.Marshal(nestedValue(field, value))
	if err != nil {
		return nil, fmt.Errorf("marshal query filter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT id, data, created_at, updated_at
		 FROM documents
		 WHERE collection = $1 AND data @> $2::jsonb
		 ORDER BY created_at ASC, id ASC`,
		collection, string(filter),
	)
	if err != nil {
		return nil, fmt.Errorf("query %s by %s: %w", collection, field, err)
	}
	defer rows.Close()

	return scanDocuments(rows, collection)
}

func (s *PostgresStore) BulkCreate(ctx context.Context, collection string, docs []map[string]any) ([]string, error) {
	for i, data := range docs {
		if err := s.schemas.validate(collection, data); err != nil {
			return nil, fmt.Errorf("bulk create %s, document %d: %w", collection, i, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin bulk create: %w", err)
	}
	defer tx.Rollback(ctx)

	ids := make([]string, 0, len(docs))
	for i, data := range docs {
		body, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal %s document %d: %w", collection, i, err)
		}
		id := generateID()
		if _, err := tx.Exec(ctx,
			`INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3::jsonb)`,
			collection, id, string(body),
		); err != nil {
			return nil, fmt.Errorf("bulk create %s, document %d: %w", collection, i, err)
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit bulk create: %w", err)
	}

	s.publish(ctx, collection)
	return ids, nil
}

func (s *PostgresStore) PutIf(ctx context.Context, collection, id string, data map[string]any, field string, value any) (string, error) {
	if err := s.schemas.validate(collection, data); err != nil {
		return "", err
	}

	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal %s document: %w", collection, err)
	}
	filter, err := json.Marshal(nestedValue(field, value))
	if err != nil {
		return "", fmt.Errorf("marshal condition filter: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if id == "" {
		id = generateID()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("begin conditional put: %w", err)
	}
	defer tx.Rollback(ctx)

	// Under READ COMMITTED two concurrent writers would each check against
	// a snapshot that misses the other's in-flight row. The advisory lock
	// serializes conditional puts per collection so the existence check
	// runs against the previous writer's committed state.
	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtext('documents.' || $1))`,
		collection,
	); err != nil {
		return "", fmt.Errorf("lock %s for conditional put: %w", collection, err)
	}

	cmd, err := tx.Exec(ctx,
		`INSERT INTO documents (collection, id, data)
		 SELECT $1, $2, $3::jsonb
		 WHERE NOT EXISTS (
			SELECT 1 FROM documents WHERE collection = $1 AND data @> $4::jsonb
		 )
		 ON CONFLICT (collection, id)
		 DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, id, string(body), string(filter),
	)
	if err != nil {
		return "", fmt.Errorf("conditional put %s: %w", collection, err)
	}
	if cmd.RowsAffected() == 0 {
		return "", fmt.Errorf("put %s where %s=%v: %w", collection, field, value, ErrConflict)
	}
	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("commit conditional put: %w", err)
	}

	s.publish(ctx, collection)
	return id, nil
}

func (s *PostgresStore) Watch(collection string, fn func([]Document)) func() {
	return s.watchers.watch(collection, fn)
}

// publish re-reads a collection and fans it out to watchers. A failed
// re-read only costs the notification, never the mutation that triggered it.
func (s *PostgresStore) publish(ctx context.Context, collection string) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		slog.Warn("watch refresh failed", "collection", collection, "error", err)
		return
	}
	s.watchers.notify(collection, docs)
}

func scanDocuments(rows pgx.Rows, collection string) ([]Document, error) {
	var docs []Document
	for rows.Next() {
		var doc Document
		var body []byte
		if err := rows.Scan(&doc.ID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan %s document: %w", collection, err)
		}
		if err := json.Unmarshal(body, &doc.Data); err != nil {
			return nil, fmt.Errorf("decode %s document %s: %w", collection, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s documents: %w", collection, err)
	}
	return docs, nil
}

func scanDocument(row pgx.Row) (*Document, error) {
	var doc Document
	var body []byte
	if err := row.Scan(&doc.ID, &body, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &doc.Data); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	return &doc, nil
}
