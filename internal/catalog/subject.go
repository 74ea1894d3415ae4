package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bece-prep/platform/internal/docstore"
)

func subjectFromDoc(doc docstore.Document) (Subject, error) {
	var s Subject
	if err := decodeDoc(doc, &s); err != nil {
		return Subject{}, err
	}
	s.ID = doc.ID
	s.CreatedAt = isoTime(doc.CreatedAt)
	s.UpdatedAt = isoTime(doc.UpdatedAt)
	return s, nil
}

// ListSubjects returns all subjects in store order.
func (r *Repo) ListSubjects(ctx context.Context) ([]Subject, error) {
	docs, err := r.store.List(ctx, ColSubjects)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	subjects := make([]Subject, 0, len(docs))
	for _, doc := range docs {
		s, err := subjectFromDoc(doc)
		if err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, nil
}

// GetSubject returns a subject by id, or nil when absent.
func (r *Repo) GetSubject(ctx context.Context, id string) (*Subject, error) {
	doc, err := r.store.Get(ctx, ColSubjects, id)
	if err != nil {
		return nil, fmt.Errorf("get subject %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	s, err := subjectFromDoc(*doc)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubject writes a new subject and returns its generated id. Any
// caller-supplied id or timestamps are ignored.
func (r *Repo) CreateSubject(ctx context.Context, s Subject) (string, error) {
	fields, err := toFields(s)
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, ColSubjects, fields)
	if err != nil {
		return "", fmt.Errorf("create subject: %w", err)
	}
	return id, nil
}

// UpdateSubject merges the given fields into an existing subject.
func (r *Repo) UpdateSubject(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Update(ctx, ColSubjects, id, fields); err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	return nil
}

// DeleteSubject removes a subject. Topics referencing it are not touched.
func (r *Repo) DeleteSubject(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ColSubjects, id); err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	return nil
}

// SubscribeSubjects invokes fn with the full subject list after every
// change to the collection.
func (r *Repo) SubscribeSubjects(fn func([]Subject)) func() {
	return r.store.Watch(ColSubjects, func(docs []docstore.Document) {
		subjects := make([]Subject, 0, len(docs))
		for _, doc := range docs {
			s, err := subjectFromDoc(doc)
			if err != nil {
				slog.Warn("skipping undecodable subject", "id", doc.ID, "error", err)
				continue
			}
			subjects = append(subjects, s)
		}
		fn(subjects)
	})
}
