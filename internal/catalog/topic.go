package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bece-prep/platform/internal/docstore"
)

func topicFromDoc(doc docstore.Document) (Topic, error) {
	var t Topic
	if err := decodeDoc(doc, &t); err != nil {
		return Topic{}, err
	}
	t.ID = doc.ID
	t.CreatedAt = isoTime(doc.CreatedAt)
	t.UpdatedAt = isoTime(doc.UpdatedAt)
	return t, nil
}

func topicsFromDocs(docs []docstore.Document) ([]Topic, error) {
	topics := make([]Topic, 0, len(docs))
	for _, doc := range docs {
		t, err := topicFromDoc(doc)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, nil
}

// ListTopics returns all topics in store order.
func (r *Repo) ListTopics(ctx context.Context) ([]Topic, error) {
	docs, err := r.store.List(ctx, ColTopics)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	return topicsFromDocs(docs)
}

// TopicsBySubject returns all topics owned by a subject.
func (r *Repo) TopicsBySubject(ctx context.Context, subjectID string) ([]Topic, error) {
	docs, err := r.store.Query(ctx, ColTopics, "subjectId", subjectID)
	if err != nil {
		return nil, fmt.Errorf("topics by subject %s: %w", subjectID, err)
	}
	return topicsFromDocs(docs)
}

// GetTopic returns a topic by id, or nil when absent.
func (r *Repo) GetTopic(ctx context.Context, id string) (*Topic, error) {
	doc, err := r.store.Get(ctx, ColTopics, id)
	if err != nil {
		return nil, fmt.Errorf("get topic %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	t, err := topicFromDoc(*doc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTopic writes a new topic and returns its generated id.
func (r *Repo) CreateTopic(ctx context.Context, t Topic) (string, error) {
	fields, err := toFields(t)
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, ColTopics, fields)
	if err != nil {
		return "", fmt.Errorf("create topic: %w", err)
	}
	return id, nil
}

// UpdateTopic merges the given fields into an existing topic.
func (r *Repo) UpdateTopic(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Update(ctx, ColTopics, id, fields); err != nil {
		return fmt.Errorf("update topic: %w", err)
	}
	return nil
}

// DeleteTopic removes a topic. Questions referencing it are not touched.
func (r *Repo) DeleteTopic(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ColTopics, id); err != nil {
		return fmt.Errorf("delete topic: %w", err)
	}
	return nil
}

// SubscribeTopics invokes fn with the full topic list after every change to
// the collection.
func (r *Repo) SubscribeTopics(fn func([]Topic)) func() {
	return r.store.Watch(ColTopics, func(docs []docstore.Document) {
		topics, err := topicsFromDocs(docs)
		if err != nil {
			slog.Warn("skipping topics notification", "error", err)
			return
		}
		fn(topics)
	})
}
