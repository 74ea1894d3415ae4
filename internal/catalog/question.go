package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bece-prep/platform/internal/docstore"
)

func questionFromDoc(doc docstore.Document) (Question, error) {
	var q Question
	if err := decodeDoc(doc, &q); err != nil {
		return Question{}, err
	}
	q.ID = doc.ID
	q.CreatedAt = isoTime(doc.CreatedAt)
	q.UpdatedAt = isoTime(doc.UpdatedAt)
	return q, nil
}

func questionsFromDocs(docs []docstore.Document) ([]Question, error) {
	questions := make([]Question, 0, len(docs))
	for _, doc := range docs {
		q, err := questionFromDoc(doc)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, nil
}

// ListQuestions returns all questions in store order.
func (r *Repo) ListQuestions(ctx context.Context) ([]Question, error) {
	docs, err := r.store.List(ctx, ColQuestions)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return questionsFromDocs(docs)
}

// QuestionsByTopic returns all questions attached to a topic.
func (r *Repo) QuestionsByTopic(ctx context.Context, topicID string) ([]Question, error) {
	docs, err := r.store.Query(ctx, ColQuestions, "topicId", topicID)
	if err != nil {
		return nil, fmt.Errorf("questions by topic %s: %w", topicID, err)
	}
	return questionsFromDocs(docs)
}

// QuestionsBySubject returns all questions attached to a subject.
func (r *Repo) QuestionsBySubject(ctx context.Context, subjectID string) ([]Question, error) {
	docs, err := r.store.Query(ctx, ColQuestions, "subjectId", subjectID)
	if err != nil {
		return nil, fmt.Errorf("questions by subject %s: %w", subjectID, err)
	}
	return questionsFromDocs(docs)
}

// GetQuestion returns a question by id, or nil when absent.
func (r *Repo) GetQuestion(ctx context.Context, id string) (*Question, error) {
	doc, err := r.store.Get(ctx, ColQuestions, id)
	if err != nil {
		return nil, fmt.Errorf("get question %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	q, err := questionFromDoc(*doc)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

// CreateQuestion writes a new question and returns its generated id.
func (r *Repo) CreateQuestion(ctx context.Context, q Question) (string, error) {
	if q.SolutionAccess == "" {
		q.SolutionAccess = SolutionAfterAttempt
	}
	fields, err := toFields(q)
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, ColQuestions, fields)
	if err != nil {
		return "", fmt.Errorf("create question: %w", err)
	}
	return id, nil
}

// CreateQuestions writes a batch of questions atomically.
func (r *Repo) CreateQuestions(ctx context.Context, questions []Question) ([]string, error) {
	batch := make([]map[string]any, 0, len(questions))
	for _, q := range questions {
		if q.SolutionAccess == "" {
			q.SolutionAccess = SolutionAfterAttempt
		}
		fields, err := toFields(q)
		if err != nil {
			return nil, err
		}
		batch = append(batch, fields)
	}
	ids, err := r.store.BulkCreate(ctx, ColQuestions, batch)
	if err != nil {
		return nil, fmt.Errorf("create questions: %w", err)
	}
	return ids, nil
}

// UpdateQuestion merges the given fields into an existing question.
func (r *Repo) UpdateQuestion(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Update(ctx, ColQuestions, id, fields); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// DeleteQuestion removes a question.
func (r *Repo) DeleteQuestion(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ColQuestions, id); err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	return nil
}

// SubscribeQuestions invokes fn with the full question list after every
// change to the collection.
func (r *Repo) SubscribeQuestions(fn func([]Question)) func() {
	return r.store.Watch(ColQuestions, func(docs []docstore.Document) {
		questions, err := questionsFromDocs(docs)
		if err != nil {
			slog.Warn("skipping questions notification", "error", err)
			return
		}
		fn(questions)
	})
}
