package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bece-prep/platform/internal/docstore"
)

func predictionFromDoc(doc docstore.Document) (Prediction, error) {
	var p Prediction
	if err := decodeDoc(doc, &p); err != nil {
		return Prediction{}, err
	}
	p.ID = doc.ID
	p.CreatedAt = isoTime(doc.CreatedAt)
	p.UpdatedAt = isoTime(doc.UpdatedAt)
	return p, nil
}

func predictionsFromDocs(docs []docstore.Document) ([]Prediction, error) {
	predictions := make([]Prediction, 0, len(docs))
	for _, doc := range docs {
		p, err := predictionFromDoc(doc)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, nil
}

// normalizePrediction keeps the dual topic-reference fields consistent:
// TopicIDs is authoritative, TopicID mirrors its first element. A lone
// TopicID is promoted into TopicIDs.
func normalizePrediction(p Prediction) Prediction {
	if len(p.TopicIDs) == 0 && p.TopicID != "" {
		p.TopicIDs = []string{p.TopicID}
	}
	if len(p.TopicIDs) > 0 {
		p.TopicID = p.TopicIDs[0]
	}
	return p
}

// normalizePredictionFields applies the same rule to a partial update.
// When the update carries topicIds, the singular mirror is rewritten from
// it, including to empty when the list is emptied.
func normalizePredictionFields(fields map[string]any) map[string]any {
	if raw, ok := fields["topicIds"]; ok {
		switch ids := raw.(type) {
		case []any:
			if len(ids) > 0 {
				fields["topicId"] = ids[0]
				return fields
			}
		case []string:
			if len(ids) > 0 {
				fields["topicId"] = ids[0]
				return fields
			}
		}
		fields["topicId"] = ""
		return fields
	}
	if id, ok := fields["topicId"].(string); ok {
		if id == "" {
			fields["topicIds"] = []string{}
		} else {
			fields["topicIds"] = []string{id}
		}
	}
	return fields
}

// ListPredictions returns all predictions in store order.
func (r *Repo) ListPredictions(ctx context.Context) ([]Prediction, error) {
	docs, err := r.store.List(ctx, ColPredictions)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	return predictionsFromDocs(docs)
}

// PredictionsBySubject returns all predictions for a subject.
func (r *Repo) PredictionsBySubject(ctx context.Context, subjectID string) ([]Prediction, error) {
	docs, err := r.store.Query(ctx, ColPredictions, "subjectId", subjectID)
	if err != nil {
		return nil, fmt.Errorf("predictions by subject %s: %w", subjectID, err)
	}
	return predictionsFromDocs(docs)
}

// GetPrediction returns a prediction by id, or nil when absent.
func (r *Repo) GetPrediction(ctx context.Context, id string) (*Prediction, error) {
	doc, err := r.store.Get(ctx, ColPredictions, id)
	if err != nil {
		return nil, fmt.Errorf("get prediction %s: %w", id, err)
	}
	if doc == nil {
		return nil, nil
	}
	p, err := predictionFromDoc(*doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePrediction writes a new prediction and returns its generated id.
func (r *Repo) CreatePrediction(ctx context.Context, p Prediction) (string, error) {
	fields, err := toFields(normalizePrediction(p))
	if err != nil {
		return "", err
	}
	id, err := r.store.Create(ctx, ColPredictions, fields)
	if err != nil {
		return "", fmt.Errorf("create prediction: %w", err)
	}
	return id, nil
}

// UpdatePrediction merges the given fields into an existing prediction,
// re-normalizing the topic-reference pair.
func (r *Repo) UpdatePrediction(ctx context.Context, id string, fields map[string]any) error {
	if err := r.store.Update(ctx, ColPredictions, id, normalizePredictionFields(fields)); err != nil {
		return fmt.Errorf("update prediction: %w", err)
	}
	return nil
}

// DeletePrediction removes a prediction.
func (r *Repo) DeletePrediction(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, ColPredictions, id); err != nil {
		return fmt.Errorf("delete prediction: %w", err)
	}
	return nil
}

// SubscribePredictions invokes fn with the full prediction list after every
// change to the collection.
func (r *Repo) SubscribePredictions(fn func([]Prediction)) func() {
	return r.store.Watch(ColPredictions, func(docs []docstore.Document) {
		predictions, err := predictionsFromDocs(docs)
		if err != nil {
			slog.Warn("skipping predictions notification", "error", err)
			return
		}
		fn(predictions)
	})
}
