package catalog

import (
	"context"
	"fmt"
	"log/slog"
)

// SeedSet is the initial data written into an empty store.
type SeedSet struct {
	Subjects    []Subject
	Topics      []Topic
	Questions   []Question
	Predictions []Prediction
}

// SeedInitialData writes the seed set into the store. Idempotent: when the
// subjects collection is non-empty the call is a no-op and returns false.
// Each collection is written as one atomic batch.
func (r *Repo) SeedInitialData(ctx context.Context, data SeedSet) (bool, error) {
	existing, err := r.store.List(ctx, ColSubjects)
	if err != nil {
		return false, fmt.Errorf("check seed state: %w", err)
	}
	if len(existing) > 0 {
		slog.Debug("seed skipped, subjects already present", "count", len(existing))
		return false, nil
	}

	var batch []map[string]any
	add := func(entity any) error {
		fields, err := toFields(entity)
		if err != nil {
			return err
		}
		batch = append(batch, fields)
		return nil
	}
	flush := func(collection string) error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := r.store.BulkCreate(ctx, collection, batch); err != nil {
			return fmt.Errorf("seed %s: %w", collection, err)
		}
		batch = nil
		return nil
	}

	for _, s := range data.Subjects {
		if err := add(s); err != nil {
			return false, err
		}
	}
	if err := flush(ColSubjects); err != nil {
		return false, err
	}

	for _, t := range data.Topics {
		if err := add(t); err != nil {
			return false, err
		}
	}
	if err := flush(ColTopics); err != nil {
		return false, err
	}

	for _, q := range data.Questions {
		if q.SolutionAccess == "" {
			q.SolutionAccess = SolutionAfterAttempt
		}
		if err := add(q); err != nil {
			return false, err
		}
	}
	if err := flush(ColQuestions); err != nil {
		return false, err
	}

	for _, p := range data.Predictions {
		if err := add(normalizePrediction(p)); err != nil {
			return false, err
		}
	}
	if err := flush(ColPredictions); err != nil {
		return false, err
	}

	slog.Info("initial data seeded",
		"subjects", len(data.Subjects),
		"topics", len(data.Topics),
		"questions", len(data.Questions),
		"predictions", len(data.Predictions),
	)
	r.LogEvent(ctx, Event{Name: "seed_initial_data", Payload: map[string]any{
		"subjects": len(data.Subjects),
		"topics":   len(data.Topics),
	}})
	return true, nil
}
