// Package state keeps an in-memory aggregate of the whole content
// catalog. Every mutation goes through the repository and is followed
// by a full refresh, so readers always see a consistent snapshot.
package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bece-prep/platform/internal/catalog"
)

// SyncStatus describes the outcome of the most recent refresh.
type SyncStatus string

const (
	SyncIdle    SyncStatus = "idle"
	SyncSyncing SyncStatus = "syncing"
	SyncSuccess SyncStatus = "success"
	SyncError   SyncStatus = "error"
)

// Snapshot is an immutable view of the catalog at one refresh.
type Snapshot struct {
	Subjects    []catalog.Subject    `json:"subjects"`
	Topics      []catalog.Topic      `json:"topics"`
	Questions   []catalog.Question   `json:"questions"`
	Predictions []catalog.Prediction `json:"predictions"`
	LastSync    time.Time            `json:"lastSync"`
}

// Store serves catalog reads from a cached snapshot and refreshes the
// whole snapshot after every write.
type Store struct {
	repo *catalog.Repo

	mu      sync.RWMutex
	snap    Snapshot
	status  SyncStatus
	online  bool
	loading bool
	lastErr error
}

// NewStore wraps repo. The store starts online with an empty snapshot;
// call RefreshData to populate it.
func NewStore(repo *catalog.Repo) *Store {
	return &Store{
		repo:   repo,
		status: SyncIdle,
		online: true,
	}
}

// RefreshData reloads all four collections and atomically replaces the
// snapshot. On failure the previous snapshot is left untouched and the
// status reports the error.
func (s *Store) RefreshData(ctx context.Context) error {
	s.mu.Lock()
	s.status = SyncSyncing
	s.loading = true
	s.mu.Unlock()

	var (
		wg          sync.WaitGroup
		subjects    []catalog.Subject
		topics      []catalog.Topic
		questions   []catalog.Question
		predictions []catalog.Prediction
		errs        [4]error
	)
	wg.Add(4)
	go func() { defer wg.Done(); subjects, errs[0] = s.repo.ListSubjects(ctx) }()
	go func() { defer wg.Done(); topics, errs[1] = s.repo.ListTopics(ctx) }()
	go func() { defer wg.Done(); questions, errs[2] = s.repo.ListQuestions(ctx) }()
	go func() { defer wg.Done(); predictions, errs[3] = s.repo.ListPredictions(ctx) }()
	wg.Wait()

	var err error
	for _, e := range errs {
		if e != nil {
			err = e
			break
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.status = SyncError
		s.lastErr = err
		return err
	}
	s.snap = Snapshot{
		Subjects:    subjects,
		Topics:      topics,
		Questions:   questions,
		Predictions: predictions,
		LastSync:    time.Now().UTC(),
	}
	s.status = SyncSuccess
	s.lastErr = nil
	return nil
}

// refresh runs RefreshData after a successful mutation. Refresh
// failures do not fail the mutation; the sync status carries them.
func (s *Store) refresh(ctx context.Context) {
	if err := s.RefreshData(ctx); err != nil {
		slog.Warn("refresh after mutation", "error", err)
	}
}

// Snapshot returns the current cached view.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Status reports the outcome of the latest refresh.
func (s *Store) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Loading reports whether a refresh is in flight.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError returns the error from the latest failed refresh, or nil.
func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Online reports connectivity as set by SetOnline.
func (s *Store) Online() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

// SetOnline records backend connectivity, typically from health checks.
func (s *Store) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

func (s *Store) CreateSubject(ctx context.Context, subject catalog.Subject) (string, error) {
	id, err := s.repo.CreateSubject(ctx, subject)
	if err != nil {
		return "", err
	}
	s.refresh(ctx)
	return id, nil
}

func (s *Store) UpdateSubject(ctx context.Context, id string, fields map[string]any) error {
	if err := s.repo.UpdateSubject(ctx, id, fields); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) DeleteSubject(ctx context.Context, id string) error {
	if err := s.repo.DeleteSubject(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) CreateTopic(ctx context.Context, topic catalog.Topic) (string, error) {
	id, err := s.repo.CreateTopic(ctx, topic)
	if err != nil {
		return "", err
	}
	s.refresh(ctx)
	return id, nil
}

func (s *Store) UpdateTopic(ctx context.Context, id string, fields map[string]any) error {
	if err := s.repo.UpdateTopic(ctx, id, fields); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) DeleteTopic(ctx context.Context, id string) error {
	if err := s.repo.DeleteTopic(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) CreateQuestion(ctx context.Context, question catalog.Question) (string, error) {
	id, err := s.repo.CreateQuestion(ctx, question)
	if err != nil {
		return "", err
	}
	s.refresh(ctx)
	return id, nil
}

// CreateQuestions inserts a batch atomically, then refreshes once.
func (s *Store) CreateQuestions(ctx context.Context, questions []catalog.Question) ([]string, error) {
	ids, err := s.repo.CreateQuestions(ctx, questions)
	if err != nil {
		return nil, err
	}
	s.refresh(ctx)
	return ids, nil
}

func (s *Store) UpdateQuestion(ctx context.Context, id string, fields map[string]any) error {
	if err := s.repo.UpdateQuestion(ctx, id, fields); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	if err := s.repo.DeleteQuestion(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) CreatePrediction(ctx context.Context, prediction catalog.Prediction) (string, error) {
	id, err := s.repo.CreatePrediction(ctx, prediction)
	if err != nil {
		return "", err
	}
	s.refresh(ctx)
	return id, nil
}

func (s *Store) UpdatePrediction(ctx context.Context, id string, fields map[string]any) error {
	if err := s.repo.UpdatePrediction(ctx, id, fields); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}

func (s *Store) DeletePrediction(ctx context.Context, id string) error {
	if err := s.repo.DeletePrediction(ctx, id); err != nil {
		return err
	}
	s.refresh(ctx)
	return nil
}
