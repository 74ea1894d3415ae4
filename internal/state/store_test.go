package state

import (
	"context"
	"errors"
	"testing"

	"github.com/bece-prep/platform/internal/catalog"
	"github.com/bece-prep/platform/internal/docstore"
)

// flakyStore fails List calls on demand so refresh failures can be
// driven from tests.
type flakyStore struct {
	docstore.Store
	failList bool
}

var errListDown = errors.New("list unavailable")

func (f *flakyStore) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	if f.failList {
		return nil, errListDown
	}
	return f.Store.List(ctx, collection)
}

func newTestStore(t *testing.T) (*Store, *flakyStore, *catalog.Repo) {
	t.Helper()
	flaky := &flakyStore{Store: docstore.NewMemoryStore()}
	repo := catalog.New(flaky, nil)
	return NewStore(repo), flaky, repo
}

func TestStoreInitialRefresh(t *testing.T) {
	ctx := t.Context()
	store, _, repo := newTestStore(t)

	if got := store.Status(); got != SyncIdle {
		t.Fatalf("Status() before refresh = %q, want %q", got, SyncIdle)
	}

	if _, err := repo.CreateSubject(ctx, catalog.Subject{Name: "Mathematics", Active: true}); err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	if err := store.RefreshData(ctx); err != nil {
		t.Fatalf("RefreshData() error = %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Subjects) != 1 {
		t.Errorf("snapshot subjects = %d, want 1", len(snap.Subjects))
	}
	if snap.LastSync.IsZero() {
		t.Error("snapshot LastSync not set")
	}
	if got := store.Status(); got != SyncSuccess {
		t.Errorf("Status() = %q, want %q", got, SyncSuccess)
	}
	if store.Loading() {
		t.Error("Loading() = true after refresh completed")
	}
}

func TestStoreMutationsRefreshSnapshot(t *testing.T) {
	ctx := t.Context()
	store, _, _ := newTestStore(t)

	subjectID, err := store.CreateSubject(ctx, catalog.Subject{Name: "Science", Active: true})
	if err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	if got := len(store.Snapshot().Subjects); got != 1 {
		t.Fatalf("subjects after create = %d, want 1", got)
	}

	topicID, err := store.CreateTopic(ctx, catalog.Topic{SubjectID: subjectID, Name: "Photosynthesis"})
	if err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	if got := len(store.Snapshot().Topics); got != 1 {
		t.Fatalf("topics after create = %d, want 1", got)
	}

	if err := store.UpdateTopic(ctx, topicID, map[string]any{"name": "Respiration"}); err != nil {
		t.Fatalf("UpdateTopic() error = %v", err)
	}
	if got := store.Snapshot().Topics[0].Name; got != "Respiration" {
		t.Errorf("topic name after update = %q, want %q", got, "Respiration")
	}

	if err := store.DeleteTopic(ctx, topicID); err != nil {
		t.Fatalf("DeleteTopic() error = %v", err)
	}
	if got := len(store.Snapshot().Topics); got != 0 {
		t.Errorf("topics after delete = %d, want 0", got)
	}
}

func TestStoreBatchCreateRefreshesOnce(t *testing.T) {
	ctx := t.Context()
	store, _, _ := newTestStore(t)

	subjectID, err := store.CreateSubject(ctx, catalog.Subject{Name: "English", Active: true})
	if err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	topicID, err := store.CreateTopic(ctx, catalog.Topic{SubjectID: subjectID, Name: "Comprehension"})
	if err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}

	ids, err := store.CreateQuestions(ctx, []catalog.Question{
		{SubjectID: subjectID, TopicID: topicID, Prompt: "Q1", Type: catalog.QuestionMultipleChoice},
		{SubjectID: subjectID, TopicID: topicID, Prompt: "Q2", Type: catalog.QuestionMultipleChoice},
	})
	if err != nil {
		t.Fatalf("CreateQuestions() error = %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("CreateQuestions() ids = %d, want 2", len(ids))
	}
	if got := len(store.Snapshot().Questions); got != 2 {
		t.Errorf("questions in snapshot = %d, want 2", got)
	}
}

func TestStoreRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	ctx := t.Context()
	store, flaky, _ := newTestStore(t)

	if _, err := store.CreateSubject(ctx, catalog.Subject{Name: "Social Studies", Active: true}); err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	before := store.Snapshot()

	flaky.failList = true
	if err := store.RefreshData(ctx); !errors.Is(err, errListDown) {
		t.Fatalf("RefreshData() error = %v, want %v", err, errListDown)
	}

	if got := store.Status(); got != SyncError {
		t.Errorf("Status() = %q, want %q", got, SyncError)
	}
	if !errors.Is(store.LastError(), errListDown) {
		t.Errorf("LastError() = %v, want %v", store.LastError(), errListDown)
	}

	after := store.Snapshot()
	if len(after.Subjects) != len(before.Subjects) || !after.LastSync.Equal(before.LastSync) {
		t.Error("failed refresh replaced the previous snapshot")
	}

	// Recovery clears the error state.
	flaky.failList = false
	if err := store.RefreshData(ctx); err != nil {
		t.Fatalf("RefreshData() after recovery error = %v", err)
	}
	if got := store.Status(); got != SyncSuccess {
		t.Errorf("Status() after recovery = %q, want %q", got, SyncSuccess)
	}
	if store.LastError() != nil {
		t.Errorf("LastError() after recovery = %v, want nil", store.LastError())
	}
}

func TestStoreMutationErrorSkipsRefresh(t *testing.T) {
	ctx := t.Context()
	store, _, _ := newTestStore(t)

	if err := store.UpdateSubject(ctx, "missing", map[string]any{"name": "X"}); err == nil {
		t.Fatal("UpdateSubject(missing) error = nil, want not found")
	}
	if got := store.Status(); got != SyncIdle {
		t.Errorf("Status() after failed mutation = %q, want %q", got, SyncIdle)
	}
}

func TestStoreSetOnline(t *testing.T) {
	store, _, _ := newTestStore(t)

	if !store.Online() {
		t.Fatal("Online() = false, want true initially")
	}
	store.SetOnline(false)
	if store.Online() {
		t.Error("Online() = true after SetOnline(false)")
	}
	store.SetOnline(true)
	if !store.Online() {
		t.Error("Online() = false after SetOnline(true)")
	}
}
