package catalog_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bece-prep/platform/internal/catalog"
	"github.com/bece-prep/platform/internal/docstore"
)

func newRepo(t *testing.T) *catalog.Repo {
	t.Helper()
	schemas, err := catalog.Schemas()
	if err != nil {
		t.Fatalf("Schemas() error = %v", err)
	}
	return catalog.New(docstore.NewMemoryStoreWithSchemas(schemas), nil)
}

func TestSubject_RoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	id, err := repo.CreateSubject(ctx, catalog.Subject{
		Name:        "Mathematics",
		Description: "Core mathematics",
		Icon:        "📐",
		Color:       "blue",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}

	got, err := repo.GetSubject(ctx, id)
	if err != nil {
		t.Fatalf("GetSubject() error = %v", err)
	}
	if got == nil {
		t.Fatal("GetSubject() returned nil")
	}
	if got.Name != "Mathematics" || got.Color != "blue" || !got.Active {
		t.Errorf("GetSubject() = %+v, caller fields should round-trip", got)
	}

	created, err := time.Parse(time.RFC3339, got.CreatedAt)
	if err != nil {
		t.Fatalf("CreatedAt %q is not RFC 3339: %v", got.CreatedAt, err)
	}
	updated, err := time.Parse(time.RFC3339, got.UpdatedAt)
	if err != nil {
		t.Fatalf("UpdatedAt %q is not RFC 3339: %v", got.UpdatedAt, err)
	}
	if updated.Before(created) {
		t.Errorf("UpdatedAt %v before CreatedAt %v", updated, created)
	}
}

func TestSubject_GetAbsentIsNil(t *testing.T) {
	repo := newRepo(t)

	got, err := repo.GetSubject(t.Context(), "missing")
	if err != nil {
		t.Fatalf("GetSubject() error = %v, absence must not be an error", err)
	}
	if got != nil {
		t.Errorf("GetSubject() = %+v, want nil", got)
	}
}

func TestSubject_CreateIgnoresCallerIDAndTimestamps(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	id, err := repo.CreateSubject(ctx, catalog.Subject{
		ID:        "my-own-id",
		Name:      "Science",
		CreatedAt: "1999-01-01T00:00:00Z",
		UpdatedAt: "1999-01-01T00:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateSubject() error = %v", err)
	}
	if id == "my-own-id" {
		t.Error("store must assign the id, not the caller")
	}

	got, _ := repo.GetSubject(ctx, id)
	if got.CreatedAt == "1999-01-01T00:00:00Z" {
		t.Error("store must assign timestamps, not the caller")
	}
}

func TestTopic_QueryBySubject(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	for _, tc := range []struct {
		name      string
		subjectID string
	}{
		{"Algebraic Expressions", "mathematics"},
		{"Geometry and Mensuration", "mathematics"},
		{"Comprehension", "english-language"},
	} {
		if _, err := repo.CreateTopic(ctx, catalog.Topic{Name: tc.name, SubjectID: tc.subjectID, Active: true}); err != nil {
			t.Fatalf("CreateTopic(%s) error = %v", tc.name, err)
		}
	}

	topics, err := repo.TopicsBySubject(ctx, "mathematics")
	if err != nil {
		t.Fatalf("TopicsBySubject() error = %v", err)
	}
	if len(topics) != 2 {
		t.Errorf("TopicsBySubject() = %d topics, want 2", len(topics))
	}
}

func TestTopic_SchemaRejectsMissingSubject(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.CreateTopic(t.Context(), catalog.Topic{Name: "Orphan"})
	var verr *docstore.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("CreateTopic() error = %v, want ValidationError", err)
	}
}

func TestQuestion_BatchCreateAtomic(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	_, err := repo.CreateQuestions(ctx, []catalog.Question{
		{Prompt: "ok", TopicID: "t1", SubjectID: "s1", Type: catalog.QuestionShortAnswer},
		{Prompt: "", TopicID: "t1", SubjectID: "s1", Type: catalog.QuestionShortAnswer},
	})
	if err == nil {
		t.Fatal("CreateQuestions() with an invalid question should fail")
	}

	questions, _ := repo.ListQuestions(ctx)
	if len(questions) != 0 {
		t.Errorf("questions = %d after failed batch, want 0", len(questions))
	}
}

func TestQuestion_SolutionAccessDefault(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	id, err := repo.CreateQuestion(ctx, catalog.Question{
		Prompt:    "What is 2+2?",
		TopicID:   "t1",
		SubjectID: "s1",
		Type:      catalog.QuestionShortAnswer,
	})
	if err != nil {
		t.Fatalf("CreateQuestion() error = %v", err)
	}

	got, _ := repo.GetQuestion(ctx, id)
	if got.SolutionAccess != catalog.SolutionAfterAttempt {
		t.Errorf("SolutionAccess = %q, want default %q", got.SolutionAccess, catalog.SolutionAfterAttempt)
	}
}

func TestPrediction_TopicReferencesStayConsistent(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	id, err := repo.CreatePrediction(ctx, catalog.Prediction{
		Title:     "Algebra likely",
		SubjectID: "mathematics",
		TopicIDs:  []string{"algebra", "equations"},
	})
	if err != nil {
		t.Fatalf("CreatePrediction() error = %v", err)
	}

	got, _ := repo.GetPrediction(ctx, id)
	if got.TopicID != "algebra" {
		t.Errorf("TopicID = %q, want first of TopicIDs", got.TopicID)
	}

	// Updating the list rewrites the singular mirror.
	if err := repo.UpdatePrediction(ctx, id, map[string]any{"topicIds": []string{"geometry"}}); err != nil {
		t.Fatalf("UpdatePrediction() error = %v", err)
	}
	got, _ = repo.GetPrediction(ctx, id)
	if got.TopicID != "geometry" || len(got.TopicIDs) != 1 {
		t.Errorf("after update: TopicID = %q, TopicIDs = %v; want geometry mirror", got.TopicID, got.TopicIDs)
	}

	// A lone singular reference is promoted into the list.
	id2, err := repo.CreatePrediction(ctx, catalog.Prediction{
		Title:     "Statistics likely",
		SubjectID: "mathematics",
		TopicID:   "statistics",
	})
	if err != nil {
		t.Fatalf("CreatePrediction() error = %v", err)
	}
	got2, _ := repo.GetPrediction(ctx, id2)
	if len(got2.TopicIDs) != 1 || got2.TopicIDs[0] != "statistics" {
		t.Errorf("TopicIDs = %v, want [statistics]", got2.TopicIDs)
	}
}

func TestPrediction_EmptyingTopicListClearsMirror(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	id, err := repo.CreatePrediction(ctx, catalog.Prediction{
		Title:     "Algebra likely",
		SubjectID: "mathematics",
		TopicIDs:  []string{"algebra"},
	})
	if err != nil {
		t.Fatalf("CreatePrediction() error = %v", err)
	}

	if err := repo.UpdatePrediction(ctx, id, map[string]any{"topicIds": []string{}}); err != nil {
		t.Fatalf("UpdatePrediction() error = %v", err)
	}
	got, _ := repo.GetPrediction(ctx, id)
	if len(got.TopicIDs) != 0 || got.TopicID != "" {
		t.Errorf("after emptying list: TopicID = %q, TopicIDs = %v; want both empty", got.TopicID, got.TopicIDs)
	}

	// Clearing via the singular field empties the list too.
	if err := repo.UpdatePrediction(ctx, id, map[string]any{"topicId": "algebra"}); err != nil {
		t.Fatalf("UpdatePrediction() error = %v", err)
	}
	if err := repo.UpdatePrediction(ctx, id, map[string]any{"topicId": ""}); err != nil {
		t.Fatalf("UpdatePrediction() error = %v", err)
	}
	got, _ = repo.GetPrediction(ctx, id)
	if len(got.TopicIDs) != 0 || got.TopicID != "" {
		t.Errorf("after clearing singular: TopicID = %q, TopicIDs = %v; want both empty", got.TopicID, got.TopicIDs)
	}
}

func TestUser_LanguageCanonicalized(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	err := repo.PutUser(ctx, catalog.User{
		ID:    "uid-1",
		Email: "ama@example.com",
		Role:  catalog.RoleStudent,
		Preferences: catalog.Preferences{
			Theme:    "dark",
			Language: "EN-us",
		},
	})
	if err != nil {
		t.Fatalf("PutUser() error = %v", err)
	}

	got, _ := repo.GetUser(ctx, "uid-1")
	if got.Preferences.Language != "en-US" {
		t.Errorf("Language = %q, want canonical en-US", got.Preferences.Language)
	}

	// Garbage tags fall back to English.
	_ = repo.PutUser(ctx, catalog.User{
		ID:          "uid-2",
		Email:       "kofi@example.com",
		Role:        catalog.RoleStudent,
		Preferences: catalog.Preferences{Theme: "light", Language: "???"},
	})
	got2, _ := repo.GetUser(ctx, "uid-2")
	if got2.Preferences.Language != "en" {
		t.Errorf("Language = %q, want fallback en", got2.Preferences.Language)
	}
}

func TestUser_ByEmail(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	_ = repo.PutUser(ctx, catalog.User{ID: "uid-1", Email: "ama@example.com", Role: catalog.RoleStudent})

	got, err := repo.UserByEmail(ctx, "ama@example.com")
	if err != nil {
		t.Fatalf("UserByEmail() error = %v", err)
	}
	if got == nil || got.ID != "uid-1" {
		t.Errorf("UserByEmail() = %+v, want uid-1", got)
	}

	missing, err := repo.UserByEmail(ctx, "nobody@example.com")
	if err != nil || missing != nil {
		t.Errorf("UserByEmail(absent) = (%+v, %v), want (nil, nil)", missing, err)
	}
}

func TestUser_PutAdminIf(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	if err := repo.PutAdminIf(ctx, catalog.User{ID: "uid-1", Email: "head@example.com"}); err != nil {
		t.Fatalf("PutAdminIf() error = %v", err)
	}

	err := repo.PutAdminIf(ctx, catalog.User{ID: "uid-2", Email: "second@example.com"})
	if !errors.Is(err, docstore.ErrConflict) {
		t.Errorf("second PutAdminIf() error = %v, want ErrConflict", err)
	}

	users, _ := repo.ListUsers(ctx)
	if len(users) != 1 {
		t.Errorf("users = %d, rejected admin must not be persisted", len(users))
	}
}

func TestLogEvent_NeverPropagatesFailure(t *testing.T) {
	repo := catalog.New(docstore.NewMemoryStore(), failingLogger{})

	// Must not panic or surface the failure in any way.
	repo.LogEvent(t.Context(), catalog.Event{Name: "page_view", Payload: map[string]any{"page": "dashboard"}})
}

func TestStoreEventLogger(t *testing.T) {
	store := docstore.NewMemoryStore()
	logger := catalog.NewStoreEventLogger(store)
	ctx := t.Context()

	if err := logger.LogEvent(ctx, catalog.Event{Name: "quiz_completed", UserID: "uid-1"}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
	if err := logger.LogEvent(ctx, catalog.Event{}); err == nil {
		t.Error("LogEvent() without a name should fail")
	}

	docs, _ := store.List(ctx, catalog.ColAnalytics)
	if len(docs) != 1 {
		t.Fatalf("analytics documents = %d, want 1", len(docs))
	}
	if docs[0].Data["name"] != "quiz_completed" {
		t.Errorf("event name = %v, want quiz_completed", docs[0].Data["name"])
	}
}

func TestSubscribeTopics(t *testing.T) {
	repo := newRepo(t)
	ctx := t.Context()

	var last []catalog.Topic
	cancel := repo.SubscribeTopics(func(topics []catalog.Topic) { last = topics })
	defer cancel()

	if _, err := repo.CreateTopic(ctx, catalog.Topic{Name: "Algebra", SubjectID: "mathematics"}); err != nil {
		t.Fatalf("CreateTopic() error = %v", err)
	}
	if len(last) != 1 || last[0].Name != "Algebra" {
		t.Errorf("subscription saw %+v, want the created topic", last)
	}
}

type failingLogger struct{}

func (failingLogger) LogEvent(context.Context, catalog.Event) error {
	return errors.New("analytics backend down")
}
