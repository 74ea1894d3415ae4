package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bece-prep/platform/internal/auth"
	"github.com/bece-prep/platform/internal/catalog"
	"github.com/bece-prep/platform/internal/docstore"
	"github.com/bece-prep/platform/internal/export"
	"github.com/bece-prep/platform/internal/realtime"
	"github.com/bece-prep/platform/internal/state"
)

// app bundles the services the HTTP handlers depend on.
type app struct {
	repo     *catalog.Repo
	store    docstore.Store
	manager  *auth.Manager
	sessions *auth.SessionStore
	state    *state.Store
	health   map[string]func(context.Context) error
}

// newMux creates the HTTP router.
func newMux(a *app) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", a.handleHealthz)
	mux.HandleFunc("GET /readyz", a.handleReadyz)

	mux.HandleFunc("POST /v1/auth/register", a.handleRegister)
	mux.HandleFunc("POST /v1/auth/signin", a.handleSignIn)
	mux.HandleFunc("POST /v1/auth/signout", a.handleSignOut)
	mux.HandleFunc("POST /v1/auth/reset", a.handleResetPassword)
	mux.HandleFunc("POST /v1/auth/admin/init", a.handleInitAdmin)
	mux.HandleFunc("GET /v1/me", a.handleMe)
	mux.HandleFunc("PATCH /v1/me", a.handleUpdateProfile)

	mux.HandleFunc("GET /v1/state", a.handleState)
	mux.HandleFunc("GET /v1/export/questions.xlsx", a.handleExportQuestions)
	mux.Handle("GET /v1/subscribe", realtime.NewHandler(a.store,
		catalog.ColSubjects, catalog.ColTopics, catalog.ColQuestions, catalog.ColPredictions))

	mux.HandleFunc("POST /v1/subjects", a.handleCreateSubject)
	mux.HandleFunc("PATCH /v1/subjects/{id}", a.handleUpdate(a.state.UpdateSubject))
	mux.HandleFunc("DELETE /v1/subjects/{id}", a.handleDelete(a.state.DeleteSubject))

	mux.HandleFunc("POST /v1/topics", a.handleCreateTopic)
	mux.HandleFunc("PATCH /v1/topics/{id}", a.handleUpdate(a.state.UpdateTopic))
	mux.HandleFunc("DELETE /v1/topics/{id}", a.handleDelete(a.state.DeleteTopic))

	mux.HandleFunc("POST /v1/questions", a.handleCreateQuestion)
	mux.HandleFunc("POST /v1/questions/batch", a.handleCreateQuestionBatch)
	mux.HandleFunc("PATCH /v1/questions/{id}", a.handleUpdate(a.state.UpdateQuestion))
	mux.HandleFunc("DELETE /v1/questions/{id}", a.handleDelete(a.state.DeleteQuestion))

	mux.HandleFunc("POST /v1/predictions", a.handleCreatePrediction)
	mux.HandleFunc("PATCH /v1/predictions/{id}", a.handleUpdate(a.state.UpdatePrediction))
	mux.HandleFunc("DELETE /v1/predictions/{id}", a.handleDelete(a.state.DeletePrediction))

	return mux
}

func (a *app) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *app) handleReadyz(w http.ResponseWriter, r *http.Request) {
	failed := a.runHealthChecks(r.Context())
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"failed": failed,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// runHealthChecks probes every dependency and feeds the result into
// the state store's online flag.
func (a *app) runHealthChecks(ctx context.Context) []string {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var failed []string
	for name, check := range a.health {
		if err := check(ctx); err != nil {
			slog.Warn("health check failed", "dependency", name, "error", err)
			failed = append(failed, name)
		}
	}
	a.state.SetOnline(len(failed) == 0)
	return failed
}

func (a *app) monitorHealth(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.runHealthChecks(ctx)
		}
	}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	School      string `json:"school"`
	Grade       string `json:"grade"`
}

type sessionResponse struct {
	User  *catalog.User `json:"user"`
	Token string        `json:"token,omitempty"`
}

func (a *app) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := a.manager.Register(r.Context(), req.Email, req.Password, catalog.User{
		DisplayName: req.DisplayName,
		Role:        catalog.Role(req.Role),
		School:      req.School,
		Grade:       req.Grade,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	a.respondWithSession(w, r, http.StatusCreated, user)
}

func (a *app) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := a.manager.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	a.respondWithSession(w, r, http.StatusOK, user)
}

func (a *app) respondWithSession(w http.ResponseWriter, r *http.Request, status int, user *catalog.User) {
	token, err := a.sessions.Issue(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, sessionResponse{User: user, Token: token})
}

func (a *app) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if token := bearerToken(r); token != "" {
		if err := a.sessions.Revoke(r.Context(), token); err != nil {
			slog.Warn("revoke session", "error", err)
		}
	}
	if err := a.manager.SignOut(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := a.manager.ResetPassword(r.Context(), req.Email); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *app) handleInitAdmin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	user, err := a.manager.CreateInitialAdmin(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	a.respondWithSession(w, r, http.StatusCreated, user)
}

// currentUser resolves the bearer token to a user profile.
func (a *app) currentUser(r *http.Request) (*catalog.User, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, auth.ErrSessionNotFound
	}
	id, err := a.sessions.Lookup(r.Context(), token)
	if err != nil {
		return nil, err
	}
	user, err := a.repo.GetUser(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, auth.ErrSessionNotFound
	}
	return user, nil
}

func (a *app) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (a *app) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := a.currentUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var fields map[string]any
	if !decodeBody(w, r, &fields) {
		return
	}
	// Self-service updates cannot touch the account's identity or role.
	for _, k := range []string{"id", "email", "role"} {
		delete(fields, k)
	}
	updated, err := a.manager.UpdateUserProfile(r.Context(), user.ID, fields)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type stateResponse struct {
	state.Snapshot
	SyncStatus state.SyncStatus `json:"syncStatus"`
	IsOnline   bool             `json:"isOnline"`
	IsLoading  bool             `json:"isLoading"`
}

func (a *app) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{
		Snapshot:   a.state.Snapshot(),
		SyncStatus: a.state.Status(),
		IsOnline:   a.state.Online(),
		IsLoading:  a.state.Loading(),
	})
}

func (a *app) handleExportQuestions(w http.ResponseWriter, r *http.Request) {
	snap := a.state.Snapshot()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="questions.xlsx"`)
	if err := export.Write(w, snap.Subjects, snap.Topics, snap.Questions); err != nil {
		slog.Error("export questions", "error", err)
	}
}

func (a *app) handleCreateSubject(w http.ResponseWriter, r *http.Request) {
	var subject catalog.Subject
	if !decodeBody(w, r, &subject) {
		return
	}
	id, err := a.state.CreateSubject(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleCreateTopic(w http.ResponseWriter, r *http.Request) {
	var topic catalog.Topic
	if !decodeBody(w, r, &topic) {
		return
	}
	id, err := a.state.CreateTopic(r.Context(), topic)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var question catalog.Question
	if !decodeBody(w, r, &question) {
		return
	}
	id, err := a.state.CreateQuestion(r.Context(), question)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleCreateQuestionBatch(w http.ResponseWriter, r *http.Request) {
	var questions []catalog.Question
	if !decodeBody(w, r, &questions) {
		return
	}
	ids, err := a.state.CreateQuestions(r.Context(), questions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ids": ids})
}

func (a *app) handleCreatePrediction(w http.ResponseWriter, r *http.Request) {
	var prediction catalog.Prediction
	if !decodeBody(w, r, &prediction) {
		return
	}
	id, err := a.state.CreatePrediction(r.Context(), prediction)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (a *app) handleUpdate(update func(context.Context, string, map[string]any) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var fields map[string]any
		if !decodeBody(w, r, &fields) {
			return
		}
		if err := update(r.Context(), r.PathValue("id"), fields); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *app) handleDelete(remove func(context.Context, string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := remove(r.Context(), r.PathValue("id")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return ""
	}
	return strings.TrimSpace(token)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps service errors onto HTTP statuses and a safe body.
func writeError(w http.ResponseWriter, err error) {
	var aerr *auth.Error
	switch {
	case errors.As(err, &aerr):
		status := http.StatusBadRequest
		if aerr.Code == auth.CodeWrongPassword || aerr.Code == auth.CodeUserNotFound {
			status = http.StatusUnauthorized
		}
		writeJSON(w, status, map[string]string{"error": aerr.Message, "code": aerr.Code})
	case errors.Is(err, auth.ErrAdminExists):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, auth.ErrSessionNotFound):
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired session"})
	case errors.Is(err, docstore.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, docstore.ErrConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict"})
	default:
		var verr *docstore.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    "validation failed",
				"problems": verr.Problems,
			})
			return
		}
		slog.Error("request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
