package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bece-prep/platform/internal/catalog"
	"github.com/bece-prep/platform/internal/docstore"
)

// State describes how far the Manager has come in resolving the
// initial session.
type State int

const (
	// StateUninitialized means Init has not been called.
	StateUninitialized State = iota
	// StateResolving means the initial session callback is pending.
	StateResolving
	// StateReady means the initial session has been resolved; the
	// Manager stays Ready for its lifetime, signed in or not.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateResolving:
		return "resolving"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ErrAdminExists is returned by CreateInitialAdmin when an admin
// account has already been created.
var ErrAdminExists = errors.New("an admin account already exists")

// Manager ties an IdentityProvider to the user catalog. It resolves
// the current session exactly once at startup, lazily creates a
// profile document for identities that lack one, and keeps a cached
// copy of the signed-in user's profile.
type Manager struct {
	provider IdentityProvider
	repo     *catalog.Repo

	mu      sync.Mutex
	state   State
	current *catalog.User

	resolveOnce sync.Once
	ready       chan struct{}
	initErr     error
	unsubscribe func()
}

// NewManager creates a Manager in the Uninitialized state.
func NewManager(provider IdentityProvider, repo *catalog.Repo) *Manager {
	return &Manager{
		provider: provider,
		repo:     repo,
		ready:    make(chan struct{}),
	}
}

// Init subscribes to session changes and blocks until the initial
// session has been resolved or ctx is done. It is safe to call only
// once.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	if m.state != StateUninitialized {
		m.mu.Unlock()
		return errors.New("auth: already initialized")
	}
	m.state = StateResolving
	m.mu.Unlock()

	m.unsubscribe = m.provider.SessionChanges(func(ident *Identity) {
		m.handleSession(ctx, ident)
	})

	select {
	case <-m.ready:
		return m.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops listening for session changes.
func (m *Manager) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m *Manager) handleSession(ctx context.Context, ident *Identity) {
	var user *catalog.User
	var err error
	if ident != nil {
		user, err = m.ensureProfile(ctx, *ident)
		if err != nil {
			slog.Error("resolve session profile", "identity", ident.ID, "error", err)
		}
	}

	m.mu.Lock()
	m.current = user
	m.state = StateReady
	m.mu.Unlock()

	m.resolveOnce.Do(func() {
		m.initErr = err
		close(m.ready)
	})
}

// ensureProfile returns the profile for ident, creating a default
// student profile when none exists yet.
func (m *Manager) ensureProfile(ctx context.Context, ident Identity) (*catalog.User, error) {
	user, err := m.repo.GetUser(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if user != nil {
		return user, nil
	}

	fresh := catalog.User{
		ID:          ident.ID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        catalog.RoleStudent,
		Preferences: catalog.DefaultPreferences(),
	}
	if err := m.repo.PutUser(ctx, fresh); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	m.repo.LogEvent(ctx, catalog.Event{Name: "profile_created", UserID: ident.ID})
	return m.repo.GetUser(ctx, ident.ID)
}

// SignIn authenticates the credentials, updates the last-login
// timestamp and caches the user's profile. Provider failures come
// back as *Error with a user-presentable message.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*catalog.User, error) {
	ident, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	user, err := m.ensureProfile(ctx, ident)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if err := m.repo.UpdateUser(ctx, user.ID, map[string]any{"lastLoginAt": now}); err != nil {
		slog.Warn("record last login", "user", user.ID, "error", err)
	}
	user, err = m.repo.GetUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}

	m.setCurrent(user)
	m.repo.LogEvent(ctx, catalog.Event{Name: "sign_in", UserID: user.ID})
	return user, nil
}

// Register creates an identity and writes its profile document with the
// caller-supplied fields, then signs the new user in. An empty role
// defaults to student; admin profiles only come from CreateInitialAdmin.
func (m *Manager) Register(ctx context.Context, email, password string, profile catalog.User) (*catalog.User, error) {
	ident, err := m.provider.Register(ctx, email, password, profile.DisplayName)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	profile.ID = ident.ID
	profile.Email = ident.Email
	if profile.Role == catalog.RoleAdmin {
		profile.Role = catalog.RoleStudent
	}
	if err := m.repo.PutUser(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	user, err := m.repo.GetUser(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}

	m.setCurrent(user)
	m.repo.LogEvent(ctx, catalog.Event{Name: "register", UserID: user.ID})
	return user, nil
}

// CreateInitialAdmin provisions the one admin account. It refuses
// when an admin profile already exists, and the underlying write is
// conditional so two concurrent calls cannot both succeed.
func (m *Manager) CreateInitialAdmin(ctx context.Context, email, password, displayName string) (*catalog.User, error) {
	admins, err := m.repo.UsersByRole(ctx, catalog.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("check existing admins: %w", err)
	}
	if len(admins) > 0 {
		return nil, ErrAdminExists
	}

	ident, err := m.provider.Register(ctx, email, password, displayName)
	if err != nil {
		return nil, wrapProviderError(err)
	}

	admin := catalog.User{
		ID:          ident.ID,
		Email:       ident.Email,
		DisplayName: ident.DisplayName,
		Role:        catalog.RoleAdmin,
		Preferences: catalog.DefaultPreferences(),
	}
	if err := m.repo.PutAdminIf(ctx, admin); err != nil {
		if errors.Is(err, docstore.ErrConflict) {
			return nil, ErrAdminExists
		}
		return nil, fmt.Errorf("create admin profile: %w", err)
	}

	user, err := m.repo.GetUser(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("reload admin profile: %w", err)
	}
	m.setCurrent(user)
	m.repo.LogEvent(ctx, catalog.Event{Name: "admin_created", UserID: user.ID})
	return user, nil
}

// UpdateUserProfile applies partial profile fields and keeps the
// provider's display name in sync.
func (m *Manager) UpdateUserProfile(ctx context.Context, id string, fields map[string]any) (*catalog.User, error) {
	if err := m.repo.UpdateUser(ctx, id, fields); err != nil {
		return nil, err
	}

	if name, ok := fields["displayName"].(string); ok {
		if err := m.provider.UpdateDisplayName(ctx, id, name); err != nil {
			slog.Warn("sync display name", "user", id, "error", err)
		}
	}

	user, err := m.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}

	m.mu.Lock()
	if m.current != nil && m.current.ID == id {
		m.current = user
	}
	m.mu.Unlock()
	return user, nil
}

// ResetPassword triggers a password reset for the address.
func (m *Manager) ResetPassword(ctx context.Context, email string) error {
	if err := m.provider.SendPasswordReset(ctx, email); err != nil {
		return wrapProviderError(err)
	}
	return nil
}

// SignOut ends the current session.
func (m *Manager) SignOut(ctx context.Context) error {
	if err := m.provider.SignOut(ctx); err != nil {
		return wrapProviderError(err)
	}
	m.setCurrent(nil)
	return nil
}

// CurrentUser returns the cached profile of the signed-in user, or
// nil when nobody is signed in.
func (m *Manager) CurrentUser() *catalog.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	out := *m.current
	return &out
}

// State reports where the Manager is in its lifecycle.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Manager) setCurrent(user *catalog.User) {
	m.mu.Lock()
	m.current = user
	m.mu.Unlock()
}

func wrapProviderError(err error) error {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return &Error{Code: perr.Code, Message: UserMessage(perr.Code), Err: err}
	}
	return &Error{Code: codeUnknown, Message: genericMessage, Err: err}
}
