package auth

import "context"

// Identity is an authenticated principal as the provider sees it, before
// any user profile is attached.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// IdentityProvider is the identity backend contract: email/password
// credentials plus a session-change stream.
type IdentityProvider interface {
	// SignIn authenticates the credentials and makes the identity current.
	SignIn(ctx context.Context, email, password string) (Identity, error)

	// Register creates a new identity, sets its display name and makes it
	// current.
	Register(ctx context.Context, email, password, displayName string) (Identity, error)

	// UpdateDisplayName changes the display name stored with the identity.
	UpdateDisplayName(ctx context.Context, id, displayName string) error

	// SendPasswordReset starts a password reset for the email.
	SendPasswordReset(ctx context.Context, email string) error

	// SignOut clears the current identity.
	SignOut(ctx context.Context) error

	// SessionChanges registers fn on the session-change stream. fn is
	// invoked once immediately with the current identity (nil when signed
	// out) and again after every sign-in or sign-out. The returned cancel
	// func unregisters it.
	SessionChanges(fn func(*Identity)) (cancel func())
}
