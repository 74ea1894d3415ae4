// Package auth wraps an identity provider behind a session manager that
// caches a single current-user profile synchronized with the users
// collection.
package auth

import "fmt"

// Identity provider error codes.
const (
	CodeUserNotFound    = "user-not-found"
	CodeWrongPassword   = "wrong-password"
	CodeEmailInUse      = "email-already-in-use"
	CodeWeakPassword    = "weak-password"
	CodeInvalidEmail    = "invalid-email"
	CodeTooManyRequests = "too-many-requests"
	codeUnknown         = "unknown"
)

// userMessages maps provider error codes to the fixed user-facing strings.
// Codes without an entry fall through to genericMessage.
var userMessages = map[string]string{
	CodeUserNotFound:    "No account found with this email address.",
	CodeWrongPassword:   "Incorrect password. Please try again.",
	CodeEmailInUse:      "An account already exists with this email address.",
	CodeWeakPassword:    "Password must be at least 8 characters.",
	CodeInvalidEmail:    "Please enter a valid email address.",
	CodeTooManyRequests: "Too many attempts. Please try again later.",
}

const genericMessage = "Something went wrong. Please try again."

// ProviderError is a coded failure from an identity provider.
type ProviderError struct {
	Code string
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth/%s: %v", e.Code, e.Err)
	}
	return "auth/" + e.Code
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Error is a provider failure translated for display. Message is always
// safe to show to the user.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage returns the user-facing string for a provider error code.
func UserMessage(code string) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return genericMessage
}
