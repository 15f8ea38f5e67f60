// Package auth implements the session and authorization core: credential
// verification, session grants, the per-request user context, and the
// permission-level guard.
package auth

import (
	"context"
	"errors"
)

// Errors surfaced by the authentication and authorization layer. Handlers
// resolve each of these to a user-visible notice and a redirect; anything
// else is a store failure and surfaces as a 500.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrInsufficientLevel  = errors.New("insufficient permission level")
	ErrNotInvolved        = errors.New("not involved in that project")
	ErrInsufficientRank   = errors.New("insufficient rank for this project")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrPasswordRequired   = errors.New("password is required")
	ErrNotFound           = errors.New("not found")
)

// User is the request-scoped view of the authenticated user, loaded once per
// request by the LoadUser middleware.
type User struct {
	UID       int64
	Firstname string
	Lastname  string
	Email     string
	Level     int
	MustReset bool
}

// Credentials is the minimal record needed to verify a login attempt.
type Credentials struct {
	UID          int64
	Firstname    string
	Lastname     string
	PasswordHash string
}

// Grant is the result of a successful authentication.
type Grant struct {
	UID   int64
	Token string
	// MustResetPassword is set when the verified password matches the
	// auto-generated initial form. It never bypasses hash verification and
	// does not itself establish trust; it only routes the user to the
	// forced reset flow.
	MustResetPassword bool
}

// CredentialLookup resolves an email address to stored credentials.
// Implementations return (nil, nil) when no user has that email.
type CredentialLookup interface {
	GetCredentials(ctx context.Context, email string) (*Credentials, error)
}

// SessionLookup resolves a session token to the full user record.
// Implementations return (nil, nil) for unknown, expired, or dangling tokens.
type SessionLookup interface {
	LookupSession(ctx context.Context, token string) (*User, error)
}

// SessionStore is the write side of session management.
type SessionStore interface {
	CreateSession(ctx context.Context, uid int64, mustReset bool) (string, error)
	DeleteSession(ctx context.Context, token string) error
	TouchLastLogin(ctx context.Context, uid int64) error
	// SetPassword overwrites the stored digest and clears the must-reset
	// flag on the user's sessions.
	SetPassword(ctx context.Context, uid int64, digest string) error
}
