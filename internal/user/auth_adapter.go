package user

import (
	"context"

	"github.com/traklabs/trak/internal/auth"
)

// AuthAdapter adapts user.Store to the auth package's lookup and session
// store interfaces.
type AuthAdapter struct {
	store *Store
}

// NewAuthAdapter creates a new AuthAdapter wrapping the given user store.
func NewAuthAdapter(store *Store) *AuthAdapter {
	return &AuthAdapter{store: store}
}

// GetCredentials resolves an email to stored credentials, or (nil, nil) when
// no account has that email.
func (a *AuthAdapter) GetCredentials(ctx context.Context, email string) (*auth.Credentials, error) {
	u, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &auth.Credentials{
		UID:          u.UID,
		Firstname:    u.Firstname,
		Lastname:     u.Lastname,
		PasswordHash: u.PasswordHash,
	}, nil
}

// LookupSession resolves a session token to the request-scoped auth.User.
func (a *AuthAdapter) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	u, mustReset, err := a.store.GetSessionUser(ctx, token)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &auth.User{
		UID:       u.UID,
		Firstname: u.Firstname,
		Lastname:  u.Lastname,
		Email:     u.Email,
		Level:     u.Level,
		MustReset: mustReset,
	}, nil
}

// CreateSession implements auth.SessionStore.
func (a *AuthAdapter) CreateSession(ctx context.Context, uid int64, mustReset bool) (string, error) {
	return a.store.CreateSession(ctx, uid, mustReset)
}

// DeleteSession implements auth.SessionStore.
func (a *AuthAdapter) DeleteSession(ctx context.Context, token string) error {
	return a.store.DeleteSession(ctx, token)
}

// TouchLastLogin implements auth.SessionStore.
func (a *AuthAdapter) TouchLastLogin(ctx context.Context, uid int64) error {
	return a.store.TouchLastLogin(ctx, uid)
}

// SetPassword implements auth.SessionStore.
func (a *AuthAdapter) SetPassword(ctx context.Context, uid int64, digest string) error {
	return a.store.SetPassword(ctx, uid, digest)
}
