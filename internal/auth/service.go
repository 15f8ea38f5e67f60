package auth

import (
	"context"
	"fmt"
	"log/slog"
)

// Service provides authentication operations over a credential lookup and a
// session store.
type Service struct {
	creds    CredentialLookup
	sessions SessionStore
}

// NewService creates a new authentication service.
func NewService(creds CredentialLookup, sessions SessionStore) *Service {
	return &Service{creds: creds, sessions: sessions}
}

// Authenticate verifies an email/password pair and establishes a session.
// Unknown email and wrong password produce the same ErrInvalidCredentials so
// the login form cannot be used to enumerate accounts.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Grant, error) {
	c, err := s.creds.GetCredentials(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up credentials: %w", err)
	}
	if c == nil {
		return nil, ErrInvalidCredentials
	}

	if !CheckPassword(c.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	// Default-password detection happens only after hash verification has
	// succeeded; it must never act as a verification bypass.
	mustReset := password == DefaultPassword(c.Firstname, c.Lastname)

	token, err := s.sessions.CreateSession(ctx, c.UID, mustReset)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	if err := s.sessions.TouchLastLogin(ctx, c.UID); err != nil {
		return nil, fmt.Errorf("updating last login: %w", err)
	}

	return &Grant{UID: c.UID, Token: token, MustResetPassword: mustReset}, nil
}

// ResetPassword overwrites the stored digest for the given user after
// checking that both entered passwords match, and clears the forced-reset
// state on the user's sessions.
func (s *Service) ResetPassword(ctx context.Context, uid int64, password1, password2 string) error {
	if password1 == "" {
		return ErrPasswordRequired
	}
	if password1 != password2 {
		return ErrPasswordMismatch
	}

	digest, err := HashPassword(password1)
	if err != nil {
		return err
	}

	if err := s.sessions.SetPassword(ctx, uid, digest); err != nil {
		return fmt.Errorf("storing new password: %w", err)
	}
	return nil
}

// Logout destroys the session for the given token. It is idempotent and
// never fails from the caller's point of view.
func (s *Service) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}
	if err := s.sessions.DeleteSession(ctx, token); err != nil {
		slog.Warn("deleting session on logout", "error", err)
	}
}
