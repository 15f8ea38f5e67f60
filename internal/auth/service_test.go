package auth

import (
	"context"
	"errors"
	"testing"
)

// --- mocks ---

type mockCredentialLookup struct {
	users map[string]*Credentials
	err   error
}

func (m *mockCredentialLookup) GetCredentials(ctx context.Context, email string) (*Credentials, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[email], nil
}

type mockSessionStore struct {
	nextToken    string
	sessions     map[string]int64
	mustReset    map[string]bool
	lastLogin    map[int64]int
	passwords    map[int64]string
	createErr    error
	deleteCalled int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{
		nextToken: "token-1",
		sessions:  map[string]int64{},
		mustReset: map[string]bool{},
		lastLogin: map[int64]int{},
		passwords: map[int64]string{},
	}
}

func (m *mockSessionStore) CreateSession(ctx context.Context, uid int64, mustReset bool) (string, error) {
	if m.createErr != nil {
		return "", m.createErr
	}
	m.sessions[m.nextToken] = uid
	m.mustReset[m.nextToken] = mustReset
	return m.nextToken, nil
}

func (m *mockSessionStore) DeleteSession(ctx context.Context, token string) error {
	m.deleteCalled++
	delete(m.sessions, token)
	delete(m.mustReset, token)
	return nil
}

func (m *mockSessionStore) TouchLastLogin(ctx context.Context, uid int64) error {
	m.lastLogin[uid]++
	return nil
}

func (m *mockSessionStore) SetPassword(ctx context.Context, uid int64, digest string) error {
	m.passwords[uid] = digest
	for tok, suid := range m.sessions {
		if suid == uid {
			m.mustReset[tok] = false
		}
	}
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	digest, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	return digest
}

// --- Authenticate tests ---

func TestAuthenticateSuccess(t *testing.T) {
	creds := &mockCredentialLookup{users: map[string]*Credentials{
		"ada@example.com": {UID: 7, Firstname: "Ada", Lastname: "Lovelace", PasswordHash: mustHash(t, "correct horse")},
	}}
	sessions := newMockSessionStore()
	svc := NewService(creds, sessions)

	grant, err := svc.Authenticate(context.Background(), "ada@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if grant.UID != 7 {
		t.Errorf("expected uid 7, got %d", grant.UID)
	}
	if grant.Token == "" {
		t.Error("expected a session token")
	}
	if sessions.sessions[grant.Token] != 7 {
		t.Errorf("session uid mismatch: got %d", sessions.sessions[grant.Token])
	}
	if grant.MustResetPassword {
		t.Error("non-default password should not flag a reset")
	}
	if sessions.lastLogin[7] != 1 {
		t.Errorf("expected lastlogin touched once, got %d", sessions.lastLogin[7])
	}
}

func TestAuthenticateNoEnumerationLeak(t *testing.T) {
	creds := &mockCredentialLookup{users: map[string]*Credentials{
		"ada@example.com": {UID: 7, Firstname: "Ada", Lastname: "Lovelace", PasswordHash: mustHash(t, "correct horse")},
	}}
	svc := NewService(creds, newMockSessionStore())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "correct horse"},
		{"wrong password", "ada@example.com", "wrong horse"},
		{"empty password", "ada@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthenticateDefaultPasswordFlag(t *testing.T) {
	// The initial password for Grace Hopper is "GHopper".
	creds := &mockCredentialLookup{users: map[string]*Credentials{
		"grace@example.com": {UID: 9, Firstname: "Grace", Lastname: "Hopper", PasswordHash: mustHash(t, "GHopper")},
	}}
	sessions := newMockSessionStore()
	svc := NewService(creds, sessions)

	grant, err := svc.Authenticate(context.Background(), "grace@example.com", "GHopper")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if !grant.MustResetPassword {
		t.Error("expected MustResetPassword for the default-form password")
	}
	if !sessions.mustReset[grant.Token] {
		t.Error("expected must-reset recorded on the session")
	}
}

func TestAuthenticateDefaultPasswordIsCaseSensitive(t *testing.T) {
	creds := &mockCredentialLookup{users: map[string]*Credentials{
		"grace@example.com": {UID: 9, Firstname: "Grace", Lastname: "Hopper", PasswordHash: mustHash(t, "ghopper")},
	}}
	svc := NewService(creds, newMockSessionStore())

	grant, err := svc.Authenticate(context.Background(), "grace@example.com", "ghopper")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}
	if grant.MustResetPassword {
		t.Error("lowercased variant must not trigger the reset flag")
	}
}

func TestAuthenticateStoreFailure(t *testing.T) {
	creds := &mockCredentialLookup{err: errors.New("connection refused")}
	svc := NewService(creds, newMockSessionStore())

	_, err := svc.Authenticate(context.Background(), "ada@example.com", "pw")
	if err == nil || errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("store failure must not collapse into invalid credentials, got %v", err)
	}
}

func TestAuthenticateThenLogout(t *testing.T) {
	creds := &mockCredentialLookup{users: map[string]*Credentials{
		"ada@example.com": {UID: 7, Firstname: "Ada", Lastname: "Lovelace", PasswordHash: mustHash(t, "pw12345")},
	}}
	sessions := newMockSessionStore()
	svc := NewService(creds, sessions)

	grant, err := svc.Authenticate(context.Background(), "ada@example.com", "pw12345")
	if err != nil {
		t.Fatalf("Authenticate() error: %v", err)
	}

	svc.Logout(context.Background(), grant.Token)
	if len(sessions.sessions) != 0 {
		t.Errorf("expected no sessions after logout, got %d", len(sessions.sessions))
	}

	// Logout is idempotent.
	svc.Logout(context.Background(), grant.Token)
	svc.Logout(context.Background(), "")
	if len(sessions.sessions) != 0 {
		t.Error("repeated logout changed session state")
	}
}

// --- ResetPassword tests ---

func TestResetPassword(t *testing.T) {
	sessions := newMockSessionStore()
	sessions.sessions["tok"] = 7
	sessions.mustReset["tok"] = true
	svc := NewService(&mockCredentialLookup{}, sessions)

	tests := []struct {
		name    string
		p1, p2  string
		wantErr error
	}{
		{"mismatch", "newpass", "newpaas", ErrPasswordMismatch},
		{"empty", "", "", ErrPasswordRequired},
		{"match", "newpass", "newpass", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.ResetPassword(context.Background(), 7, tt.p1, tt.p2)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	digest, ok := sessions.passwords[7]
	if !ok {
		t.Fatal("expected a stored digest after successful reset")
	}
	if !CheckPassword(digest, "newpass") {
		t.Error("stored digest does not verify against the new password")
	}
	if sessions.mustReset["tok"] {
		t.Error("expected must-reset cleared after successful reset")
	}
}
