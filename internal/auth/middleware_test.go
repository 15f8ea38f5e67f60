package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockSessionLookup struct {
	users map[string]*User
	err   error
}

func (m *mockSessionLookup) LookupSession(ctx context.Context, token string) (*User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.users[token], nil
}

const testCookie = "trak_session"

func requestWithSession(token string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/my/dashboard", nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	return req
}

// --- context helpers ---

func TestUserContextRoundTrip(t *testing.T) {
	u := &User{UID: 3, Firstname: "Ada", Level: 2}
	ctx := ContextWithUser(context.Background(), u)
	got := UserFromContext(ctx)
	if got == nil || got.UID != 3 {
		t.Fatalf("expected uid 3 from context, got %+v", got)
	}
}

func TestUserFromContextEmpty(t *testing.T) {
	if got := UserFromContext(context.Background()); got != nil {
		t.Errorf("expected nil from empty context, got %+v", got)
	}
}

// --- LoadUser tests ---

func TestLoadUserAnonymous(t *testing.T) {
	sessions := &mockSessionLookup{users: map[string]*User{}}

	var seen *User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	LoadUser(sessions, testCookie)(next).ServeHTTP(rec, requestWithSession(""))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen != nil {
		t.Errorf("expected anonymous context, got %+v", seen)
	}
}

func TestLoadUserResolvesSession(t *testing.T) {
	sessions := &mockSessionLookup{users: map[string]*User{
		"tok-1": {UID: 7, Firstname: "Ada", Level: 3},
	}}

	var seen *User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	LoadUser(sessions, testCookie)(next).ServeHTTP(rec, requestWithSession("tok-1"))

	if seen == nil || seen.UID != 7 {
		t.Fatalf("expected uid 7 in context, got %+v", seen)
	}
}

func TestLoadUserDanglingSessionClearsCookie(t *testing.T) {
	// The token resolves to no user (deleted account or expired session):
	// the request proceeds anonymously and the cookie is cleared.
	sessions := &mockSessionLookup{users: map[string]*User{}}

	var seen *User
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen = UserFromContext(r.Context())
	})

	rec := httptest.NewRecorder()
	LoadUser(sessions, testCookie)(next).ServeHTTP(rec, requestWithSession("gone"))

	if !called {
		t.Fatal("expected the request to continue anonymously")
	}
	if seen != nil {
		t.Errorf("expected anonymous context, got %+v", seen)
	}

	cleared := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == testCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected the stale session cookie to be cleared")
	}
}

func TestLoadUserStoreFailure(t *testing.T) {
	sessions := &mockSessionLookup{err: errors.New("connection refused")}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run on store failure")
	})

	rec := httptest.NewRecorder()
	LoadUser(sessions, testCookie)(next).ServeHTTP(rec, requestWithSession("tok-1"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 on store failure, got %d", rec.Code)
	}
}

func TestLoadUserForcedReset(t *testing.T) {
	sessions := &mockSessionLookup{users: map[string]*User{
		"tok-1": {UID: 7, Firstname: "Ada", Level: 3, MustReset: true},
	}}
	mw := LoadUser(sessions, testCookie)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		path         string
		wantRedirect bool
	}{
		{"/my/dashboard", true},
		{"/project/4", true},
		{ResetPath, false},
		{LogoutPath, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok-1"})
			rec := httptest.NewRecorder()
			mw(next).ServeHTTP(rec, req)

			if tt.wantRedirect {
				if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != ResetPath {
					t.Errorf("expected redirect to %s, got %d %q", ResetPath, rec.Code, rec.Header().Get("Location"))
				}
			} else if rec.Code != http.StatusOK {
				t.Errorf("expected pass-through, got %d", rec.Code)
			}
		})
	}
}

// --- RequireLevel tests ---

func TestRequireLevel(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name         string
		user         *User
		min          int
		wantStatus   int
		wantLocation string
	}{
		{"anonymous", nil, 0, http.StatusSeeOther, LoginPath},
		{"level below minimum", &User{UID: 1, Level: 2}, 3, http.StatusSeeOther, DashboardPath},
		{"level at boundary admits", &User{UID: 1, Level: 3}, 3, http.StatusOK, ""},
		{"level above minimum", &User{UID: 1, Level: 5}, 3, http.StatusOK, ""},
		{"any authenticated user", &User{UID: 1, Level: 0}, 0, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/user/new", nil)
			if tt.user != nil {
				req = req.WithContext(ContextWithUser(req.Context(), tt.user))
			}
			rec := httptest.NewRecorder()
			RequireLevel(tt.min)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Errorf("expected redirect to %q, got %q", tt.wantLocation, rec.Header().Get("Location"))
			}
		})
	}
}
