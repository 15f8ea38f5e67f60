package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/traklabs/trak/internal/auth"
)

type stubSessionLookup struct {
	users map[string]*auth.User
}

func (s *stubSessionLookup) LookupSession(ctx context.Context, token string) (*auth.User, error) {
	return s.users[token], nil
}

const testCookie = "trak_session"

func newTestRouter(sessions map[string]*auth.User) http.Handler {
	return NewRouter(RouterDeps{
		Sessions:   &stubSessionLookup{users: sessions},
		CookieName: testCookie,
	})
}

func get(t *testing.T, h http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLandingPage(t *testing.T) {
	rec := get(t, newTestRouter(nil), "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("expected html content type, got %q", ct)
	}
}

func TestLoginFormRenders(t *testing.T) {
	rec := get(t, newTestRouter(nil), "/user/login", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `action="/user/login"`) {
		t.Error("expected login form in response body")
	}
}

func TestLoginFormRedirectsWhenAuthenticated(t *testing.T) {
	router := newTestRouter(map[string]*auth.User{
		"tok": {UID: 1, Firstname: "Ada", Level: 1},
	})
	rec := get(t, router, "/user/login", "tok")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/my/dashboard" {
		t.Errorf("expected redirect to dashboard, got %q", loc)
	}
}

func TestHealthWithoutPing(t *testing.T) {
	rec := get(t, newTestRouter(nil), "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHealthDegraded(t *testing.T) {
	router := NewRouter(RouterDeps{
		Sessions:   &stubSessionLookup{},
		CookieName: testCookie,
		DBPing:     func(context.Context) error { return context.DeadlineExceeded },
	})
	rec := get(t, router, "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestGuardedRoutesRedirectAnonymous(t *testing.T) {
	router := newTestRouter(nil)
	paths := []string{
		"/my/dashboard",
		"/my/messages",
		"/user/resetPwd",
		"/project/7",
		"/project/7/edit",
		"/project/7/leave",
		"/task/edit/7",
		"/user/new",
		"/project/new",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := get(t, router, path, "")
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/user/login" {
				t.Errorf("expected redirect to login, got %q", loc)
			}
		})
	}
}

func TestAdminRoutesRejectLowLevel(t *testing.T) {
	router := newTestRouter(map[string]*auth.User{
		"tok": {UID: 2, Firstname: "Bob", Level: 1},
	})
	for _, path := range []string{"/user/new", "/project/new"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, router, path, "tok")
			if rec.Code != http.StatusSeeOther {
				t.Fatalf("expected 303, got %d", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != "/my/dashboard" {
				t.Errorf("expected redirect to dashboard, got %q", loc)
			}
		})
	}
}

func TestForcedResetInterceptsRequests(t *testing.T) {
	router := newTestRouter(map[string]*auth.User{
		"tok": {UID: 3, Firstname: "Eve", Level: 1, MustReset: true},
	})
	rec := get(t, router, "/my/dashboard", "tok")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/user/resetPwd" {
		t.Errorf("expected redirect to reset page, got %q", loc)
	}
}

func TestForcedResetAllowsResetPage(t *testing.T) {
	router := newTestRouter(map[string]*auth.User{
		"tok": {UID: 3, Firstname: "Eve", Level: 1, MustReset: true},
	})
	rec := get(t, router, "/user/resetPwd", "tok")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestProjectRootRedirects(t *testing.T) {
	router := newTestRouter(map[string]*auth.User{
		"tok": {UID: 1, Firstname: "Ada", Level: 1},
	})
	rec := get(t, router, "/project/", "tok")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/my/dashboard" {
		t.Errorf("expected redirect to dashboard, got %q", loc)
	}
}

func TestNonNumericProjectIDIsNotFound(t *testing.T) {
	router := newTestRouter(map[string]*auth.User{
		"tok": {UID: 1, Firstname: "Ada", Level: 1},
	})
	rec := get(t, router, "/project/abc", "tok")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
