package flash

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSetAndTake(t *testing.T) {
	rec := httptest.NewRecorder()
	Set(rec, "Task status updated.")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rec2 := httptest.NewRecorder()

	if got := Take(rec2, req); got != "Task status updated." {
		t.Errorf("expected notice round-trip, got %q", got)
	}

	// Take must clear the cookie.
	cleared := false
	for _, c := range rec2.Result().Cookies() {
		if c.Name == cookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("expected Take to clear the flash cookie")
	}
}

func TestTakeWithoutCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	if got := Take(rec, req); got != "" {
		t.Errorf("expected empty notice, got %q", got)
	}
}

func TestSetSpecialCharacters(t *testing.T) {
	rec := httptest.NewRecorder()
	Set(rec, "You aren't assigned to that project.")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(rec.Result().Cookies()[0])

	if got := Take(httptest.NewRecorder(), req); got != "You aren't assigned to that project." {
		t.Errorf("special characters mangled: %q", got)
	}
}
