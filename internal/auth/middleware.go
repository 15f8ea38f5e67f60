package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/traklabs/trak/internal/flash"
)

// Redirect targets used by the guards.
const (
	LoginPath     = "/user/login"
	DashboardPath = "/my/dashboard"
	ResetPath     = "/user/resetPwd"
	LogoutPath    = "/user/logout"
)

type contextKey int

const userContextKey contextKey = iota

// ContextWithUser returns a new context carrying the given user.
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the user from the context, or nil for an
// anonymous request.
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey).(*User)
	return user
}

// SetSessionCookie writes the session token cookie.
func SetSessionCookie(w http.ResponseWriter, name, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session token cookie.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// SessionToken returns the raw session token from the request cookie, or ""
// when the request carries none.
func SessionToken(r *http.Request, cookieName string) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// LoadUser returns the user-context-loader middleware. It runs once per
// request: a request without a resolvable session continues as anonymous,
// and a token whose uid no longer resolves to a user clears the cookie
// rather than producing a present-but-empty record. While the session is
// flagged for a forced password reset, every request outside the reset and
// logout routes is redirected to the reset form.
func LoadUser(sessions SessionLookup, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r, cookieName)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := sessions.LookupSession(r.Context(), token)
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			if user == nil {
				ClearSessionCookie(w, cookieName)
				next.ServeHTTP(w, r)
				return
			}

			if user.MustReset && r.URL.Path != ResetPath && r.URL.Path != LogoutPath {
				http.Redirect(w, r, ResetPath, http.StatusSeeOther)
				return
			}

			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLevel returns guard middleware admitting only authenticated users
// with at least the given permission level. The boundary is inclusive, and
// the guard never touches the store: it inspects only the loaded context.
func RequireLevel(min int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			if user.Level < min {
				flash.Set(w, "You don't have permission to view that page.")
				http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
