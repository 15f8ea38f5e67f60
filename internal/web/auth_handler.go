package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/flash"
	"github.com/traklabs/trak/internal/metrics"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/user"
)

type authHandler struct {
	auth       *auth.Service
	users      *user.Store
	projects   *project.Store
	cookieName string
	sessionTTL time.Duration
	metrics    *metrics.Metrics
}

func (h *authHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if auth.UserFromContext(r.Context()) != nil {
		http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
		return
	}
	render(w, r, "login", nil)
}

// Login verifies the posted credentials and starts a session. Failed
// attempts get a single generic notice, whatever the cause.
func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")

	grant, err := h.auth.Authenticate(r.Context(), email, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			if h.metrics != nil {
				h.metrics.AuthFailuresTotal.Inc()
			}
			flash.Set(w, "Invalid email or password.")
			http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
			return
		}
		serverError(w, err)
		return
	}

	auth.SetSessionCookie(w, h.cookieName, grant.Token, h.sessionTTL)
	if h.metrics != nil {
		h.metrics.AuthSuccessesTotal.Inc()
	}

	if grant.MustResetPassword {
		if h.metrics != nil {
			h.metrics.ForcedResetsTotal.Inc()
		}
		http.Redirect(w, r, auth.ResetPath, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), auth.SessionToken(r, h.cookieName))
	auth.ClearSessionCookie(w, h.cookieName)
	if h.metrics != nil {
		h.metrics.LogoutsTotal.Inc()
	}
	flash.Set(w, "You have been logged out.")
	http.Redirect(w, r, auth.LoginPath, http.StatusSeeOther)
}

func (h *authHandler) ResetForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, "reset", nil)
}

func (h *authHandler) Reset(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	err := h.auth.ResetPassword(r.Context(), u.UID, r.PostFormValue("password1"), r.PostFormValue("password2"))
	switch {
	case errors.Is(err, auth.ErrPasswordRequired):
		flash.Set(w, "Password cannot be empty.")
		http.Redirect(w, r, auth.ResetPath, http.StatusSeeOther)
	case errors.Is(err, auth.ErrPasswordMismatch):
		flash.Set(w, "The passwords don't match.")
		http.Redirect(w, r, auth.ResetPath, http.StatusSeeOther)
	case err != nil:
		serverError(w, err)
	default:
		flash.Set(w, "Password updated.")
		http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
	}
}

func (h *authHandler) NewUserForm(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListAll(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}
	render(w, r, "user_new", map[string]any{"Projects": projects})
}

// NewUser creates an account with the generated initial password and adds
// it as a member of each selected project.
func (h *authHandler) NewUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	firstname := r.PostFormValue("firstname")
	lastname := r.PostFormValue("lastname")
	email := r.PostFormValue("email")
	if firstname == "" || lastname == "" || email == "" {
		flash.Set(w, "First name, last name and email are required.")
		http.Redirect(w, r, "/user/new", http.StatusSeeOther)
		return
	}

	level, err := strconv.Atoi(r.PostFormValue("level"))
	if err != nil || level < 0 {
		flash.Set(w, "Level must be a non-negative number.")
		http.Redirect(w, r, "/user/new", http.StatusSeeOther)
		return
	}

	created, err := h.users.Create(r.Context(), user.CreateUserInput{
		Firstname: firstname,
		Lastname:  lastname,
		Email:     email,
		Level:     level,
	})
	if err != nil {
		serverError(w, err)
		return
	}

	for _, raw := range r.PostForm["projects"] {
		pid, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		if err := h.projects.AddInvolvement(r.Context(), created.UID, pid, project.RankMember); err != nil {
			serverError(w, err)
			return
		}
	}

	flash.Set(w, "Created user "+created.Firstname+" "+created.Lastname+".")
	http.Redirect(w, r, "/user/new", http.StatusSeeOther)
}
