package web

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/message"
	"github.com/traklabs/trak/internal/metrics"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/task"
	"github.com/traklabs/trak/internal/user"
)

// RouterDeps holds all dependencies for the web router.
type RouterDeps struct {
	Users      *user.Store
	Projects   *project.Store
	Tasks      *task.Store
	Messages   *message.Store
	Auth       *auth.Service
	Sessions   auth.SessionLookup
	Metrics    *metrics.Metrics
	CookieName string
	SessionTTL time.Duration
	DBPing     func(context.Context) error
}

// NewRouter builds the chi router with all routes and middleware. The
// pipeline is fixed: user context loader, then the level guard, then the
// handler (which performs any involvement check itself).
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(requestLogger(deps.Metrics))
	r.Use(auth.LoadUser(deps.Sessions, deps.CookieName))

	ah := &authHandler{
		auth:       deps.Auth,
		users:      deps.Users,
		projects:   deps.Projects,
		cookieName: deps.CookieName,
		sessionTTL: deps.SessionTTL,
		metrics:    deps.Metrics,
	}
	mh := &myHandler{projects: deps.Projects, messages: deps.Messages, users: deps.Users}
	ph := &projectHandler{projects: deps.Projects, tasks: deps.Tasks}
	th := &taskHandler{projects: deps.Projects, tasks: deps.Tasks}

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		render(w, req, "index", nil)
	})

	r.Get("/health", healthHandler(deps.DBPing))
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler())
	}

	r.Get("/user/login", ah.LoginForm)
	r.Post("/user/login", ah.Login)
	r.Get("/user/logout", ah.Logout)

	// Any authenticated user.
	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireLevel(0))

		ar.Get("/user/resetPwd", ah.ResetForm)
		ar.Post("/user/resetPwd", ah.Reset)

		ar.Get("/my/dashboard", mh.Dashboard)
		ar.Get("/my/messages", mh.Messages)
		ar.Post("/my/messages", mh.SendMessage)

		ar.Get("/project/", func(w http.ResponseWriter, req *http.Request) {
			http.Redirect(w, req, auth.DashboardPath, http.StatusSeeOther)
		})
		ar.Get("/project/{pid}", ph.View)
		ar.Post("/project/{pid}", ph.UpdateTaskStatus)
		ar.Get("/project/{pid}/edit", ph.EditForm)
		ar.Post("/project/{pid}/edit", ph.Edit)
		ar.Get("/project/{pid}/announce", ph.AnnounceForm)
		ar.Post("/project/{pid}/announce", ph.Announce)
		ar.Get("/project/{pid}/newtask", ph.NewTaskForm)
		ar.Post("/project/{pid}/newtask", ph.NewTask)
		ar.Get("/project/{pid}/leave", ph.LeaveForm)
		ar.Post("/project/{pid}/leave", ph.Leave)

		ar.Get("/task/edit/{tid}", th.EditForm)
		ar.Post("/task/edit/{tid}", th.Edit)
	})

	// Admin-level operations.
	r.Group(func(ar chi.Router) {
		ar.Use(auth.RequireLevel(3))

		ar.Get("/user/new", ah.NewUserForm)
		ar.Post("/user/new", ah.NewUser)
		ar.Get("/project/new", ph.NewForm)
		ar.Post("/project/new", ph.Create)
	})

	return r
}

func healthHandler(ping func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if ping != nil {
			if err := ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded","database":"unreachable"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","database":"connected"}`))
	}
}

// requestLogger logs each request through slog and records HTTP metrics.
func requestLogger(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", elapsed.Milliseconds(),
				"bytes", ww.BytesWritten(),
			)

			if m != nil {
				m.HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(ww.Status())).Inc()
				m.HTTPRequestDuration.WithLabelValues(r.Method).Observe(elapsed.Seconds())
			}
		})
	}
}
