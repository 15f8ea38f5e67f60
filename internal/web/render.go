package web

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/flash"
	"github.com/traklabs/trak/internal/web/views"
)

// render draws a page, injecting the pending flash notice and the
// request-scoped user into the template data.
func render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["Flash"] = flash.Take(w, r)
	data["User"] = auth.UserFromContext(r.Context())
	if err := views.Render(w, name, data); err != nil {
		slog.Error("rendering page", "page", name, "error", err)
	}
}

// serverError reports a store or rendering failure as a 500; these are never
// turned into redirects.
func serverError(w http.ResponseWriter, err error) {
	slog.Error("request failed", "error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// denyInvolvement translates an involvement-gate error into a notice and
// redirect: missing involvement goes to the dashboard,
// insufficient rank back to the project page (the user may still view it).
// Returns false for errors it does not handle.
func denyInvolvement(w http.ResponseWriter, r *http.Request, err error, pid int64) bool {
	switch {
	case errors.Is(err, auth.ErrNotInvolved):
		flash.Set(w, "You aren't assigned to that project.")
		http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
		return true
	case errors.Is(err, auth.ErrInsufficientRank):
		flash.Set(w, "You don't have permission to edit that project.")
		http.Redirect(w, r, projectPath(pid), http.StatusSeeOther)
		return true
	}
	return false
}

func projectPath(pid int64) string {
	return fmt.Sprintf("/project/%d", pid)
}

// urlID parses a numeric chi route parameter. A non-numeric id is a 404,
// matching the route shape rather than producing a 400.
func urlID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// parseDate parses a form date in the YYYY-MM-DD shape the date inputs post.
func parseDate(value string) (time.Time, error) {
	return time.Parse("2006-01-02", value)
}
