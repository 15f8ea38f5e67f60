package web

import (
	"net/http"

	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/flash"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/task"
)

type taskHandler struct {
	projects *project.Store
	tasks    *task.Store
}

// fetch resolves the {tid} route parameter and checks the user is involved
// in the task's project. Returns nil when the request has been answered.
func (h *taskHandler) fetch(w http.ResponseWriter, r *http.Request) *task.Task {
	tid, ok := urlID(r, "tid")
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	t, err := h.tasks.GetByID(r.Context(), tid)
	if err != nil {
		serverError(w, err)
		return nil
	}
	if t == nil {
		flash.Set(w, "That task doesn't exist.")
		http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
		return nil
	}

	u := auth.UserFromContext(r.Context())
	if _, err := h.projects.Authorize(r.Context(), u.UID, t.PID, project.RankMember); err != nil {
		if !denyInvolvement(w, r, err, t.PID) {
			serverError(w, err)
		}
		return nil
	}
	return t
}

func (h *taskHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	t := h.fetch(w, r)
	if t == nil {
		return
	}
	render(w, r, "task_edit", map[string]any{"Task": t})
}

func (h *taskHandler) Edit(w http.ResponseWriter, r *http.Request) {
	t := h.fetch(w, r)
	if t == nil {
		return
	}

	title := r.PostFormValue("title")
	if title == "" {
		title = t.Title
	}
	status := r.PostFormValue("status")
	if status == "" {
		status = t.Status
	}
	dateDue, err := parseDate(r.PostFormValue("date_due"))
	if err != nil {
		dateDue = t.DateDue
	}

	if err := h.tasks.Update(r.Context(), t.TID, title, r.PostFormValue("description"), status, dateDue); err != nil {
		serverError(w, err)
		return
	}
	http.Redirect(w, r, projectPath(t.PID), http.StatusSeeOther)
}
