package web

import (
	"net/http"
	"strconv"

	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/flash"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/task"
)

type projectHandler struct {
	projects *project.Store
	tasks    *task.Store
}

// fetch resolves the {pid} route parameter to a project. A missing or
// unknown id sends the user back to the dashboard with a notice and
// returns nil.
func (h *projectHandler) fetch(w http.ResponseWriter, r *http.Request) *project.Project {
	pid, ok := urlID(r, "pid")
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	p, err := h.projects.GetByID(r.Context(), pid)
	if err != nil {
		serverError(w, err)
		return nil
	}
	if p == nil {
		flash.Set(w, "That project doesn't exist.")
		http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
		return nil
	}
	return p
}

// authorize runs the involvement gate for the current user at minRank and
// handles the failure responses. Returns nil when the request has already
// been answered.
func (h *projectHandler) authorize(w http.ResponseWriter, r *http.Request, pid int64, minRank int) *project.Involvement {
	u := auth.UserFromContext(r.Context())
	inv, err := h.projects.Authorize(r.Context(), u.UID, pid, minRank)
	if err != nil {
		if !denyInvolvement(w, r, err, pid) {
			serverError(w, err)
		}
		return nil
	}
	return inv
}

func (h *projectHandler) View(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	inv := h.authorize(w, r, p.PID, project.RankMember)
	if inv == nil {
		return
	}

	members, err := h.projects.Members(r.Context(), p.PID)
	if err != nil {
		serverError(w, err)
		return
	}
	announcements, err := h.projects.Announcements(r.Context(), p.PID)
	if err != nil {
		serverError(w, err)
		return
	}
	tasks, err := h.tasks.ListForProject(r.Context(), p.PID)
	if err != nil {
		serverError(w, err)
		return
	}

	render(w, r, "project", map[string]any{
		"Project":       p,
		"Rank":          inv.Rank,
		"Members":       members,
		"Announcements": announcements,
		"Tasks":         tasks,
	})
}

// UpdateTaskStatus handles the inline status form on the project page. The
// task must belong to the project in the URL; a mismatched id is treated
// the same as an unknown one.
func (h *projectHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}

	tid, err := strconv.ParseInt(r.PostFormValue("taskid"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	t, err := h.tasks.GetByID(r.Context(), tid)
	if err != nil {
		serverError(w, err)
		return
	}
	if t == nil || t.PID != p.PID {
		flash.Set(w, "That task doesn't exist.")
		http.Redirect(w, r, projectPath(p.PID), http.StatusSeeOther)
		return
	}

	if err := h.tasks.UpdateStatus(r.Context(), t.TID, r.PostFormValue("status")); err != nil {
		serverError(w, err)
		return
	}
	http.Redirect(w, r, projectPath(p.PID), http.StatusSeeOther)
}

func (h *projectHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	render(w, r, "project_new", nil)
}

// Create makes a project and its owner involvement in one transaction, so
// a project is never visible without a manager.
func (h *projectHandler) Create(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	name := r.PostFormValue("name")
	if name == "" {
		flash.Set(w, "The project needs a name.")
		http.Redirect(w, r, "/project/new", http.StatusSeeOther)
		return
	}
	dateDue, err := parseDate(r.PostFormValue("date_due"))
	if err != nil {
		flash.Set(w, "The due date must be a valid date.")
		http.Redirect(w, r, "/project/new", http.StatusSeeOther)
		return
	}

	p, err := h.projects.Create(r.Context(), project.CreateProjectInput{
		Owner:       u.UID,
		Title:       name,
		Description: r.PostFormValue("description"),
		DateDue:     dateDue,
	})
	if err != nil {
		serverError(w, err)
		return
	}

	flash.Set(w, "Project created.")
	http.Redirect(w, r, projectPath(p.PID), http.StatusSeeOther)
}

func (h *projectHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankEditor) == nil {
		return
	}

	members, err := h.projects.Members(r.Context(), p.PID)
	if err != nil {
		serverError(w, err)
		return
	}
	others, err := h.projects.NonMembers(r.Context(), p.PID)
	if err != nil {
		serverError(w, err)
		return
	}

	render(w, r, "project_edit", map[string]any{
		"Project":    p,
		"Members":    members,
		"OtherUsers": others,
	})
}

func (h *projectHandler) Edit(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankEditor) == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	title := r.PostFormValue("title")
	if title == "" {
		title = p.Title
	}
	dateDue, err := parseDate(r.PostFormValue("date_due"))
	if err != nil {
		dateDue = p.DateDue
	}
	if err := h.projects.Update(r.Context(), p.PID, title, r.PostFormValue("description"), dateDue); err != nil {
		serverError(w, err)
		return
	}

	for _, raw := range r.PostForm["toadd"] {
		uid, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		if err := h.projects.AddInvolvement(r.Context(), uid, p.PID, project.RankMember); err != nil {
			serverError(w, err)
			return
		}
	}
	for _, raw := range r.PostForm["toremove"] {
		uid, perr := strconv.ParseInt(raw, 10, 64)
		if perr != nil {
			continue
		}
		if err := h.projects.RemoveInvolvement(r.Context(), uid, p.PID); err != nil {
			serverError(w, err)
			return
		}
	}

	flash.Set(w, "Project updated.")
	http.Redirect(w, r, projectPath(p.PID), http.StatusSeeOther)
}

func (h *projectHandler) AnnounceForm(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}
	render(w, r, "announce", map[string]any{"Project": p})
}

func (h *projectHandler) Announce(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}

	content := r.PostFormValue("content")
	if content == "" {
		flash.Set(w, "Announcement cannot be empty.")
		http.Redirect(w, r, projectPath(p.PID)+"/announce", http.StatusSeeOther)
		return
	}

	u := auth.UserFromContext(r.Context())
	if err := h.projects.Announce(r.Context(), p.PID, u.UID, content); err != nil {
		serverError(w, err)
		return
	}
	http.Redirect(w, r, projectPath(p.PID), http.StatusSeeOther)
}

func (h *projectHandler) NewTaskForm(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}
	render(w, r, "task_new", map[string]any{"Project": p})
}

func (h *projectHandler) NewTask(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}

	title := r.PostFormValue("title")
	if title == "" {
		flash.Set(w, "The task needs a title.")
		http.Redirect(w, r, projectPath(p.PID)+"/newtask", http.StatusSeeOther)
		return
	}
	dateDue, err := parseDate(r.PostFormValue("date_due"))
	if err != nil {
		flash.Set(w, "The due date must be a valid date.")
		http.Redirect(w, r, projectPath(p.PID)+"/newtask", http.StatusSeeOther)
		return
	}
	status := r.PostFormValue("status")
	if status == "" {
		status = "open"
	}

	u := auth.UserFromContext(r.Context())
	_, err = h.tasks.Create(r.Context(), task.CreateTaskInput{
		PID:         p.PID,
		Creator:     u.UID,
		Title:       title,
		Description: r.PostFormValue("description"),
		Status:      status,
		DateDue:     dateDue,
	})
	if err != nil {
		serverError(w, err)
		return
	}
	http.Redirect(w, r, projectPath(p.PID), http.StatusSeeOther)
}

func (h *projectHandler) LeaveForm(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}
	render(w, r, "leave", map[string]any{"Project": p})
}

// Leave drops the current user's involvement after the title has been
// typed twice, exactly.
func (h *projectHandler) Leave(w http.ResponseWriter, r *http.Request) {
	p := h.fetch(w, r)
	if p == nil {
		return
	}
	if h.authorize(w, r, p.PID, project.RankMember) == nil {
		return
	}

	name1 := r.PostFormValue("name1")
	name2 := r.PostFormValue("name2")
	if name1 != p.Title || name2 != p.Title {
		flash.Set(w, "Both entries must match the project title exactly.")
		http.Redirect(w, r, projectPath(p.PID)+"/leave", http.StatusSeeOther)
		return
	}

	u := auth.UserFromContext(r.Context())
	if err := h.projects.RemoveInvolvement(r.Context(), u.UID, p.PID); err != nil {
		serverError(w, err)
		return
	}

	flash.Set(w, "Successfully left "+p.Title+".")
	http.Redirect(w, r, auth.DashboardPath, http.StatusSeeOther)
}
