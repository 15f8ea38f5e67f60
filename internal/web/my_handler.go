package web

import (
	"net/http"
	"strconv"

	"github.com/traklabs/trak/internal/auth"
	"github.com/traklabs/trak/internal/flash"
	"github.com/traklabs/trak/internal/message"
	"github.com/traklabs/trak/internal/project"
	"github.com/traklabs/trak/internal/user"
)

type myHandler struct {
	projects *project.Store
	messages *message.Store
	users    *user.Store
}

func (h *myHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	projects, err := h.projects.ListForUser(r.Context(), u.UID)
	if err != nil {
		serverError(w, err)
		return
	}
	unread, err := h.messages.UnreadCount(r.Context(), u.UID)
	if err != nil {
		serverError(w, err)
		return
	}
	announcements, err := h.projects.RecentAnnouncementsForUser(r.Context(), u.UID, 10)
	if err != nil {
		serverError(w, err)
		return
	}

	render(w, r, "dashboard", map[string]any{
		"Projects":      projects,
		"UnreadCount":   unread,
		"Announcements": announcements,
	})
}

// Messages shows the inbox. Everything shown is marked read afterwards, so
// the unread styling reflects the state at load time exactly once.
func (h *myHandler) Messages(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	inbox, err := h.messages.Inbox(r.Context(), u.UID)
	if err != nil {
		serverError(w, err)
		return
	}
	if _, err := h.messages.MarkAllRead(r.Context(), u.UID); err != nil {
		serverError(w, err)
		return
	}
	users, err := h.users.List(r.Context())
	if err != nil {
		serverError(w, err)
		return
	}

	render(w, r, "messages", map[string]any{
		"Messages": inbox,
		"Users":    users,
	})
}

func (h *myHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	u := auth.UserFromContext(r.Context())

	destination, err := strconv.ParseInt(r.PostFormValue("destination"), 10, 64)
	if err != nil {
		flash.Set(w, "Choose a recipient.")
		http.Redirect(w, r, "/my/messages", http.StatusSeeOther)
		return
	}
	content := r.PostFormValue("content")
	if content == "" {
		flash.Set(w, "Message cannot be empty.")
		http.Redirect(w, r, "/my/messages", http.StatusSeeOther)
		return
	}

	err = h.messages.Send(r.Context(), message.SendInput{
		Source:      u.UID,
		Destination: destination,
		Subject:     r.PostFormValue("subject"),
		Content:     content,
	})
	if err != nil {
		serverError(w, err)
		return
	}

	flash.Set(w, "Message sent.")
	http.Redirect(w, r, "/my/messages", http.StatusSeeOther)
}
