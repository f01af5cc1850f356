package handlers

import (
	"net/http"

	"go.uber.org/zap"

	mw "lantern/internal/middleware"
	"lantern/internal/notify"
)

type NotificationHandler struct {
	d   *notify.Dispatcher
	log *zap.Logger
}

func NewNotificationHandler(d *notify.Dispatcher, log *zap.Logger) *NotificationHandler {
	return &NotificationHandler{d: d, log: log}
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out, err := h.d.List(r.Context(), mw.UserEmail(r.Context()), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// UnreadCount is polled by clients; a store failure is a 503 and the client
// decides whether to show a stale or zero badge.
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.d.UnreadCount(r.Context(), mw.UserEmail(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.d.MarkRead(r.Context(), mw.UserEmail(r.Context()), id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	n, err := h.d.MarkAllRead(r.Context(), mw.UserEmail(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated": n})
}
