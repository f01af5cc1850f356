package handlers

import (
	"net/http"

	"go.uber.org/zap"

	mw "lantern/internal/middleware"
	"lantern/internal/models"
	"lantern/internal/social"
	"lantern/internal/store"
)

type SocialHandler struct {
	users store.Users
	svc   *social.Service
	log   *zap.Logger
}

func NewSocialHandler(users store.Users, svc *social.Service, log *zap.Logger) *SocialHandler {
	return &SocialHandler{users: users, svc: svc, log: log}
}

// SearchUsers looks a user up by exact email: GET /users/search?email=
func (h *SocialHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.svc.SearchUsers(r.Context(), u, r.URL.Query().Get("email"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Friends lists the caller's edges, optionally filtered by ?status=.
func (h *SocialHandler) Friends(w http.ResponseWriter, r *http.Request) {
	status := models.FriendshipStatus(r.URL.Query().Get("status"))
	out, err := h.svc.Relationships(r.Context(), mw.UserEmail(r.Context()), status)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if out == nil {
		out = []models.Friendship{}
	}
	writeJSON(w, http.StatusOK, out)
}

// SendRequest answers 201 for a new request and 200 when one is already pending.
func (h *SocialHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	f, created, err := h.svc.SendRequest(r.Context(), u, body.Email)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, f)
}

func (h *SocialHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	f, err := h.svc.AcceptRequest(r.Context(), u, id)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (h *SocialHandler) Decline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if err := h.svc.DeclineRequest(r.Context(), u, id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Feed returns friends' recent activities: GET /feed?limit=
func (h *SocialHandler) Feed(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	acts, err := h.svc.FriendFeed(r.Context(), mw.UserEmail(r.Context()), limit)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTOs(acts))
}

func (h *SocialHandler) PostStory(w http.ResponseWriter, r *http.Request) {
	var d social.StoryDraft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	st, err := h.svc.PostStory(r.Context(), u, d)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// Stories returns friends' active stories grouped by author.
func (h *SocialHandler) Stories(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.FriendStories(r.Context(), mw.UserEmail(r.Context()))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}
