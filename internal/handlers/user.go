package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"lantern/internal/apperr"
	"lantern/internal/progress"
	"lantern/internal/store"
)

type UserHandler struct {
	users store.Users
	log   *zap.Logger
}

func NewUserHandler(users store.Users, log *zap.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// GetMe returns the current user's profile
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(*u))
}

type goalsPatch struct {
	StudyMinutes  *float64 `json:"study_minutes"`
	SleepHours    *float64 `json:"sleep_hours"`
	SocialMinutes *float64 `json:"social_minutes"`
	MealsCount    *float64 `json:"meals_count"`
}

// UpdateMe updates provided fields on the current user's profile. Goal targets
// are validated after merging with the stored ones.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username   *string     `json:"username"`
		AvatarURL  *string     `json:"avatar_url"`
		Bio        *string     `json:"bio"`
		DailyGoals *goalsPatch `json:"daily_goals"`
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

	upd := store.ProfileUpdate{AvatarURL: body.AvatarURL, Bio: body.Bio}
	if body.Username != nil {
		name := strings.TrimSpace(*body.Username)
		if name == "" {
			writeError(w, r, h.log, apperr.Validation("username must not be empty"))
			return
		}
		upd.Username = &name
	}
	if g := body.DailyGoals; g != nil {
		merged := progress.GoalsOf(*u)
		if g.StudyMinutes != nil {
			merged.StudyMinutes = *g.StudyMinutes
		}
		if g.SleepHours != nil {
			merged.SleepHours = *g.SleepHours
		}
		if g.SocialMinutes != nil {
			merged.SocialMinutes = *g.SocialMinutes
		}
		if g.MealsCount != nil {
			merged.MealsCount = *g.MealsCount
		}
		if err := merged.Validate(); err != nil {
			writeError(w, r, h.log, err)
			return
		}
		upd.StudyMinutes, upd.SleepHours = g.StudyMinutes, g.SleepHours
		upd.SocialMinutes, upd.MealsCount = g.SocialMinutes, g.MealsCount
	}

	if err := h.users.UpdateProfile(r.Context(), u.ID, upd); err != nil {
		writeError(w, r, h.log, apperr.FromStore(err, "user"))
		return
	}
	updated, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(*updated))
}
