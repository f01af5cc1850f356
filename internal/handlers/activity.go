package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"lantern/internal/activity"
	"lantern/internal/apperr"
	mw "lantern/internal/middleware"
	"lantern/internal/scoring"
	"lantern/internal/store"
)

const defaultActivityLimit = 50

type ActivityHandler struct {
	svc *activity.Service
	log *zap.Logger
}

func NewActivityHandler(svc *activity.Service, log *zap.Logger) *ActivityHandler {
	return &ActivityHandler{svc: svc, log: log}
}

// Create logs an activity and returns it with its awarded points and how they
// were earned.
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var d activity.Draft
	if err := decodeJSON(r, &d); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	a, err := h.svc.Log(r.Context(), mw.UserEmail(r.Context()), d)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	dto := ToActivityDTO(*a)
	if b, err := scoring.Explain(a.Type, scoring.Attributes{Duration: a.Duration, Rating: a.Rating}); err == nil {
		dto.Breakdown = &b
	}
	writeJSON(w, http.StatusCreated, dto)
}

// List returns the caller's activities, newest first. Optional query params:
// limit, start_date and end_date (YYYY-MM-DD, inclusive).
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if limit == 0 {
		limit = defaultActivityLimit
	}
	from, err := queryDate(r, "start_date")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	to, err := queryDate(r, "end_date")
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		writeError(w, r, h.log, apperr.Validation("end_date must not be before start_date"))
		return
	}

	acts, err := h.svc.List(r.Context(), store.ActivityFilter{
		CreatedBy: []string{mw.UserEmail(r.Context())},
		From:      from,
		To:        to,
		Limit:     limit,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityDTOs(acts))
}

// Scoring describes how points are awarded.
func (h *ActivityHandler) Scoring(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scoring.Table())
}
