package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"lantern/internal/activity"
	"lantern/internal/models"
	"lantern/internal/progress"
	"lantern/internal/series"
	"lantern/internal/store"
)

const (
	recentActivities = 5
	// analyticsSample bounds the activities behind distribution and totals.
	analyticsSample = 100
)

type DashboardHandler struct {
	users     store.Users
	acts      *activity.Service
	weekStart time.Weekday
	now       func() time.Time
	log       *zap.Logger
}

func NewDashboardHandler(users store.Users, acts *activity.Service, weekStart time.Weekday, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{users: users, acts: acts, weekStart: weekStart, now: time.Now, log: log}
}

// referenceDate is the user's "today": the local_date query param when given,
// otherwise the server's calendar date.
func (h *DashboardHandler) referenceDate(r *http.Request) (time.Time, error) {
	d, err := queryDate(r, "local_date")
	if err != nil || !d.IsZero() {
		return d, err
	}
	return models.CivilDate(h.now()), nil
}

type dashboardResponse struct {
	ReferenceDate string                  `json:"reference_date"`
	Goals         []progress.GoalProgress `json:"goals"`
	GoalsMet      int                     `json:"goals_met"`
	TodayPoints   int                     `json:"today_points"`
	Week          []series.Bucket         `json:"week"`
	Recent        []ActivityDTO           `json:"recent"`
	TotalPoints   int                     `json:"total_points"`
	CurrentStreak int                     `json:"current_streak"`
}

// Get powers the home screen: today's goal progress, the current week's
// activity series and the most recent activities.
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceDate(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	weekStart := series.StartOfWeek(ref, h.weekStart)
	week, err := h.acts.Window(r.Context(), u.Email, weekStart, weekStart.AddDate(0, 0, 6))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	today := progress.ForDay(week, ref)
	goals, err := progress.Summary(today, progress.GoalsOf(*u))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	resp := dashboardResponse{
		ReferenceDate: ref.Format(models.DateLayout),
		Goals:         goals,
		Week:          series.Daily(week, ref, h.weekStart),
		TotalPoints:   u.TotalPoints,
		CurrentStreak: u.CurrentStreak,
	}
	for _, g := range goals {
		if g.Met {
			resp.GoalsMet++
		}
	}
	for _, a := range today {
		resp.TodayPoints += a.PointsEarned
	}
	recent := week
	if len(recent) > recentActivities {
		recent = recent[:recentActivities]
	}
	resp.Recent = toActivityDTOs(recent)

	writeJSON(w, http.StatusOK, resp)
}

type analyticsResponse struct {
	ReferenceDate string          `json:"reference_date"`
	Weeks         []series.Bucket `json:"weeks"`
	Week          []series.Bucket `json:"week"`
	Distribution  series.Counts   `json:"distribution"`
	Totals        series.Totals   `json:"totals"`
}

// Analytics covers the four-week view ending with the current week. Distribution
// and totals are computed over the latest analyticsSample activities, which may
// reach further back than the four weeks.
func (h *DashboardHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ref, err := h.referenceDate(r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	u, err := currentUser(r, h.users)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	weekStart := series.StartOfWeek(ref, h.weekStart)
	from := weekStart.AddDate(0, 0, -7*(series.WeeksInMonthView-1))
	acts, err := h.acts.Window(r.Context(), u.Email, from, weekStart.AddDate(0, 0, 6))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	sample, err := h.acts.List(r.Context(), store.ActivityFilter{
		CreatedBy: []string{u.Email},
		Limit:     analyticsSample,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, analyticsResponse{
		ReferenceDate: ref.Format(models.DateLayout),
		Weeks:         series.Weekly(acts, ref, h.weekStart),
		Week:          series.Daily(acts, ref, h.weekStart),
		Distribution:  series.Distribution(sample),
		Totals:        series.Summarize(sample, ref, h.weekStart),
	})
}
