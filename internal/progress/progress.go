// Package progress computes how far a user's logged activities go towards their daily goals.
package progress

import (
	"time"

	"lantern/internal/apperr"
	"lantern/internal/models"
)

const (
	DefaultStudyMinutes  = 60
	DefaultSleepHours    = 8
	DefaultSocialMinutes = 30
	DefaultMealsCount    = 3
)

// GoalTargets are the per-day targets a user configured on their profile.
type GoalTargets struct {
	StudyMinutes  float64 `json:"study_minutes"`
	SleepHours    float64 `json:"sleep_hours"`
	SocialMinutes float64 `json:"social_minutes"`
	MealsCount    float64 `json:"meals_count"`
}

func DefaultGoals() GoalTargets {
	return GoalTargets{
		StudyMinutes:  DefaultStudyMinutes,
		SleepHours:    DefaultSleepHours,
		SocialMinutes: DefaultSocialMinutes,
		MealsCount:    DefaultMealsCount,
	}
}

// GoalsOf reads the targets stored on a user.
func GoalsOf(u models.User) GoalTargets {
	return GoalTargets{
		StudyMinutes:  u.StudyMinutes,
		SleepHours:    u.SleepHours,
		SocialMinutes: u.SocialMinutes,
		MealsCount:    u.MealsCount,
	}
}

// Validate rejects targets that are zero or negative.
func (g GoalTargets) Validate() error {
	switch {
	case g.StudyMinutes <= 0:
		return apperr.Validation("study_minutes must be positive")
	case g.SleepHours <= 0:
		return apperr.Validation("sleep_hours must be positive")
	case g.SocialMinutes <= 0:
		return apperr.Validation("social_minutes must be positive")
	case g.MealsCount <= 0:
		return apperr.Validation("meals_count must be positive")
	}
	return nil
}

// Target returns the goal for a category and the unit it is measured in.
// ok is false for unknown categories.
func (g GoalTargets) Target(category models.ActivityType) (target float64, unit string, ok bool) {
	switch category {
	case models.ActivityStudy:
		return g.StudyMinutes, "minutes", true
	case models.ActivitySleep:
		return g.SleepHours, "hours", true
	case models.ActivitySocial:
		return g.SocialMinutes, "minutes", true
	case models.ActivityFood:
		return g.MealsCount, "meals", true
	}
	return 0, "", false
}

// Current is the raw amount logged for a category: summed duration, or the
// number of meals for food.
func Current(activities []models.Activity, category models.ActivityType) (float64, error) {
	var sum float64
	for _, a := range activities {
		if a.Type != category {
			continue
		}
		if a.Duration < 0 {
			return 0, apperr.Validation("activity %d has a negative duration", a.ID)
		}
		if category == models.ActivityFood {
			sum++
		} else {
			sum += a.Duration
		}
	}
	return sum, nil
}

// Progress returns the completion percentage for category, clamped to [0,100].
// Unknown categories report 0.
func Progress(activities []models.Activity, goals GoalTargets, category models.ActivityType) (float64, error) {
	target, _, ok := goals.Target(category)
	if !ok {
		return 0, nil
	}
	if target <= 0 {
		return 0, apperr.Validation("goal for %s must be positive", category)
	}
	cur, err := Current(activities, category)
	if err != nil {
		return 0, err
	}
	return clamp(100 * cur / target), nil
}

func clamp(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Met reports whether a percentage counts as the goal being reached.
func Met(pct float64) bool { return pct >= 100 }

type GoalProgress struct {
	Type    models.ActivityType `json:"type"`
	Current float64             `json:"current"`
	Target  float64             `json:"target"`
	Unit    string              `json:"unit"`
	Percent float64             `json:"percent"`
	Met     bool                `json:"met"`
}

// Summary returns one row per activity type, in models.ActivityTypes order.
func Summary(activities []models.Activity, goals GoalTargets) ([]GoalProgress, error) {
	if err := goals.Validate(); err != nil {
		return nil, err
	}
	out := make([]GoalProgress, 0, len(models.ActivityTypes))
	for _, t := range models.ActivityTypes {
		pct, err := Progress(activities, goals, t)
		if err != nil {
			return nil, err
		}
		cur, _ := Current(activities, t)
		target, unit, _ := goals.Target(t)
		out = append(out, GoalProgress{Type: t, Current: cur, Target: target, Unit: unit, Percent: pct, Met: Met(pct)})
	}
	return out, nil
}

// ForDay keeps the activities dated on day's calendar date.
func ForDay(activities []models.Activity, day time.Time) []models.Activity {
	d := models.CivilDate(day)
	var out []models.Activity
	for _, a := range activities {
		if models.CivilDate(a.Date).Equal(d) {
			out = append(out, a)
		}
	}
	return out
}
