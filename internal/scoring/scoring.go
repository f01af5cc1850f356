// Package scoring turns the attributes of a newly logged activity into reward points.
//
// Points are computed once, when the activity is created, and stored with it.
// Nothing in this package is ever used to re-score an existing activity.
package scoring

import (
	"lantern/internal/apperr"
	"lantern/internal/models"
)

const (
	RatingFiveBonus = 20
	RatingFourBonus = 10
	LongStudyBonus  = 25
	LongSocialBonus = 15
	FullSleepBonus  = 50

	LongStudyMinutes  = 60
	LongSocialMinutes = 30
	FullSleepHours    = 7
)

// Attributes are the scored fields of an activity. Rating 0 means unrated.
type Attributes struct {
	Duration float64
	Rating   int
}

// Bonus is one applied bonus line.
type Bonus struct {
	Reason string `json:"reason"`
	Points int    `json:"points"`
}

type Breakdown struct {
	Base    int     `json:"base"`
	Bonuses []Bonus `json:"bonuses"`
	Total   int     `json:"total"`
}

// BasePoints returns the base award for t. The switch must stay exhaustive over
// models.ActivityTypes; an unknown type is rejected rather than defaulted.
func BasePoints(t models.ActivityType) (int, error) {
	switch t {
	case models.ActivityFood:
		return 25, nil
	case models.ActivityStudy:
		return 50, nil
	case models.ActivitySleep:
		return 100, nil
	case models.ActivitySocial:
		return 30, nil
	}
	return 0, apperr.Validation("unknown activity type %q", t)
}

// Score returns the points for an activity of type t.
func Score(t models.ActivityType, a Attributes) (int, error) {
	b, err := Explain(t, a)
	if err != nil {
		return 0, err
	}
	return b.Total, nil
}

// Explain returns the base points and every bonus that applies.
func Explain(t models.ActivityType, a Attributes) (Breakdown, error) {
	base, err := BasePoints(t)
	if err != nil {
		return Breakdown{}, err
	}
	if a.Duration < 0 {
		return Breakdown{}, apperr.Validation("duration must not be negative")
	}
	if a.Rating < 0 || a.Rating > 5 {
		return Breakdown{}, apperr.Validation("rating must be between 1 and 5")
	}

	out := Breakdown{Base: base, Bonuses: []Bonus{}}
	add := func(reason string, pts int) {
		out.Bonuses = append(out.Bonuses, Bonus{Reason: reason, Points: pts})
	}

	// Only the highest rating band applies.
	switch a.Rating {
	case 5:
		add("rating_5", RatingFiveBonus)
	case 4:
		add("rating_4", RatingFourBonus)
	}

	switch t {
	case models.ActivityStudy:
		if a.Duration >= LongStudyMinutes {
			add("study_60_minutes", LongStudyBonus)
		}
	case models.ActivitySocial:
		if a.Duration >= LongSocialMinutes {
			add("social_30_minutes", LongSocialBonus)
		}
	case models.ActivitySleep:
		if a.Duration >= FullSleepHours {
			add("sleep_7_hours", FullSleepBonus)
		}
	case models.ActivityFood:
	}

	out.Total = out.Base
	for _, b := range out.Bonuses {
		out.Total += b.Points
	}
	return out, nil
}

// Rule describes one row of the scoring table shown to clients.
type Rule struct {
	Type   models.ActivityType `json:"type"`
	Base   int                 `json:"base"`
	Bonus  string              `json:"bonus,omitempty"`
	Points int                 `json:"points,omitempty"`
}

// Table lists the base points per type followed by the duration bonuses.
func Table() []Rule {
	var out []Rule
	for _, t := range models.ActivityTypes {
		base, _ := BasePoints(t)
		r := Rule{Type: t, Base: base}
		switch t {
		case models.ActivityStudy:
			r.Bonus, r.Points = "duration >= 60 minutes", LongStudyBonus
		case models.ActivitySocial:
			r.Bonus, r.Points = "duration >= 30 minutes", LongSocialBonus
		case models.ActivitySleep:
			r.Bonus, r.Points = "duration >= 7 hours", FullSleepBonus
		}
		out = append(out, r)
	}
	return out
}
