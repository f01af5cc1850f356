// Package series buckets activities into the daily and weekly series behind the trend charts.
//
// Bucketing always uses the user-supplied activity date, never the creation time,
// and every function here is pure: the same activities and "now" give the same buckets.
package series

import (
	"strings"
	"time"

	"lantern/internal/apperr"
	"lantern/internal/models"
)

// Counts holds activity counts per type.
type Counts struct {
	Food   int `json:"food"`
	Study  int `json:"study"`
	Sleep  int `json:"sleep"`
	Social int `json:"social"`
}

func (c *Counts) add(t models.ActivityType) bool {
	switch t {
	case models.ActivityFood:
		c.Food++
	case models.ActivityStudy:
		c.Study++
	case models.ActivitySleep:
		c.Sleep++
	case models.ActivitySocial:
		c.Social++
	default:
		return false
	}
	return true
}

func (c Counts) Get(t models.ActivityType) int {
	switch t {
	case models.ActivityFood:
		return c.Food
	case models.ActivityStudy:
		return c.Study
	case models.ActivitySleep:
		return c.Sleep
	case models.ActivitySocial:
		return c.Social
	}
	return 0
}

type Bucket struct {
	Label  string    `json:"label"`
	Start  time.Time `json:"-"`
	Counts Counts    `json:"counts"`
	Total  int       `json:"total"`
}

// StartOfWeek returns the calendar date of the week start on or before now.
func StartOfWeek(now time.Time, weekStart time.Weekday) time.Time {
	d := models.CivilDate(now)
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// Series splits [windowStart, windowStart+windowDays) into contiguous buckets of
// bucketDays each, oldest first, and counts activities by their date.
func Series(activities []models.Activity, windowStart time.Time, windowDays, bucketDays int, label func(time.Time) string) ([]Bucket, error) {
	if windowDays <= 0 || bucketDays <= 0 || windowDays%bucketDays != 0 {
		return nil, apperr.Validation("window of %d days cannot be split into %d-day buckets", windowDays, bucketDays)
	}
	start := models.CivilDate(windowStart)
	n := windowDays / bucketDays
	buckets := make([]Bucket, n)
	for i := range buckets {
		bs := start.AddDate(0, 0, i*bucketDays)
		buckets[i] = Bucket{Label: label(bs), Start: bs}
	}
	end := start.AddDate(0, 0, windowDays)

	for _, a := range activities {
		d := models.CivilDate(a.Date)
		if d.Before(start) || !d.Before(end) {
			continue
		}
		days := int(d.Sub(start).Hours() / 24)
		b := &buckets[days/bucketDays]
		if b.Counts.add(a.Type) {
			b.Total++
		}
	}
	return buckets, nil
}

// Daily returns seven one-day buckets for the week containing now.
func Daily(activities []models.Activity, now time.Time, weekStart time.Weekday) []Bucket {
	b, _ := Series(activities, StartOfWeek(now, weekStart), 7, 1, func(t time.Time) string {
		return t.Format("Mon 01/02")
	})
	return b
}

// WeeksInMonthView is the number of weekly buckets in the monthly view.
const WeeksInMonthView = 4

// Weekly returns four one-week buckets, the last being the week containing now.
func Weekly(activities []models.Activity, now time.Time, weekStart time.Weekday) []Bucket {
	first := StartOfWeek(now, weekStart).AddDate(0, 0, -7*(WeeksInMonthView-1))
	b, _ := Series(activities, first, 7*WeeksInMonthView, 7, func(t time.Time) string {
		return t.Format("Jan 2")
	})
	return b
}

// Distribution counts activities per type regardless of date.
func Distribution(activities []models.Activity) Counts {
	var c Counts
	for _, a := range activities {
		c.add(a.Type)
	}
	return c
}

type Totals struct {
	Activities     int     `json:"activities"`
	Points         int     `json:"points"`
	ThisWeek       int     `json:"this_week"`
	AveragePerWeek float64 `json:"average_per_week"`
}

// Summarize totals the given activities. ThisWeek counts activities dated from
// the current week start onwards; AveragePerWeek spreads the weekly buckets evenly.
func Summarize(activities []models.Activity, now time.Time, weekStart time.Weekday) Totals {
	t := Totals{Activities: len(activities)}
	ws := StartOfWeek(now, weekStart)
	for _, a := range activities {
		t.Points += a.PointsEarned
		if !models.CivilDate(a.Date).Before(ws) {
			t.ThisWeek++
		}
	}
	var inWindow int
	for _, b := range Weekly(activities, now, weekStart) {
		inWindow += b.Total
	}
	t.AveragePerWeek = float64(inWindow) / WeeksInMonthView
	return t
}

// ParseWeekday parses an English weekday name such as "sunday" or "Mon".
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || (len(s) == 3 && strings.HasPrefix(name, s)) {
			return d, nil
		}
	}
	return time.Sunday, apperr.Validation("unknown weekday %q", s)
}
