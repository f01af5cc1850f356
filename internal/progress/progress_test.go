package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lantern/internal/apperr"
	"lantern/internal/models"
)

func act(t models.ActivityType, duration float64) models.Activity {
	return models.Activity{Type: t, Duration: duration, Date: time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)}
}

func TestProgressClampsAtHundred(t *testing.T) {
	acts := []models.Activity{act(models.ActivityStudy, 90), act(models.ActivityStudy, 30)}
	p, err := Progress(acts, DefaultGoals(), models.ActivityStudy)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p)

	acts = append(acts, act(models.ActivityStudy, 100000))
	p, err = Progress(acts, DefaultGoals(), models.ActivityStudy)
	require.NoError(t, err)
	assert.Equal(t, 100.0, p)
}

func TestProgressPerCategory(t *testing.T) {
	acts := []models.Activity{
		act(models.ActivityStudy, 30),
		act(models.ActivitySleep, 6),
		act(models.ActivitySocial, 15),
		act(models.ActivityFood, 0),
		act(models.ActivityFood, 10),
	}
	goals := DefaultGoals()

	cases := map[models.ActivityType]float64{
		models.ActivityStudy:  50,
		models.ActivitySleep:  75,
		models.ActivitySocial: 50,
		models.ActivityFood:   100 * 2.0 / 3.0,
	}
	for typ, want := range cases {
		got, err := Progress(acts, goals, typ)
		require.NoError(t, err)
		assert.InDelta(t, want, got, 1e-9, typ)
	}

	got, err := Progress(acts, goals, "gaming")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestProgressRejectsBadInput(t *testing.T) {
	goals := DefaultGoals()
	goals.StudyMinutes = 0
	_, err := Progress(nil, goals, models.ActivityStudy)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.True(t, errors.Is(goals.Validate(), apperr.ErrValidation))

	_, err = Progress([]models.Activity{act(models.ActivitySleep, -2)}, DefaultGoals(), models.ActivitySleep)
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestSummary(t *testing.T) {
	acts := []models.Activity{act(models.ActivitySleep, 8), act(models.ActivityFood, 0)}
	rows, err := Summary(acts, DefaultGoals())
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, models.ActivityFood, rows[0].Type)
	assert.Equal(t, 1.0, rows[0].Current)
	assert.Equal(t, "meals", rows[0].Unit)
	assert.False(t, rows[0].Met)

	assert.Equal(t, models.ActivitySleep, rows[2].Type)
	assert.True(t, rows[2].Met)
}

func TestForDay(t *testing.T) {
	a := act(models.ActivityStudy, 10)
	b := act(models.ActivityStudy, 10)
	b.Date = b.Date.AddDate(0, 0, 1)

	loc := time.FixedZone("UTC-8", -8*3600)
	got := ForDay([]models.Activity{a, b}, time.Date(2025, 3, 4, 23, 30, 0, 0, loc))
	require.Len(t, got, 1)
	assert.Equal(t, a.Date, got[0].Date)
}
