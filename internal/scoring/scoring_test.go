package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lantern/internal/apperr"
	"lantern/internal/models"
)

func TestScore(t *testing.T) {
	cases := []struct {
		name string
		typ  models.ActivityType
		attr Attributes
		want int
	}{
		{"full sleep five stars", models.ActivitySleep, Attributes{Duration: 7, Rating: 5}, 170},
		{"short study average", models.ActivityStudy, Attributes{Duration: 59, Rating: 3}, 50},
		{"social threshold four stars", models.ActivitySocial, Attributes{Duration: 30, Rating: 4}, 55},
		{"long study", models.ActivityStudy, Attributes{Duration: 60}, 75},
		{"short sleep", models.ActivitySleep, Attributes{Duration: 6.5, Rating: 2}, 100},
		{"food five stars", models.ActivityFood, Attributes{Rating: 5}, 45},
		{"food ignores duration", models.ActivityFood, Attributes{Duration: 500, Rating: 1}, 25},
		{"short social", models.ActivitySocial, Attributes{Duration: 29}, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Score(tc.typ, tc.attr)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScoreRatingBandsDoNotStack(t *testing.T) {
	b, err := Explain(models.ActivityFood, Attributes{Rating: 5})
	require.NoError(t, err)
	require.Len(t, b.Bonuses, 1)
	assert.Equal(t, "rating_5", b.Bonuses[0].Reason)
}

func TestScoreIsDeterministicAndNonNegative(t *testing.T) {
	for _, typ := range models.ActivityTypes {
		for rating := 0; rating <= 5; rating++ {
			for _, d := range []float64{0, 1, 7, 29, 30, 59, 60, 600} {
				a, err := Score(typ, Attributes{Duration: d, Rating: rating})
				require.NoError(t, err)
				b, err := Score(typ, Attributes{Duration: d, Rating: rating})
				require.NoError(t, err)
				assert.Equal(t, a, b)
				assert.GreaterOrEqual(t, a, 0)
			}
		}
	}
}

func TestScoreRejectsInvalidInput(t *testing.T) {
	_, err := Score("gaming", Attributes{})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = Score(models.ActivityStudy, Attributes{Duration: -1})
	assert.True(t, errors.Is(err, apperr.ErrValidation))

	_, err = Score(models.ActivityStudy, Attributes{Rating: 6})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}

func TestTableCoversEveryType(t *testing.T) {
	rules := Table()
	require.Len(t, rules, len(models.ActivityTypes))
	assert.Equal(t, 100, rules[2].Base)
	assert.Empty(t, rules[0].Bonus)
}
