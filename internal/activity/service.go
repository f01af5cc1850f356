// Package activity validates, scores and persists logged activities.
package activity

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"lantern/internal/apperr"
	"lantern/internal/crypto"
	"lantern/internal/metrics"
	"lantern/internal/models"
	"lantern/internal/scoring"
	"lantern/internal/store"
)

// Draft is the creation payload sent by clients.
type Draft struct {
	Type     models.ActivityType `json:"type"`
	Title    string              `json:"title"`
	Duration *float64            `json:"duration"`
	Calories *float64            `json:"calories"`
	Rating   *int                `json:"rating"`
	Date     string              `json:"date"` // YYYY-MM-DD
	Notes    string              `json:"notes"`
}

type Service struct {
	store  store.Activities
	cipher *crypto.Cipher
	log    *zap.Logger
}

func NewService(st store.Activities, cipher *crypto.Cipher, log *zap.Logger) *Service {
	return &Service{store: st, cipher: cipher, log: log}
}

// Validate checks a draft and turns it into an unsaved activity owned by owner.
func Validate(owner string, d Draft) (models.Activity, error) {
	if !d.Type.Valid() {
		return models.Activity{}, apperr.Validation("type must be one of food, study, sleep, social")
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return models.Activity{}, apperr.Validation("title is required")
	}
	if d.Date == "" {
		return models.Activity{}, apperr.Validation("date is required")
	}
	date, err := models.ParseDate(d.Date)
	if err != nil {
		return models.Activity{}, apperr.Validation("invalid date format; expected YYYY-MM-DD")
	}

	a := models.Activity{
		Type:      d.Type,
		Title:     title,
		Date:      date,
		Notes:     strings.TrimSpace(d.Notes),
		CreatedBy: owner,
	}
	if d.Duration != nil {
		if *d.Duration < 0 {
			return models.Activity{}, apperr.Validation("duration must not be negative")
		}
		a.Duration = *d.Duration
	}
	if d.Rating != nil {
		if *d.Rating < 1 || *d.Rating > 5 {
			return models.Activity{}, apperr.Validation("rating must be between 1 and 5")
		}
		a.Rating = *d.Rating
	}
	// Calories only mean something for meals; other forms send a zero placeholder.
	if d.Calories != nil && d.Type == models.ActivityFood {
		if *d.Calories < 0 {
			return models.Activity{}, apperr.Validation("calories must not be negative")
		}
		c := *d.Calories
		a.Calories = &c
	}
	return a, nil
}

// Log validates the draft, scores it once and persists it. The returned activity
// carries plaintext notes.
func (s *Service) Log(ctx context.Context, owner string, d Draft) (*models.Activity, error) {
	a, err := Validate(owner, d)
	if err != nil {
		return nil, err
	}
	a.PointsEarned, err = scoring.Score(a.Type, scoring.Attributes{Duration: a.Duration, Rating: a.Rating})
	if err != nil {
		return nil, err
	}

	plainNotes := a.Notes
	if a.Notes, err = s.cipher.Encrypt(plainNotes); err != nil {
		return nil, apperr.Unavailable("could not encrypt notes", err)
	}
	if err := s.store.CreateActivity(ctx, &a); err != nil {
		return nil, apperr.FromStore(err, "activity")
	}
	a.Notes = plainNotes

	metrics.RecordActivity(string(a.Type), a.PointsEarned)
	s.log.Info("activity logged",
		zap.Int64("activity_id", a.ID),
		zap.String("type", string(a.Type)),
		zap.Int("points", a.PointsEarned),
	)
	return &a, nil
}

// List returns activities matching f, newest first, with notes decrypted.
// Rows whose notes cannot be decrypted are returned with empty notes.
func (s *Service) List(ctx context.Context, f store.ActivityFilter) ([]models.Activity, error) {
	out, err := s.store.ListActivities(ctx, f)
	if err != nil {
		return nil, apperr.FromStore(err, "activity")
	}
	for i := range out {
		plain, err := s.cipher.Decrypt(out[i].Notes)
		if err != nil {
			s.log.Warn("could not decrypt activity notes", zap.Int64("activity_id", out[i].ID), zap.Error(err))
			plain = ""
		}
		out[i].Notes = plain
	}
	return out, nil
}

// Window returns the owner's activities dated within [from, to].
func (s *Service) Window(ctx context.Context, owner string, from, to time.Time) ([]models.Activity, error) {
	return s.List(ctx, store.ActivityFilter{CreatedBy: []string{owner}, From: from, To: to})
}
