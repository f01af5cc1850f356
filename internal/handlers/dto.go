package handlers

import (
	"time"

	"lantern/internal/models"
	"lantern/internal/progress"
	"lantern/internal/scoring"
)

// UserDTO is the profile as seen by its owner, goals included.
type UserDTO struct {
	ID            int64                `json:"id"`
	Email         string               `json:"email"`
	Username      string               `json:"username"`
	AvatarURL     string               `json:"avatar_url"`
	Bio           string               `json:"bio"`
	DailyGoals    progress.GoalTargets `json:"daily_goals"`
	TotalPoints   int                  `json:"total_points"`
	CurrentStreak int                  `json:"current_streak"`
	CreatedAt     string               `json:"created_date"`
}

func ToUserDTO(u models.User) UserDTO {
	return UserDTO{
		ID:            u.ID,
		Email:         u.Email,
		Username:      u.Username,
		AvatarURL:     u.AvatarURL,
		Bio:           u.Bio,
		DailyGoals:    progress.GoalsOf(u),
		TotalPoints:   u.TotalPoints,
		CurrentStreak: u.CurrentStreak,
		CreatedAt:     u.CreatedAt.Format(time.RFC3339),
	}
}

// ActivityDTO keeps the activity date as a plain YYYY-MM-DD string.
type ActivityDTO struct {
	ID           int64               `json:"id"`
	Type         models.ActivityType `json:"type"`
	Title        string              `json:"title"`
	Duration     float64             `json:"duration"`
	Calories     *float64            `json:"calories,omitempty"`
	Rating       *int                `json:"rating,omitempty"`
	Date         string              `json:"date"`
	Notes        string              `json:"notes,omitempty"`
	PointsEarned int                 `json:"points_earned"`
	CreatedBy    string              `json:"created_by"`
	CreatedAt    string              `json:"created_date"`
	Breakdown    *scoring.Breakdown  `json:"breakdown,omitempty"`
}

func ToActivityDTO(a models.Activity) ActivityDTO {
	dto := ActivityDTO{
		ID:           a.ID,
		Type:         a.Type,
		Title:        a.Title,
		Duration:     a.Duration,
		Calories:     a.Calories,
		Date:         a.Date.Format(models.DateLayout),
		Notes:        a.Notes,
		PointsEarned: a.PointsEarned,
		CreatedBy:    a.CreatedBy,
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
	}
	if a.Rating > 0 {
		r := a.Rating
		dto.Rating = &r
	}
	return dto
}

func toActivityDTOs(in []models.Activity) []ActivityDTO {
	out := make([]ActivityDTO, 0, len(in))
	for _, a := range in {
		out = append(out, ToActivityDTO(a))
	}
	return out
}
