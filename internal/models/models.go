package models

import "time"

// DateLayout is the calendar-date format used on the wire and in DATE columns.
const DateLayout = "2006-01-02"

type ActivityType string

const (
	ActivityFood   ActivityType = "food"
	ActivityStudy  ActivityType = "study"
	ActivitySleep  ActivityType = "sleep"
	ActivitySocial ActivityType = "social"
)

// ActivityTypes lists every activity type in display order.
var ActivityTypes = []ActivityType{ActivityFood, ActivityStudy, ActivitySleep, ActivitySocial}

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityFood, ActivityStudy, ActivitySleep, ActivitySocial:
		return true
	}
	return false
}

type User struct {
	ID            int64     `db:"id" json:"id"`
	Email         string    `db:"email" json:"email"`
	PasswordHash  string    `db:"password_hash" json:"-"`
	Username      string    `db:"username" json:"username"`
	AvatarURL     string    `db:"avatar_url" json:"avatar_url"`
	Bio           string    `db:"bio" json:"bio"`
	StudyMinutes  float64   `db:"goal_study_minutes" json:"-"`
	SleepHours    float64   `db:"goal_sleep_hours" json:"-"`
	SocialMinutes float64   `db:"goal_social_minutes" json:"-"`
	MealsCount    float64   `db:"goal_meals_count" json:"-"`
	TotalPoints   int       `db:"total_points" json:"total_points"` // maintained outside this service
	CurrentStreak int       `db:"current_streak" json:"current_streak"`
	CreatedAt     time.Time `db:"created_at" json:"created_date"`
}

type Activity struct {
	ID           int64        `db:"id" json:"id"`
	Type         ActivityType `db:"type" json:"type"`
	Title        string       `db:"title" json:"title"`
	Duration     float64      `db:"duration" json:"duration"` // hours for sleep, minutes otherwise
	Calories     *float64     `db:"calories" json:"calories,omitempty"`
	Rating       int          `db:"rating" json:"rating,omitempty"` // 0 when not rated
	Date         time.Time    `db:"date" json:"-"`
	Notes        string       `db:"notes" json:"notes,omitempty"` // Encrypted in DB
	PointsEarned int          `db:"points_earned" json:"points_earned"`
	CreatedBy    string       `db:"created_by" json:"created_by"`
	CreatedAt    time.Time    `db:"created_at" json:"created_date"`
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed edge owned by CreatedBy and pointing at FriendEmail.
type Friendship struct {
	ID             int64            `db:"id" json:"id"`
	CreatedBy      string           `db:"created_by" json:"created_by"`
	FriendEmail    string           `db:"friend_email" json:"friend_email"`
	FriendUsername string           `db:"friend_username" json:"friend_username"`
	Status         FriendshipStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_date"`
}

type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
)

type Notification struct {
	ID             int64            `db:"id" json:"id"`
	RecipientEmail string           `db:"recipient_email" json:"recipient_email"`
	SenderUsername string           `db:"sender_username" json:"sender_username"`
	SenderAvatar   string           `db:"sender_avatar" json:"sender_avatar"`
	Type           NotificationType `db:"type" json:"type"`
	Message        string           `db:"message" json:"message"`
	RelatedID      *int64           `db:"related_id" json:"related_id,omitempty"`
	IsRead         bool             `db:"is_read" json:"is_read"`
	CreatedAt      time.Time        `db:"created_at" json:"created_date"`
}

// StoryLifetime is how long a story stays visible after it is posted.
const StoryLifetime = 24 * time.Hour

type Story struct {
	ID           int64     `db:"id" json:"id"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	UserUsername string    `db:"user_username" json:"user_username"`
	UserAvatar   string    `db:"user_avatar" json:"user_avatar"`
	MediaURL     string    `db:"media_url" json:"media_url"`
	Caption      string    `db:"caption" json:"caption,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_date"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
}

func (s Story) ActiveAt(t time.Time) bool { return s.ExpiresAt.After(t) }

// CivilDate returns t's calendar day, as seen in t's own location, at midnight UTC.
// Activity dates are compared and stored in this form.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
