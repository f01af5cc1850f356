// Package store declares the record store the services read from and write to.
// Implementations live in store/postgres and store/memory.
package store

import (
	"context"
	"errors"
	"time"

	"lantern/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// ActivityFilter narrows ListActivities. Zero values mean "no constraint".
type ActivityFilter struct {
	CreatedBy []string
	From      time.Time // inclusive, on the activity date
	To        time.Time // inclusive, on the activity date
	Limit     int
}

type ProfileUpdate struct {
	Username      *string
	AvatarURL     *string
	Bio           *string
	StudyMinutes  *float64
	SleepHours    *float64
	SocialMinutes *float64
	MealsCount    *float64
}

type Users interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, p ProfileUpdate) error
}

type Activities interface {
	CreateActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, f ActivityFilter) ([]models.Activity, error)
}

type Friendships interface {
	// GetFriendship returns the edge owned by owner that points at friendEmail.
	GetFriendship(ctx context.Context, owner, friendEmail string) (*models.Friendship, error)
	GetFriendshipByID(ctx context.Context, id int64) (*models.Friendship, error)
	// CreateFriendship fails with ErrDuplicate when (created_by, friend_email) exists.
	CreateFriendship(ctx context.Context, f *models.Friendship) error
	SetFriendshipStatus(ctx context.Context, id int64, status models.FriendshipStatus) error
	DeleteFriendship(ctx context.Context, id int64) error
	// ListFriendships lists owner's edges; an empty status lists all of them.
	ListFriendships(ctx context.Context, owner string, status models.FriendshipStatus) ([]models.Friendship, error)
}

type Notifications interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetNotification(ctx context.Context, id int64) (*models.Notification, error)
	ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error)
	CountUnread(ctx context.Context, recipient string) (int, error)
	MarkRead(ctx context.Context, id int64) error
	// MarkAllRead flips every unread notification of recipient visible when the
	// call starts, in one atomic step, and returns how many changed. Stores
	// without snapshot isolation use asOf as the cutoff.
	MarkAllRead(ctx context.Context, recipient string, asOf time.Time) (int64, error)
}

type Stories interface {
	CreateStory(ctx context.Context, s *models.Story) error
	// ListActiveStories lists stories of the given owners not yet expired at now, newest first.
	ListActiveStories(ctx context.Context, owners []string, now time.Time, limit int) ([]models.Story, error)
	PurgeExpiredStories(ctx context.Context, now time.Time) (int64, error)
}

// Tx is the subset of the store available inside a transaction.
type Tx interface {
	Friendships
	Notifications
}

type Store interface {
	Users
	Activities
	Friendships
	Notifications
	Stories

	// WithTx runs fn in a transaction; any error from fn rolls it back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
}
