package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"lantern/internal/models"
	"lantern/internal/store"
)

// social serves friendships and notifications either directly on the pool or
// inside a transaction, where edge reads take row locks.
type social struct {
	q         sqlx.ExtContext
	forUpdate bool
}

var _ store.Tx = social{}

const friendshipColumns = `id, created_by, friend_email, friend_username, status, created_at`

func (s social) lock() string {
	if s.forUpdate {
		return " FOR UPDATE"
	}
	return ""
}

func (s social) GetFriendship(ctx context.Context, owner, friendEmail string) (*models.Friendship, error) {
	var f models.Friendship
	err := sqlx.GetContext(ctx, s.q, &f, `SELECT `+friendshipColumns+` FROM friendships
		WHERE created_by=$1 AND friend_email=$2`+s.lock(), owner, friendEmail)
	if err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

func (s social) GetFriendshipByID(ctx context.Context, id int64) (*models.Friendship, error) {
	var f models.Friendship
	if err := sqlx.GetContext(ctx, s.q, &f, `SELECT `+friendshipColumns+` FROM friendships WHERE id=$1`+s.lock(), id); err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

// CreateFriendship relies on the (created_by, friend_email) unique index. ON CONFLICT
// keeps a surrounding transaction usable when a concurrent insert won.
func (s social) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	err := s.q.QueryRowxContext(ctx, `INSERT INTO friendships (created_by, friend_email, friend_username, status)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (created_by, friend_email) DO NOTHING
		RETURNING id, created_at`, f.CreatedBy, f.FriendEmail, f.FriendUsername, f.Status).Scan(&f.ID, &f.CreatedAt)
	if err = mapErr(err); errors.Is(err, store.ErrNotFound) {
		return store.ErrDuplicate
	}
	return err
}

func (s social) SetFriendshipStatus(ctx context.Context, id int64, status models.FriendshipStatus) error {
	res, err := s.q.ExecContext(ctx, `UPDATE friendships SET status=$1 WHERE id=$2`, status, id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s social) DeleteFriendship(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `DELETE FROM friendships WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s social) ListFriendships(ctx context.Context, owner string, status models.FriendshipStatus) ([]models.Friendship, error) {
	var out []models.Friendship
	err := sqlx.SelectContext(ctx, s.q, &out, `SELECT `+friendshipColumns+` FROM friendships
		WHERE created_by=$1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC, id DESC`, owner, string(status))
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

const notificationColumns = `id, recipient_email, sender_username, sender_avatar, type, message, related_id, is_read, created_at`

func (s social) CreateNotification(ctx context.Context, n *models.Notification) error {
	err := s.q.QueryRowxContext(ctx, `INSERT INTO notifications (recipient_email, sender_username, sender_avatar, type, message, related_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, is_read, created_at`,
		n.RecipientEmail, n.SenderUsername, n.SenderAvatar, n.Type, n.Message, n.RelatedID).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	return mapErr(err)
}

func (s social) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	var n models.Notification
	if err := sqlx.GetContext(ctx, s.q, &n, `SELECT `+notificationColumns+` FROM notifications WHERE id=$1`+s.lock(), id); err != nil {
		return nil, mapErr(err)
	}
	return &n, nil
}

func (s social) ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	err := sqlx.SelectContext(ctx, s.q, &out, `SELECT `+notificationColumns+` FROM notifications
		WHERE recipient_email=$1
		ORDER BY created_at DESC, id DESC LIMIT $2`, recipient, limit)
	if err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s social) CountUnread(ctx context.Context, recipient string) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, s.q, &n, `SELECT COUNT(*) FROM notifications WHERE recipient_email=$1 AND is_read=false`, recipient)
	return n, mapErr(err)
}

func (s social) MarkRead(ctx context.Context, id int64) error {
	res, err := s.q.ExecContext(ctx, `UPDATE notifications SET is_read=true WHERE id=$1`, id)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

// MarkAllRead is a single statement, so callers never observe a partial update.
// The statement's own snapshot bounds which rows it sees; asOf is not compared
// against created_at because that column is stamped by the database clock.
func (s social) MarkAllRead(ctx context.Context, recipient string, _ time.Time) (int64, error) {
	res, err := s.q.ExecContext(ctx, `UPDATE notifications SET is_read=true
		WHERE recipient_email=$1 AND is_read=false`, recipient)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}
