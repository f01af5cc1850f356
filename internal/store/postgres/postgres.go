// Package postgres implements store.Store on PostgreSQL through sqlx and the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"lantern/internal/models"
	"lantern/internal/store"
)

type Store struct {
	db *sqlx.DB
	social
}

var _ store.Store = (*Store)(nil)

func New(db *sqlx.DB) *Store {
	return &Store{db: db, social: social{q: db}}
}

// mapErr translates driver errors into the store sentinels.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", store.ErrDuplicate, pgErr.ConstraintName)
	}
	return err
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(social{q: tx, forUpdate: true}); err != nil {
		return err
	}
	return tx.Commit()
}

const userColumns = `id, email, password_hash, username, avatar_url, bio,
	goal_study_minutes, goal_sleep_hours, goal_social_minutes, goal_meals_count,
	total_points, current_streak, created_at`

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	err := s.db.QueryRowxContext(ctx, `INSERT INTO users (email, password_hash, username, avatar_url, bio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns, u.Email, u.PasswordHash, u.Username, u.AvatarURL, u.Bio).StructScan(u)
	return mapErr(err)
}

func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id=$1`, id); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email=$1`, email); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

func (s *Store) UpdateProfile(ctx context.Context, id int64, p store.ProfileUpdate) error {
	setClauses := []string{}
	args := []interface{}{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		setClauses = append(setClauses, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if p.Username != nil {
		set("username", *p.Username)
	}
	if p.AvatarURL != nil {
		set("avatar_url", *p.AvatarURL)
	}
	if p.Bio != nil {
		set("bio", *p.Bio)
	}
	if p.StudyMinutes != nil {
		set("goal_study_minutes", *p.StudyMinutes)
	}
	if p.SleepHours != nil {
		set("goal_sleep_hours", *p.SleepHours)
	}
	if p.SocialMinutes != nil {
		set("goal_social_minutes", *p.SocialMinutes)
	}
	if p.MealsCount != nil {
		set("goal_meals_count", *p.MealsCount)
	}
	if len(setClauses) == 0 {
		return nil
	}

	args = append(args, id)
	query := "UPDATE users SET " + strings.Join(setClauses, ", ") + fmt.Sprintf(" WHERE id=$%d", len(args))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapErr(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	err := s.db.QueryRowxContext(ctx, `INSERT INTO activities (type, title, duration, calories, rating, date, notes, points_earned, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		a.Type, a.Title, a.Duration, a.Calories, a.Rating, a.Date, a.Notes, a.PointsEarned, a.CreatedBy).Scan(&a.ID, &a.CreatedAt)
	return mapErr(err)
}

func (s *Store) ListActivities(ctx context.Context, f store.ActivityFilter) ([]models.Activity, error) {
	where := []string{"TRUE"}
	args := []interface{}{}
	if len(f.CreatedBy) > 0 {
		where = append(where, "created_by IN (?)")
		args = append(args, f.CreatedBy)
	}
	if !f.From.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	query := `SELECT id, type, title, duration, calories, rating, date, notes, points_earned, created_by, created_at
		FROM activities WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return nil, err
	}
	var out []models.Activity
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) CreateStory(ctx context.Context, st *models.Story) error {
	err := s.db.QueryRowxContext(ctx, `INSERT INTO stories (created_by, user_username, user_avatar, media_url, caption, expires_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW() + INTERVAL '24 hours'))
		RETURNING id, created_at, expires_at`,
		st.CreatedBy, st.UserUsername, st.UserAvatar, st.MediaURL, st.Caption, nullTime(st.ExpiresAt)).Scan(&st.ID, &st.CreatedAt, &st.ExpiresAt)
	return mapErr(err)
}

func (s *Store) ListActiveStories(ctx context.Context, owners []string, now time.Time, limit int) ([]models.Story, error) {
	if len(owners) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT id, created_by, user_username, user_avatar, media_url, caption, created_at, expires_at
		FROM stories WHERE created_by IN (?) AND expires_at > ?
		ORDER BY created_at DESC, id DESC LIMIT ?`, owners, now, limit)
	if err != nil {
		return nil, err
	}
	var out []models.Story
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(query), args...); err != nil {
		return nil, mapErr(err)
	}
	return out, nil
}

func (s *Store) PurgeExpiredStories(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM stories WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, mapErr(err)
	}
	return res.RowsAffected()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
