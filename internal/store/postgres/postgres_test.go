package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lantern/internal/models"
	"lantern/internal/store"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })
	return New(sqlx.NewDb(raw, "pgx")), mock
}

func TestCreateFriendshipConflictBecomesDuplicate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("INSERT INTO friendships").
		WithArgs("a@x.io", "b@x.io", "bee", models.FriendshipPending).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	err := s.CreateFriendship(context.Background(), &models.Friendship{
		CreatedBy: "a@x.io", FriendEmail: "b@x.io", FriendUsername: "bee", Status: models.FriendshipPending,
	})
	assert.ErrorIs(t, err, store.ErrDuplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateFriendshipReturnsID(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO friendships").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	f := models.Friendship{CreatedBy: "a@x.io", FriendEmail: "b@x.io", Status: models.FriendshipPending}
	require.NoError(t, s.CreateFriendship(context.Background(), &f))
	assert.EqualValues(t, 7, f.ID)
	assert.Equal(t, now, f.CreatedAt)
}

func TestMapErr(t *testing.T) {
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}), store.ErrDuplicate)
	other := errors.New("connection reset")
	assert.Equal(t, other, mapErr(other))
	assert.NoError(t, mapErr(nil))
}

func TestGetUserNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT .* FROM users WHERE id=\\$1").WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetUser(context.Background(), 3)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateProfileBuildsSetClauses(t *testing.T) {
	s, mock := newMock(t)
	name := "lin"
	sleep := 7.5
	mock.ExpectExec("UPDATE users SET username=\\$1, goal_sleep_hours=\\$2 WHERE id=\\$3").
		WithArgs("lin", 7.5, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, s.UpdateProfile(context.Background(), 9, store.ProfileUpdate{Username: &name, SleepHours: &sleep}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActivitiesExpandsOwners(t *testing.T) {
	s, mock := newMock(t)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cols := []string{"id", "type", "title", "duration", "calories", "rating", "date", "notes", "points_earned", "created_by", "created_at"}
	mock.ExpectQuery("FROM activities WHERE TRUE AND created_by IN \\(\\$1, \\$2\\) AND date >= \\$3 ORDER BY created_at DESC, id DESC LIMIT 20").
		WithArgs("a@x.io", "b@x.io", from).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(1, "study", "Go", 90.0, nil, 5, from, "", 95, "a@x.io", from))

	out, err := s.ListActivities(context.Background(), store.ActivityFilter{
		CreatedBy: []string{"a@x.io", "b@x.io"}, From: from, Limit: 20,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, models.ActivityStudy, out[0].Type)
	assert.Equal(t, 95, out[0].PointsEarned)
	assert.Nil(t, out[0].Calories)
}

func TestMarkAllReadIsOneStatement(t *testing.T) {
	s, mock := newMock(t)
	// A skewed app clock must not narrow the update.
	asOf := time.Unix(0, 0)
	mock.ExpectExec("UPDATE notifications SET is_read=true\\s+WHERE recipient_email=\\$1 AND is_read=false$").
		WithArgs("b@x.io").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := s.MarkAllRead(context.Background(), "b@x.io", asOf)
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestWithTxLocksAndCommits(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FROM friendships\\s+WHERE created_by=\\$1 AND friend_email=\\$2 FOR UPDATE").
		WithArgs("a@x.io", "b@x.io").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	err := s.WithTx(context.Background(), func(tx store.Tx) error {
		_, err := tx.GetFriendship(context.Background(), "a@x.io", "b@x.io")
		assert.ErrorIs(t, err, store.ErrNotFound)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBack(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(store.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}
