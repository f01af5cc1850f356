package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lantern/internal/models"
	"lantern/internal/store"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	boom := errors.New("boom")

	err := m.WithTx(ctx, func(tx store.Tx) error {
		require.NoError(t, tx.CreateFriendship(ctx, &models.Friendship{CreatedBy: "a@x.io", FriendEmail: "b@x.io", Status: models.FriendshipPending}))
		require.NoError(t, tx.CreateNotification(ctx, &models.Notification{RecipientEmail: "b@x.io"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = m.GetFriendship(ctx, "a@x.io", "b@x.io")
	assert.ErrorIs(t, err, store.ErrNotFound)
	n, err := m.CountUnread(ctx, "b@x.io")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateFriendshipIsUniquePerPair(t *testing.T) {
	ctx := context.Background()
	m := New(nil)
	f := models.Friendship{CreatedBy: "a@x.io", FriendEmail: "b@x.io", Status: models.FriendshipPending}
	require.NoError(t, m.CreateFriendship(ctx, &f))
	dup := f
	assert.ErrorIs(t, m.CreateFriendship(ctx, &dup), store.ErrDuplicate)

	reverse := models.Friendship{CreatedBy: "b@x.io", FriendEmail: "a@x.io", Status: models.FriendshipPending}
	assert.NoError(t, m.CreateFriendship(ctx, &reverse))
}

func TestMarkAllReadHonoursSnapshot(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := New(clock.Now)

	require.NoError(t, m.CreateNotification(ctx, &models.Notification{RecipientEmail: "b@x.io"}))
	asOf := clock.t
	clock.t = clock.t.Add(time.Second)
	require.NoError(t, m.CreateNotification(ctx, &models.Notification{RecipientEmail: "b@x.io"}))
	require.NoError(t, m.CreateNotification(ctx, &models.Notification{RecipientEmail: "c@x.io"}))

	changed, err := m.MarkAllRead(ctx, "b@x.io", asOf)
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	n, err := m.CountUnread(ctx, "b@x.io")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestListActivitiesFilters(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := New(clock.Now)
	day := func(s string) time.Time { d, _ := models.ParseDate(s); return d }

	for i, a := range []models.Activity{
		{CreatedBy: "a@x.io", Date: day("2025-01-01"), Type: models.ActivityFood},
		{CreatedBy: "a@x.io", Date: day("2025-01-05"), Type: models.ActivityStudy},
		{CreatedBy: "b@x.io", Date: day("2025-01-03"), Type: models.ActivitySleep},
	} {
		clock.t = clock.t.Add(time.Duration(i) * time.Minute)
		a := a
		require.NoError(t, m.CreateActivity(ctx, &a))
	}

	out, err := m.ListActivities(ctx, store.ActivityFilter{CreatedBy: []string{"a@x.io"}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, models.ActivityStudy, out[0].Type, "newest first")

	out, err = m.ListActivities(ctx, store.ActivityFilter{From: day("2025-01-02"), To: day("2025-01-04")})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b@x.io", out[0].CreatedBy)

	out, err = m.ListActivities(ctx, store.ActivityFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestStoriesExpire(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := New(clock.Now)

	s := models.Story{CreatedBy: "a@x.io", UserUsername: "a", MediaURL: "https://cdn/x.jpg"}
	require.NoError(t, m.CreateStory(ctx, &s))
	assert.Equal(t, clock.t.Add(24*time.Hour), s.ExpiresAt)

	out, err := m.ListActiveStories(ctx, []string{"a@x.io"}, clock.t.Add(23*time.Hour), 10)
	require.NoError(t, err)
	assert.Len(t, out, 1)

	later := clock.t.Add(25 * time.Hour)
	out, err = m.ListActiveStories(ctx, []string{"a@x.io"}, later, 10)
	require.NoError(t, err)
	assert.Empty(t, out)

	n, err := m.PurgeExpiredStories(ctx, later)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
