// Package memory is an in-process store.Store used when no database is
// configured and throughout the tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"lantern/internal/models"
	"lantern/internal/store"
)

type Store struct {
	mu sync.Mutex
	s  *state
}

var _ store.Store = (*Store)(nil)

// New returns an empty store. clock may be nil, in which case time.Now is used.
func New(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{s: newState(clock)}
}

type state struct {
	now           func() time.Time
	seq           int64
	users         map[int64]models.User
	activities    map[int64]models.Activity
	friendships   map[int64]models.Friendship
	notifications map[int64]models.Notification
	stories       map[int64]models.Story
}

func newState(clock func() time.Time) *state {
	return &state{
		now:           clock,
		users:         map[int64]models.User{},
		activities:    map[int64]models.Activity{},
		friendships:   map[int64]models.Friendship{},
		notifications: map[int64]models.Notification{},
		stories:       map[int64]models.Story{},
	}
}

func (s *state) nextID() int64 {
	s.seq++
	return s.seq
}

// social returns a copy of the tables a transaction may touch.
func (s *state) social() (int64, map[int64]models.Friendship, map[int64]models.Notification) {
	f := make(map[int64]models.Friendship, len(s.friendships))
	for k, v := range s.friendships {
		f[k] = v
	}
	n := make(map[int64]models.Notification, len(s.notifications))
	for k, v := range s.notifications {
		n[k] = v
	}
	return s.seq, f, n
}

func (m *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, f, n := m.s.social()
	if err := fn(m.s); err != nil {
		m.s.seq, m.s.friendships, m.s.notifications = seq, f, n
		return err
	}
	return nil
}

func (m *Store) Ping(ctx context.Context) error { return ctx.Err() }

// Users

func (m *Store) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.s.users {
		if existing.Email == u.Email {
			return store.ErrDuplicate
		}
	}
	u.ID = m.s.nextID()
	u.CreatedAt = m.s.now()
	m.s.users[u.ID] = *u
	return nil
}

func (m *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *Store) UpdateProfile(ctx context.Context, id int64, p store.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.s.users[id]
	if !ok {
		return store.ErrNotFound
	}
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.AvatarURL != nil {
		u.AvatarURL = *p.AvatarURL
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.StudyMinutes != nil {
		u.StudyMinutes = *p.StudyMinutes
	}
	if p.SleepHours != nil {
		u.SleepHours = *p.SleepHours
	}
	if p.SocialMinutes != nil {
		u.SocialMinutes = *p.SocialMinutes
	}
	if p.MealsCount != nil {
		u.MealsCount = *p.MealsCount
	}
	m.s.users[id] = u
	return nil
}

// Activities

func (m *Store) CreateActivity(ctx context.Context, a *models.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.s.nextID()
	a.CreatedAt = m.s.now()
	m.s.activities[a.ID] = *a
	return nil
}

func (m *Store) ListActivities(ctx context.Context, f store.ActivityFilter) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	owners := map[string]bool{}
	for _, o := range f.CreatedBy {
		owners[o] = true
	}
	var out []models.Activity
	for _, a := range m.s.activities {
		if len(owners) > 0 && !owners[a.CreatedBy] {
			continue
		}
		if !f.From.IsZero() && a.Date.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && a.Date.After(f.To) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return limit(out, f.Limit), nil
}

// Friendships

func (m *Store) GetFriendship(ctx context.Context, owner, friendEmail string) (*models.Friendship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.GetFriendship(ctx, owner, friendEmail)
}

func (m *Store) GetFriendshipByID(ctx context.Context, id int64) (*models.Friendship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.GetFriendshipByID(ctx, id)
}

func (m *Store) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CreateFriendship(ctx, f)
}

func (m *Store) SetFriendshipStatus(ctx context.Context, id int64, status models.FriendshipStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.SetFriendshipStatus(ctx, id, status)
}

func (m *Store) DeleteFriendship(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.DeleteFriendship(ctx, id)
}

func (m *Store) ListFriendships(ctx context.Context, owner string, status models.FriendshipStatus) ([]models.Friendship, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.ListFriendships(ctx, owner, status)
}

func (s *state) GetFriendship(_ context.Context, owner, friendEmail string) (*models.Friendship, error) {
	for _, f := range s.friendships {
		if f.CreatedBy == owner && f.FriendEmail == friendEmail {
			return &f, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *state) GetFriendshipByID(_ context.Context, id int64) (*models.Friendship, error) {
	f, ok := s.friendships[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &f, nil
}

func (s *state) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	if _, err := s.GetFriendship(ctx, f.CreatedBy, f.FriendEmail); err == nil {
		return store.ErrDuplicate
	}
	f.ID = s.nextID()
	f.CreatedAt = s.now()
	s.friendships[f.ID] = *f
	return nil
}

func (s *state) SetFriendshipStatus(_ context.Context, id int64, status models.FriendshipStatus) error {
	f, ok := s.friendships[id]
	if !ok {
		return store.ErrNotFound
	}
	f.Status = status
	s.friendships[id] = f
	return nil
}

func (s *state) DeleteFriendship(_ context.Context, id int64) error {
	if _, ok := s.friendships[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.friendships, id)
	return nil
}

func (s *state) ListFriendships(_ context.Context, owner string, status models.FriendshipStatus) ([]models.Friendship, error) {
	var out []models.Friendship
	for _, f := range s.friendships {
		if f.CreatedBy != owner || (status != "" && f.Status != status) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return out, nil
}

// Notifications

func (m *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CreateNotification(ctx, n)
}

func (m *Store) GetNotification(ctx context.Context, id int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.GetNotification(ctx, id)
}

func (m *Store) ListNotifications(ctx context.Context, recipient string, limit int) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.ListNotifications(ctx, recipient, limit)
}

func (m *Store) CountUnread(ctx context.Context, recipient string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.CountUnread(ctx, recipient)
}

func (m *Store) MarkRead(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.MarkRead(ctx, id)
}

func (m *Store) MarkAllRead(ctx context.Context, recipient string, asOf time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s.MarkAllRead(ctx, recipient, asOf)
}

func (s *state) CreateNotification(_ context.Context, n *models.Notification) error {
	n.ID = s.nextID()
	n.CreatedAt = s.now()
	s.notifications[n.ID] = *n
	return nil
}

func (s *state) GetNotification(_ context.Context, id int64) (*models.Notification, error) {
	n, ok := s.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (s *state) ListNotifications(_ context.Context, recipient string, limitN int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range s.notifications {
		if n.RecipientEmail == recipient {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return limit(out, limitN), nil
}

func (s *state) CountUnread(_ context.Context, recipient string) (int, error) {
	c := 0
	for _, n := range s.notifications {
		if n.RecipientEmail == recipient && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (s *state) MarkRead(_ context.Context, id int64) error {
	n, ok := s.notifications[id]
	if !ok {
		return store.ErrNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return nil
}

func (s *state) MarkAllRead(_ context.Context, recipient string, asOf time.Time) (int64, error) {
	var changed int64
	for id, n := range s.notifications {
		if n.RecipientEmail != recipient || n.IsRead || n.CreatedAt.After(asOf) {
			continue
		}
		n.IsRead = true
		s.notifications[id] = n
		changed++
	}
	return changed, nil
}

// Stories

func (m *Store) CreateStory(ctx context.Context, st *models.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.ID = m.s.nextID()
	st.CreatedAt = m.s.now()
	if st.ExpiresAt.IsZero() {
		st.ExpiresAt = st.CreatedAt.Add(models.StoryLifetime)
	}
	m.s.stories[st.ID] = *st
	return nil
}

func (m *Store) ListActiveStories(ctx context.Context, owners []string, now time.Time, limitN int) ([]models.Story, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Story
	for _, st := range m.s.stories {
		if !st.ActiveAt(now) || !contains(owners, st.CreatedBy) {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return newer(out[i].CreatedAt, out[i].ID, out[j].CreatedAt, out[j].ID) })
	return limit(out, limitN), nil
}

func (m *Store) PurgeExpiredStories(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, st := range m.s.stories {
		if !st.ActiveAt(now) {
			delete(m.s.stories, id)
			n++
		}
	}
	return n, nil
}

func newer(at time.Time, aid int64, bt time.Time, bid int64) bool {
	if !at.Equal(bt) {
		return at.After(bt)
	}
	return aid > bid
}

func limit[T any](in []T, n int) []T {
	if n > 0 && len(in) > n {
		return in[:n]
	}
	return in
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
