// Package social holds the friend relationship state machine and the
// friend-scoped read models (feed, stories, search).
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"lantern/internal/apperr"
	"lantern/internal/metrics"
	"lantern/internal/models"
	"lantern/internal/store"
)

// Relationship state of a directed (owner, target) edge.
type State string

const (
	StateAbsent   State = "absent"
	StatePending  State = "pending"
	StateAccepted State = "accepted"
)

const (
	DefaultFeedLimit  = 20
	DefaultStoryLimit = 50
)

type Service struct {
	store store.Store
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st store.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log, now: time.Now}
}

// SendRequest moves the requester's edge to target from absent to pending and
// notifies the target. Sending again while pending returns the existing edge
// and created=false; no second notification is written.
func (s *Service) SendRequest(ctx context.Context, requester *models.User, targetEmail string) (f *models.Friendship, created bool, err error) {
	targetEmail = strings.ToLower(strings.TrimSpace(targetEmail))
	if targetEmail == "" {
		return nil, false, apperr.Validation("email is required")
	}
	if targetEmail == requester.Email {
		return nil, false, apperr.Validation("cannot send a friend request to yourself")
	}
	target, err := s.store.GetUserByEmail(ctx, targetEmail)
	if err != nil {
		return nil, false, apperr.FromStore(err, "user")
	}

	err = s.store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := currentEdge(ctx, tx, requester.Email, target.Email)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Status == models.FriendshipAccepted {
				return apperr.Conflict("already friends with %s", target.Username)
			}
			f = existing
			return nil
		}
		reverse, err := currentEdge(ctx, tx, target.Email, requester.Email)
		if err != nil {
			return err
		}
		if reverse != nil {
			if reverse.Status == models.FriendshipAccepted {
				return apperr.Conflict("already friends with %s", target.Username)
			}
			return apperr.Conflict("%s has already sent you a friend request", target.Username)
		}

		edge := &models.Friendship{
			CreatedBy:      requester.Email,
			FriendEmail:    target.Email,
			FriendUsername: target.Username,
			Status:         models.FriendshipPending,
		}
		if err := tx.CreateFriendship(ctx, edge); err != nil {
			if !errors.Is(err, store.ErrDuplicate) {
				return apperr.FromStore(err, "friendship")
			}
			// A concurrent send for the same pair committed first.
			winner, err := currentEdge(ctx, tx, requester.Email, target.Email)
			if err != nil {
				return err
			}
			if winner == nil || winner.Status != models.FriendshipPending {
				return apperr.Conflict("friend request changed concurrently")
			}
			f = winner
			return nil
		}

		n := &models.Notification{
			RecipientEmail: target.Email,
			SenderUsername: requester.Username,
			SenderAvatar:   requester.AvatarURL,
			Type:           models.NotificationFriendRequest,
			Message:        fmt.Sprintf("%s sent you a friend request", requester.Username),
			RelatedID:      &edge.ID,
		}
		if err := tx.CreateNotification(ctx, n); err != nil {
			return apperr.FromStore(err, "notification")
		}
		f, created = edge, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		metrics.RecordTransition("send")
		s.log.Info("friend request sent",
			zap.Int64("friendship_id", f.ID),
			zap.String("from", requester.Email),
			zap.String("to", target.Email),
		)
	}
	return f, created, nil
}

// AcceptRequest resolves the friend_request notification id. Both directed edges
// end up accepted and the requester is notified.
func (s *Service) AcceptRequest(ctx context.Context, recipient *models.User, notificationID int64) (*models.Friendship, error) {
	var back *models.Friendship
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		n, edge, err := pendingRequest(ctx, tx, recipient.Email, notificationID)
		if err != nil {
			return err
		}
		if err := tx.SetFriendshipStatus(ctx, edge.ID, models.FriendshipAccepted); err != nil {
			return apperr.FromStore(err, "friendship")
		}

		back, err = currentEdge(ctx, tx, recipient.Email, edge.CreatedBy)
		if err != nil {
			return err
		}
		if back != nil {
			if err := tx.SetFriendshipStatus(ctx, back.ID, models.FriendshipAccepted); err != nil {
				return apperr.FromStore(err, "friendship")
			}
			back.Status = models.FriendshipAccepted
		} else {
			back = &models.Friendship{
				CreatedBy:      recipient.Email,
				FriendEmail:    edge.CreatedBy,
				FriendUsername: n.SenderUsername,
				Status:         models.FriendshipAccepted,
			}
			if err := tx.CreateFriendship(ctx, back); err != nil {
				return apperr.FromStore(err, "friendship")
			}
		}

		if err := tx.MarkRead(ctx, n.ID); err != nil {
			return apperr.FromStore(err, "notification")
		}
		return apperr.FromStore(tx.CreateNotification(ctx, &models.Notification{
			RecipientEmail: edge.CreatedBy,
			SenderUsername: recipient.Username,
			SenderAvatar:   recipient.AvatarURL,
			Type:           models.NotificationFriendAccepted,
			Message:        fmt.Sprintf("%s accepted your friend request", recipient.Username),
			RelatedID:      &edge.ID,
		}), "notification")
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordTransition("accept")
	s.log.Info("friend request accepted",
		zap.Int64("notification_id", notificationID),
		zap.String("by", recipient.Email),
		zap.String("friend", back.FriendEmail),
	)
	return back, nil
}

// DeclineRequest marks the request read and removes the requester's pending
// edge, so the pair is back to absent and may be requested again.
func (s *Service) DeclineRequest(ctx context.Context, recipient *models.User, notificationID int64) error {
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		n, edge, err := pendingRequest(ctx, tx, recipient.Email, notificationID)
		if err != nil {
			return err
		}
		if err := tx.DeleteFriendship(ctx, edge.ID); err != nil {
			return apperr.FromStore(err, "friendship")
		}
		return apperr.FromStore(tx.MarkRead(ctx, n.ID), "notification")
	})
	if err != nil {
		return err
	}

	metrics.RecordTransition("decline")
	s.log.Info("friend request declined",
		zap.Int64("notification_id", notificationID),
		zap.String("by", recipient.Email),
	)
	return nil
}

// pendingRequest loads a friend_request addressed to recipient and the pending
// edge it refers to. Whether the request is still open is decided by the edge
// alone; the notification's read flag is display state. Anything else is a
// conflict.
func pendingRequest(ctx context.Context, tx store.Tx, recipient string, id int64) (*models.Notification, *models.Friendship, error) {
	n, err := tx.GetNotification(ctx, id)
	if err != nil {
		return nil, nil, apperr.FromStore(err, "notification")
	}
	if n.RecipientEmail != recipient {
		return nil, nil, apperr.NotFound("notification not found")
	}
	if n.Type != models.NotificationFriendRequest || n.RelatedID == nil {
		return nil, nil, apperr.Conflict("notification is not a friend request")
	}
	edge, err := tx.GetFriendshipByID(ctx, *n.RelatedID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil, apperr.Conflict("friend request is no longer pending")
	}
	if err != nil {
		return nil, nil, apperr.FromStore(err, "friendship")
	}
	if edge.FriendEmail != recipient || edge.Status != models.FriendshipPending {
		return nil, nil, apperr.Conflict("friend request is no longer pending")
	}
	return n, edge, nil
}

// currentEdge returns owner's edge towards target, or nil when absent.
func currentEdge(ctx context.Context, q store.Friendships, owner, target string) (*models.Friendship, error) {
	f, err := q.GetFriendship(ctx, owner, target)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.FromStore(err, "friendship")
	}
	return f, nil
}

// Status reports owner's edge state towards email.
func (s *Service) Status(ctx context.Context, owner, email string) (State, error) {
	f, err := currentEdge(ctx, s.store, owner, strings.ToLower(email))
	if err != nil || f == nil {
		return StateAbsent, err
	}
	return State(f.Status), nil
}

// Friends lists owner's accepted edges, newest first.
func (s *Service) Friends(ctx context.Context, owner string) ([]models.Friendship, error) {
	return s.Relationships(ctx, owner, models.FriendshipAccepted)
}

// Relationships lists owner's edges; an empty status lists pending and accepted.
func (s *Service) Relationships(ctx context.Context, owner string, status models.FriendshipStatus) ([]models.Friendship, error) {
	switch status {
	case "", models.FriendshipPending, models.FriendshipAccepted:
	default:
		return nil, apperr.Validation("status must be pending or accepted")
	}
	out, err := s.store.ListFriendships(ctx, owner, status)
	if err != nil {
		return nil, apperr.FromStore(err, "friendship")
	}
	return out, nil
}

// SearchResult is a user found by email together with the caller's edge state.
type SearchResult struct {
	User   *models.User `json:"user"`
	Status State        `json:"status"`
}

// SearchUsers finds a user by exact email, never returning self.
func (s *Service) SearchUsers(ctx context.Context, self *models.User, email string) ([]SearchResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if email == self.Email {
		return []SearchResult{}, nil
	}
	u, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return []SearchResult{}, nil
	}
	if err != nil {
		return nil, apperr.FromStore(err, "user")
	}
	st, err := s.Status(ctx, self.Email, u.Email)
	if err != nil {
		return nil, err
	}
	return []SearchResult{{User: u, Status: st}}, nil
}

func (s *Service) friendEmails(ctx context.Context, owner string) ([]string, error) {
	friends, err := s.Friends(ctx, owner)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(friends))
	for _, f := range friends {
		emails = append(emails, f.FriendEmail)
	}
	return emails, nil
}

// FriendFeed returns the most recent activities logged by owner's friends.
// Notes are private and are stripped.
func (s *Service) FriendFeed(ctx context.Context, owner string, limit int) ([]models.Activity, error) {
	emails, err := s.friendEmails(ctx, owner)
	if err != nil || len(emails) == 0 {
		return []models.Activity{}, err
	}
	if limit <= 0 {
		limit = DefaultFeedLimit
	}
	acts, err := s.store.ListActivities(ctx, store.ActivityFilter{CreatedBy: emails, Limit: limit})
	if err != nil {
		return nil, apperr.FromStore(err, "activity")
	}
	for i := range acts {
		acts[i].Notes = ""
	}
	return acts, nil
}

// StoryDraft is the payload for posting a story.
type StoryDraft struct {
	MediaURL string `json:"media_url"`
	Caption  string `json:"caption"`
}

// PostStory publishes a story visible to friends for models.StoryLifetime.
func (s *Service) PostStory(ctx context.Context, author *models.User, d StoryDraft) (*models.Story, error) {
	media := strings.TrimSpace(d.MediaURL)
	if media == "" {
		return nil, apperr.Validation("media_url is required")
	}
	st := &models.Story{
		CreatedBy:    author.Email,
		UserUsername: author.Username,
		UserAvatar:   author.AvatarURL,
		MediaURL:     media,
		Caption:      strings.TrimSpace(d.Caption),
	}
	if err := s.store.CreateStory(ctx, st); err != nil {
		return nil, apperr.FromStore(err, "story")
	}
	return st, nil
}

// StoryGroup is one friend's active stories, newest first.
type StoryGroup struct {
	Username string         `json:"user_username"`
	Avatar   string         `json:"user_avatar"`
	Stories  []models.Story `json:"stories"`
}

// FriendStories returns friends' unexpired stories grouped by author. Groups are
// ordered by each author's newest story.
func (s *Service) FriendStories(ctx context.Context, owner string) ([]StoryGroup, error) {
	emails, err := s.friendEmails(ctx, owner)
	if err != nil || len(emails) == 0 {
		return []StoryGroup{}, err
	}
	stories, err := s.store.ListActiveStories(ctx, emails, s.now(), DefaultStoryLimit)
	if err != nil {
		return nil, apperr.FromStore(err, "story")
	}

	groups := []StoryGroup{}
	index := map[string]int{}
	for _, st := range stories {
		i, ok := index[st.UserUsername]
		if !ok {
			i = len(groups)
			index[st.UserUsername] = i
			groups = append(groups, StoryGroup{Username: st.UserUsername, Avatar: st.UserAvatar})
		}
		groups[i].Stories = append(groups[i].Stories, st)
	}
	return groups, nil
}
