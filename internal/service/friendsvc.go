package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"hobbiesapp/internal/domain"

	"github.com/google/uuid"
)

type FriendshipsStore interface {
	CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error)
	Accept(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error)
	Reject(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error)
	AreFriends(ctx context.Context, userID, otherID string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error)
	ListRequests(ctx context.Context, userID string, dir domain.RequestDirection) ([]domain.RequestSummary, error)
}

// FriendEventNotifier is told about committed request transitions.
type FriendEventNotifier interface {
	NotifyFriendRequest(ctx context.Context, n FriendRequestNotification) error
	NotifyFriendAccepted(ctx context.Context, n FriendRequestNotification) error
}

type FriendsService struct {
	Friendships FriendshipsStore
	Notifier    FriendEventNotifier
	Logger      *slog.Logger
	Now         func() time.Time
}

func (s *FriendsService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *FriendsService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Send creates a pending request from fromID to toID.
func (s *FriendsService) Send(ctx context.Context, fromID, toID string) (domain.FriendRequest, error) {
	toID = strings.TrimSpace(toID)
	if toID == "" {
		return domain.FriendRequest{}, domain.MissingField("user_id")
	}
	if toID == fromID {
		return domain.FriendRequest{}, domain.NewValidationError(domain.CodeInvalidTarget, map[string]string{"user_id": "cannot send a friend request to yourself"})
	}
	if !validID(toID) {
		return domain.FriendRequest{}, domain.ErrNotFound
	}

	fr, err := s.Friendships.CreateRequest(ctx, fromID, toID, s.now())
	if err != nil {
		return domain.FriendRequest{}, err
	}

	if s.Notifier != nil {
		n := FriendRequestNotification{RequestID: fr.ID, RequesterID: fr.FromUserID, AddresseeID: fr.ToUserID}
		if err := s.Notifier.NotifyFriendRequest(ctx, n); err != nil {
			s.logger().Warn("friends: request notification failed", "err", err, "request_id", fr.ID)
		}
	}
	return fr, nil
}

// Accept accepts a pending request addressed to actingUserID. Requests that
// do not exist, are addressed to someone else or were already answered are
// all reported as ErrNotFound.
func (s *FriendsService) Accept(ctx context.Context, actingUserID, requestID string) (domain.FriendRequest, error) {
	if !validID(requestID) {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	fr, err := s.Friendships.Accept(ctx, requestID, actingUserID, s.now())
	if err != nil {
		return domain.FriendRequest{}, err
	}

	if s.Notifier != nil {
		n := FriendRequestNotification{RequestID: fr.ID, RequesterID: fr.FromUserID, AddresseeID: fr.ToUserID}
		if err := s.Notifier.NotifyFriendAccepted(ctx, n); err != nil {
			s.logger().Warn("friends: accept notification failed", "err", err, "request_id", fr.ID)
		}
	}
	return fr, nil
}

func (s *FriendsService) Reject(ctx context.Context, actingUserID, requestID string) (domain.FriendRequest, error) {
	if !validID(requestID) {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	return s.Friendships.Reject(ctx, requestID, actingUserID, s.now())
}

func (s *FriendsService) IsFriend(ctx context.Context, userID, otherID string) (bool, error) {
	if userID == otherID || !validID(otherID) {
		return false, nil
	}
	return s.Friendships.AreFriends(ctx, userID, otherID)
}

func (s *FriendsService) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	return s.Friendships.ListFriends(ctx, userID)
}

func (s *FriendsService) ListSent(ctx context.Context, userID string) ([]domain.RequestSummary, error) {
	return s.Friendships.ListRequests(ctx, userID, domain.RequestsSent)
}

func (s *FriendsService) ListReceived(ctx context.Context, userID string) ([]domain.RequestSummary, error) {
	return s.Friendships.ListRequests(ctx, userID, domain.RequestsReceived)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
