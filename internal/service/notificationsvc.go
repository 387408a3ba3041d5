package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/notifications"
)

type NotificationTokensStore interface {
	UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.DeviceToken, error)
	DeleteToken(ctx context.Context, userID, token string) error
	ListTokens(ctx context.Context, userID string) ([]domain.DeviceToken, error)
	PruneTokens(ctx context.Context, tokens []string) (int64, error)
}

type NotificationUsersStore interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)
}

type PushSender interface {
	Send(ctx context.Context, token string, msg notifications.Message) error
}

type FriendRequestNotification struct {
	RequestID   string
	RequesterID string
	AddresseeID string
}

var ErrNotificationsUnavailable = errors.New("notifications unavailable")

type NotificationService struct {
	Tokens NotificationTokensStore
	Users  NotificationUsersStore
	Sender PushSender
	Logger *slog.Logger
	Now    func() time.Time
}

func (s *NotificationService) RegisterToken(ctx context.Context, userID, token, platform string) (domain.DeviceToken, error) {
	if s.Tokens == nil {
		return domain.DeviceToken{}, ErrNotificationsUnavailable
	}
	token = strings.TrimSpace(token)
	var missing []string
	if token == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(platform) == "" {
		missing = append(missing, "platform")
	}
	if len(missing) > 0 {
		return domain.DeviceToken{}, domain.MissingField(missing...)
	}
	platform, err := domain.ParsePlatform(platform)
	if err != nil {
		return domain.DeviceToken{}, err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	when := now().UTC().Truncate(time.Millisecond)
	return s.Tokens.UpsertToken(ctx, userID, token, platform, when)
}

func (s *NotificationService) DeleteToken(ctx context.Context, userID, token string) error {
	if s.Tokens == nil {
		return ErrNotificationsUnavailable
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.MissingField("token")
	}
	return s.Tokens.DeleteToken(ctx, userID, token)
}

// NotifyFriendRequest tells the addressee about a new request.
func (s *NotificationService) NotifyFriendRequest(ctx context.Context, n FriendRequestNotification) error {
	return s.notify(ctx, n.AddresseeID, n.RequesterID, n.RequestID, "friend_request",
		"Friend request", "You received a friend request.", " sent you a friend request.")
}

// NotifyFriendAccepted tells the requester that the addressee accepted.
func (s *NotificationService) NotifyFriendAccepted(ctx context.Context, n FriendRequestNotification) error {
	return s.notify(ctx, n.RequesterID, n.AddresseeID, n.RequestID, "friend_accepted",
		"Friend request accepted", "Your friend request was accepted.", " accepted your friend request.")
}

// notify pushes to every device of recipientID. Send failures are logged and
// tokens the provider no longer knows are pruned; only lookup failures are
// returned.
func (s *NotificationService) notify(ctx context.Context, recipientID, actorID, requestID, kind, title, fallbackBody, actorSuffix string) error {
	if s.Tokens == nil || s.Sender == nil || s.Users == nil {
		return nil
	}
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	tokens, err := s.Tokens.ListTokens(ctx, recipientID)
	if err != nil {
		logger.Error("notifications: list tokens failed", "err", err, "user_id", recipientID)
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	actor, err := s.Users.GetUserByID(ctx, actorID)
	if err != nil {
		logger.Error("notifications: actor lookup failed", "err", err, "user_id", actorID)
		return err
	}

	body := fallbackBody
	if name := strings.TrimSpace(actor.Name); name != "" {
		body = name + actorSuffix
	}
	payload := map[string]string{
		"type":       kind,
		"request_id": requestID,
		"user_id":    actor.ID,
		"name":       actor.Name,
	}
	dataOnly := notifications.Message{Data: payload}
	alert := notifications.Message{
		Data:         payload,
		Notification: &notifications.Notification{Title: title, Body: body},
	}

	var stale []string
	for _, tok := range tokens {
		msg := dataOnly
		if tok.WantsAlert() {
			msg = alert
		}
		if err := s.Sender.Send(ctx, tok.Token, msg); err != nil {
			if errors.Is(err, notifications.ErrInvalidToken) {
				stale = append(stale, tok.Token)
				continue
			}
			logger.Error("notifications: send failed", "err", err, "user_id", recipientID, "type", kind)
		}
	}

	if len(stale) > 0 {
		if _, err := s.Tokens.PruneTokens(ctx, stale); err != nil {
			logger.Error("notifications: prune tokens failed", "err", err, "user_id", recipientID)
		}
	}
	return nil
}
