package service

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/notifications"
)

type stubNotificationTokensStore struct {
	upsertFunc func(context.Context, string, string, string, time.Time) (domain.DeviceToken, error)
	deleteFunc func(context.Context, string, string) error
	listFunc   func(context.Context, string) ([]domain.DeviceToken, error)
	pruneFunc  func(context.Context, []string) (int64, error)
}

func (s *stubNotificationTokensStore) UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.DeviceToken, error) {
	if s.upsertFunc != nil {
		return s.upsertFunc(ctx, userID, token, platform, when)
	}
	return domain.DeviceToken{}, errors.New("upsert not stubbed")
}

func (s *stubNotificationTokensStore) DeleteToken(ctx context.Context, userID, token string) error {
	if s.deleteFunc != nil {
		return s.deleteFunc(ctx, userID, token)
	}
	return errors.New("delete not stubbed")
}

func (s *stubNotificationTokensStore) ListTokens(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	if s.listFunc != nil {
		return s.listFunc(ctx, userID)
	}
	return nil, errors.New("list not stubbed")
}

func (s *stubNotificationTokensStore) PruneTokens(ctx context.Context, tokens []string) (int64, error) {
	if s.pruneFunc != nil {
		return s.pruneFunc(ctx, tokens)
	}
	return 0, errors.New("prune not stubbed")
}

type stubNotificationUsersStore struct {
	getByIDFunc func(context.Context, string) (domain.User, error)
}

func (s *stubNotificationUsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if s.getByIDFunc != nil {
		return s.getByIDFunc(ctx, id)
	}
	return domain.User{}, errors.New("get user not stubbed")
}

type stubPushSender struct {
	sendFunc func(context.Context, string, notifications.Message) error
}

func (s *stubPushSender) Send(ctx context.Context, token string, msg notifications.Message) error {
	if s.sendFunc != nil {
		return s.sendFunc(ctx, token, msg)
	}
	return nil
}

func TestNotificationServiceRegisterTokenValidation(t *testing.T) {
	svc := &NotificationService{
		Tokens: &stubNotificationTokensStore{},
	}

	if _, err := svc.RegisterToken(context.Background(), "user-1", "", "android"); domain.ErrorCode(err) != domain.CodeMissingField {
		t.Fatalf("expected missing field for empty token, got %v", err)
	}
	if _, err := svc.RegisterToken(context.Background(), "user-1", "token", ""); domain.ErrorCode(err) != domain.CodeMissingField {
		t.Fatalf("expected missing field for empty platform, got %v", err)
	}
	if _, err := svc.RegisterToken(context.Background(), "user-1", "token", "web"); domain.ErrorCode(err) != domain.CodeInvalidArgument {
		t.Fatalf("expected invalid argument for unknown platform, got %v", err)
	}
}

func TestNotificationServiceNotifyFriendRequestPrunesInvalidToken(t *testing.T) {
	var pruned []string
	tokens := &stubNotificationTokensStore{
		listFunc: func(_ context.Context, userID string) ([]domain.DeviceToken, error) {
			if userID != "user-2" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return []domain.DeviceToken{
				{Token: "token-1", Platform: "android"},
				{Token: "token-2", Platform: "ios"},
			}, nil
		},
		pruneFunc: func(_ context.Context, toks []string) (int64, error) {
			pruned = toks
			return int64(len(toks)), nil
		},
	}

	users := &stubNotificationUsersStore{
		getByIDFunc: func(_ context.Context, id string) (domain.User, error) {
			if id != "user-1" {
				t.Fatalf("unexpected requester id: %s", id)
			}
			return domain.User{ID: "user-1", Name: "Alice"}, nil
		},
	}

	sent := map[string]notifications.Message{}
	sender := &stubPushSender{
		sendFunc: func(_ context.Context, token string, msg notifications.Message) error {
			sent[token] = msg
			if token == "token-1" {
				return notifications.ErrInvalidToken
			}
			return nil
		},
	}

	svc := &NotificationService{Tokens: tokens, Users: users, Sender: sender}
	err := svc.NotifyFriendRequest(context.Background(), FriendRequestNotification{
		RequestID:   "req-1",
		RequesterID: "user-1",
		AddresseeID: "user-2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(pruned, []string{"token-1"}) {
		t.Fatalf("expected invalid token to be pruned, got %v", pruned)
	}
	if sent["token-1"].Notification != nil {
		t.Fatalf("expected data-only message for android")
	}
	ios := sent["token-2"]
	if ios.Notification == nil || ios.Notification.Body != "Alice sent you a friend request." {
		t.Fatalf("unexpected ios alert: %+v", ios.Notification)
	}
	if ios.Data["type"] != "friend_request" || ios.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected payload: %v", ios.Data)
	}
}

func TestNotificationServiceNotifyFriendAcceptedTargetsRequester(t *testing.T) {
	tokens := &stubNotificationTokensStore{
		listFunc: func(_ context.Context, userID string) ([]domain.DeviceToken, error) {
			if userID != "user-1" {
				t.Fatalf("expected requester tokens, got %s", userID)
			}
			return []domain.DeviceToken{{Token: "token-1", Platform: "ios"}}, nil
		},
	}
	users := &stubNotificationUsersStore{
		getByIDFunc: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, Name: "Bob"}, nil
		},
	}
	var got notifications.Message
	sender := &stubPushSender{
		sendFunc: func(_ context.Context, _ string, msg notifications.Message) error {
			got = msg
			return nil
		},
	}

	svc := &NotificationService{Tokens: tokens, Users: users, Sender: sender}
	err := svc.NotifyFriendAccepted(context.Background(), FriendRequestNotification{
		RequestID:   "req-1",
		RequesterID: "user-1",
		AddresseeID: "user-2",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Data["type"] != "friend_accepted" || got.Data["user_id"] != "user-2" {
		t.Fatalf("unexpected payload: %v", got.Data)
	}
	if got.Notification == nil || got.Notification.Body != "Bob accepted your friend request." {
		t.Fatalf("unexpected alert: %+v", got.Notification)
	}
}

func TestNotificationServiceWithoutSenderIsNoop(t *testing.T) {
	svc := &NotificationService{Tokens: &stubNotificationTokensStore{}}
	if err := svc.NotifyFriendRequest(context.Background(), FriendRequestNotification{}); err != nil {
		t.Fatalf("expected no-op, got %v", err)
	}
}
