package postgres

import (
	"context"
	"fmt"
	"time"

	"hobbiesapp/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type NotificationTokensStore struct {
	pool *pgxpool.Pool
}

func NewNotificationTokensStore(pool *pgxpool.Pool) *NotificationTokensStore {
	return &NotificationTokensStore{pool: pool}
}

// UpsertToken registers token for userID. A token already registered to
// another user moves to this one.
func (s *NotificationTokensStore) UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.DeviceToken, error) {
	const q = `
		INSERT INTO notification_tokens (user_id, token, platform, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (token)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			platform = EXCLUDED.platform,
			updated_at = EXCLUDED.updated_at
		RETURNING id, user_id, token, platform, created_at, updated_at
	`

	var (
		idUUID    pgtype.UUID
		userUUID  pgtype.UUID
		createdAt time.Time
		updatedAt time.Time
	)
	err := s.pool.QueryRow(ctx, q, userID, token, platform, when).Scan(
		&idUUID,
		&userUUID,
		&token,
		&platform,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgForeignKeyViolation {
			return domain.DeviceToken{}, domain.ErrNotFound
		}
		return domain.DeviceToken{}, fmt.Errorf("upsert notification token: %w", err)
	}

	return domain.DeviceToken{
		ID:        uuidOrEmpty(idUUID),
		UserID:    uuidOrEmpty(userUUID),
		Token:     token,
		Platform:  platform,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (s *NotificationTokensStore) DeleteToken(ctx context.Context, userID, token string) error {
	const q = `
		DELETE FROM notification_tokens
		WHERE user_id = $1 AND token = $2
	`
	if _, err := s.pool.Exec(ctx, q, userID, token); err != nil {
		return fmt.Errorf("delete notification token: %w", err)
	}
	return nil
}

func (s *NotificationTokensStore) ListTokens(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	const q = `
		SELECT id, user_id, token, platform, created_at, updated_at
		FROM notification_tokens
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list notification tokens: %w", err)
	}
	defer rows.Close()

	out := []domain.DeviceToken{}
	for rows.Next() {
		var (
			idUUID   pgtype.UUID
			userUUID pgtype.UUID
			token    string
			platform string
			created  time.Time
			updated  time.Time
		)
		if err := rows.Scan(&idUUID, &userUUID, &token, &platform, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan notification token: %w", err)
		}
		out = append(out, domain.DeviceToken{
			ID:        uuidOrEmpty(idUUID),
			UserID:    uuidOrEmpty(userUUID),
			Token:     token,
			Platform:  platform,
			CreatedAt: created,
			UpdatedAt: updated,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list notification tokens: %w", err)
	}
	return out, nil
}

// PruneTokens deletes tokens the push provider reported as no longer
// registered, regardless of owner.
func (s *NotificationTokensStore) PruneTokens(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	const q = `DELETE FROM notification_tokens WHERE token = ANY($1::text[])`
	ct, err := s.pool.Exec(ctx, q, tokens)
	if err != nil {
		return 0, fmt.Errorf("prune notification tokens: %w", err)
	}
	return ct.RowsAffected(), nil
}
