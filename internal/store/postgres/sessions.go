package postgres

import (
	"context"
	"fmt"
	"time"

	"hobbiesapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionsStore persists cookie sessions. Bearer tokens are stateless and
// never touch this table.
type SessionsStore struct {
	pool *pgxpool.Pool
}

func NewSessionsStore(pool *pgxpool.Pool) *SessionsStore {
	return &SessionsStore{pool: pool}
}

func (s *SessionsStore) CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error) {
	var id pgtype.UUID
	err := s.pool.QueryRow(ctx, `
		INSERT INTO sessions (user_id, expires_at, ip, user_agent)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, userID, expiresAt, nullIfEmpty(ip), nullIfEmpty(userAgent)).Scan(&id)
	if err != nil {
		switch code, _ := pgErrorCode(err); code {
		case pgForeignKeyViolation, pgInvalidTextRep:
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("create session for %s: %w", userID, err)
	}
	return uuidOrEmpty(id), nil
}

// GetSession returns the session only while it is live. Expired, revoked and
// malformed ids all read as ErrNotFound.
func (s *SessionsStore) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
		  AND revoked_at IS NULL
		  AND expires_at > now()
	`, sessionID)

	sess, err := scanSession(row)
	if err != nil {
		if isNoRows(err) {
			return domain.Session{}, domain.ErrNotFound
		}
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// RevokeSession is idempotent. Revoking an unknown or already revoked
// session is not an error.
func (s *SessionsStore) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE sessions SET revoked_at = $2
		WHERE id = $1 AND revoked_at IS NULL
	`, sessionID, when)
	if err != nil {
		if code, _ := pgErrorCode(err); code == pgInvalidTextRep {
			return nil
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func scanSession(row pgx.Row) (domain.Session, error) {
	var (
		sess        domain.Session
		id, userID  pgtype.UUID
		revokedAtTS pgtype.Timestamptz
	)
	if err := row.Scan(&id, &userID, &sess.CreatedAt, &sess.ExpiresAt, &revokedAtTS); err != nil {
		return domain.Session{}, err
	}
	sess.ID = uuidOrEmpty(id)
	sess.UserID = uuidOrEmpty(userID)
	sess.RevokedAt = timestamptzPtr(revokedAtTS)
	return sess, nil
}
