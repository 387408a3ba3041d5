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

type FriendshipsStore struct {
	pool *pgxpool.Pool
}

func NewFriendshipsStore(pool *pgxpool.Pool) *FriendshipsStore {
	return &FriendshipsStore{pool: pool}
}

const friendRequestColumns = `id, from_user_id, to_user_id, status, created_at, responded_at`

// CreateRequest records a pending request from fromID to toID. The pair is
// serialized with a transaction-scoped advisory lock so the friendship and
// duplicate checks cannot race a concurrent send or accept.
func (s *FriendshipsStore) CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error) {
	const lockQ = `
		SELECT pg_advisory_xact_lock(hashtextextended(
			least($1::text, $2::text) || ':' || greatest($1::text, $2::text), 0))
	`
	const targetQ = `SELECT is_active FROM users WHERE id = $1`
	const friendsQ = `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`
	const pendingQ = `
		SELECT EXISTS (
			SELECT 1 FROM friend_requests
			WHERE from_user_id = $1 AND to_user_id = $2 AND status = 'pending'
		)
	`
	const insertQ = `
		INSERT INTO friend_requests (from_user_id, to_user_id, status, created_at)
		VALUES ($1, $2, 'pending', $3)
		RETURNING ` + friendRequestColumns

	var fr domain.FriendRequest
	err := inTx(ctx, s.pool, func(tx dbtx) error {
		if _, err := tx.Exec(ctx, lockQ, fromID, toID); err != nil {
			return fmt.Errorf("lock friend pair: %w", err)
		}

		var active bool
		if err := tx.QueryRow(ctx, targetQ, toID).Scan(&active); err != nil {
			if isNoRows(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("load request target: %w", err)
		}
		if !active {
			return domain.ErrNotFound
		}

		var exists bool
		if err := tx.QueryRow(ctx, friendsQ, fromID, toID).Scan(&exists); err != nil {
			return fmt.Errorf("check friendship: %w", err)
		}
		if exists {
			return domain.ErrAlreadyFriends
		}
		if err := tx.QueryRow(ctx, pendingQ, fromID, toID).Scan(&exists); err != nil {
			return fmt.Errorf("check pending request: %w", err)
		}
		if exists {
			return domain.ErrDuplicateRequest
		}

		created, err := scanFriendRequest(tx.QueryRow(ctx, insertQ, fromID, toID, when))
		if err != nil {
			if code, constraint := pgErrorCode(err); code == pgUniqueViolation && constraint == "friend_requests_pending_uq" {
				return domain.ErrDuplicateRequest
			}
			return fmt.Errorf("create friend request: %w", err)
		}
		fr = created
		return nil
	})
	if err != nil {
		return domain.FriendRequest{}, err
	}
	return fr, nil
}

// Accept marks the pending request addressed to toUserID as accepted and
// writes both friendship edges in the same transaction.
func (s *FriendshipsStore) Accept(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	const edgesQ = `
		INSERT INTO friendships (user_id, friend_id, request_id, created_at)
		VALUES ($1, $2, $3, $4), ($2, $1, $3, $4)
		ON CONFLICT DO NOTHING
	`

	var fr domain.FriendRequest
	err := inTx(ctx, s.pool, func(tx dbtx) error {
		updated, err := respond(ctx, tx, requestID, toUserID, domain.FriendRequestAccepted, when)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, edgesQ, updated.FromUserID, updated.ToUserID, updated.ID, when); err != nil {
			return fmt.Errorf("insert friendship edges: %w", err)
		}
		fr = updated
		return nil
	})
	if err != nil {
		return domain.FriendRequest{}, err
	}
	return fr, nil
}

func (s *FriendshipsStore) Reject(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	return respond(ctx, s.pool, requestID, toUserID, domain.FriendRequestRejected, when)
}

// respond transitions a pending request addressed to toUserID. Anything else,
// including a request already answered, is ErrNotFound.
func respond(ctx context.Context, db dbtx, requestID, toUserID string, status domain.FriendRequestStatus, when time.Time) (domain.FriendRequest, error) {
	const q = `
		UPDATE friend_requests
		SET status = $3, responded_at = $4
		WHERE id = $1 AND to_user_id = $2 AND status = 'pending'
		RETURNING ` + friendRequestColumns

	fr, err := scanFriendRequest(db.QueryRow(ctx, q, requestID, toUserID, string(status), when))
	if err != nil {
		if isNoRows(err) {
			return domain.FriendRequest{}, domain.ErrNotFound
		}
		return domain.FriendRequest{}, fmt.Errorf("%s friend request: %w", status, err)
	}
	return fr, nil
}

func (s *FriendshipsStore) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM friendships WHERE user_id = $1 AND friend_id = $2)`

	var ok bool
	if err := s.pool.QueryRow(ctx, q, userID, otherID).Scan(&ok); err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("check friendship: %w", err)
	}
	return ok, nil
}

func (s *FriendshipsStore) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	const q = `
		SELECT u.id, u.name, u.email
		FROM friendships f
		JOIN users u ON u.id = f.friend_id
		WHERE f.user_id = $1
		ORDER BY u.name ASC, u.id ASC
	`

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()

	out := []domain.UserSummary{}
	for rows.Next() {
		var (
			idUUID pgtype.UUID
			us     domain.UserSummary
		)
		if err := rows.Scan(&idUUID, &us.Name, &us.Email); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		us.ID = uuidOrEmpty(idUUID)
		out = append(out, us)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list friends: %w", err)
	}
	return out, nil
}

// ListRequests returns the pending requests the user sent or received,
// newest first, each joined with the user on the other side.
func (s *FriendshipsStore) ListRequests(ctx context.Context, userID string, dir domain.RequestDirection) ([]domain.RequestSummary, error) {
	const sentQ = `
		SELECT fr.id, u.id, u.name, fr.status, fr.created_at
		FROM friend_requests fr
		JOIN users u ON u.id = fr.to_user_id
		WHERE fr.from_user_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC, fr.id DESC
	`
	const receivedQ = `
		SELECT fr.id, u.id, u.name, fr.status, fr.created_at
		FROM friend_requests fr
		JOIN users u ON u.id = fr.from_user_id
		WHERE fr.to_user_id = $1 AND fr.status = 'pending'
		ORDER BY fr.created_at DESC, fr.id DESC
	`

	q, label := sentQ, "sent"
	if dir == domain.RequestsReceived {
		q, label = receivedQ, "received"
	}

	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list %s requests: %w", label, err)
	}
	defer rows.Close()

	out := []domain.RequestSummary{}
	for rows.Next() {
		var (
			reqUUID   pgtype.UUID
			otherUUID pgtype.UUID
			status    string
			rs        domain.RequestSummary
		)
		if err := rows.Scan(&reqUUID, &otherUUID, &rs.CounterpartName, &status, &rs.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan %s request: %w", label, err)
		}
		rs.ID = uuidOrEmpty(reqUUID)
		rs.CounterpartID = uuidOrEmpty(otherUUID)
		rs.Status = domain.FriendRequestStatus(status)
		out = append(out, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s requests: %w", label, err)
	}
	return out, nil
}

func scanFriendRequest(row pgx.Row) (domain.FriendRequest, error) {
	var (
		fr          domain.FriendRequest
		idUUID      pgtype.UUID
		fromUUID    pgtype.UUID
		toUUID      pgtype.UUID
		status      string
		respondedTS pgtype.Timestamptz
	)
	if err := row.Scan(&idUUID, &fromUUID, &toUUID, &status, &fr.CreatedAt, &respondedTS); err != nil {
		return domain.FriendRequest{}, err
	}
	fr.ID = uuidOrEmpty(idUUID)
	fr.FromUserID = uuidOrEmpty(fromUUID)
	fr.ToUserID = uuidOrEmpty(toUUID)
	fr.Status = domain.FriendRequestStatus(status)
	fr.RespondedAt = timestamptzPtr(respondedTS)
	return fr, nil
}
