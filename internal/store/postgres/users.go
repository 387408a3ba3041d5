package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hobbiesapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

const userColumns = `id, email, name, date_of_birth, is_active, created_at, updated_at, last_login_at`

// CreateUser inserts the user and links its hobbies in one transaction, so a
// failure on either leaves no row behind.
func (s *UsersStore) CreateUser(ctx context.Context, nu domain.NewUser) (domain.Profile, error) {
	const q = `
		INSERT INTO users (email, name, password_hash, date_of_birth)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	var p domain.Profile
	err := inTx(ctx, s.pool, func(tx dbtx) error {
		u, err := scanUser(tx.QueryRow(ctx, q, nu.Email, nu.Name, nu.PasswordHash, dateArg(nu.DateOfBirth)))
		if err != nil {
			return mapUserWriteError(err)
		}

		hobbies, err := ensureHobbies(ctx, tx, nu.HobbyNames)
		if err != nil {
			return err
		}
		if err := linkHobbies(ctx, tx, u.ID, hobbyIDs(hobbies)); err != nil {
			return err
		}
		linked, err := listUserHobbies(ctx, tx, u.ID)
		if err != nil {
			return err
		}

		p = domain.Profile{User: u, Hobbies: linked}
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserWithPassword(ctx context.Context, id string) (domain.UserWithPassword, error) {
	const q = `SELECT ` + userColumns + `, password_hash FROM users WHERE id = $1`
	u, err := scanUserWithPassword(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if isNoRows(err) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user with password: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	const q = `SELECT ` + userColumns + `, password_hash FROM users WHERE email = $1`
	u, err := scanUserWithPassword(s.pool.QueryRow(ctx, q, email))
	if err != nil {
		if isNoRows(err) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `
		UPDATE users
		SET last_login_at = $2
		WHERE id = $1
	`
	_, err := s.pool.Exec(ctx, q, userID, when)
	if err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

// UpdatePassword replaces the credential hash and revokes every open session
// of the user except keepSessionID (which may be empty).
func (s *UsersStore) UpdatePassword(ctx context.Context, userID, passwordHash, keepSessionID string, when time.Time) error {
	const updateQ = `
		UPDATE users
		SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`
	const revokeQ = `
		UPDATE sessions
		SET revoked_at = $3
		WHERE user_id = $1
			AND revoked_at IS NULL
			AND ($2::uuid IS NULL OR id <> $2::uuid)
	`

	return inTx(ctx, s.pool, func(tx dbtx) error {
		ct, err := tx.Exec(ctx, updateQ, userID, passwordHash, when)
		if err != nil {
			return fmt.Errorf("update password: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := tx.Exec(ctx, revokeQ, userID, nullIfEmpty(keepSessionID), when); err != nil {
			return fmt.Errorf("revoke other sessions: %w", err)
		}
		return nil
	})
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		dob         pgtype.Date
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&u.Email,
		&u.Name,
		&dob,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.DateOfBirth = datePtr(dob)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func scanUserWithPassword(row pgx.Row) (domain.UserWithPassword, error) {
	var (
		u           domain.UserWithPassword
		idUUID      pgtype.UUID
		dob         pgtype.Date
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&u.Email,
		&u.Name,
		&dob,
		&u.IsActive,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
		&u.PasswordHash,
	)
	if err != nil {
		return domain.UserWithPassword{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.DateOfBirth = datePtr(dob)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

// isNoRows also treats malformed ids as absent rows.
func isNoRows(err error) bool {
	if errors.Is(err, pgx.ErrNoRows) {
		return true
	}
	code, _ := pgErrorCode(err)
	return code == pgInvalidTextRep
}

func mapUserWriteError(err error) error {
	code, constraint := pgErrorCode(err)
	if code == pgUniqueViolation {
		if constraint == "users_email_uq" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("unique violation (%s): %w", constraint, err)
	}
	return fmt.Errorf("write user: %w", err)
}
