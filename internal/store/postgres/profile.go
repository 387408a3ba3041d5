package postgres

import (
	"context"
	"fmt"
	"time"

	"hobbiesapp/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ProfileStore struct {
	pool *pgxpool.Pool
}

func NewProfileStore(pool *pgxpool.Pool) *ProfileStore {
	return &ProfileStore{pool: pool}
}

func (s *ProfileStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return loadProfile(ctx, s.pool, userID)
}

// ApplyProfileChanges writes the given changes in one transaction and returns
// the profile as stored afterwards.
func (s *ProfileStore) ApplyProfileChanges(ctx context.Context, userID string, c domain.ProfileChanges, when time.Time) (domain.Profile, error) {
	const updateQ = `
		UPDATE users
		SET name = COALESCE($2, name),
			email = COALESCE($3, email),
			date_of_birth = CASE
				WHEN $5 THEN NULL
				WHEN $4::date IS NOT NULL THEN $4::date
				ELSE date_of_birth
			END,
			updated_at = $6
		WHERE id = $1
	`

	var p domain.Profile
	err := inTx(ctx, s.pool, func(tx dbtx) error {
		ct, err := tx.Exec(ctx, updateQ, userID, c.Name, c.Email, dateArg(c.DateOfBirth), c.ClearDateOfBirth, when)
		if err != nil {
			return mapUserWriteError(err)
		}
		if ct.RowsAffected() == 0 {
			return domain.ErrNotFound
		}

		if err := unlinkHobbies(ctx, tx, userID, c.RemoveHobbyIDs); err != nil {
			return err
		}
		added, err := ensureHobbies(ctx, tx, c.AddHobbies)
		if err != nil {
			return err
		}
		if err := linkHobbies(ctx, tx, userID, hobbyIDs(added)); err != nil {
			return err
		}

		p, err = loadProfile(ctx, tx, userID)
		return err
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return p, nil
}

func loadProfile(ctx context.Context, db dbtx, userID string) (domain.Profile, error) {
	const q = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(db.QueryRow(ctx, q, userID))
	if err != nil {
		if isNoRows(err) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	hobbies, err := listUserHobbies(ctx, db, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{User: u, Hobbies: hobbies}, nil
}
