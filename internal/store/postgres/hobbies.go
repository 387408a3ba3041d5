package postgres

import (
	"context"
	"errors"
	"fmt"

	"hobbiesapp/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type HobbiesStore struct {
	pool *pgxpool.Pool
}

func NewHobbiesStore(pool *pgxpool.Pool) *HobbiesStore {
	return &HobbiesStore{pool: pool}
}

func (s *HobbiesStore) ListHobbies(ctx context.Context) ([]domain.Hobby, error) {
	const q = `
		SELECT id, name
		FROM hobbies
		ORDER BY lower(name) ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list hobbies: %w", err)
	}
	defer rows.Close()

	out := []domain.Hobby{}
	for rows.Next() {
		var (
			idUUID pgtype.UUID
			name   string
		)
		if err := rows.Scan(&idUUID, &name); err != nil {
			return nil, fmt.Errorf("scan hobby: %w", err)
		}
		out = append(out, domain.Hobby{ID: uuidOrEmpty(idUUID), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hobbies: %w", err)
	}
	return out, nil
}

func (s *HobbiesStore) EnsureHobby(ctx context.Context, name string) (domain.Hobby, error) {
	return ensureHobby(ctx, s.pool, name)
}

// ensureHobby returns the hobby whose name matches case-insensitively,
// inserting it when absent.
func ensureHobby(ctx context.Context, db dbtx, name string) (domain.Hobby, error) {
	const q = `
		WITH ins AS (
			INSERT INTO hobbies (name)
			VALUES ($1)
			ON CONFLICT ((lower(name))) DO NOTHING
			RETURNING id, name
		)
		SELECT id, name FROM ins
		UNION ALL
		SELECT id, name FROM hobbies WHERE lower(name) = lower($1)
		LIMIT 1
	`

	// A concurrent insert committed between the conflict check and the
	// snapshot leaves both branches empty; the second pass sees it.
	for attempt := 0; attempt < 2; attempt++ {
		var (
			idUUID pgtype.UUID
			stored string
		)
		err := db.QueryRow(ctx, q, name).Scan(&idUUID, &stored)
		if err == nil {
			return domain.Hobby{ID: uuidOrEmpty(idUUID), Name: stored}, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return domain.Hobby{}, fmt.Errorf("ensure hobby: %w", err)
		}
	}
	return domain.Hobby{}, fmt.Errorf("ensure hobby %q: no row after retry", name)
}

func ensureHobbies(ctx context.Context, db dbtx, names []string) ([]domain.Hobby, error) {
	out := make([]domain.Hobby, 0, len(names))
	for _, n := range names {
		h, err := ensureHobby(ctx, db, n)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

func linkHobbies(ctx context.Context, db dbtx, userID string, hobbyIDs []string) error {
	if len(hobbyIDs) == 0 {
		return nil
	}
	const q = `
		INSERT INTO user_hobbies (user_id, hobby_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	if _, err := db.Exec(ctx, q, userID, hobbyIDs); err != nil {
		return fmt.Errorf("link hobbies: %w", err)
	}
	return nil
}

func unlinkHobbies(ctx context.Context, db dbtx, userID string, hobbyIDs []string) error {
	if len(hobbyIDs) == 0 {
		return nil
	}
	const q = `
		DELETE FROM user_hobbies
		WHERE user_id = $1 AND hobby_id = ANY($2::uuid[])
	`
	if _, err := db.Exec(ctx, q, userID, hobbyIDs); err != nil {
		return fmt.Errorf("unlink hobbies: %w", err)
	}
	return nil
}

func listUserHobbies(ctx context.Context, db dbtx, userID string) ([]domain.Hobby, error) {
	const q = `
		SELECT h.id, h.name
		FROM user_hobbies uh
		JOIN hobbies h ON h.id = uh.hobby_id
		WHERE uh.user_id = $1
		ORDER BY lower(h.name) ASC
	`

	rows, err := db.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list user hobbies: %w", err)
	}
	defer rows.Close()

	out := []domain.Hobby{}
	for rows.Next() {
		var (
			idUUID pgtype.UUID
			name   string
		)
		if err := rows.Scan(&idUUID, &name); err != nil {
			return nil, fmt.Errorf("scan user hobby: %w", err)
		}
		out = append(out, domain.Hobby{ID: uuidOrEmpty(idUUID), Name: name})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list user hobbies: %w", err)
	}
	return out, nil
}

func hobbyIDs(hobbies []domain.Hobby) []string {
	out := make([]string, 0, len(hobbies))
	for _, h := range hobbies {
		out = append(out, h.ID)
	}
	return out
}
