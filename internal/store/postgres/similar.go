package postgres

import (
	"context"
	"fmt"

	"hobbiesapp/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SimilarityStore struct {
	pool *pgxpool.Pool
}

func NewSimilarityStore(pool *pgxpool.Pool) *SimilarityStore {
	return &SimilarityStore{pool: pool}
}

// similarCandidates selects every active user other than $1 that passes the
// optional inclusive age bounds $2/$3, with age computed at $4 the same way
// as domain.AgeOn.
const similarCandidates = `
	FROM users u
	WHERE u.id <> $1
		AND u.is_active
		AND ($2::int IS NULL OR (u.date_of_birth IS NOT NULL
			AND EXTRACT(YEAR FROM age($4::date, u.date_of_birth))::int >= $2::int))
		AND ($3::int IS NULL OR (u.date_of_birth IS NOT NULL
			AND EXTRACT(YEAR FROM age($4::date, u.date_of_birth))::int <= $3::int))
`

// SimilarUsers ranks candidates by the number of hobbies shared with the
// requesting user and returns one page plus the filtered total.
func (s *SimilarityStore) SimilarUsers(ctx context.Context, sq domain.SimilarQuery) ([]domain.SimilarUser, int, error) {
	const countQ = `SELECT count(*) ` + similarCandidates
	const pageQ = `
		SELECT c.id, c.name, c.email, c.date_of_birth, c.score,
			COALESCE((
				SELECT array_agg(h.name ORDER BY lower(h.name))
				FROM user_hobbies uh
				JOIN hobbies h ON h.id = uh.hobby_id
				WHERE uh.user_id = c.id
			), '{}'::text[]),
			EXISTS (SELECT 1 FROM friendships f WHERE f.user_id = $1 AND f.friend_id = c.id),
			EXISTS (
				SELECT 1 FROM friend_requests fr
				WHERE fr.from_user_id = $1 AND fr.to_user_id = c.id AND fr.status = 'pending'
			)
		FROM (
			SELECT u.id, u.name, u.email, u.date_of_birth,
				(
					SELECT count(*)
					FROM user_hobbies theirs
					JOIN user_hobbies mine ON mine.hobby_id = theirs.hobby_id AND mine.user_id = $1
					WHERE theirs.user_id = u.id
				)::int AS score
			` + similarCandidates + `
		) c
		ORDER BY c.score DESC, c.name ASC, c.id ASC
		LIMIT $5 OFFSET $6
	`

	today := dateArg(&sq.Today)

	var total int
	if err := s.pool.QueryRow(ctx, countQ, sq.UserID, sq.AgeMin, sq.AgeMax, today).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count similar users: %w", err)
	}
	if total == 0 || sq.Offset >= total {
		return []domain.SimilarUser{}, total, nil
	}

	rows, err := s.pool.Query(ctx, pageQ, sq.UserID, sq.AgeMin, sq.AgeMax, today, sq.Limit, sq.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("similar users: %w", err)
	}
	defer rows.Close()

	out := make([]domain.SimilarUser, 0, sq.Limit)
	for rows.Next() {
		var (
			su      domain.SimilarUser
			idUUID  pgtype.UUID
			dob     pgtype.Date
			hobbies pgtype.FlatArray[string]
		)
		if err := rows.Scan(&idUUID, &su.Name, &su.Email, &dob, &su.CommonHobbies, &hobbies, &su.IsFriend, &su.RequestSent); err != nil {
			return nil, 0, fmt.Errorf("scan similar user: %w", err)
		}
		su.ID = uuidOrEmpty(idUUID)
		su.DateOfBirth = datePtr(dob)
		su.Hobbies = textArrayOrEmpty(hobbies)
		out = append(out, su)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("similar users: %w", err)
	}
	return out, total, nil
}
