package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/store/memory"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// friendGraph is the slice of store behaviour both backends must agree on.
type friendGraph interface {
	CreateUser(ctx context.Context, nu domain.NewUser) (domain.Profile, error)
	CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error)
	Accept(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error)
	ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error)
	SimilarUsers(ctx context.Context, q domain.SimilarQuery) ([]domain.SimilarUser, int, error)
}

type pgGraph struct {
	*UsersStore
	*FriendshipsStore
	*SimilarityStore
}

// newTestPool migrates a fresh schema in the database named by APP_DB_DSN and
// drops it when the test ends. Tests are skipped without a DSN.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("APP_DB_DSN")
	if dsn == "" {
		t.Skip("APP_DB_DSN not set")
	}
	ctx := context.Background()

	admin, err := Open(ctx, dsn)
	require.NoError(t, err)
	schema := "it_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, `CREATE SCHEMA `+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), `DROP SCHEMA `+schema+` CASCADE`)
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, Migrate(ctx, pool, slog.New(slog.NewTextHandler(io.Discard, nil))))
	return pool
}

func backends() map[string]func(t *testing.T) friendGraph {
	return map[string]func(t *testing.T) friendGraph{
		"memory": func(t *testing.T) friendGraph { return memory.New() },
		"postgres": func(t *testing.T) friendGraph {
			pool := newTestPool(t)
			return pgGraph{
				UsersStore:       NewUsersStore(pool),
				FriendshipsStore: NewFriendshipsStore(pool),
				SimilarityStore:  NewSimilarityStore(pool),
			}
		},
	}
}

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func createUser(t *testing.T, g friendGraph, name string, dob *time.Time, hobbies ...string) string {
	t.Helper()
	p, err := g.CreateUser(context.Background(), domain.NewUser{
		Email:        strings.ToLower(name) + "@example.com",
		Name:         name,
		PasswordHash: "hash",
		DateOfBirth:  dob,
		HobbyNames:   hobbies,
	})
	require.NoError(t, err)
	return p.ID
}

func similarIDs(t *testing.T, g friendGraph, q domain.SimilarQuery) ([]string, int) {
	t.Helper()
	users, total, err := g.SimilarUsers(context.Background(), q)
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, total
}

func intPtr(n int) *int { return &n }

func TestStoresAgreeOnSimilarUsers(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			g := open(t)
			ctx := context.Background()
			now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

			me := createUser(t, g, "Mia", nil, "Chess", "Hiking", "Painting")
			ann := createUser(t, g, "Ann", date(2000, 6, 15), "Chess", "hiking")
			ben := createUser(t, g, "Ben", date(2000, 6, 16), "CHESS")
			cid := createUser(t, g, "Cid", nil, "Knitting")
			eve := createUser(t, g, "Eve", date(2004, 2, 29), "Knitting")

			q := domain.SimilarQuery{UserID: me, Limit: 10, Today: now}
			ids, total := similarIDs(t, g, q)
			assert.Equal(t, 4, total)
			require.Len(t, ids, 4)
			assert.Equal(t, []string{ann, ben}, ids[:2], "ranked by shared hobbies")
			assert.ElementsMatch(t, []string{cid, eve}, ids[2:])

			users, _, err := g.SimilarUsers(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, 2, users[0].CommonHobbies)
			assert.Equal(t, 1, users[1].CommonHobbies)
			assert.Equal(t, 0, users[2].CommonHobbies)

			// Ann turns 25 today, Ben tomorrow. Cid has no birth date.
			ids, total = similarIDs(t, g, domain.SimilarQuery{UserID: me, AgeMin: intPtr(25), Limit: 10, Today: now})
			assert.Equal(t, 1, total)
			assert.Equal(t, []string{ann}, ids)

			ids, _ = similarIDs(t, g, domain.SimilarQuery{UserID: me, AgeMin: intPtr(24), AgeMax: intPtr(24), Limit: 10, Today: now})
			assert.Equal(t, []string{ben}, ids)

			// A Feb 29 birthday is reached on Mar 1 in non-leap years.
			feb28 := time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)
			ids, _ = similarIDs(t, g, domain.SimilarQuery{UserID: me, AgeMin: intPtr(21), AgeMax: intPtr(21), Limit: 10, Today: feb28})
			assert.Empty(t, ids)
			mar1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
			ids, _ = similarIDs(t, g, domain.SimilarQuery{UserID: me, AgeMin: intPtr(21), AgeMax: intPtr(21), Limit: 10, Today: mar1})
			assert.Equal(t, []string{eve}, ids)

			ids, total = similarIDs(t, g, domain.SimilarQuery{UserID: me, Limit: 1, Offset: 1, Today: now})
			assert.Equal(t, 4, total)
			assert.Equal(t, []string{ben}, ids)

			toAnn, err := g.CreateRequest(ctx, me, ann, now)
			require.NoError(t, err)
			_, err = g.Accept(ctx, toAnn.ID, ann, now)
			require.NoError(t, err)
			_, err = g.CreateRequest(ctx, me, ben, now)
			require.NoError(t, err)

			users, _, err = g.SimilarUsers(ctx, domain.SimilarQuery{UserID: me, Limit: 2, Today: now})
			require.NoError(t, err)
			require.Len(t, users, 2)
			assert.True(t, users[0].IsFriend)
			assert.False(t, users[0].RequestSent)
			assert.False(t, users[1].IsFriend)
			assert.True(t, users[1].RequestSent)
		})
	}
}

func TestStoresAgreeOnConcurrentRequests(t *testing.T) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			g := open(t)
			ctx := context.Background()
			now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
			a := createUser(t, g, "Ada", nil, "Chess")
			b := createUser(t, g, "Bob", nil, "Chess")

			const n = 8
			sendErrs := make([]error, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, sendErrs[i] = g.CreateRequest(ctx, a, b, now)
				}(i)
			}
			wg.Wait()
			assertOneWinner(t, sendErrs, domain.ErrDuplicateRequest)

			// The reverse direction is an independent request.
			reverse, err := g.CreateRequest(ctx, b, a, now)
			require.NoError(t, err)

			acceptErrs := make([]error, n)
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, acceptErrs[i] = g.Accept(ctx, reverse.ID, a, now)
				}(i)
			}
			wg.Wait()
			assertOneWinner(t, acceptErrs, domain.ErrNotFound)

			for _, pair := range [][2]string{{a, b}, {b, a}} {
				friends, err := g.ListFriends(ctx, pair[0])
				require.NoError(t, err)
				require.Len(t, friends, 1)
				assert.Equal(t, pair[1], friends[0].ID)
			}

			_, err = g.CreateRequest(ctx, a, b, now)
			assert.ErrorIs(t, err, domain.ErrAlreadyFriends)
		})
	}
}

func assertOneWinner(t *testing.T, errs []error, loser error) {
	t.Helper()
	var won int
	for _, err := range errs {
		if err == nil {
			won++
			continue
		}
		if !errors.Is(err, loser) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, won)
}
