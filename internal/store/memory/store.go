// Package memory is an in-process implementation of the repository
// interfaces. It backs the server when no database is configured and drives
// the service tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"hobbiesapp/internal/domain"

	"github.com/google/uuid"
)

type userRow struct {
	user         domain.User
	passwordHash string
	hobbies      map[string]struct{}
}

type requestRow struct {
	req domain.FriendRequest
	seq int64
}

type Store struct {
	Now func() time.Time

	mu        sync.RWMutex
	seq       int64
	users     map[string]*userRow
	emails    map[string]string
	hobbies   map[string]domain.Hobby
	hobbyKeys map[string]string
	requests  map[string]*requestRow
	friends   map[string]map[string]struct{}
	sessions  map[string]domain.Session
	tokens    map[string]domain.DeviceToken
}

func New() *Store {
	return &Store{
		Now:       time.Now,
		users:     make(map[string]*userRow),
		emails:    make(map[string]string),
		hobbies:   make(map[string]domain.Hobby),
		hobbyKeys: make(map[string]string),
		requests:  make(map[string]*requestRow),
		friends:   make(map[string]map[string]struct{}),
		sessions:  make(map[string]domain.Session),
		tokens:    make(map[string]domain.DeviceToken),
	}
}

// Users

func (s *Store) CreateUser(ctx context.Context, nu domain.NewUser) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[nu.Email]; taken {
		return domain.Profile{}, domain.ErrEmailTaken
	}

	now := s.Now().UTC()
	row := &userRow{
		user: domain.User{
			ID:          uuid.NewString(),
			Email:       nu.Email,
			Name:        nu.Name,
			DateOfBirth: copyDate(nu.DateOfBirth),
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
		passwordHash: nu.PasswordHash,
		hobbies:      make(map[string]struct{}, len(nu.HobbyNames)),
	}
	for _, name := range nu.HobbyNames {
		h := s.ensureHobbyLocked(name)
		row.hobbies[h.ID] = struct{}{}
	}

	s.users[row.user.ID] = row
	s.emails[row.user.Email] = row.user.ID
	return s.profileLocked(row), nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users[id]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return copyUser(row.user), nil
}

func (s *Store) GetUserWithPassword(ctx context.Context, id string) (domain.UserWithPassword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users[id]
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	return domain.UserWithPassword{User: copyUser(row.user), PasswordHash: row.passwordHash}, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return domain.UserWithPassword{}, domain.ErrNotFound
	}
	row := s.users[id]
	return domain.UserWithPassword{User: copyUser(row.user), PasswordHash: row.passwordHash}, nil
}

func (s *Store) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row, ok := s.users[userID]; ok {
		w := when
		row.user.LastLoginAt = &w
	}
	return nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash, keepSessionID string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[userID]
	if !ok {
		return domain.ErrNotFound
	}
	row.passwordHash = passwordHash
	row.user.UpdatedAt = when

	for id, sess := range s.sessions {
		if sess.UserID != userID || sess.RevokedAt != nil || id == keepSessionID {
			continue
		}
		w := when
		sess.RevokedAt = &w
		s.sessions[id] = sess
	}
	return nil
}

// SetActive toggles the active flag. It has no HTTP surface; deactivation is
// an operator action.
func (s *Store) SetActive(userID string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row, ok := s.users[userID]; ok {
		row.user.IsActive = active
	}
}

// Sessions

func (s *Store) CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return "", domain.ErrNotFound
	}
	id := uuid.NewString()
	s.sessions[id] = domain.Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: s.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	return id, nil
}

func (s *Store) GetSession(ctx context.Context, sessionID string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.RevokedAt != nil || !sess.ExpiresAt.After(s.Now()) {
		return domain.Session{}, domain.ErrNotFound
	}
	return sess, nil
}

func (s *Store) RevokeSession(ctx context.Context, sessionID string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || sess.RevokedAt != nil {
		return nil
	}
	w := when
	sess.RevokedAt = &w
	s.sessions[sessionID] = sess
	return nil
}

// Hobbies

func (s *Store) ListHobbies(ctx context.Context) ([]domain.Hobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Hobby, 0, len(s.hobbies))
	for _, h := range s.hobbies {
		out = append(out, h)
	}
	sortHobbies(out)
	return out, nil
}

func (s *Store) EnsureHobby(ctx context.Context, name string) (domain.Hobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureHobbyLocked(name), nil
}

func (s *Store) ensureHobbyLocked(name string) domain.Hobby {
	key := domain.HobbyKey(name)
	if id, ok := s.hobbyKeys[key]; ok {
		return s.hobbies[id]
	}
	h := domain.Hobby{ID: uuid.NewString(), Name: name}
	s.hobbies[h.ID] = h
	s.hobbyKeys[key] = h.ID
	return h
}

// Profile

func (s *Store) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.users[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	return s.profileLocked(row), nil
}

func (s *Store) ApplyProfileChanges(ctx context.Context, userID string, c domain.ProfileChanges, when time.Time) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.users[userID]
	if !ok {
		return domain.Profile{}, domain.ErrNotFound
	}
	if c.Email != nil && *c.Email != row.user.Email {
		if _, taken := s.emails[*c.Email]; taken {
			return domain.Profile{}, domain.ErrEmailTaken
		}
		delete(s.emails, row.user.Email)
		s.emails[*c.Email] = userID
		row.user.Email = *c.Email
	}
	if c.Name != nil {
		row.user.Name = *c.Name
	}
	switch {
	case c.ClearDateOfBirth:
		row.user.DateOfBirth = nil
	case c.DateOfBirth != nil:
		row.user.DateOfBirth = copyDate(c.DateOfBirth)
	}
	for _, id := range c.RemoveHobbyIDs {
		delete(row.hobbies, id)
	}
	for _, name := range c.AddHobbies {
		h := s.ensureHobbyLocked(name)
		row.hobbies[h.ID] = struct{}{}
	}
	row.user.UpdatedAt = when

	return s.profileLocked(row), nil
}

func (s *Store) profileLocked(row *userRow) domain.Profile {
	hobbies := make([]domain.Hobby, 0, len(row.hobbies))
	for id := range row.hobbies {
		hobbies = append(hobbies, s.hobbies[id])
	}
	sortHobbies(hobbies)
	return domain.Profile{User: copyUser(row.user), Hobbies: hobbies}
}

// Friendships

func (s *Store) CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.users[toID]
	if !ok || !target.user.IsActive {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	if _, ok := s.friends[fromID][toID]; ok {
		return domain.FriendRequest{}, domain.ErrAlreadyFriends
	}
	for _, r := range s.requests {
		if r.req.Status == domain.FriendRequestPending && r.req.FromUserID == fromID && r.req.ToUserID == toID {
			return domain.FriendRequest{}, domain.ErrDuplicateRequest
		}
	}

	s.seq++
	fr := domain.FriendRequest{
		ID:         uuid.NewString(),
		FromUserID: fromID,
		ToUserID:   toID,
		Status:     domain.FriendRequestPending,
		CreatedAt:  when,
	}
	s.requests[fr.ID] = &requestRow{req: fr, seq: s.seq}
	return fr, nil
}

func (s *Store) Accept(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.respondLocked(requestID, toUserID, domain.FriendRequestAccepted, when)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	s.addEdgeLocked(r.FromUserID, r.ToUserID)
	s.addEdgeLocked(r.ToUserID, r.FromUserID)
	return r, nil
}

func (s *Store) Reject(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.respondLocked(requestID, toUserID, domain.FriendRequestRejected, when)
}

func (s *Store) respondLocked(requestID, toUserID string, status domain.FriendRequestStatus, when time.Time) (domain.FriendRequest, error) {
	r, ok := s.requests[requestID]
	if !ok || r.req.ToUserID != toUserID || r.req.Status != domain.FriendRequestPending {
		return domain.FriendRequest{}, domain.ErrNotFound
	}
	w := when
	r.req.Status = status
	r.req.RespondedAt = &w
	return r.req, nil
}

func (s *Store) addEdgeLocked(a, b string) {
	m, ok := s.friends[a]
	if !ok {
		m = make(map[string]struct{})
		s.friends[a] = m
	}
	m[b] = struct{}{}
}

func (s *Store) AreFriends(ctx context.Context, userID, otherID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.friends[userID][otherID]
	return ok, nil
}

func (s *Store) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.UserSummary, 0, len(s.friends[userID]))
	for id := range s.friends[userID] {
		row, ok := s.users[id]
		if !ok {
			continue
		}
		out = append(out, domain.UserSummary{ID: id, Name: row.user.Name, Email: row.user.Email})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListRequests(ctx context.Context, userID string, dir domain.RequestDirection) ([]domain.RequestSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rows []*requestRow
	for _, r := range s.requests {
		if r.req.Status != domain.FriendRequestPending {
			continue
		}
		if (dir == domain.RequestsSent && r.req.FromUserID == userID) ||
			(dir == domain.RequestsReceived && r.req.ToUserID == userID) {
			rows = append(rows, r)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].req.CreatedAt.Equal(rows[j].req.CreatedAt) {
			return rows[i].req.CreatedAt.After(rows[j].req.CreatedAt)
		}
		return rows[i].seq > rows[j].seq
	})

	out := make([]domain.RequestSummary, 0, len(rows))
	for _, r := range rows {
		other := r.req.ToUserID
		if dir == domain.RequestsReceived {
			other = r.req.FromUserID
		}
		rs := domain.RequestSummary{
			ID:            r.req.ID,
			CounterpartID: other,
			Status:        r.req.Status,
			CreatedAt:     r.req.CreatedAt,
		}
		if u, ok := s.users[other]; ok {
			rs.CounterpartName = u.user.Name
		}
		out = append(out, rs)
	}
	return out, nil
}

// Similarity

func (s *Store) SimilarUsers(ctx context.Context, q domain.SimilarQuery) ([]domain.SimilarUser, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var mine []string
	if me, ok := s.users[q.UserID]; ok {
		mine = s.hobbyNamesLocked(me)
	}

	all := make([]domain.SimilarUser, 0, len(s.users))
	for id, row := range s.users {
		if id == q.UserID || !row.user.IsActive {
			continue
		}
		if !domain.InAgeRange(row.user.DateOfBirth, q.Today, q.AgeMin, q.AgeMax) {
			continue
		}
		theirs := s.hobbyNamesLocked(row)
		_, friend := s.friends[q.UserID][id]
		all = append(all, domain.SimilarUser{
			ID:            id,
			Name:          row.user.Name,
			Email:         row.user.Email,
			DateOfBirth:   copyDate(row.user.DateOfBirth),
			Hobbies:       theirs,
			CommonHobbies: domain.SharedHobbies(mine, theirs),
			IsFriend:      friend,
			RequestSent:   s.pendingLocked(q.UserID, id),
		})
	}

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.CommonHobbies != b.CommonHobbies {
			return a.CommonHobbies > b.CommonHobbies
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})

	total := len(all)
	if q.Offset >= total {
		return []domain.SimilarUser{}, total, nil
	}
	end := total
	if q.Limit > 0 && q.Offset+q.Limit < end {
		end = q.Offset + q.Limit
	}
	return all[q.Offset:end], total, nil
}

func (s *Store) hobbyNamesLocked(row *userRow) []string {
	names := make([]string, 0, len(row.hobbies))
	for id := range row.hobbies {
		names = append(names, s.hobbies[id].Name)
	}
	sort.Slice(names, func(i, j int) bool { return strings.ToLower(names[i]) < strings.ToLower(names[j]) })
	return names
}

func (s *Store) pendingLocked(fromID, toID string) bool {
	for _, r := range s.requests {
		if r.req.Status == domain.FriendRequestPending && r.req.FromUserID == fromID && r.req.ToUserID == toID {
			return true
		}
	}
	return false
}

// Notification tokens

func (s *Store) UpsertToken(ctx context.Context, userID, token, platform string, when time.Time) (domain.DeviceToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return domain.DeviceToken{}, domain.ErrNotFound
	}
	t, ok := s.tokens[token]
	if !ok {
		t = domain.DeviceToken{ID: uuid.NewString(), Token: token, CreatedAt: when}
	}
	t.UserID = userID
	t.Platform = platform
	t.UpdatedAt = when
	s.tokens[token] = t
	return t, nil
}

func (s *Store) DeleteToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.tokens[token]; ok && t.UserID == userID {
		delete(s.tokens, token)
	}
	return nil
}

func (s *Store) ListTokens(ctx context.Context, userID string) ([]domain.DeviceToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.DeviceToken{}
	for _, t := range s.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (s *Store) PruneTokens(ctx context.Context, tokens []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, tok := range tokens {
		if _, ok := s.tokens[tok]; ok {
			delete(s.tokens, tok)
			n++
		}
	}
	return n, nil
}

func sortHobbies(hs []domain.Hobby) {
	sort.Slice(hs, func(i, j int) bool {
		ki, kj := domain.HobbyKey(hs[i].Name), domain.HobbyKey(hs[j].Name)
		if ki != kj {
			return ki < kj
		}
		return hs[i].ID < hs[j].ID
	})
}

func copyUser(u domain.User) domain.User {
	u.DateOfBirth = copyDate(u.DateOfBirth)
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		u.LastLoginAt = &t
	}
	return u
}

func copyDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
