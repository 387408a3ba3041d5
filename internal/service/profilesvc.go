package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/domain"
)

type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	ApplyProfileChanges(ctx context.Context, userID string, c domain.ProfileChanges, when time.Time) (domain.Profile, error)
}

type CredentialsStore interface {
	GetUserWithPassword(ctx context.Context, id string) (domain.UserWithPassword, error)
	UpdatePassword(ctx context.Context, userID, passwordHash, keepSessionID string, when time.Time) error
}

// ProfileUpdate carries the fields present in an update request. A nil field
// was not sent. An empty DateOfBirth clears the stored date.
type ProfileUpdate struct {
	Name        *string
	Email       *string
	DateOfBirth *string
	Hobbies     *[]string
}

type PasswordChange struct {
	Old     string
	New     string
	Confirm string
}

type ProfileService struct {
	Store       ProfileStore
	Credentials CredentialsStore
	Tokens      *auth.TokenIssuer
	Now         func() time.Time
}

func (s *ProfileService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Store.GetProfile(ctx, userID)
}

// UpdateProfile applies the fields of upd that differ from the stored
// profile and returns the sorted names of the fields that changed. Nothing
// is written when no field changed.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) ([]string, domain.Profile, error) {
	current, err := s.Store.GetProfile(ctx, userID)
	if err != nil {
		return nil, domain.Profile{}, err
	}

	var (
		c       domain.ProfileChanges
		changed []string
	)

	if upd.Name != nil {
		name, err := domain.NormalizeName(*upd.Name)
		if err != nil {
			return nil, domain.Profile{}, err
		}
		if name != current.Name {
			c.Name = &name
			changed = append(changed, "name")
		}
	}

	if upd.Email != nil {
		email := domain.NormalizeEmail(*upd.Email)
		if email == "" {
			return nil, domain.Profile{}, domain.MissingField("email")
		}
		if err := domain.ValidateEmail(email); err != nil {
			return nil, domain.Profile{}, err
		}
		if email != current.Email {
			c.Email = &email
			changed = append(changed, "email")
		}
	}

	if upd.DateOfBirth != nil {
		raw := strings.TrimSpace(*upd.DateOfBirth)
		if raw == "" {
			if current.DateOfBirth != nil {
				c.ClearDateOfBirth = true
				changed = append(changed, "date_of_birth")
			}
		} else {
			dob, err := domain.ParseDate(raw, s.now())
			if err != nil {
				return nil, domain.Profile{}, err
			}
			if current.DateOfBirth == nil || !sameDate(*current.DateOfBirth, dob) {
				c.DateOfBirth = &dob
				changed = append(changed, "date_of_birth")
			}
		}
	}

	if upd.Hobbies != nil {
		names, err := domain.NormalizeHobbyNames(*upd.Hobbies)
		if err != nil {
			return nil, domain.Profile{}, err
		}
		c.AddHobbies, c.RemoveHobbyIDs = diffHobbies(current.Hobbies, names)
		if len(c.AddHobbies) > 0 || len(c.RemoveHobbyIDs) > 0 {
			changed = append(changed, "hobbies")
		}
	}

	if c.Empty() {
		return []string{}, current, nil
	}

	updated, err := s.Store.ApplyProfileChanges(ctx, userID, c, s.now())
	if err != nil {
		return nil, domain.Profile{}, err
	}
	sort.Strings(changed)
	return changed, updated, nil
}

// UpdatePassword replaces the user's password after checking the old one.
// Every other session is revoked. When the caller authenticated with a
// bearer token, a replacement token is returned.
func (s *ProfileService) UpdatePassword(ctx context.Context, userID, currentSessionID string, pc PasswordChange, wantToken bool) (string, error) {
	if pc.New == "" {
		return "", domain.MissingField("newPassword")
	}

	u, err := s.Credentials.GetUserWithPassword(ctx, userID)
	if err != nil {
		return "", err
	}
	ok, err := auth.VerifyPassword(u.PasswordHash, pc.Old)
	if err != nil && !errors.Is(err, auth.ErrMalformedHash) {
		return "", err
	}
	if !ok {
		return "", domain.ErrIncorrectPassword
	}
	if pc.New != pc.Confirm {
		return "", domain.NewValidationError(domain.CodePasswordMismatch, map[string]string{"confirmPassword": "passwords do not match"})
	}

	hash, err := auth.HashPassword(pc.New)
	if err != nil {
		return "", err
	}
	if err := s.Credentials.UpdatePassword(ctx, userID, hash, currentSessionID, s.now()); err != nil {
		return "", err
	}

	if !wantToken || s.Tokens == nil {
		return "", nil
	}
	token, _, err := s.Tokens.Issue(userID, hash)
	if err != nil {
		return "", err
	}
	return token, nil
}

// diffHobbies compares the stored hobbies with the requested names by
// case-insensitive key.
func diffHobbies(current []domain.Hobby, want []string) (add []string, removeIDs []string) {
	have := make(map[string]struct{}, len(current))
	for _, h := range current {
		have[domain.HobbyKey(h.Name)] = struct{}{}
	}
	wanted := make(map[string]struct{}, len(want))
	for _, n := range want {
		k := domain.HobbyKey(n)
		wanted[k] = struct{}{}
		if _, ok := have[k]; !ok {
			add = append(add, n)
		}
	}
	for _, h := range current {
		if _, ok := wanted[domain.HobbyKey(h.Name)]; !ok {
			removeIDs = append(removeIDs, h.ID)
		}
	}
	return add, removeIDs
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
