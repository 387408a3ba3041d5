package service

import (
	"context"
	"strings"

	"hobbiesapp/internal/domain"
)

type HobbiesStore interface {
	ListHobbies(ctx context.Context) ([]domain.Hobby, error)
	EnsureHobby(ctx context.Context, name string) (domain.Hobby, error)
}

type HobbyService struct {
	Store HobbiesStore
}

func (s *HobbyService) List(ctx context.Context) ([]domain.Hobby, error) {
	return s.Store.ListHobbies(ctx)
}

// Add returns the catalogue entry for name, creating it when no hobby of
// that name exists in any letter case.
func (s *HobbyService) Add(ctx context.Context, name string) (domain.Hobby, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Hobby{}, domain.MissingField("name")
	}
	name, err := domain.NormalizeHobbyName(name)
	if err != nil {
		return domain.Hobby{}, err
	}
	return s.Store.EnsureHobby(ctx, name)
}
