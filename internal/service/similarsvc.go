package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"hobbiesapp/internal/domain"
)

const DefaultSimilarPageSize = 10

type SimilarityStore interface {
	SimilarUsers(ctx context.Context, q domain.SimilarQuery) ([]domain.SimilarUser, int, error)
}

// SimilarParams are the parsed query parameters of a similarity listing.
type SimilarParams struct {
	AgeMin *int
	AgeMax *int
	Page   int
}

// ParseSimilarParams parses the raw age_min, age_max and page values. Empty
// values mean no bound and the first page.
func ParseSimilarParams(ageMin, ageMax, page string) (SimilarParams, error) {
	p := SimilarParams{Page: 1}
	fields := map[string]string{}

	parseAge := func(field, raw string) *int {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			fields[field] = "must be a whole number"
			return nil
		}
		if n < 0 {
			fields[field] = "must not be negative"
			return nil
		}
		return &n
	}
	p.AgeMin = parseAge("age_min", ageMin)
	p.AgeMax = parseAge("age_max", ageMax)

	if raw := strings.TrimSpace(page); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			fields["page"] = "must be a positive whole number"
		} else {
			p.Page = n
		}
	}

	if p.AgeMin != nil && p.AgeMax != nil && *p.AgeMin > *p.AgeMax {
		fields["age_min"] = "must not exceed age_max"
	}
	if len(fields) > 0 {
		return SimilarParams{}, domain.NewValidationError(domain.CodeInvalidArgument, fields)
	}
	return p, nil
}

type SimilarService struct {
	Store    SimilarityStore
	PageSize int
	Now      func() time.Time
}

// SimilarUsers ranks the other active users by shared hobbies with userID.
func (s *SimilarService) SimilarUsers(ctx context.Context, userID string, p SimilarParams) (domain.SimilarPage, error) {
	if p.Page < 1 {
		return domain.SimilarPage{}, domain.InvalidArgument("page", "must be a positive whole number")
	}
	perPage := s.PageSize
	if perPage <= 0 {
		perPage = DefaultSimilarPageSize
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	y, m, d := now().UTC().Date()

	users, total, err := s.Store.SimilarUsers(ctx, domain.SimilarQuery{
		UserID: userID,
		AgeMin: p.AgeMin,
		AgeMax: p.AgeMax,
		Limit:  perPage,
		Offset: (p.Page - 1) * perPage,
		Today:  time.Date(y, m, d, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		return domain.SimilarPage{}, err
	}

	return domain.SimilarPage{
		Users:      users,
		TotalCount: total,
		Page:       p.Page,
		PerPage:    perPage,
	}, nil
}
