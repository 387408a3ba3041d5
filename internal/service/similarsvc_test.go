package service

import (
	"context"
	"testing"

	"hobbiesapp/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSimilarParams(t *testing.T) {
	p, err := ParseSimilarParams("", "", "")
	require.NoError(t, err)
	assert.Nil(t, p.AgeMin)
	assert.Nil(t, p.AgeMax)
	assert.Equal(t, 1, p.Page)

	p, err = ParseSimilarParams("18", " 30 ", "3")
	require.NoError(t, err)
	require.NotNil(t, p.AgeMin)
	require.NotNil(t, p.AgeMax)
	assert.Equal(t, 18, *p.AgeMin)
	assert.Equal(t, 30, *p.AgeMax)
	assert.Equal(t, 3, p.Page)

	cases := []struct {
		name               string
		ageMin, ageMax, pg string
		field              string
	}{
		{"non numeric age", "abc", "", "", "age_min"},
		{"negative age", "", "-1", "", "age_max"},
		{"zero page", "", "", "0", "page"},
		{"non numeric page", "", "", "x", "page"},
		{"inverted range", "40", "30", "", "age_min"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSimilarParams(tc.ageMin, tc.ageMax, tc.pg)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, domain.CodeInvalidArgument, ve.Code)
			assert.Contains(t, ve.Fields, tc.field)
		})
	}
}

func TestSimilarServiceRanking(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	u1 := seedUser(t, st, "U1", "u1@example.com", "1980-01-01", "Chess", "Hiking")
	u2 := seedUser(t, st, "U2", "u2@example.com", "1990-06-16", "Hiking", "Painting")
	u3 := seedUser(t, st, "U3", "u3@example.com", "1990-06-15", "chess", "hiking", "Painting")
	u4 := seedUser(t, st, "U4", "u4@example.com", "", "Cooking")

	svc := &SimilarService{Store: st, Now: fixedNow}

	page, err := svc.SimilarUsers(ctx, u1.ID, SimilarParams{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	assert.Equal(t, DefaultSimilarPageSize, page.PerPage)
	require.Len(t, page.Users, 3)
	assert.Equal(t, u3.ID, page.Users[0].ID)
	assert.Equal(t, 2, page.Users[0].CommonHobbies)
	assert.Equal(t, u2.ID, page.Users[1].ID)
	assert.Equal(t, 1, page.Users[1].CommonHobbies)
	assert.Equal(t, u4.ID, page.Users[2].ID)
	assert.Equal(t, 0, page.Users[2].CommonHobbies)

	// U2 turns 35 tomorrow; U3 turned 35 today. U4 has no date of birth.
	minAge := 35
	page, err = svc.SimilarUsers(ctx, u1.ID, SimilarParams{AgeMin: &minAge, Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, u3.ID, page.Users[0].ID)

	paged := &SimilarService{Store: st, PageSize: 1, Now: fixedNow}
	page, err = paged.SimilarUsers(ctx, u1.ID, SimilarParams{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalCount)
	require.Len(t, page.Users, 1)
	assert.Equal(t, u2.ID, page.Users[0].ID)

	page, err = paged.SimilarUsers(ctx, u1.ID, SimilarParams{Page: 9})
	require.NoError(t, err)
	assert.Empty(t, page.Users)
	assert.Equal(t, 3, page.TotalCount)
}

func TestSimilarServiceExcludesInactiveAndFlagsFriends(t *testing.T) {
	ctx := context.Background()
	st := newMemoryStore()
	u1 := seedUser(t, st, "U1", "u1@example.com", "", "Chess")
	u2 := seedUser(t, st, "U2", "u2@example.com", "", "Chess")
	u3 := seedUser(t, st, "U3", "u3@example.com", "", "Chess")
	off := seedUser(t, st, "Off", "off@example.com", "", "Chess")
	st.SetActive(off.ID, false)

	friends := &FriendsService{Friendships: st, Now: fixedNow}
	fr, err := friends.Send(ctx, u1.ID, u2.ID)
	require.NoError(t, err)
	_, err = friends.Accept(ctx, u2.ID, fr.ID)
	require.NoError(t, err)
	_, err = friends.Send(ctx, u1.ID, u3.ID)
	require.NoError(t, err)

	svc := &SimilarService{Store: st, Now: fixedNow}
	page, err := svc.SimilarUsers(ctx, u1.ID, SimilarParams{Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	assert.Equal(t, u2.ID, page.Users[0].ID)
	assert.True(t, page.Users[0].IsFriend)
	assert.Equal(t, u3.ID, page.Users[1].ID)
	assert.True(t, page.Users[1].RequestSent)
}
