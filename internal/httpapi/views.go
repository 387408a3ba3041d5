package httpapi

import (
	"time"

	"hobbiesapp/internal/domain"
)

type userResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Email       string         `json:"email"`
	DateOfBirth string         `json:"date_of_birth"`
	Hobbies     []domain.Hobby `json:"hobbies"`
}

func profileView(p domain.Profile) userResponse {
	hobbies := p.Hobbies
	if hobbies == nil {
		hobbies = []domain.Hobby{}
	}
	return userResponse{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		DateOfBirth: formatDate(p.DateOfBirth),
		Hobbies:     hobbies,
	}
}

type similarUserResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	DateOfBirth   string   `json:"date_of_birth"`
	Hobbies       []string `json:"hobbies"`
	CommonHobbies int      `json:"common_hobbies"`
	IsFriend      bool     `json:"is_friend"`
	RequestSent   bool     `json:"request_sent"`
}

type similarPageResponse struct {
	Users      []similarUserResponse `json:"users"`
	TotalCount int                   `json:"total_count"`
	Page       int                   `json:"page"`
	PerPage    int                   `json:"per_page"`
}

func similarPageView(p domain.SimilarPage) similarPageResponse {
	out := similarPageResponse{
		Users:      make([]similarUserResponse, 0, len(p.Users)),
		TotalCount: p.TotalCount,
		Page:       p.Page,
		PerPage:    p.PerPage,
	}
	for _, u := range p.Users {
		hobbies := u.Hobbies
		if hobbies == nil {
			hobbies = []string{}
		}
		out.Users = append(out.Users, similarUserResponse{
			ID:            u.ID,
			Name:          u.Name,
			Email:         u.Email,
			DateOfBirth:   formatDate(u.DateOfBirth),
			Hobbies:       hobbies,
			CommonHobbies: u.CommonHobbies,
			IsFriend:      u.IsFriend,
			RequestSent:   u.RequestSent,
		})
	}
	return out
}

type friendRequestResponse struct {
	ID         string `json:"id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func friendRequestView(fr domain.FriendRequest) friendRequestResponse {
	return friendRequestResponse{
		ID:         fr.ID,
		FromUserID: fr.FromUserID,
		ToUserID:   fr.ToUserID,
		Status:     string(fr.Status),
		CreatedAt:  formatMillis(fr.CreatedAt),
	}
}

// formatDate renders an optional date of birth; a missing date is "".
func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(domain.DateLayout)
}

func formatMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
