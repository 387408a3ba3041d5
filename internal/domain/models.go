package domain

import "time"

type User struct {
	ID          string
	Email       string
	Name        string
	DateOfBirth *time.Time
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
}

type UserWithPassword struct {
	User
	PasswordHash string
}

type Hobby struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Profile is a user together with its hobby memberships.
type Profile struct {
	User
	Hobbies []Hobby
}

// HobbyNames returns the hobby names in membership order.
func (p Profile) HobbyNames() []string {
	out := make([]string, 0, len(p.Hobbies))
	for _, h := range p.Hobbies {
		out = append(out, h.Name)
	}
	return out
}

type NewUser struct {
	Email        string
	Name         string
	PasswordHash string
	DateOfBirth  *time.Time
	HobbyNames   []string
}

type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// DateLayout is the textual date-of-birth format accepted and emitted by the API.
const DateLayout = "2006-01-02"
