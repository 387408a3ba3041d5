package domain

import "time"

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

type FriendRequest struct {
	ID          string
	FromUserID  string
	ToUserID    string
	Status      FriendRequestStatus
	CreatedAt   time.Time
	RespondedAt *time.Time
}

type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// RequestSummary is a pending request seen from one side: Counterpart is the
// addressee for sent requests and the requester for received ones.
type RequestSummary struct {
	ID              string              `json:"id"`
	CounterpartID   string              `json:"counterpart_id"`
	CounterpartName string              `json:"counterpart"`
	Status          FriendRequestStatus `json:"status"`
	CreatedAt       time.Time           `json:"created_at"`
}

type RequestDirection int

const (
	RequestsSent RequestDirection = iota
	RequestsReceived
)

// SimilarQuery selects candidates for the similarity listing. Nil bounds are
// not applied. Today anchors the age computation.
type SimilarQuery struct {
	UserID string
	AgeMin *int
	AgeMax *int
	Limit  int
	Offset int
	Today  time.Time
}

type SimilarUser struct {
	ID            string
	Name          string
	Email         string
	DateOfBirth   *time.Time
	Hobbies       []string
	CommonHobbies int
	IsFriend      bool
	RequestSent   bool
}

type SimilarPage struct {
	Users      []SimilarUser
	TotalCount int
	Page       int
	PerPage    int
}

// ProfileChanges holds the fields that differ from the stored profile. Nil
// pointers are left untouched; ClearDateOfBirth removes the stored date.
type ProfileChanges struct {
	Name             *string
	Email            *string
	DateOfBirth      *time.Time
	ClearDateOfBirth bool
	AddHobbies       []string
	RemoveHobbyIDs   []string
}

func (c ProfileChanges) Empty() bool {
	return c.Name == nil && c.Email == nil && c.DateOfBirth == nil && !c.ClearDateOfBirth &&
		len(c.AddHobbies) == 0 && len(c.RemoveHobbyIDs) == 0
}
