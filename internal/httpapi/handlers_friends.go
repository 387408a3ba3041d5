package httpapi

import (
	"net/http"
	"strings"

	"hobbiesapp/internal/domain"
)

type sendRequestResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Request friendRequestResponse `json:"request"`
}

func (a *api) handleFriendRequestSend(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	fr, err := a.friendsSvc.Send(r.Context(), u.ID, strings.TrimSpace(r.PathValue("userId")))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sendRequestResponse{
		Success: true,
		Message: "Friend request sent.",
		Request: friendRequestView(fr),
	})
}

func (a *api) handleFriendRequestAccept(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if _, err := a.friendsSvc.Accept(r.Context(), u.ID, strings.TrimSpace(r.PathValue("requestId"))); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Friend request accepted.")
}

func (a *api) handleFriendRequestReject(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if _, err := a.friendsSvc.Reject(r.Context(), u.ID, strings.TrimSpace(r.PathValue("requestId"))); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Friend request rejected.")
}

type friendsResponse struct {
	Friends []domain.UserSummary `json:"friends"`
}

func (a *api) handleFriendsList(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	friends, err := a.friendsSvc.ListFriends(r.Context(), u.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if friends == nil {
		friends = []domain.UserSummary{}
	}
	WriteJSON(w, http.StatusOK, friendsResponse{Friends: friends})
}

type sentRequestsResponse struct {
	SentRequests []domain.RequestSummary `json:"sent_requests"`
}

type receivedRequestsResponse struct {
	ReceivedRequests []domain.RequestSummary `json:"received_requests"`
}

func (a *api) handleRequestsSent(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.ListSent(r.Context(), u.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []domain.RequestSummary{}
	}
	WriteJSON(w, http.StatusOK, sentRequestsResponse{SentRequests: out})
}

func (a *api) handleRequestsReceived(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.ListReceived(r.Context(), u.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if out == nil {
		out = []domain.RequestSummary{}
	}
	WriteJSON(w, http.StatusOK, receivedRequestsResponse{ReceivedRequests: out})
}
