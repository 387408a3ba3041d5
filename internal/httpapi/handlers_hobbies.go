package httpapi

import (
	"net/http"

	"hobbiesapp/internal/domain"
)

func (a *api) handleHobbiesList(w http.ResponseWriter, r *http.Request) {
	hobbies, err := a.hobbySvc.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if hobbies == nil {
		hobbies = []domain.Hobby{}
	}
	WriteJSON(w, http.StatusOK, hobbies)
}

type addHobbyRequest struct {
	Name string `json:"name"`
}

type addHobbyResponse struct {
	Success bool         `json:"success"`
	Hobby   domain.Hobby `json:"hobby"`
}

func (a *api) handleHobbiesAdd(w http.ResponseWriter, r *http.Request) {
	var req addHobbyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w)
		return
	}

	h, err := a.hobbySvc.Add(r.Context(), req.Name)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, addHobbyResponse{Success: true, Hobby: h})
}
