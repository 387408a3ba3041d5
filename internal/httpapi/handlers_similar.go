package httpapi

import (
	"net/http"

	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/service"
)

func (a *api) handleSimilarUsers(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	q := r.URL.Query()
	params, err := service.ParseSimilarParams(q.Get("age_min"), q.Get("age_max"), q.Get("page"))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	page, err := a.similarSvc.SimilarUsers(r.Context(), u.ID, params)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, similarPageView(page))
}
