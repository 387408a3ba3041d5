package httpapi

import (
	"net/http"

	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/service"
)

func (a *api) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	p, err := a.profileSvc.GetProfile(r.Context(), u.ID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, profileView(p))
}

// updateProfileRequest treats absent and null fields alike: neither is
// applied. An empty date_of_birth clears the stored date.
type updateProfileRequest struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	DateOfBirth *string   `json:"date_of_birth"`
	Hobbies     *[]string `json:"hobbies"`
}

type updateProfileData struct {
	Changed []string     `json:"changed"`
	User    userResponse `json:"user"`
}

type updateProfileResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Data    updateProfileData `json:"data"`
}

func (a *api) handleProfileUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req updateProfileRequest
	if err := decodeJSONAllowUnknownFields(w, r, &req); err != nil {
		badJSON(w)
		return
	}

	changed, p, err := a.profileSvc.UpdateProfile(r.Context(), u.ID, service.ProfileUpdate{
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Hobbies:     req.Hobbies,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	msg := "Profile updated successfully."
	if len(changed) == 0 {
		msg = "No changes."
	}
	WriteJSON(w, http.StatusOK, updateProfileResponse{
		Success: true,
		Message: msg,
		Data:    updateProfileData{Changed: changed, User: profileView(p)},
	})
}

type updatePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

type updatePasswordResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

func (a *api) handlePasswordUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req updatePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w)
		return
	}

	// Cookie callers keep their current session; bearer callers get a fresh
	// token since the old one no longer matches the credential.
	sessID, _ := CurrentSessionID(r.Context())
	token, err := a.profileSvc.UpdatePassword(r.Context(), u.ID, sessID, service.PasswordChange{
		Old:     req.OldPassword,
		New:     req.NewPassword,
		Confirm: req.ConfirmPassword,
	}, usedBearer(r.Context()))
	if err != nil {
		a.fail(w, r, err)
		return
	}

	WriteJSON(w, http.StatusOK, updatePasswordResponse{
		Success: true,
		Message: "Password updated successfully.",
		Token:   token,
	})
}
