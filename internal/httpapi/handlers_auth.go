package httpapi

import (
	"net/http"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/service"
)

type signupRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DateOfBirth string   `json:"date_of_birth"`
	Hobbies     []string `json:"hobbies"`
}

type authUserResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

func (a *api) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w)
		return
	}

	p, sessID, err := a.authSvc.Signup(r.Context(), service.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		DateOfBirth: req.DateOfBirth,
		Hobbies:     req.Hobbies,
	}, a.clientIP(r), r.UserAgent())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.setSession(w, sessID)
	WriteJSON(w, http.StatusCreated, authUserResponse{Success: true, Message: "Signup successful.", User: profileView(p)})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *api) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decodeLogin(w, r, &req) {
		return
	}

	u, sessID, err := a.authSvc.Login(r.Context(), req.Email, req.Password, a.clientIP(r), r.UserAgent())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.setSession(w, sessID)
	a.writeSignedIn(w, r, u)
}

type tokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

func (a *api) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !a.decodeLogin(w, r, &req) {
		return
	}

	token, exp, err := a.authSvc.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: formatMillis(exp)})
}

// decodeLogin reads credentials and applies the login rate limit.
func (a *api) decodeLogin(w http.ResponseWriter, r *http.Request, req *loginRequest) bool {
	if err := decodeJSON(w, r, req); err != nil {
		badJSON(w)
		return false
	}
	if !a.loginLimiter.allowLogin(a.clientIP(r), req.Email, a.now()) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "rate_limited", "too many attempts")
		return false
	}
	return true
}

type idTokenRequest struct {
	IDToken string `json:"id_token"`
}

func (a *api) handleAuthGoogle(w http.ResponseWriter, r *http.Request) {
	a.handleIDTokenLogin(w, r, auth.ProviderGoogle)
}

func (a *api) handleAuthApple(w http.ResponseWriter, r *http.Request) {
	a.handleIDTokenLogin(w, r, auth.ProviderApple)
}

func (a *api) handleIDTokenLogin(w http.ResponseWriter, r *http.Request, provider string) {
	var req idTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		badJSON(w)
		return
	}
	if !a.loginLimiter.Allow("ip:"+a.clientIP(r), a.now()) {
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "rate_limited", "too many attempts")
		return
	}

	u, sessID, err := a.authSvc.LoginWithIDToken(r.Context(), provider, req.IDToken, a.clientIP(r), r.UserAgent())
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.setSession(w, sessID)
	a.writeSignedIn(w, r, u)
}

func (a *api) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sessID, ok := CurrentSessionID(r.Context()); ok {
		if err := a.authSvc.Logout(r.Context(), sessID); err != nil {
			a.logger.Warn("logout: revoke session failed", "err", err)
		}
	}
	auth.ClearSessionCookie(w, a.cookieSecure)
	writeMessage(w, http.StatusOK, "Logged out.")
}

func (a *api) setSession(w http.ResponseWriter, sessID string) {
	ttl := a.sessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	auth.SetSessionCookie(w, a.cookieCodec.EncodeSessionID(sessID), ttl, a.cookieSecure)
}

// writeSignedIn answers a successful login with the caller's profile. The
// session is already open, so a failed profile read falls back to the bare
// user.
func (a *api) writeSignedIn(w http.ResponseWriter, r *http.Request, u domain.User) {
	p := domain.Profile{User: u}
	if a.profileSvc != nil {
		if full, err := a.profileSvc.GetProfile(r.Context(), u.ID); err == nil {
			p = full
		} else {
			a.logger.Warn("login: profile lookup failed", "err", err, "user_id", u.ID)
		}
	}
	WriteJSON(w, http.StatusOK, authUserResponse{Success: true, Message: "Login successful.", User: profileView(p)})
}
