package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/domain"
)

type UsersStore interface {
	CreateUser(ctx context.Context, nu domain.NewUser) (domain.Profile, error)
	GetUserByID(ctx context.Context, id string) (domain.User, error)
	GetUserWithPassword(ctx context.Context, id string) (domain.UserWithPassword, error)
	GetUserByEmail(ctx context.Context, email string) (domain.UserWithPassword, error)
	SetLastLogin(ctx context.Context, userID string, when time.Time) error
	UpdatePassword(ctx context.Context, userID, passwordHash, keepSessionID string, when time.Time) error
}

type SessionsStore interface {
	CreateSession(ctx context.Context, userID string, expiresAt time.Time, ip, userAgent string) (string, error)
	GetSession(ctx context.Context, sessionID string) (domain.Session, error)
	RevokeSession(ctx context.Context, sessionID string, when time.Time) error
}

// ErrProviderDisabled is returned by LoginWithIDToken when the provider has
// no configured client id.
var ErrProviderDisabled = errors.New("identity provider not configured")

type SignupInput struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth string
	Hobbies     []string
}

type AuthService struct {
	Users      UsersStore
	Sessions   SessionsStore
	Tokens     *auth.TokenIssuer
	SessionTTL time.Duration

	GoogleClientID string
	AppleServiceID string
	VerifyGoogle   auth.IDTokenVerifier
	VerifyApple    auth.IDTokenVerifier

	Now func() time.Time
}

func (s *AuthService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Signup validates in, creates the user with its hobbies and opens a session.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, ip, userAgent string) (domain.Profile, string, error) {
	email := domain.NormalizeEmail(in.Email)
	name := domain.CleanText(in.Name)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if in.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return domain.Profile{}, "", domain.MissingField(missing...)
	}

	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Profile{}, "", err
	}
	if err := domain.ValidateEmail(email); err != nil {
		return domain.Profile{}, "", err
	}

	var dob *time.Time
	if strings.TrimSpace(in.DateOfBirth) != "" {
		d, err := domain.ParseDate(in.DateOfBirth, s.now())
		if err != nil {
			return domain.Profile{}, "", err
		}
		dob = &d
	}

	hobbies, err := domain.NormalizeHobbyNames(in.Hobbies)
	if err != nil {
		return domain.Profile{}, "", err
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.Profile{}, "", err
	}

	p, err := s.Users.CreateUser(ctx, domain.NewUser{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		DateOfBirth:  dob,
		HobbyNames:   hobbies,
	})
	if err != nil {
		return domain.Profile{}, "", err
	}

	sessID, err := s.Sessions.CreateSession(ctx, p.ID, s.now().Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.Profile{}, "", err
	}
	return p, sessID, nil
}

func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (domain.User, string, error) {
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return domain.User{}, "", err
	}
	return s.openSession(ctx, u.User, ip, userAgent)
}

// IssueToken exchanges credentials for a bearer token.
func (s *AuthService) IssueToken(ctx context.Context, email, password string) (string, time.Time, error) {
	if s.Tokens == nil {
		return "", time.Time{}, errors.New("token issuer not configured")
	}
	u, err := s.checkCredentials(ctx, email, password)
	if err != nil {
		return "", time.Time{}, err
	}
	return s.Tokens.Issue(u.ID, u.PasswordHash)
}

// LoginWithIDToken signs in the existing account whose email matches a
// verified third-party ID token. Accounts are never created this way.
func (s *AuthService) LoginWithIDToken(ctx context.Context, provider, idToken, ip, userAgent string) (domain.User, string, error) {
	var (
		verify   auth.IDTokenVerifier
		audience string
	)
	switch provider {
	case auth.ProviderGoogle:
		verify, audience = s.VerifyGoogle, s.GoogleClientID
	case auth.ProviderApple:
		verify, audience = s.VerifyApple, s.AppleServiceID
	default:
		return domain.User{}, "", domain.InvalidArgument("provider", "unsupported provider")
	}
	if verify == nil || strings.TrimSpace(audience) == "" {
		return domain.User{}, "", ErrProviderDisabled
	}
	if strings.TrimSpace(idToken) == "" {
		return domain.User{}, "", domain.MissingField("id_token")
	}

	ident, err := verify(ctx, idToken, audience)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %s id token rejected", domain.ErrUnauthorized, provider)
	}
	if ident.Email == "" {
		return domain.User{}, "", fmt.Errorf("%w: %s id token has no verified email", domain.ErrUnauthorized, provider)
	}

	u, err := s.Users.GetUserByEmail(ctx, domain.NormalizeEmail(ident.Email))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, "", domain.ErrInvalidCredentials
		}
		return domain.User{}, "", err
	}
	if !u.IsActive {
		return domain.User{}, "", domain.ErrUserDisabled
	}
	return s.openSession(ctx, u.User, ip, userAgent)
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return s.Sessions.RevokeSession(ctx, sessionID, s.now())
}

func (s *AuthService) GetUserForSession(ctx context.Context, sessionID string) (domain.User, error) {
	sess, err := s.Sessions.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}

	u, err := s.Users.GetUserByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if !u.IsActive {
		return domain.User{}, domain.ErrUserDisabled
	}
	return u, nil
}

// GetUserForToken resolves a bearer token. Tokens minted before the latest
// password change no longer match the stored credential and are rejected.
func (s *AuthService) GetUserForToken(ctx context.Context, token string) (domain.User, error) {
	if s.Tokens == nil {
		return domain.User{}, domain.ErrUnauthorized
	}
	claims, err := s.Tokens.Parse(token)
	if err != nil {
		return domain.User{}, domain.ErrUnauthorized
	}

	u, err := s.Users.GetUserWithPassword(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, domain.ErrUnauthorized
		}
		return domain.User{}, err
	}
	if !s.Tokens.MatchesCredential(claims, u.PasswordHash) {
		return domain.User{}, domain.ErrUnauthorized
	}
	if !u.IsActive {
		return domain.User{}, domain.ErrUserDisabled
	}
	return u.User, nil
}

func (s *AuthService) checkCredentials(ctx context.Context, email, password string) (domain.UserWithPassword, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return domain.UserWithPassword{}, domain.ErrInvalidCredentials
	}

	u, err := s.Users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.UserWithPassword{}, domain.ErrInvalidCredentials
		}
		return domain.UserWithPassword{}, err
	}

	ok, err := auth.VerifyPassword(u.PasswordHash, password)
	if err != nil {
		return domain.UserWithPassword{}, err
	}
	if !ok {
		return domain.UserWithPassword{}, domain.ErrInvalidCredentials
	}
	if !u.IsActive {
		return domain.UserWithPassword{}, domain.ErrUserDisabled
	}
	return u, nil
}

func (s *AuthService) openSession(ctx context.Context, u domain.User, ip, userAgent string) (domain.User, string, error) {
	now := s.now()
	sessID, err := s.Sessions.CreateSession(ctx, u.ID, now.Add(s.SessionTTL), ip, userAgent)
	if err != nil {
		return domain.User{}, "", err
	}
	_ = s.Users.SetLastLogin(ctx, u.ID, now)
	u.LastLoginAt = &now
	return u, sessID, nil
}
