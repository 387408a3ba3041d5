package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenIssuer = "hobbiesapp"

var ErrInvalidToken = errors.New("invalid_token")

// AccessClaims are carried by bearer tokens. Fingerprint binds the token to
// the password hash it was issued against; a password change invalidates it.
type AccessClaims struct {
	Fingerprint string `json:"cfp"`
	jwt.RegisteredClaims
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)
	return &TokenIssuer{secret: secretCopy, ttl: ttl, Now: time.Now}
}

func (i *TokenIssuer) Issue(userID, passwordHash string) (string, time.Time, error) {
	now := i.Now()
	expiresAt := now.Add(i.ttl)
	claims := AccessClaims{
		Fingerprint: i.Fingerprint(passwordHash),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

func (i *TokenIssuer) Parse(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.Now),
	)
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Fingerprint derives a short keyed digest of the stored password hash.
func (i *TokenIssuer) Fingerprint(passwordHash string) string {
	mac := hmac.New(sha256.New, i.secret)
	_, _ = mac.Write([]byte(passwordHash))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil)[:16])
}

func (i *TokenIssuer) MatchesCredential(claims *AccessClaims, passwordHash string) bool {
	want := i.Fingerprint(passwordHash)
	return hmac.Equal([]byte(claims.Fingerprint), []byte(want))
}
