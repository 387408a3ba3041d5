package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"time"
)

const SessionCookieName = "hobbies_session"

// sessionMACContext separates cookie signatures from other HMACs keyed with
// the same secret.
const sessionMACContext = "hobbies/session/v1:"

// CookieCodec signs session ids for the session cookie. An empty secret
// disables signing, which is only acceptable in dev.
type CookieCodec struct {
	secret []byte
}

func NewCookieCodec(secret []byte) CookieCodec {
	secretCopy := make([]byte, len(secret))
	copy(secretCopy, secret)
	return CookieCodec{secret: secretCopy}
}

func (c CookieCodec) EncodeSessionID(sessionID string) string {
	if len(c.secret) == 0 {
		return sessionID
	}
	return sessionID + "." + base64.RawURLEncoding.EncodeToString(c.sign(sessionID))
}

func (c CookieCodec) DecodeSessionID(cookieValue string) (string, bool) {
	if len(c.secret) == 0 {
		return cookieValue, cookieValue != ""
	}

	id, sigB64, ok := strings.Cut(cookieValue, ".")
	if !ok || id == "" || sigB64 == "" {
		return "", false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigB64)
	if err != nil || len(sig) != sha256.Size {
		return "", false
	}
	if !hmac.Equal(sig, c.sign(id)) {
		return "", false
	}
	return id, true
}

func (c CookieCodec) sign(sessionID string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	_, _ = mac.Write([]byte(sessionMACContext))
	_, _ = mac.Write([]byte(sessionID))
	return mac.Sum(nil)
}

func SetSessionCookie(w http.ResponseWriter, cookieValue string, ttl time.Duration, secure bool) {
	ck := sessionCookie(cookieValue, secure)
	ck.MaxAge = int(ttl.Seconds())
	ck.Expires = time.Now().Add(ttl)
	http.SetCookie(w, ck)
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	ck := sessionCookie("", secure)
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	http.SetCookie(w, ck)
}

func sessionCookie(value string, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}
