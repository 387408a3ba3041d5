package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"hobbiesapp/internal/auth"
	"hobbiesapp/internal/domain"
)

type authCtxKey int

const (
	authUserKey authCtxKey = iota
	authSessionKey
	authBearerKey
)

// requireAuth resolves the caller from a bearer token or, failing that, the
// session cookie. A malformed bearer header is rejected without falling back.
func (a *api) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if token == "" {
				WriteDomainError(w, domain.ErrUnauthorized)
				return
			}
			u, err := a.authSvc.GetUserForToken(r.Context(), token)
			if err != nil {
				a.fail(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), authUserKey, u)
			ctx = context.WithValue(ctx, authBearerKey, true)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		c, err := r.Cookie(auth.SessionCookieName)
		if err != nil || c.Value == "" {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		sessID, ok := a.cookieCodec.DecodeSessionID(c.Value)
		if !ok {
			WriteDomainError(w, domain.ErrUnauthorized)
			return
		}

		u, err := a.authSvc.GetUserForSession(r.Context(), sessID)
		if err != nil {
			a.fail(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), authUserKey, u)
		ctx = context.WithValue(ctx, authSessionKey, sessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", false
	}
	scheme, token, _ := strings.Cut(h, " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}
	return strings.TrimSpace(token), true
}

func CurrentUser(ctx context.Context) (domain.User, bool) {
	u, ok := ctx.Value(authUserKey).(domain.User)
	return u, ok
}

func CurrentSessionID(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(authSessionKey).(string)
	return s, ok
}

// usedBearer reports whether the caller authenticated with a bearer token.
func usedBearer(ctx context.Context) bool {
	b, _ := ctx.Value(authBearerKey).(bool)
	return b
}

// clientIP keys rate limits and session audit fields. X-Forwarded-For is
// client-controlled, so it is read only behind a trusted proxy.
func (a *api) clientIP(r *http.Request) string {
	if a.trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
