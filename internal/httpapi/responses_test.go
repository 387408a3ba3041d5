package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hobbiesapp/internal/domain"
)

func TestWriteDomainError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
		code   string
		known  bool
	}{
		{"validation", domain.MissingField("email"), http.StatusBadRequest, "validation", "missing_field", true},
		{"conflict", domain.ErrDuplicateRequest, http.StatusBadRequest, "conflict", "duplicate_request", true},
		{"login credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "credential", "invalid_credentials", true},
		{"old password", domain.ErrIncorrectPassword, http.StatusBadRequest, "credential", "incorrect_password", true},
		{"disabled", domain.ErrUserDisabled, http.StatusForbidden, "forbidden", "user_disabled", true},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrNotFound), http.StatusNotFound, "not_found", "not_found", true},
		{"internal", errors.New("pq: relation users does not exist"), http.StatusInternalServerError, "internal", "internal_error", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			known := WriteDomainError(rr, tc.err)
			if known != tc.known {
				t.Fatalf("known = %v, want %v", known, tc.known)
			}
			if rr.Code != tc.status {
				t.Fatalf("status = %d, want %d", rr.Code, tc.status)
			}
			body := rr.Body.String()
			e := decodeError(t, rr)
			if e.Kind != tc.kind || e.Code != tc.code {
				t.Fatalf("unexpected error: %+v", e)
			}
			if !tc.known && strings.Contains(body, "relation") {
				t.Fatalf("internal error text leaked: %s", body)
			}
		})
	}
}
