package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"hobbiesapp/internal/domain"
	"hobbiesapp/internal/service"
)

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   apiError `json:"error"`
}

type apiError struct {
	Kind    string            `json:"kind"`
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, kind, code, message string) {
	WriteJSON(w, status, errorEnvelope{Error: apiError{Kind: kind, Code: code, Message: message}})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, messageResponse{Success: true, Message: message})
}

// WriteDomainError renders err as an error envelope and reports whether err
// was a known domain error. Unknown errors become a generic 500 so that no
// driver or internal text reaches the client.
func WriteDomainError(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		code := ve.Code
		if code == "" {
			code = "validation_error"
		}
		WriteJSON(w, http.StatusBadRequest, errorEnvelope{Error: apiError{
			Kind:    "validation",
			Code:    code,
			Message: "invalid request",
			Fields:  ve.Fields,
		}})
		return true
	}

	var de *domain.Error
	if errors.As(err, &de) {
		status, kind := statusForKind(de.Kind)
		// Failed logins are an authentication failure; a wrong old password
		// on update is a field error.
		if de == domain.ErrInvalidCredentials {
			status = http.StatusUnauthorized
		}
		e := apiError{Kind: kind, Code: de.Code, Message: de.Message}
		if de.Field != "" {
			e.Fields = map[string]string{de.Field: de.Message}
		}
		WriteJSON(w, status, errorEnvelope{Error: e})
		return true
	}

	if errors.Is(err, service.ErrProviderDisabled) {
		WriteError(w, http.StatusNotImplemented, "unavailable", "provider_disabled", "sign-in provider not configured")
		return true
	}
	if errors.Is(err, service.ErrNotificationsUnavailable) {
		WriteError(w, http.StatusServiceUnavailable, "unavailable", "notifications_unavailable", "notifications unavailable")
		return true
	}

	for _, kind := range []error{domain.ErrValidation, domain.ErrConflict, domain.ErrCredential, domain.ErrNotFound, domain.ErrUnauthorized, domain.ErrForbidden} {
		if errors.Is(err, kind) {
			status, name := statusForKind(kind)
			WriteError(w, status, name, name, http.StatusText(status))
			return true
		}
	}

	WriteError(w, http.StatusInternalServerError, "internal", "internal_error", "internal server error")
	return false
}

func statusForKind(kind error) (int, string) {
	switch kind {
	case domain.ErrValidation:
		return http.StatusBadRequest, "validation"
	case domain.ErrConflict:
		return http.StatusBadRequest, "conflict"
	case domain.ErrCredential:
		return http.StatusBadRequest, "credential"
	case domain.ErrNotFound:
		return http.StatusNotFound, "not_found"
	case domain.ErrUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case domain.ErrForbidden:
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// fail writes err and logs it when it is not a domain error.
func (a *api) fail(w http.ResponseWriter, r *http.Request, err error) {
	if WriteDomainError(w, err) {
		return
	}
	fields := []any{"err", err, "method", r.Method, "path", r.URL.Path}
	if rid, ok := GetRequestID(r.Context()); ok {
		fields = append(fields, "request_id", rid)
	}
	a.logger.Error("request failed", fields...)
}

func badJSON(w http.ResponseWriter) {
	WriteError(w, http.StatusBadRequest, "validation", "bad_json", "invalid json")
}
