package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Error kinds. Every error returned by the service layer unwraps to one of these.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrCredential   = errors.New("credential")
	ErrValidation   = errors.New("validation")
)

// Error is a specific, machine-distinguishable failure that belongs to a kind.
type Error struct {
	Kind    error
	Code    string
	Message string
	Field   string
}

func (e *Error) Error() string { return e.Code }

func (e *Error) Unwrap() error { return e.Kind }

var (
	ErrEmailTaken         = &Error{Kind: ErrConflict, Code: "email_taken", Message: "email already registered", Field: "email"}
	ErrDuplicateRequest   = &Error{Kind: ErrConflict, Code: "duplicate_request", Message: "friend request already pending"}
	ErrAlreadyFriends     = &Error{Kind: ErrConflict, Code: "already_friends", Message: "already friends"}
	ErrIncorrectPassword  = &Error{Kind: ErrCredential, Code: "incorrect_password", Message: "incorrect password", Field: "oldPassword"}
	ErrInvalidCredentials = &Error{Kind: ErrCredential, Code: "invalid_credentials", Message: "invalid email or password"}
	ErrUserDisabled       = &Error{Kind: ErrForbidden, Code: "user_disabled", Message: "user is disabled"}
)

// Validation codes.
const (
	CodeMissingField     = "missing_field"
	CodeNoHobbies        = "no_hobbies"
	CodeInvalidDate      = "invalid_date"
	CodeInvalidTarget    = "invalid_target"
	CodePasswordMismatch = "password_mismatch"
	CodeInvalidArgument  = "invalid_argument"
	CodeInvalidHobby     = "invalid_hobby"
	CodeInvalidEmail     = "invalid_email"
)

type ValidationError struct {
	Code   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	prefix := "validation failed"
	if e.Code != "" {
		prefix = e.Code
	}
	if len(e.Fields) == 0 {
		return prefix
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return prefix + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(code string, fields map[string]string) error {
	return &ValidationError{Code: code, Fields: fields}
}

func MissingField(names ...string) error {
	fields := make(map[string]string, len(names))
	for _, n := range names {
		fields[n] = "required"
	}
	return NewValidationError(CodeMissingField, fields)
}

func InvalidArgument(field, msg string) error {
	return NewValidationError(CodeInvalidArgument, map[string]string{field: msg})
}

// ErrorCode returns the most specific code carried by err, or "" when err
// is not a domain error.
func ErrorCode(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Code == "" {
			return "validation_error"
		}
		return ve.Code
	}
	return ""
}
