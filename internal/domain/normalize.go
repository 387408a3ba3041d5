package domain

import (
	"html"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	hobbyNameMinLen = 2
	hobbyNameMaxLen = 255
	nameMaxLen      = 150
)

var textPolicy = bluemonday.StrictPolicy()

// CleanText trims s and strips any markup. The policy escapes entities, so
// the result is unescaped again to keep "&" and quotes intact.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	return strings.TrimSpace(html.UnescapeString(textPolicy.Sanitize(strings.TrimSpace(s))))
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return NewValidationError(CodeInvalidEmail, map[string]string{"email": "invalid email address"})
	}
	return nil
}

func NormalizeName(s string) (string, error) {
	s = CleanText(s)
	if s == "" {
		return "", MissingField("name")
	}
	if utf8.RuneCountInString(s) > nameMaxLen {
		return "", InvalidArgument("name", "must be 150 characters or less")
	}
	return s, nil
}

// HobbyKey is the case-insensitive identity of a hobby name.
func HobbyKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func NormalizeHobbyName(s string) (string, error) {
	s = CleanText(s)
	n := utf8.RuneCountInString(s)
	if n < hobbyNameMinLen || n > hobbyNameMaxLen {
		return "", NewValidationError(CodeInvalidHobby, map[string]string{"hobbies": "hobby names must be 2-255 characters"})
	}
	return s, nil
}

// NormalizeHobbyNames trims every name, drops empty entries and
// case-insensitive duplicates, and validates what remains. An empty result
// yields a no_hobbies error.
func NormalizeHobbyNames(names []string) ([]string, error) {
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		name, err := NormalizeHobbyName(raw)
		if err != nil {
			return nil, err
		}
		k := HobbyKey(name)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, NewValidationError(CodeNoHobbies, map[string]string{"hobbies": "select at least one hobby"})
	}
	return out, nil
}
