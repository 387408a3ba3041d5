package domain

import (
	"strings"
	"time"
)

// AgeOn returns the calendar age in whole years of someone born on dob at the
// date today. The birthday counts from its own month/day, so a Feb 29 birthday
// is reached on Mar 1 in non-leap years. This matches PostgreSQL's age().
func AgeOn(dob, today time.Time) int {
	by, bm, bd := dob.Date()
	ty, tm, td := today.Date()
	age := ty - by
	if tm < bm || (tm == bm && td < bd) {
		age--
	}
	return age
}

// InAgeRange reports whether dob falls within the inclusive bounds. A missing
// date of birth never matches once any bound is set.
func InAgeRange(dob *time.Time, today time.Time, min, max *int) bool {
	if min == nil && max == nil {
		return true
	}
	if dob == nil {
		return false
	}
	age := AgeOn(*dob, today)
	if min != nil && age < *min {
		return false
	}
	if max != nil && age > *max {
		return false
	}
	return true
}

// ParseDate parses a YYYY-MM-DD date of birth. Dates in the future are rejected.
func ParseDate(raw string, now time.Time) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, NewValidationError(CodeInvalidDate, map[string]string{"date_of_birth": "must be YYYY-MM-DD"})
	}
	if t.After(now) {
		return time.Time{}, NewValidationError(CodeInvalidDate, map[string]string{"date_of_birth": "must not be in the future"})
	}
	return t, nil
}

// SharedHobbies counts the names present in both sets.
func SharedHobbies(a, b []string) int {
	set := make(map[string]struct{}, len(a))
	for _, h := range a {
		set[HobbyKey(h)] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, h := range b {
		k := HobbyKey(h)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := set[k]; ok {
			n++
		}
	}
	return n
}
