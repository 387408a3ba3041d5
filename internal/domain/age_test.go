package domain

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAgeOn(t *testing.T) {
	cases := []struct {
		name  string
		dob   time.Time
		today time.Time
		want  int
	}{
		{"birthday today", date(1990, 6, 15), date(2020, 6, 15), 30},
		{"day before birthday", date(1990, 6, 15), date(2020, 6, 14), 29},
		{"month before birthday", date(1990, 6, 15), date(2020, 5, 30), 29},
		{"after birthday", date(1990, 6, 15), date(2020, 12, 1), 30},
		{"leap day on feb 28", date(2000, 2, 29), date(2018, 2, 28), 17},
		{"leap day on mar 1", date(2000, 2, 29), date(2018, 3, 1), 18},
		{"leap day on leap day", date(2000, 2, 29), date(2020, 2, 29), 20},
		{"born today", date(2020, 1, 1), date(2020, 1, 1), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AgeOn(tc.dob, tc.today); got != tc.want {
				t.Fatalf("AgeOn(%s, %s) = %d, want %d", tc.dob.Format(DateLayout), tc.today.Format(DateLayout), got, tc.want)
			}
		})
	}
}

func TestInAgeRange(t *testing.T) {
	today := date(2024, 3, 10)
	dob := date(2000, 3, 11) // 23
	min, max := 23, 30
	low, high := 24, 22

	if !InAgeRange(nil, today, nil, nil) {
		t.Fatalf("no bounds should match a missing dob")
	}
	if InAgeRange(nil, today, &min, nil) {
		t.Fatalf("missing dob must not match when a bound is set")
	}
	if !InAgeRange(&dob, today, &min, &max) {
		t.Fatalf("expected 23 within [23, 30]")
	}
	if InAgeRange(&dob, today, &low, nil) {
		t.Fatalf("expected 23 below min 24")
	}
	if InAgeRange(&dob, today, nil, &high) {
		t.Fatalf("expected 23 above max 22")
	}
}

func TestParseDate(t *testing.T) {
	now := date(2024, 1, 1)

	got, err := ParseDate(" 1990-05-04 ", now)
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(date(1990, 5, 4)) {
		t.Fatalf("unexpected date: %s", got)
	}

	for _, raw := range []string{"04/05/1990", "1990-13-01", "", "2030-01-01"} {
		_, err := ParseDate(raw, now)
		if !errors.Is(err, ErrValidation) || ErrorCode(err) != CodeInvalidDate {
			t.Fatalf("ParseDate(%q): expected invalid_date, got %v", raw, err)
		}
	}
}

func TestSharedHobbies(t *testing.T) {
	u1 := []string{"Chess", "Hiking"}
	u2 := []string{"Hiking", "Painting"}
	if got := SharedHobbies(u1, u2); got != 1 {
		t.Fatalf("SharedHobbies = %d, want 1", got)
	}
	if got := SharedHobbies(u1, []string{"Cooking"}); got != 0 {
		t.Fatalf("SharedHobbies = %d, want 0", got)
	}
	if got := SharedHobbies(u1, []string{"chess", "HIKING", "Hiking"}); got != 2 {
		t.Fatalf("SharedHobbies = %d, want 2", got)
	}
}
