package domain

import (
	"strings"
	"time"
)

// Device platforms accepted for push registration.
const (
	PlatformAndroid = "android"
	PlatformIOS     = "ios"
)

// DeviceToken is a push registration for one of a user's devices. A token
// belongs to at most one user; registering it again moves it.
type DeviceToken struct {
	ID        string
	UserID    string
	Token     string
	Platform  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WantsAlert reports whether pushes to this device need a visible
// notification block. Android clients build their own from the data payload.
func (t DeviceToken) WantsAlert() bool {
	return t.Platform == PlatformIOS
}

// ParsePlatform normalizes a client-supplied platform name.
func ParsePlatform(raw string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(raw))
	switch p {
	case PlatformAndroid, PlatformIOS:
		return p, nil
	case "":
		return "", MissingField("platform")
	}
	return "", InvalidArgument("platform", "must be ios or android")
}
