package httpapi

import (
	"strings"
	"sync"
	"time"
)

// loginLimiter is a sliding-window attempt counter keyed by client IP and by
// login email. State is per process.
type loginLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	entries map[string][]time.Time
}

func newLoginLimiter() *loginLimiter {
	return &loginLimiter{
		window:  5 * time.Minute,
		max:     10,
		entries: make(map[string][]time.Time),
	}
}

func (l *loginLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	ts := l.entries[key]

	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) >= l.max {
		l.entries[key] = kept
		return false
	}
	l.entries[key] = append(kept, now)
	return true
}

// allowLogin charges one attempt against both the IP and the email.
func (l *loginLimiter) allowLogin(ip, email string, now time.Time) bool {
	ipOK := l.Allow("ip:"+ip, now)
	emailOK := l.Allow("login:"+strings.ToLower(strings.TrimSpace(email)), now)
	return ipOK && emailOK
}
