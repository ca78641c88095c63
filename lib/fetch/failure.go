package fetch

import (
	"errors"
	"fmt"
)

type FailureKind string

const (
	// FailRobotsDisallowed means robots.txt forbids fetching this URL; no
	// request was made.
	FailRobotsDisallowed FailureKind = "robots_disallowed"
	// FailBlocked means anti-bot defenses are suspected: 403 after the retry
	// budget, or a captcha-like response body.
	FailBlocked FailureKind = "blocked"
	// FailTransient means the retry budget was exhausted on timeouts, network
	// errors, 429s or 5xx responses.
	FailTransient FailureKind = "transient"
	// FailMalformed means the input was rejected before any network call.
	FailMalformed FailureKind = "malformed"
)

// Failure is the typed outcome of an unsuccessful fetch. Callers branch on
// Kind rather than on the error text.
type Failure struct {
	Kind       FailureKind
	Detail     string
	StatusCode int
}

func (f *Failure) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("fetch %s (HTTP %d): %s", f.Kind, f.StatusCode, f.Detail)
	}
	return fmt.Sprintf("fetch %s: %s", f.Kind, f.Detail)
}

func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	ok := errors.As(err, &f)
	return f, ok
}

func IsRobotsDisallowed(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailRobotsDisallowed
}

// IsBlocked reports whether the fetch was refused by the site, either via
// robots.txt or suspected anti-bot defenses.
func IsBlocked(err error) bool {
	f, ok := AsFailure(err)
	return ok && (f.Kind == FailBlocked || f.Kind == FailRobotsDisallowed)
}

func IsMalformed(err error) bool {
	f, ok := AsFailure(err)
	return ok && f.Kind == FailMalformed
}
