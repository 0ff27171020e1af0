package access

import (
	"errors"

	"tasnim.dev/accessctl/internal/allowlist"
)

// Every failure returned by this package wraps exactly one of these.
var (
	ErrUsage                = errors.New("usage")
	ErrInvalidCommand       = errors.New("invalid command")
	ErrAllowListUnavailable = allowlist.ErrUnavailable
	ErrAccessDenied         = errors.New("access denied")
	ErrProvider             = errors.New("provider error")
	ErrVerification         = errors.New("verification failed")
)
