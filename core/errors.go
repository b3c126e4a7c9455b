package core

import (
	"errors"
)

// ErrNotFound is a sentinel error for "not found" cases
var ErrNotFound = errors.New("not found")

// ErrNotConfigured signals that no Discord integration or guild/role config
// exists for the organization. Callers treat this as a skip, not a failure.
var ErrNotConfigured = errors.New("discord integration not configured")

// ErrTokenRefreshFailed is returned as a warning when a proactive OAuth token
// refresh fails; the caller proceeds with the existing (possibly stale) token.
var ErrTokenRefreshFailed = errors.New("discord token refresh failed")
