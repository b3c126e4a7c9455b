package discord

import (
	"errors"
	"fmt"
	"net/http"

	"costreambackend/core"
)

// APIError is a classified Discord API failure. Status 429 and 5xx are
// transient (retryable); every other non-2xx status is permanent.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord api error (%d): %s", e.StatusCode, e.Message)
}

// Transient reports whether the failure is worth retrying
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// IsTransient classifies any error from a DiscordGuildClient operation.
// Non-API errors (network failures, timeouts) are transient; a missing bot
// credential is not.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, core.ErrNotConfigured) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	return true
}

// IsNotFound reports whether the error is a Discord 404
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
