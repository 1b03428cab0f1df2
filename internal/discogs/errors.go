package discogs

import (
	"fmt"
	"time"
)

// RateLimitError indicates the API returned 429 and requests must pause.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by Discogs, retry after %s", e.RetryAfter)
}

// AuthError indicates the credentials were rejected (401 or 403).
// Retrying with the same credentials cannot succeed.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("discogs authentication failed (%d): %s", e.StatusCode, e.Message)
}

// APIError indicates an unexpected non-2xx response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discogs API error (%d): %s", e.StatusCode, e.Body)
}
