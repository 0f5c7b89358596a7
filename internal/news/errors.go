package news

import "errors"

// Sentinel errors classifying upstream failures. The cache layer and the API
// surface branch on these with errors.Is; raw causes stay wrapped behind them.
var (
	// ErrRateLimited means the upstream returned HTTP 429.
	ErrRateLimited = errors.New("upstream rate limited")
	// ErrUnauthorized means the upstream rejected the API key.
	ErrUnauthorized = errors.New("upstream unauthorized")
	// ErrMalformed means the upstream payload failed validation.
	ErrMalformed = errors.New("upstream response malformed")
	// ErrUnavailable covers network failures, timeouts and 5xx statuses.
	ErrUnavailable = errors.New("upstream unavailable")
)
