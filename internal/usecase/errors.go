package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrCycleInProgress       = errors.New("poll cycle already in progress")
	ErrMissingCredentials    = errors.New("game data api credentials are not configured")
)

// ErrorKind classifies game data provider failures.
type ErrorKind string

const (
	KindUnknown     ErrorKind = "unknown"
	KindNotFound    ErrorKind = "not_found"
	KindForbidden   ErrorKind = "forbidden"
	KindRateLimited ErrorKind = "rate_limited"
)

// ProviderError is returned by GameDataProvider implementations.
type ProviderError struct {
	Kind   ErrorKind
	Op     string
	Status int
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status=%d): %v", e.Op, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is lets callers match provider failures against the layer sentinels.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrUnauthorized:
		return e.Kind == KindForbidden
	case ErrDependencyUnavailable:
		return e.Kind == KindRateLimited || e.Kind == KindUnknown
	}
	return false
}

// KindOf classifies err. Anything that is not a ProviderError is KindUnknown.
func KindOf(err error) ErrorKind {
	var providerErr *ProviderError
	if errors.As(err, &providerErr) && providerErr.Kind != "" {
		return providerErr.Kind
	}
	return KindUnknown
}

// KindForStatus maps an upstream HTTP status to an ErrorKind.
func KindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindForbidden
	case http.StatusTooManyRequests:
		return KindRateLimited
	default:
		return KindUnknown
	}
}
