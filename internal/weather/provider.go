package weather

import (
	"context"
	"errors"
	"fmt"
)

// Provider abstracts a current-conditions source (e.g. weatherstack, WeatherAPI.com).
type Provider interface {
	Name() string
	Current(ctx context.Context, city string) (WeatherSnapshot, error)
}

var (
	// ErrNetwork is returned when the provider could not be reached or answered with a
	// non-success status.
	ErrNetwork = errors.New("weather provider request failed")
	// ErrMalformedResponse is returned when the body does not have the expected shape.
	ErrMalformedResponse = errors.New("malformed weather provider response")
	// ErrProviderUnavailable is returned while the provider's circuit breaker is open.
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	// ErrMissingAPIKey is returned when no access key was configured.
	ErrMissingAPIKey = errors.New("weather provider api key is not configured")
)

// APIError is an error payload returned by the provider inside a 2xx response.
type APIError struct {
	Provider string
	Code     int
	Type     string
	Info     string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s error %d (%s): %s", e.Provider, e.Code, e.Type, e.Info)
	}
	return fmt.Sprintf("%s error %d: %s", e.Provider, e.Code, e.Info)
}
