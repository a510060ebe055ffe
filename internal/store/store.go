package store

import (
	"context"
	"errors"
	"time"

	"github.com/i474232898/weather-box/internal/weather"
)

var (
	// ErrNotFound is returned when nothing has been stored yet for the request.
	ErrNotFound = errors.New("no widget data stored")
)

// Store keeps what the widget displayed and the contentChanged events it emitted.
type Store interface {
	SaveDisplay(ctx context.Context, d weather.DisplayState) error
	LatestDisplay(ctx context.Context) (weather.DisplayState, error)
	SaveEvent(ctx context.Context, e weather.ContentChanged) error
	Events(ctx context.Context, from, to time.Time) ([]weather.ContentChanged, error)
}
