package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/weather-box/internal/weather"
)

const writeTimeout = 2 * time.Second

// Surface persists every display update so the HTTP layer can serve it.
type Surface struct {
	store  Store
	logger *zap.SugaredLogger
}

func NewSurface(store Store, logger *zap.SugaredLogger) *Surface {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Surface{store: store, logger: logger}
}

func (s *Surface) Present(d weather.DisplayState) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.store.SaveDisplay(ctx, d); err != nil {
		s.logger.Errorw("store: failed to save display state", "city", d.City, "error", err)
	}
}

// Record persists a contentChanged event. It is meant to be registered with
// Widget.OnContentChanged.
func (s *Surface) Record(e weather.ContentChanged) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := s.store.SaveEvent(ctx, e); err != nil {
		s.logger.Errorw("store: failed to save event", "event", e.ID, "error", err)
	}
}
