package weather

import (
	"context"
)

// Provider abstracts the upstream weather source (OpenWeatherMap).
type Provider interface {
	Name() string
	Weather(ctx context.Context, loc Location, when When) (Snapshot, error)
	Series(ctx context.Context, loc Location) ([]ForecastPoint, error)
}

// SessionStore keeps the last known location of every session.
type SessionStore interface {
	Get(sessionID string) (Location, bool)
	Set(sessionID string, loc Location)
}
