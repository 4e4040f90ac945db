package weather

import (
	"context"
	"fmt"
	"log"
	"time"
)

const defaultTimeout = 10 * time.Second

// Service fronts the provider with a bounded timeout per call and turns
// every failure into a *FetchError.
type Service struct {
	provider Provider
	timeout  time.Duration
}

// NewService creates a new Service. A non-positive timeout falls back to 10s.
func NewService(provider Provider, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		provider: provider,
		timeout:  timeout,
	}
}

// Weather returns a single reading for loc at the requested moment.
func (s *Service) Weather(ctx context.Context, loc Location, when When) (Snapshot, error) {
	if s.provider == nil {
		return Snapshot{}, &FetchError{Op: "weather", Reason: "no weather provider configured"}
	}

	log.Printf("DEBUG: Weather called for %s (%s) via %s", loc.Key(), when, s.provider.Name())

	// Use a bounded context for the outbound provider call.
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	snap, err := s.provider.Weather(ctx, loc, when)
	if err != nil {
		log.Printf("provider %s weather (%s) failed for %s: %v", s.provider.Name(), when, loc.Key(), err)
		return Snapshot{}, AsFetchError(fmt.Sprintf("weather %s", when), err)
	}
	return snap, nil
}

// Series returns the full forecast series for loc in provider order.
func (s *Service) Series(ctx context.Context, loc Location) ([]ForecastPoint, error) {
	if s.provider == nil {
		return nil, &FetchError{Op: "series", Reason: "no weather provider configured"}
	}

	log.Printf("DEBUG: Series called for %s via %s", loc.Key(), s.provider.Name())

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	points, err := s.provider.Series(ctx, loc)
	if err != nil {
		log.Printf("provider %s series failed for %s: %v", s.provider.Name(), loc.Key(), err)
		return nil, AsFetchError("series", err)
	}
	if len(points) == 0 {
		return nil, &FetchError{Op: "series", Reason: "no forecast data available"}
	}
	return points, nil
}
