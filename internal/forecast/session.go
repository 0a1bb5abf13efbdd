package forecast

import (
	"context"
	"fmt"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"golang.org/x/sync/singleflight"
	"math"
	"sync"
	"time"
)

const (
	// DefaultPrecision rounds coordinates to 2 decimal places, roughly 1.1km.
	DefaultPrecision = 100.0
	DefaultBucket    = 3 * time.Hour
)

// Provider returns a normalized forecast series for a location, ascending by ValidFrom.
type Provider interface {
	FetchForecast(ctx context.Context, coords t.Coordinates, reference time.Time) ([]t.ForecastSample, error)
}

type SessionOption func(*Session)

func PrecisionOption(precision float64) SessionOption {
	return func(s *Session) {
		s.precision = precision
	}
}

func BucketOption(bucket time.Duration) SessionOption {
	return func(s *Session) {
		s.bucket = bucket
	}
}

// Session memoizes forecast series for the lifetime of one planning call.
// It must not be reused across calls.
type Session struct {
	provider  Provider
	precision float64
	bucket    time.Duration

	group singleflight.Group
	mu    sync.Mutex
	done  map[string][]t.ForecastSample
}

func NewSession(provider Provider, opts ...SessionOption) *Session {
	s := &Session{
		provider:  provider,
		precision: DefaultPrecision,
		bucket:    DefaultBucket,
		done:      make(map[string][]t.ForecastSample),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch returns the forecast series covering coords around reference. Concurrent callers that share a
// rounded location and time bucket wait on a single upstream call. Failed calls are not memoized.
func (s *Session) Fetch(ctx context.Context, coords t.Coordinates, reference time.Time) ([]t.ForecastSample, error) {
	if !coords.Valid() {
		return nil, fmt.Errorf("(%v, %v): %w", coords.Latitude, coords.Longitude, t.ErrInvalidLocation)
	}

	rounded := s.round(coords)
	bucket := reference.UTC().Truncate(s.bucket)
	key := fmt.Sprintf("%.6f,%.6f@%d", rounded.Latitude, rounded.Longitude, bucket.Unix())

	s.mu.Lock()
	series, ok := s.done[key]
	s.mu.Unlock()
	if ok {
		return series, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A call that finished between the lookup above and Do has already stored its result.
		s.mu.Lock()
		series, ok := s.done[key]
		s.mu.Unlock()
		if ok {
			return series, nil
		}

		series, err := s.provider.FetchForecast(ctx, rounded, bucket)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.done[key] = series
		s.mu.Unlock()
		return series, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]t.ForecastSample), nil
}

func (s *Session) round(c t.Coordinates) t.Coordinates {
	return t.Coordinates{
		Latitude:  math.Round(c.Latitude*s.precision) / s.precision,
		Longitude: math.Round(c.Longitude*s.precision) / s.precision,
	}
}
