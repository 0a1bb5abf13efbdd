package forecast

import (
	"context"
	"errors"
	"github.com/evanhutnik/roadcast-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type countingProvider struct {
	calls   int32
	release chan struct{}
	err     error
}

func (p *countingProvider) FetchForecast(ctx context.Context, coords types.Coordinates, reference time.Time) ([]types.ForecastSample, error) {
	atomic.AddInt32(&p.calls, 1)
	if p.release != nil {
		select {
		case <-p.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return []types.ForecastSample{{
		ValidFrom:   reference,
		ValidTo:     reference.Add(3 * time.Hour),
		Condition:   types.ConditionClear,
		Description: "clear sky",
	}}, nil
}

var reference = time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)

func TestFetchSharesOneUpstreamCall(t *testing.T) {
	provider := &countingProvider{release: make(chan struct{})}
	session := NewSession(provider)

	var wg sync.WaitGroup
	results := make([][]types.ForecastSample, 2)
	coords := []types.Coordinates{
		{Latitude: 43.65321, Longitude: -79.38318},
		{Latitude: 43.65324, Longitude: -79.38322},
	}
	for i := range coords {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			series, err := session.Fetch(context.Background(), coords[i], reference.Add(time.Duration(i)*time.Minute))
			assert.NoError(t, err)
			results[i] = series
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(provider.release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
	assert.Equal(t, results[0], results[1])

	_, err := session.Fetch(context.Background(), coords[0], reference)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&provider.calls))
}

func TestFetchSeparatesBucketsAndLocations(t *testing.T) {
	provider := &countingProvider{}
	session := NewSession(provider)
	ctx := context.Background()

	_, err := session.Fetch(ctx, types.Coordinates{Latitude: 42.33, Longitude: -83.04}, reference)
	require.NoError(t, err)
	_, err = session.Fetch(ctx, types.Coordinates{Latitude: 42.33, Longitude: -83.04}, reference.Add(4*time.Hour))
	require.NoError(t, err)
	_, err = session.Fetch(ctx, types.Coordinates{Latitude: 41.87, Longitude: -87.62}, reference)
	require.NoError(t, err)

	assert.Equal(t, int32(3), provider.calls)
}

func TestFetchRejectsOutOfRangeCoordinates(t *testing.T) {
	provider := &countingProvider{}
	session := NewSession(provider)

	_, err := session.Fetch(context.Background(), types.Coordinates{Latitude: 91, Longitude: 0}, reference)
	assert.True(t, errors.Is(err, types.ErrInvalidLocation))
	assert.Equal(t, int32(0), provider.calls)
}

func TestFetchDoesNotMemoizeFailures(t *testing.T) {
	provider := &countingProvider{err: types.ErrProviderUnavailable}
	session := NewSession(provider)
	coords := types.Coordinates{Latitude: 42.33, Longitude: -83.04}

	_, err := session.Fetch(context.Background(), coords, reference)
	require.ErrorIs(t, err, types.ErrProviderUnavailable)

	provider.err = nil
	series, err := session.Fetch(context.Background(), coords, reference)
	require.NoError(t, err)
	assert.Len(t, series, 1)
	assert.Equal(t, int32(2), provider.calls)
}

func TestFetchAbandonedOnCancel(t *testing.T) {
	provider := &countingProvider{release: make(chan struct{})}
	session := NewSession(provider)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series, err := session.Fetch(ctx, types.Coordinates{Latitude: 42.33, Longitude: -83.04}, reference)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, series)
	assert.Empty(t, session.done)
}
