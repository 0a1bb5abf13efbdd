package routing

import (
	"context"
	"fmt"
	"github.com/alicebob/miniredis/v2"
	"github.com/evanhutnik/roadcast-service/internal/cache"
	"github.com/evanhutnik/roadcast-service/internal/types"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync/atomic"
	"testing"
	"time"
)

type stubGeocoder struct {
	places   map[string]types.Coordinates
	forward  int32
	reverse  int32
	geoErr   error
	labelErr error
}

func (g *stubGeocoder) GeoCode(_ context.Context, address string) (*types.Coordinates, error) {
	atomic.AddInt32(&g.forward, 1)
	if g.geoErr != nil {
		return nil, g.geoErr
	}
	c, ok := g.places[address]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (g *stubGeocoder) ReverseGeoCode(_ context.Context, coords types.Coordinates) (string, error) {
	atomic.AddInt32(&g.reverse, 1)
	if g.labelErr != nil {
		return "", g.labelErr
	}
	return fmt.Sprintf("Place %.1f", coords.Longitude), nil
}

type stubDirections struct {
	route *types.Route
	err   error
}

func (d *stubDirections) Route(_ context.Context, _ *types.Trip) (*types.Route, error) {
	return d.route, d.err
}

var (
	departure = time.Date(2025, 4, 14, 9, 0, 0, 0, time.UTC)
	places    = map[string]types.Coordinates{
		"A": {Latitude: 43.6532, Longitude: -79.3832},
		"B": {Latitude: 41.8781, Longitude: -87.6298},
	}
	route = &types.Route{
		Duration: 3000,
		Steps: []types.Step{
			{Name: "Main St", StepDuration: 600, Coordinates: types.Coordinates{Latitude: 43.6532, Longitude: -79.3832}},
			{Name: "", StepDuration: 600, Coordinates: types.Coordinates{Latitude: 43.2, Longitude: -80.1}},
			{Name: "I-94", StepDuration: 900, Coordinates: types.Coordinates{Latitude: 42.3, Longitude: -83.0}},
			{Name: "Lake Shore Dr", StepDuration: 900, Coordinates: types.Coordinates{Latitude: 41.9, Longitude: -87.5}},
			{Name: "", StepDuration: 0, Coordinates: types.Coordinates{Latitude: 41.8781, Longitude: -87.6298}},
		},
	}
)

func TestResolveSamplesWaypoints(t *testing.T) {
	router := New(&stubGeocoder{places: places}, &stubDirections{route: route})

	geometry, err := router.Resolve(context.Background(), "A", "B", departure)
	require.NoError(t, err)

	var names []string
	var offsets []time.Duration
	for _, wp := range geometry.Waypoints {
		names = append(names, wp.Name)
		offsets = append(offsets, wp.EstimatedArrivalTime.Sub(departure))
	}
	assert.Equal(t, []string{"A", "Main St", "I-94", "Lake Shore Dr", "B"}, names)
	assert.Equal(t, []time.Duration{0, 10 * time.Minute, 20 * time.Minute, 35 * time.Minute, 50 * time.Minute}, offsets)
	assert.Equal(t, route.Steps[4].Coordinates, geometry.Waypoints[4].Coordinates)
	assert.Len(t, geometry.Coordinates, len(route.Steps))
	assert.Equal(t, 50*time.Minute, geometry.Duration)
}

func TestResolveUnrecognizedAddress(t *testing.T) {
	router := New(&stubGeocoder{places: places}, &stubDirections{route: route})

	_, err := router.Resolve(context.Background(), "A", "Nowhere", departure)
	assert.ErrorIs(t, err, types.ErrGeocodingFailed)
	assert.ErrorIs(t, err, types.ErrAddressNotFound)
}

func TestResolveGeocoderFailure(t *testing.T) {
	upstream := fmt.Errorf("positionstack returned 503")
	router := New(&stubGeocoder{places: places, geoErr: upstream}, &stubDirections{route: route})

	_, err := router.Resolve(context.Background(), "A", "B", departure)
	assert.ErrorIs(t, err, types.ErrGeocodingFailed)
	assert.ErrorIs(t, err, upstream)
	assert.NotErrorIs(t, err, types.ErrAddressNotFound)
}

func TestResolveRouteNotFound(t *testing.T) {
	router := New(&stubGeocoder{places: places}, &stubDirections{err: fmt.Errorf("osrm: %w", types.ErrRouteNotFound)})

	_, err := router.Resolve(context.Background(), "A", "B", departure)
	assert.ErrorIs(t, err, types.ErrRouteNotFound)
}

func TestResolveEmptyRoute(t *testing.T) {
	router := New(&stubGeocoder{places: places}, &stubDirections{route: &types.Route{}})

	_, err := router.Resolve(context.Background(), "A", "B", departure)
	assert.ErrorIs(t, err, types.ErrRouteNotFound)
}

func newCache(t *testing.T) *cache.Store {
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })
	return cache.New(rc)
}

func TestResolveUsesGeocodeCache(t *testing.T) {
	geo := &stubGeocoder{places: places}
	router := New(geo, &stubDirections{route: route}, CacheOption(newCache(t)))

	for i := 0; i < 2; i++ {
		_, err := router.Resolve(context.Background(), "A", "B", departure)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(2), geo.forward)
}

func TestResolveReverseGeocodesIntermediateWaypoints(t *testing.T) {
	geo := &stubGeocoder{places: places}
	router := New(geo, &stubDirections{route: route}, CacheOption(newCache(t)), ReverseGeoOption(true))

	geometry, err := router.Resolve(context.Background(), "A", "B", departure)
	require.NoError(t, err)
	assert.Equal(t, "A", geometry.Waypoints[0].Name)
	assert.Equal(t, "Place -80.1", geometry.Waypoints[1].Name)
	assert.Equal(t, "Place -83.0", geometry.Waypoints[2].Name)
	assert.Equal(t, "B", geometry.Waypoints[4].Name)
	assert.Equal(t, int32(3), geo.reverse)

	_, err = router.Resolve(context.Background(), "A", "B", departure)
	require.NoError(t, err)
	assert.Equal(t, int32(3), geo.reverse)
}

func TestResolveKeepsStreetNameWhenReverseGeocodeFails(t *testing.T) {
	geo := &stubGeocoder{places: places, labelErr: fmt.Errorf("positionstack down")}
	router := New(geo, &stubDirections{route: route}, ReverseGeoOption(true))

	geometry, err := router.Resolve(context.Background(), "A", "B", departure)
	require.NoError(t, err)
	assert.Equal(t, "I-94", geometry.Waypoints[2].Name)
}
