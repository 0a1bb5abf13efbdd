package routing

import (
	"context"
	"errors"
	"fmt"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"sync"
	"time"
)

type Geocoder interface {
	GeoCode(ctx context.Context, address string) (*t.Coordinates, error)
	ReverseGeoCode(ctx context.Context, coords t.Coordinates) (string, error)
}

type Directions interface {
	Route(ctx context.Context, trip *t.Trip) (*t.Route, error)
}

// Cache is the lookup cache in front of the geocoder. *cache.Store satisfies it.
type Cache interface {
	Coordinates(ctx context.Context, address string) (*t.Coordinates, error)
	SetCoordinates(ctx context.Context, address string, coords t.Coordinates) error
	NearbyLabel(ctx context.Context, coords t.Coordinates) (string, error)
	AddLabel(ctx context.Context, coords t.Coordinates, label string) error
}

type RouterOption func(*Router)

// CacheOption puts c in front of geocoding. Without it every lookup goes upstream.
func CacheOption(c Cache) RouterOption {
	return func(r *Router) {
		r.cache = c
	}
}

// ReverseGeoOption names intermediate waypoints by place instead of street.
func ReverseGeoOption(enabled bool) RouterOption {
	return func(r *Router) {
		r.reverseGeo = enabled
	}
}

func LoggerOption(logger *zap.SugaredLogger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

type Router struct {
	geo        Geocoder
	directions Directions
	cache      Cache
	reverseGeo bool

	logger *zap.SugaredLogger
}

func New(geo Geocoder, directions Directions, opts ...RouterOption) *Router {
	r := &Router{
		geo:        geo,
		directions: directions,
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve geocodes start and end, routes between them and samples waypoints along the route with
// arrival times counted from departure. The first waypoint is the start and the last is the end.
func (r *Router) Resolve(ctx context.Context, start, end string, departure time.Time) (t.RouteGeometry, error) {
	trip, err := r.tripCoordinates(ctx, start, end)
	if err != nil {
		return t.RouteGeometry{}, err
	}

	route, err := r.directions.Route(ctx, trip)
	if err != nil {
		if errors.Is(err, t.ErrRouteNotFound) {
			return t.RouteGeometry{}, err
		}
		r.logger.Errorf("Error routing trip (%v,%v) to (%v,%v): %v",
			trip.From.Latitude, trip.From.Longitude, trip.To.Latitude, trip.To.Longitude, err.Error())
		return t.RouteGeometry{}, fmt.Errorf("retrieving trip route: %w", err)
	}
	if len(route.Steps) == 0 {
		return t.RouteGeometry{}, fmt.Errorf("route from %q to %q has no steps: %w", start, end, t.ErrRouteNotFound)
	}

	waypoints := sampleWaypoints(route, start, end, departure)
	if r.reverseGeo {
		r.labelWaypoints(ctx, waypoints)
	}

	coords := make([]t.Coordinates, len(route.Steps))
	for i, step := range route.Steps {
		coords[i] = step.Coordinates
	}
	return t.RouteGeometry{
		Waypoints:   waypoints,
		Coordinates: coords,
		Duration:    time.Duration(route.Duration * float64(time.Second)),
	}, nil
}

func (r *Router) tripCoordinates(ctx context.Context, start, end string) (*t.Trip, error) {
	var fromCoord, toCoord *t.Coordinates
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		fromCoord, err = r.geoCode(gctx, start)
		return err
	})
	g.Go(func() error {
		var err error
		toCoord, err = r.geoCode(gctx, end)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &t.Trip{
		From: fromCoord,
		To:   toCoord,
	}, nil
}

func (r *Router) geoCode(ctx context.Context, address string) (*t.Coordinates, error) {
	if r.cache != nil {
		cached, err := r.cache.Coordinates(ctx, address)
		if err != nil {
			r.logger.Warnw(err.Error(), "address", address, "action", "GeoCodeCache")
		} else if cached != nil {
			return cached, nil
		}
	}

	coords, err := r.geo.GeoCode(ctx, address)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		r.logger.Errorw(err.Error(), "address", address, "action", "GeoCode")
		return nil, fmt.Errorf("geocoding address %q: %w: %w", address, t.ErrGeocodingFailed, err)
	} else if coords == nil {
		return nil, fmt.Errorf("unrecognized address %q: %w: %w", address, t.ErrGeocodingFailed, t.ErrAddressNotFound)
	}

	if r.cache != nil {
		if err := r.cache.SetCoordinates(ctx, address, *coords); err != nil {
			r.logger.Warnw(err.Error(), "address", address, "action", "GeoCodeCache")
		}
	}
	return coords, nil
}

// labelWaypoints replaces intermediate waypoint names with place labels. Failures keep the street name.
func (r *Router) labelWaypoints(ctx context.Context, waypoints []t.Waypoint) {
	if len(waypoints) <= 2 {
		return
	}
	wg := new(sync.WaitGroup)
	for i := 1; i < len(waypoints)-1; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			label, err := r.placeLabel(ctx, waypoints[i].Coordinates)
			if err != nil {
				r.logger.Warnf("Error reverse geocoding (%v,%v): %v",
					waypoints[i].Coordinates.Latitude, waypoints[i].Coordinates.Longitude, err.Error())
				return
			}
			if label != "" {
				waypoints[i].Name = label
			}
		}()
	}
	wg.Wait()
}

func (r *Router) placeLabel(ctx context.Context, coords t.Coordinates) (string, error) {
	if r.cache != nil {
		label, err := r.cache.NearbyLabel(ctx, coords)
		if err != nil {
			r.logger.Warnw(err.Error(), "action", "NearbyLabel")
		} else if label != "" {
			return label, nil
		}
	}

	label, err := r.geo.ReverseGeoCode(ctx, coords)
	if err != nil || label == "" {
		return label, err
	}
	if r.cache != nil {
		if err := r.cache.AddLabel(ctx, coords, label); err != nil {
			r.logger.Warnw(err.Error(), "action", "AddLabel")
		}
	}
	return label, nil
}
