package planner

import (
	"context"
	"fmt"
	"github.com/evanhutnik/roadcast-service/internal/align"
	"github.com/evanhutnik/roadcast-service/internal/forecast"
	"github.com/evanhutnik/roadcast-service/internal/risk"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"sort"
	"sync"
	"time"
)

// Router turns a start/end pair into waypoints with arrival times counted from departure.
type Router interface {
	Resolve(ctx context.Context, start, end string, departure time.Time) (t.RouteGeometry, error)
}

type PlannerOption func(*Planner)

// CandidateOffsetsOption adds departure times to evaluate relative to the requested one.
// The requested departure is always evaluated.
func CandidateOffsetsOption(offsets ...time.Duration) PlannerOption {
	return func(p *Planner) {
		p.offsets = append(p.offsets, offsets...)
	}
}

func SessionOptions(opts ...forecast.SessionOption) PlannerOption {
	return func(p *Planner) {
		p.sessionOpts = append(p.sessionOpts, opts...)
	}
}

func LoggerOption(logger *zap.SugaredLogger) PlannerOption {
	return func(p *Planner) {
		p.logger = logger
	}
}

type Planner struct {
	router      Router
	weather     forecast.Provider
	offsets     []time.Duration
	sessionOpts []forecast.SessionOption

	logger *zap.SugaredLogger
}

func New(router Router, weather forecast.Provider, opts ...PlannerOption) *Planner {
	p := &Planner{
		router:  router,
		weather: weather,
		logger:  zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.offsets = candidateOffsets(p.offsets)
	return p
}

// PlanRoutes resolves the route once and scores every candidate departure against the forecast.
// Options come back best score first. A candidate that fails is dropped; if all fail the combined
// error is returned. Nothing is returned once ctx is done.
func (p *Planner) PlanRoutes(ctx context.Context, form t.TripFormData) ([]t.RouteOption, error) {
	req, err := ParseTripForm(form)
	if err != nil {
		return nil, err
	}

	geometry, err := p.router.Resolve(ctx, req.Start.Address, req.End.Address, req.DepartureTime)
	if err != nil {
		return nil, err
	}
	if len(geometry.Waypoints) == 0 {
		return nil, fmt.Errorf("route from %q to %q has no waypoints: %w", req.Start.Address, req.End.Address, t.ErrRouteNotFound)
	}

	session := forecast.NewSession(p.weather, p.sessionOpts...)
	options := make([]*t.RouteOption, len(p.offsets))
	errs := make([]error, len(p.offsets))

	wg := new(sync.WaitGroup)
	for i, offset := range p.offsets {
		i, offset := i, offset
		wg.Add(1)
		go func() {
			defer wg.Done()
			departure := req.DepartureTime.Add(offset)
			option, err := p.planCandidate(ctx, session, i+1, departure, geometry.Shift(offset))
			if err != nil {
				errs[i] = fmt.Errorf("departure %v: %w", departure.Format(time.RFC3339), err)
				return
			}
			options[i] = option
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var planned []t.RouteOption
	for i, option := range options {
		if option == nil {
			p.logger.Warnw(errs[i].Error(), "start", req.Start.Address, "end", req.End.Address, "action", "PlanCandidate")
			continue
		}
		planned = append(planned, *option)
	}
	if len(planned) == 0 {
		return nil, multierr.Combine(errs...)
	}

	Rank(planned)
	return planned, nil
}

func (p *Planner) planCandidate(ctx context.Context, session *forecast.Session, id int, departure time.Time, geometry t.RouteGeometry) (*t.RouteOption, error) {
	aligned, err := p.alignWaypoints(ctx, session, geometry.Waypoints)
	if err != nil {
		return nil, err
	}
	score, category := risk.Score(aligned)
	option, err := Assemble(id, departure, geometry, aligned, score, category)
	if err != nil {
		return nil, err
	}
	return &option, nil
}

// alignWaypoints fetches every waypoint's forecast concurrently and aligns it to the arrival time.
// A waypoint whose fetch failed borrows the series of the nearest waypoint that succeeded.
func (p *Planner) alignWaypoints(ctx context.Context, session *forecast.Session, waypoints []t.Waypoint) ([]align.Aligned, error) {
	series := make([][]t.ForecastSample, len(waypoints))
	fetchErrs := make([]error, len(waypoints))

	g, gctx := errgroup.WithContext(ctx)
	for i, wp := range waypoints {
		i, wp := i, wp
		g.Go(func() error {
			s, err := session.Fetch(gctx, wp.Coordinates, wp.EstimatedArrivalTime)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				fetchErrs[i] = err
				return nil
			}
			if len(s) == 0 {
				fetchErrs[i] = fmt.Errorf("empty series for (%v, %v): %w", wp.Coordinates.Latitude, wp.Coordinates.Longitude, t.ErrNoForecastData)
				return nil
			}
			series[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	aligned := make([]align.Aligned, len(waypoints))
	for i, wp := range waypoints {
		own := fetchErrs[i] == nil
		source := i
		if !own {
			source = nearestWithSeries(waypoints, series, i)
			if source < 0 {
				return nil, fmt.Errorf("waypoint %q: %v: %w", wp.Name, multierr.Combine(fetchErrs...), t.ErrNoForecastData)
			}
			p.logger.Warnw(fetchErrs[i].Error(), "waypoint", wp.Name, "borrowed", waypoints[source].Name, "action", "Fetch")
		}

		a, err := align.Align(wp.EstimatedArrivalTime, series[source])
		if err != nil {
			return nil, err
		}
		if !own {
			a = align.Borrowed(a)
		}
		aligned[i] = a
	}
	return aligned, nil
}

func nearestWithSeries(waypoints []t.Waypoint, series [][]t.ForecastSample, i int) int {
	best := -1
	var bestKm float64
	for j := range waypoints {
		if len(series[j]) == 0 {
			continue
		}
		km := distanceKm(waypoints[i].Coordinates, waypoints[j].Coordinates)
		if best == -1 || km < bestKm {
			best, bestKm = j, km
		}
	}
	return best
}

// Rank orders options by score, best first, breaking ties with the earlier departure.
func Rank(options []t.RouteOption) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].Score != options[j].Score {
			return options[i].Score > options[j].Score
		}
		return options[i].DepartureTime.Before(options[j].DepartureTime)
	})
}

func candidateOffsets(offsets []time.Duration) []time.Duration {
	seen := map[time.Duration]bool{0: true}
	out := []time.Duration{0}
	for _, o := range offsets {
		if seen[o] {
			continue
		}
		seen[o] = true
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

