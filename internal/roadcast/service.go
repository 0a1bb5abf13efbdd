package roadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/evanhutnik/roadcast-service/internal/cache"
	"github.com/evanhutnik/roadcast-service/internal/config"
	ow "github.com/evanhutnik/roadcast-service/internal/openweather"
	"github.com/evanhutnik/roadcast-service/internal/osrm"
	"github.com/evanhutnik/roadcast-service/internal/planner"
	ps "github.com/evanhutnik/roadcast-service/internal/positionstack"
	"github.com/evanhutnik/roadcast-service/internal/routing"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"io"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 16

type PlanTripRequest struct {
	Start              string `json:"start"`
	End                string `json:"end"`
	DepartureTime      string `json:"departure_time"`
	DepartureTimeAlias string `json:"departureTime"`
}

type PlanTripError struct {
	Error string `json:"error"`
}

type CodeError struct {
	code int
	msg  string
}

func (c CodeError) Error() string {
	return c.msg
}

// Planner is the part of *planner.Planner the handler needs.
type Planner interface {
	PlanRoutes(ctx context.Context, form t.TripFormData) ([]t.RouteOption, error)
}

type Service struct {
	planner Planner
	rc      *redis.Client

	Logger *zap.SugaredLogger
}

// New wires the provider clients described by cfg into a planner.
func New(cfg *config.Config, logger *zap.SugaredLogger) *Service {
	s := &Service{Logger: logger}

	psc := ps.New(
		ps.ApiKeyOption(cfg.PositionStackApiKey),
		ps.BaseUrlOption(cfg.PositionStackBaseUrl),
	)
	directions := osrm.New(
		osrm.BaseUrlOption(cfg.OsrmBaseUrl),
	)
	weather := ow.New(
		ow.ApiKeyOption(cfg.OpenWeatherApiKey),
		ow.BaseUrlOption(cfg.OpenWeatherBaseUrl),
		ow.TimeoutOption(cfg.OpenWeatherTimeout),
	)

	routerOpts := []routing.RouterOption{
		routing.ReverseGeoOption(cfg.ReverseGeo),
		routing.LoggerOption(logger),
	}
	if !cfg.DisableRedis {
		s.rc = redis.NewClient(&redis.Options{
			Addr: cfg.RedisAddress,
		})
		routerOpts = append(routerOpts, routing.CacheOption(cache.New(s.rc)))
	}
	router := routing.New(psc, directions, routerOpts...)

	s.planner = planner.New(router, weather,
		planner.CandidateOffsetsOption(cfg.CandidateOffsets...),
		planner.LoggerOption(logger),
	)
	return s
}

// NewWithPlanner builds a service around an existing planner.
func NewWithPlanner(p Planner, logger *zap.SugaredLogger) *Service {
	return &Service{planner: p, Logger: logger}
}

func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plan-trip", s.PlanTripHandler)
	return mux
}

func (s *Service) Start(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
	}
	s.Logger.Infow("Server listening", "addr", addr)
	return srv.ListenAndServe()
}

func (s *Service) Close() error {
	if s.rc != nil {
		return s.rc.Close()
	}
	return nil
}

func (s *Service) PlanTripHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeError(w, CodeError{code: http.StatusMethodNotAllowed, msg: "Only POST is supported"})
		return
	}

	resp, err := s.PlanTrip(r.Context(), r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, resp)
}

func (s *Service) PlanTrip(ctx context.Context, r *http.Request) ([]RouteOptionResponse, error) {
	form, err := s.parseRequest(r)
	if err != nil {
		return nil, err
	}
	s.Logger.Infow("Processing trip request", "start", form.Start, "end", form.End)

	options, err := s.planner.PlanRoutes(ctx, form)
	if err != nil {
		return nil, s.codeError(form, err)
	}
	return routeOptionsResponse(options), nil
}

func (s *Service) parseRequest(r *http.Request) (t.TripFormData, error) {
	var req PlanTripRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return t.TripFormData{}, CodeError{code: http.StatusBadRequest, msg: "Request body must be a JSON object with 'start', 'end' and 'departure_time'"}
	}
	departure := req.DepartureTime
	if departure == "" {
		departure = req.DepartureTimeAlias
	}
	return t.TripFormData{
		Start:         req.Start,
		End:           req.End,
		DepartureTime: departure,
	}, nil
}

func (s *Service) codeError(form t.TripFormData, err error) error {
	switch {
	case errors.Is(err, t.ErrInvalidInput):
		return CodeError{code: http.StatusBadRequest, msg: err.Error()}
	case errors.Is(err, t.ErrAddressNotFound):
		return CodeError{code: http.StatusBadRequest, msg: fmt.Sprintf("Unrecognized address. Check spelling or be more specific: %v", err)}
	case errors.Is(err, t.ErrGeocodingFailed):
		s.Logger.Errorw(err.Error(), "start", form.Start, "end", form.End, "action", "PlanRoutes")
		return CodeError{code: http.StatusBadGateway, msg: "Address lookup is unavailable. Try again later."}
	case errors.Is(err, t.ErrRouteNotFound):
		return CodeError{code: http.StatusNotFound, msg: "No driving route found between the given locations."}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return CodeError{code: http.StatusServiceUnavailable, msg: "Trip planning was cancelled."}
	case errors.Is(err, t.ErrNoForecastData), errors.Is(err, t.ErrProviderUnavailable), errors.Is(err, t.ErrInvalidLocation):
		s.Logger.Errorw(err.Error(), "start", form.Start, "end", form.End, "action", "PlanRoutes")
		return CodeError{code: http.StatusBadGateway, msg: "Weather forecast unavailable for this route."}
	default:
		s.Logger.Errorw(err.Error(), "start", form.Start, "end", form.End, "action", "PlanRoutes")
		return err
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	codeErr, ok := err.(CodeError)
	if ok {
		bodyBytes, _ := json.Marshal(PlanTripError{Error: codeErr.Error()})
		w.WriteHeader(codeErr.code)
		w.Write(bodyBytes)
	} else {
		bodyBytes, _ := json.Marshal(PlanTripError{Error: "Internal server error"})
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(bodyBytes)
	}
}

func (s *Service) writeResponse(w http.ResponseWriter, resp []RouteOptionResponse) {
	bodyBytes, err := json.Marshal(resp)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(bodyBytes)
}
