package osrm

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/evanhutnik/roadcast-service/internal/common"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Response struct {
	Code    string  `json:"code"`
	Message string  `json:"message,omitempty"`
	Routes  []Route `json:"routes"`
}

type Route struct {
	Duration float64 `json:"duration"`
	Distance float64 `json:"distance"`
	Legs     []Leg   `json:"legs"`
}

type Leg struct {
	Summary  string  `json:"summary"`
	Duration float64 `json:"duration"`
	Distance float64 `json:"distance"`
	Steps    []Step  `json:"steps"`
}

type Step struct {
	Name     string   `json:"name"`
	Duration float64  `json:"duration"`
	Distance float64  `json:"distance"`
	Maneuver Maneuver `json:"maneuver"`
}

type Maneuver struct {
	Location []float64 `json:"location"`
	Type     string    `json:"type"`
}

type ClientOption func(*Client)

type Client struct {
	baseUrl    string
	httpClient *http.Client
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = strings.TrimRight(baseUrl, "/")
	}
}

func HTTPClientOption(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		panic("Missing baseUrl in osrm client")
	}
	return c
}

func (c *Client) Route(ctx context.Context, trip *t.Trip) (*t.Route, error) {
	reqUrl := fmt.Sprintf("%v/%f,%f;%f,%f", c.baseUrl, trip.From.Longitude, trip.From.Latitude, trip.To.Longitude, trip.To.Latitude)
	req, err := url.Parse(reqUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse osrm url %s: %w", reqUrl, err)
	}

	q := req.Query()
	q.Add("steps", "true")
	q.Add("overview", "false")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building osrm request: %w", err)
	}
	resp, err := common.GetWithRetry(c.httpClient, ctxReq, "osrm")
	if err != nil {
		// OSRM answers NoRoute and friends with 400.
		if common.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%v: %w", err, t.ErrRouteNotFound)
		}
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading osrm response body: %w", err)
	}

	var respObj Response
	if err := json.Unmarshal(body, &respObj); err != nil {
		return nil, fmt.Errorf("error unmarshalling response from osrm: %w", err)
	}
	if respObj.Code != "Ok" || len(respObj.Routes) == 0 || len(respObj.Routes[0].Legs) == 0 {
		return nil, fmt.Errorf("osrm returned code %q: %w", respObj.Code, t.ErrRouteNotFound)
	}

	steps, err := c.routeStepsFromOSRM(respObj.Routes[0].Legs)
	if err != nil {
		return nil, err
	}
	return &t.Route{
		Steps:    steps,
		Duration: respObj.Routes[0].Duration,
	}, nil
}

func (c *Client) routeStepsFromOSRM(legs []Leg) ([]t.Step, error) {
	var routeSteps []t.Step
	for _, leg := range legs {
		for _, step := range leg.Steps {
			if len(step.Maneuver.Location) != 2 {
				return nil, fmt.Errorf("osrm step %q has malformed maneuver location", step.Name)
			}
			routeSteps = append(routeSteps, t.Step{
				Name:         step.Name,
				StepDuration: step.Duration,
				Coordinates: t.Coordinates{
					Latitude:  step.Maneuver.Location[1],
					Longitude: step.Maneuver.Location[0],
				},
			})
		}
	}
	return routeSteps, nil
}
