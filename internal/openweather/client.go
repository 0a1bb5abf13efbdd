package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/evanhutnik/roadcast-service/internal/common"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// BucketWidth is the granularity of the 5 day / 3 hour forecast endpoint.
const BucketWidth = 3 * time.Hour

type Response struct {
	List []Entry `json:"list"`
}

type Entry struct {
	Time       *int64       `json:"dt"`
	Main       *Main        `json:"main"`
	Wind       Wind         `json:"wind"`
	Conditions []Conditions `json:"weather"`
}

type Main struct {
	Temp *float64 `json:"temp"`
}

type Wind struct {
	Speed float64 `json:"speed"`
}

type Conditions struct {
	Id          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

type ClientOption func(*Client)

type Client struct {
	apiKey     string
	baseUrl    string
	timeout    time.Duration
	httpClient *http.Client
}

func ApiKeyOption(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = strings.TrimRight(baseUrl, "/")
	}
}

func TimeoutOption(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

func HTTPClientOption(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{}

	for _, opt := range opts {
		opt(c)
	}

	// Options configure a copy; a client passed in by the caller is never modified.
	hc := http.Client{Timeout: 10 * time.Second}
	if c.httpClient != nil {
		hc = *c.httpClient
	}
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	c.httpClient = &hc

	if c.apiKey == "" {
		panic("Missing apikey in openweather client")
	}
	if c.baseUrl == "" {
		panic("Missing baseUrl in openweather client")
	}
	return c
}

// FetchForecast returns the forecast series for coords in ascending ValidFrom order.
// The endpoint always serves its fixed horizon from now, so the reference time is not sent.
func (c *Client) FetchForecast(ctx context.Context, coords t.Coordinates, _ time.Time) ([]t.ForecastSample, error) {
	if !coords.Valid() {
		return nil, fmt.Errorf("(%v, %v): %w", coords.Latitude, coords.Longitude, t.ErrInvalidLocation)
	}

	req, err := url.Parse(c.baseUrl + "/forecast")
	if err != nil {
		return nil, fmt.Errorf("failed to parse openweather baseUrl %s: %v: %w", c.baseUrl, err, t.ErrProviderUnavailable)
	}

	q := req.Query()
	q.Add("appid", c.apiKey)
	q.Add("lat", strconv.FormatFloat(coords.Latitude, 'f', -1, 64))
	q.Add("lon", strconv.FormatFloat(coords.Longitude, 'f', -1, 64))
	q.Add("units", "metric")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building openweather request: %v: %w", err, t.ErrProviderUnavailable)
	}
	resp, err := common.GetWithRetry(c.httpClient, ctxReq, "openweather")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if common.IsStatus(err, http.StatusBadRequest) {
			return nil, fmt.Errorf("%v: %w", err, t.ErrInvalidLocation)
		}
		return nil, fmt.Errorf("%v: %w", err, t.ErrProviderUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading body of response: %v: %w", err, t.ErrProviderUnavailable)
	}

	var respObj Response
	if err := json.Unmarshal(body, &respObj); err != nil {
		return nil, fmt.Errorf("error unmarshalling response from openweather: %v: %w", err, t.ErrProviderUnavailable)
	}

	return samplesFromOW(respObj.List)
}

func samplesFromOW(entries []Entry) ([]t.ForecastSample, error) {
	samples := make([]t.ForecastSample, 0, len(entries))
	for i, entry := range entries {
		if entry.Time == nil || entry.Main == nil || entry.Main.Temp == nil || len(entry.Conditions) == 0 {
			return nil, fmt.Errorf("openweather entry %d is missing dt, main.temp or weather: %w", i, t.ErrProviderUnavailable)
		}
		condition, ok := conditionFromId(entry.Conditions[0].Id)
		if !ok {
			return nil, fmt.Errorf("openweather entry %d has unknown condition id %d: %w", i, entry.Conditions[0].Id, t.ErrProviderUnavailable)
		}
		validFrom := time.Unix(*entry.Time, 0).UTC()
		samples = append(samples, t.ForecastSample{
			ValidFrom:    validFrom,
			ValidTo:      validFrom.Add(BucketWidth),
			TemperatureC: *entry.Main.Temp,
			WindSpeedMS:  entry.Wind.Speed,
			Condition:    condition,
			Description:  entry.Conditions[0].Description,
		})
	}
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].ValidFrom.Before(samples[j].ValidFrom)
	})
	return samples, nil
}

// conditionFromId maps https://openweathermap.org/weather-conditions codes.
func conditionFromId(id int) (t.Condition, bool) {
	switch {
	case id >= 200 && id < 300:
		return t.ConditionThunderstorm, true
	case id >= 300 && id < 400:
		return t.ConditionDrizzle, true
	case id == 511:
		return t.ConditionFreezingRain, true
	case id == 500, id == 501, id == 520:
		return t.ConditionLightRain, true
	case id >= 502 && id <= 504, id == 521, id == 522, id == 531:
		return t.ConditionHeavyRain, true
	case id == 611, id == 613, id == 616:
		return t.ConditionSleet, true
	case id == 600, id == 612, id == 615, id == 620:
		return t.ConditionLightSnow, true
	case id == 601, id == 602, id == 621, id == 622:
		return t.ConditionHeavySnow, true
	case id == 741:
		return t.ConditionFog, true
	case id == 771:
		return t.ConditionSquall, true
	case id == 781:
		return t.ConditionTornado, true
	case id >= 700 && id < 800:
		return t.ConditionHaze, true
	case id == 800:
		return t.ConditionClear, true
	case id > 800 && id <= 804:
		return t.ConditionClouds, true
	}
	return 0, false
}
