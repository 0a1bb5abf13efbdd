package positionstack

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

type ClientOption func(*Client)

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

func HTTPClientOption(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

type Client struct {
	apiKey     string
	baseUrl    string
	httpClient *http.Client
}

func New(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		panic("Missing apikey in positionStack client")
	}
	if c.baseUrl == "" {
		panic("Missing baseUrl in positionStack client")
	}
	return c
}

// GeoCode resolves an address. A nil result with a nil error means the address was not recognized.
func (c *Client) GeoCode(ctx context.Context, location string) (*t.Coordinates, error) {
	var respObj ForwardResponse
	if err := c.get(ctx, "forward", location, &respObj); err != nil {
		return nil, err
	}
	if len(respObj.Data) == 0 || respObj.Data[0] == nil {
		return nil, nil
	}
	return &t.Coordinates{
		Latitude:  respObj.Data[0].Latitude,
		Longitude: respObj.Data[0].Longitude,
	}, nil
}

// ReverseGeoCode returns a short place label for coords, or "" when positionstack has none.
func (c *Client) ReverseGeoCode(ctx context.Context, coords t.Coordinates) (string, error) {
	var respObj ReverseResponse
	query := fmt.Sprintf("%v,%v", coords.Latitude, coords.Longitude)
	if err := c.get(ctx, "reverse", query, &respObj); err != nil {
		return "", err
	}
	if len(respObj.Data) == 0 || respObj.Data[0] == nil {
		return "", nil
	}

	place := respObj.Data[0]
	switch {
	case place.Locality != "" && place.Region != "":
		return fmt.Sprintf("%s, %s", place.Locality, place.Region), nil
	case place.Locality != "":
		return place.Locality, nil
	case place.Label != "":
		return place.Label, nil
	default:
		return place.Name, nil
	}
}

func (c *Client) get(ctx context.Context, path string, query string, out interface{}) error {
	req, err := url.Parse(fmt.Sprintf("%v/%v", c.baseUrl, path))
	if err != nil {
		return fmt.Errorf("failed to parse positionstack baseUrl %s: %w", c.baseUrl, err)
	}

	q := req.Query()
	q.Add("access_key", c.apiKey)
	q.Add("query", query)
	q.Add("limit", "1")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return fmt.Errorf("building positionstack request: %w", err)
	}
	resp, err := common.GetWithRetry(c.httpClient, ctxReq, "positionstack")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading positionstack response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error unmarshalling response from positionstack: %w", err)
	}
	return nil
}
