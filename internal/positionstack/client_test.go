package positionstack

import (
	"context"
	"fmt"
	"github.com/evanhutnik/roadcast-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(ApiKeyOption("ps-key"), BaseUrlOption(srv.URL))
}

func TestGeoCode(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forward", r.URL.Path)
		assert.Equal(t, "ps-key", r.URL.Query().Get("access_key"))
		assert.Equal(t, "Toronto, Canada", r.URL.Query().Get("query"))
		fmt.Fprint(w, `{"data":[{"latitude":43.6532,"longitude":-79.3832,"label":"Toronto, ON, Canada"}]}`)
	})

	coords, err := client.GeoCode(context.Background(), "Toronto, Canada")
	require.NoError(t, err)
	require.NotNil(t, coords)
	assert.Equal(t, types.Coordinates{Latitude: 43.6532, Longitude: -79.3832}, *coords)
}

func TestGeoCodeUnknownAddress(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	coords, err := client.GeoCode(context.Background(), "qwertyuiop")
	require.NoError(t, err)
	assert.Nil(t, coords)
}

func TestReverseGeoCode(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"data":[{"locality":"Kalamazoo","region":"Michigan","label":"I-94, Kalamazoo, MI, USA"}]}`, "Kalamazoo, Michigan"},
		{`{"data":[{"locality":"Kalamazoo"}]}`, "Kalamazoo"},
		{`{"data":[{"label":"I-94, MI, USA","name":"I-94"}]}`, "I-94, MI, USA"},
		{`{"data":[]}`, ""},
	}
	for _, tt := range tests {
		body := tt.body
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/reverse", r.URL.Path)
			assert.Equal(t, "42.29,-85.58", r.URL.Query().Get("query"))
			fmt.Fprint(w, body)
		})
		label, err := client.ReverseGeoCode(context.Background(), types.Coordinates{Latitude: 42.29, Longitude: -85.58})
		require.NoError(t, err)
		assert.Equal(t, tt.want, label)
	}
}

func TestGeoCodeUpstreamError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.GeoCode(context.Background(), "Toronto")
	assert.Error(t, err)
}
