package types

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrProviderUnavailable = errors.New("weather provider unavailable")
	ErrInvalidLocation     = errors.New("invalid location")
	ErrNoForecastData      = errors.New("no forecast data")
	ErrRouteNotFound       = errors.New("route not found")
	ErrGeocodingFailed     = errors.New("geocoding failed")
	ErrAddressNotFound     = errors.New("address not found")
)
