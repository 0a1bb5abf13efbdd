package types

import (
	"time"
)

type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the pair is inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Location is an address as typed by the user.
type Location struct {
	Address string
}

type TripFormData struct {
	Start         string `json:"start"`
	End           string `json:"end"`
	DepartureTime string `json:"departure_time"`
}

type TripRequest struct {
	Start         Location
	End           Location
	DepartureTime time.Time
}

type Trip struct {
	From *Coordinates
	To   *Coordinates
}

// Route is the raw routing result before waypoint sampling.
type Route struct {
	Steps    []Step
	Duration float64
}

type Step struct {
	Name         string
	StepDuration float64
	Coordinates  Coordinates
}

type Waypoint struct {
	Name                 string
	Coordinates          Coordinates
	EstimatedArrivalTime time.Time
}

type RouteGeometry struct {
	Waypoints   []Waypoint
	Coordinates []Coordinates
	Duration    time.Duration
}

// Shift returns a copy of g with every arrival time moved by d.
func (g RouteGeometry) Shift(d time.Duration) RouteGeometry {
	shifted := RouteGeometry{
		Waypoints:   make([]Waypoint, len(g.Waypoints)),
		Coordinates: g.Coordinates,
		Duration:    g.Duration,
	}
	for i, wp := range g.Waypoints {
		wp.EstimatedArrivalTime = wp.EstimatedArrivalTime.Add(d)
		shifted.Waypoints[i] = wp
	}
	return shifted
}

type Condition int

const (
	ConditionClear Condition = iota
	ConditionClouds
	ConditionHaze
	ConditionFog
	ConditionDrizzle
	ConditionLightRain
	ConditionHeavyRain
	ConditionFreezingRain
	ConditionLightSnow
	ConditionHeavySnow
	ConditionSleet
	ConditionThunderstorm
	ConditionSquall
	ConditionTornado
)

var conditionNames = map[Condition]string{
	ConditionClear:        "clear",
	ConditionClouds:       "clouds",
	ConditionHaze:         "haze",
	ConditionFog:          "fog",
	ConditionDrizzle:      "drizzle",
	ConditionLightRain:    "light rain",
	ConditionHeavyRain:    "heavy rain",
	ConditionFreezingRain: "freezing rain",
	ConditionLightSnow:    "light snow",
	ConditionHeavySnow:    "heavy snow",
	ConditionSleet:        "sleet",
	ConditionThunderstorm: "thunderstorm",
	ConditionSquall:       "squall",
	ConditionTornado:      "tornado",
}

func (c Condition) String() string {
	if name, ok := conditionNames[c]; ok {
		return name
	}
	return "unknown"
}

// ForecastSample is one provider forecast bucket for one location, valid over [ValidFrom, ValidTo).
type ForecastSample struct {
	ValidFrom    time.Time
	ValidTo      time.Time
	TemperatureC float64
	WindSpeedMS  float64
	Condition    Condition
	Description  string
}

// Covers reports whether t falls inside the sample's validity window.
func (s ForecastSample) Covers(t time.Time) bool {
	return !t.Before(s.ValidFrom) && t.Before(s.ValidTo)
}

// Midpoint returns the centre of the validity window.
func (s ForecastSample) Midpoint() time.Time {
	return s.ValidFrom.Add(s.ValidTo.Sub(s.ValidFrom) / 2)
}

type Risk string

const (
	RiskLow    Risk = "Low"
	RiskMedium Risk = "Medium"
	RiskHigh   Risk = "High"
)

type WeatherStop struct {
	Location     string      `json:"location"`
	ArrivalTime  time.Time   `json:"arrival_time"`
	Weather      string      `json:"weather"`
	Coordinates  Coordinates `json:"coordinates"`
	Extrapolated bool        `json:"extrapolated,omitempty"`
}

type RouteOption struct {
	Id                int
	DepartureTime     time.Time
	EstimatedDuration time.Duration
	WeatherRisk       Risk
	Stops             []WeatherStop
	Score             int
	Coordinates       []Coordinates
}
