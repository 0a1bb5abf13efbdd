package roadcast

import (
	"fmt"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"strings"
	"time"
)

type WeatherStopResponse struct {
	Location     string     `json:"location"`
	ArrivalTime  string     `json:"arrival_time"`
	Weather      string     `json:"weather"`
	Coordinates  [2]float64 `json:"coordinates"`
	Extrapolated bool       `json:"extrapolated,omitempty"`
}

type RouteOptionResponse struct {
	Id                int                   `json:"id"`
	DepartureTime     string                `json:"departureTime"`
	EstimatedDuration string                `json:"estimatedDuration"`
	WeatherRisk       t.Risk                `json:"weatherRisk"`
	Stops             []WeatherStopResponse `json:"stops"`
	Score             int                   `json:"score"`
	Coordinates       [][2]float64          `json:"coordinates"`
}

func routeOptionsResponse(options []t.RouteOption) []RouteOptionResponse {
	resp := make([]RouteOptionResponse, 0, len(options))
	for _, o := range options {
		stops := make([]WeatherStopResponse, len(o.Stops))
		for i, stop := range o.Stops {
			stops[i] = WeatherStopResponse{
				Location:     stop.Location,
				ArrivalTime:  stop.ArrivalTime.Format(time.RFC3339),
				Weather:      stop.Weather,
				Coordinates:  latLon(stop.Coordinates),
				Extrapolated: stop.Extrapolated,
			}
		}
		coords := make([][2]float64, len(o.Coordinates))
		for i, c := range o.Coordinates {
			coords[i] = latLon(c)
		}
		resp = append(resp, RouteOptionResponse{
			Id:                o.Id,
			DepartureTime:     o.DepartureTime.Format(time.RFC3339),
			EstimatedDuration: humanDuration(o.EstimatedDuration),
			WeatherRisk:       o.WeatherRisk,
			Stops:             stops,
			Score:             o.Score,
			Coordinates:       coords,
		})
	}
	return resp
}

func latLon(c t.Coordinates) [2]float64 {
	return [2]float64{c.Latitude, c.Longitude}
}

// humanDuration renders e.g. "5 hours 10 mins", rounded to the minute.
func humanDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	hours := int(d / time.Hour)
	mins := int((d % time.Hour) / time.Minute)

	var parts []string
	if hours > 0 {
		parts = append(parts, plural(hours, "hour"))
	}
	if mins > 0 || hours == 0 {
		parts = append(parts, plural(mins, "min"))
	}
	return strings.Join(parts, " ")
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
