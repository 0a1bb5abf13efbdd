package planner

import (
	"fmt"
	"github.com/evanhutnik/roadcast-service/internal/align"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Assemble builds the option for one candidate departure. aligned must match geometry.Waypoints
// index for index; stops keep waypoint order.
func Assemble(id int, departure time.Time, geometry t.RouteGeometry, aligned []align.Aligned, score int, category t.Risk) (t.RouteOption, error) {
	if len(aligned) != len(geometry.Waypoints) {
		return t.RouteOption{}, fmt.Errorf("assembling option %d: %d aligned samples for %d waypoints", id, len(aligned), len(geometry.Waypoints))
	}

	stops := make([]t.WeatherStop, len(geometry.Waypoints))
	for i, wp := range geometry.Waypoints {
		stops[i] = t.WeatherStop{
			Location:     wp.Name,
			ArrivalTime:  wp.EstimatedArrivalTime,
			Weather:      describe(aligned[i]),
			Coordinates:  wp.Coordinates,
			Extrapolated: aligned[i].Extrapolated,
		}
	}

	coords := make([]t.Coordinates, len(geometry.Coordinates))
	copy(coords, geometry.Coordinates)

	return t.RouteOption{
		Id:                id,
		DepartureTime:     departure,
		EstimatedDuration: geometry.Duration,
		WeatherRisk:       category,
		Stops:             stops,
		Score:             score,
		Coordinates:       coords,
	}, nil
}

// describe renders a sample as e.g. "Light snow, -2°C".
func describe(a align.Aligned) string {
	desc := a.Sample.Description
	if desc == "" {
		desc = a.Sample.Condition.String()
	}
	celsius := math.Round(a.Sample.TemperatureC*10) / 10
	if celsius == 0 {
		// drop the sign of -0
		celsius = 0
	}
	temp := strconv.FormatFloat(celsius, 'f', -1, 64)
	text := fmt.Sprintf("%s, %s°C", capitalize(desc), temp)
	if a.Extrapolated {
		text += " (extrapolated)"
	}
	return text
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}
