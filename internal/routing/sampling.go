package routing

import (
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"time"
)

// sampleInterval is how much driving time separates two weather waypoints.
func sampleInterval(tripDuration float64) float64 {
	switch {
	case tripDuration > 18000:
		return tripDuration / 20
	case tripDuration > 7200:
		return 15 * 60
	case tripDuration > 3600:
		return 10 * 60
	case tripDuration > 300:
		return 5 * 60
	default:
		return tripDuration / 3
	}
}

// sampleWaypoints picks route steps roughly every sampleInterval of driving, bracketed by the
// start and end of the trip. A step's maneuver point is reached once all earlier steps are driven.
func sampleWaypoints(route *t.Route, start, end string, departure time.Time) []t.Waypoint {
	steps := route.Steps
	waypoints := []t.Waypoint{{
		Name:                 start,
		Coordinates:          steps[0].Coordinates,
		EstimatedArrivalTime: departure,
	}}

	durationStep := sampleInterval(route.Duration)
	var currentDuration, goalDuration float64
	goalDuration = durationStep
	for i, step := range steps {
		if i > 0 && i < len(steps)-1 && durationStep > 0 && currentDuration >= goalDuration {
			name := step.Name
			if name == "" {
				name = lastNamedStep(steps, i)
			}
			waypoints = append(waypoints, t.Waypoint{
				Name:                 name,
				Coordinates:          step.Coordinates,
				EstimatedArrivalTime: departure.Add(seconds(currentDuration)),
			})
			goalDuration = currentDuration + durationStep
		}
		currentDuration += step.StepDuration
	}

	if len(steps) > 1 {
		waypoints = append(waypoints, t.Waypoint{
			Name:                 end,
			Coordinates:          steps[len(steps)-1].Coordinates,
			EstimatedArrivalTime: departure.Add(seconds(route.Duration)),
		})
	}
	return waypoints
}

func lastNamedStep(steps []t.Step, i int) string {
	for j := i - 1; j >= 0; j-- {
		if steps[j].Name != "" {
			return steps[j].Name
		}
	}
	return ""
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
