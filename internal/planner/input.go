package planner

import (
	"fmt"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"strings"
	"time"
)

// Layouts accepted for departure times. Zone-less forms are read as UTC.
var departureLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999-0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04-0700",
	"2006-01-02T15:04",
	"2006-01-02",
}

func ParseTripForm(form t.TripFormData) (t.TripRequest, error) {
	start := strings.TrimSpace(form.Start)
	end := strings.TrimSpace(form.End)
	if start == "" {
		return t.TripRequest{}, fmt.Errorf("missing start location: %w", t.ErrInvalidInput)
	} else if end == "" {
		return t.TripRequest{}, fmt.Errorf("missing end location: %w", t.ErrInvalidInput)
	}

	departure, err := ParseDeparture(form.DepartureTime)
	if err != nil {
		return t.TripRequest{}, err
	}
	return t.TripRequest{
		Start:         t.Location{Address: start},
		End:           t.Location{Address: end},
		DepartureTime: departure,
	}, nil
}

func ParseDeparture(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range departureLayouts {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("departure time %q is not ISO-8601: %w", value, t.ErrInvalidInput)
}
