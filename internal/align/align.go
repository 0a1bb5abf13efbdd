package align

import (
	"fmt"
	t "github.com/evanhutnik/roadcast-service/internal/types"
	"sort"
	"time"
)

// Aligned is the forecast sample chosen for a waypoint. Extrapolated is set when no sample
// covered the arrival time and the nearest one was used instead.
type Aligned struct {
	Sample       t.ForecastSample
	Extrapolated bool
}

// Align picks the sample in series whose [ValidFrom, ValidTo) contains arrival. series must be
// ascending by ValidFrom with non-overlapping windows. When nothing covers arrival, the sample whose
// midpoint is closest wins, ties going to the later sample.
func Align(arrival time.Time, series []t.ForecastSample) (Aligned, error) {
	if len(series) == 0 {
		return Aligned{}, fmt.Errorf("aligning %v: %w", arrival.Format(time.RFC3339), t.ErrNoForecastData)
	}

	// First sample starting after arrival; the one before it is the only possible cover.
	next := sort.Search(len(series), func(i int) bool {
		return series[i].ValidFrom.After(arrival)
	})
	if next > 0 && series[next-1].Covers(arrival) {
		return Aligned{Sample: series[next-1]}, nil
	}

	best := -1
	var bestDist time.Duration
	for _, i := range []int{next - 1, next} {
		if i < 0 || i >= len(series) {
			continue
		}
		dist := absDuration(series[i].Midpoint().Sub(arrival))
		if best == -1 || dist <= bestDist {
			best, bestDist = i, dist
		}
	}
	return Aligned{Sample: series[best], Extrapolated: true}, nil
}

// Borrowed marks an alignment taken from another location's series.
func Borrowed(a Aligned) Aligned {
	a.Extrapolated = true
	return a
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
