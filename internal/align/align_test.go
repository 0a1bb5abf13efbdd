package align

import (
	"github.com/evanhutnik/roadcast-service/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func unix(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

func sample(from, to int64, description string) types.ForecastSample {
	return types.ForecastSample{ValidFrom: unix(from), ValidTo: unix(to), Description: description}
}

func TestAlign(t *testing.T) {
	series := []types.ForecastSample{
		sample(0, 10800, "first"),
		sample(10800, 21600, "second"),
	}

	tests := []struct {
		name         string
		series       []types.ForecastSample
		arrival      int64
		want         string
		extrapolated bool
	}{
		{name: "covered by first bucket", series: series, arrival: 5000, want: "first"},
		{name: "bucket start is inclusive", series: series, arrival: 10800, want: "second"},
		{name: "bucket end is exclusive", series: series, arrival: 21600, want: "second", extrapolated: true},
		{name: "beyond horizon", series: series, arrival: 50000, want: "second", extrapolated: true},
		{name: "before first bucket", series: series, arrival: -600, want: "first", extrapolated: true},
		{
			name: "gap resolves to nearest midpoint",
			series: []types.ForecastSample{
				sample(0, 3600, "early"),
				sample(7200, 10800, "late"),
			},
			arrival:      4000,
			want:         "early",
			extrapolated: true,
		},
		{
			name: "tie prefers later sample",
			series: []types.ForecastSample{
				sample(0, 3600, "early"),
				sample(7200, 10800, "late"),
			},
			arrival:      5400,
			want:         "late",
			extrapolated: true,
		},
		{name: "single sample", series: series[:1], arrival: 100, want: "first"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Align(unix(tt.arrival), tt.series)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Sample.Description)
			assert.Equal(t, tt.extrapolated, got.Extrapolated)
		})
	}
}

func TestAlignEmptySeries(t *testing.T) {
	_, err := Align(unix(0), nil)
	assert.ErrorIs(t, err, types.ErrNoForecastData)
}

func TestBorrowedMarksExtrapolated(t *testing.T) {
	a, err := Align(unix(5000), []types.ForecastSample{sample(0, 10800, "first")})
	require.NoError(t, err)
	assert.False(t, a.Extrapolated)
	assert.True(t, Borrowed(a).Extrapolated)
}
