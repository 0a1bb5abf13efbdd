package risk

import (
	"github.com/evanhutnik/roadcast-service/internal/align"
	t "github.com/evanhutnik/roadcast-service/internal/types"
)

const (
	MaxSeverity = 4

	freezingC     = 0.0
	extremeHeatC  = 38.0
	strongWindMS  = 15.0
	pointsPerTier = 20
)

var conditionSeverity = map[t.Condition]int{
	t.ConditionClear:        0,
	t.ConditionClouds:       1,
	t.ConditionHaze:         1,
	t.ConditionDrizzle:      2,
	t.ConditionLightRain:    2,
	t.ConditionLightSnow:    2,
	t.ConditionFog:          2,
	t.ConditionHeavyRain:    3,
	t.ConditionHeavySnow:    3,
	t.ConditionFreezingRain: 4,
	t.ConditionSleet:        4,
	t.ConditionThunderstorm: 4,
	t.ConditionSquall:       4,
	t.ConditionTornado:      4,
}

// ConditionSeverity is the raw tier of a condition. Unknown conditions are treated as severe.
func ConditionSeverity(c t.Condition) int {
	if sev, ok := conditionSeverity[c]; ok {
		return sev
	}
	return MaxSeverity
}

// Severity is the adjusted tier of one aligned sample.
func Severity(a align.Aligned) int {
	sev := ConditionSeverity(a.Sample.Condition)
	if a.Extrapolated {
		sev++
	}
	if a.Sample.TemperatureC < freezingC || a.Sample.TemperatureC > extremeHeatC {
		sev++
	}
	if a.Sample.WindSpeedMS > strongWindMS {
		sev++
	}
	if sev > MaxSeverity {
		sev = MaxSeverity
	}
	return sev
}

// Score rates a route by its worst waypoint.
func Score(aligned []align.Aligned) (int, t.Risk) {
	worst := 0
	for _, a := range aligned {
		if sev := Severity(a); sev > worst {
			worst = sev
		}
	}
	score := 100 - worst*pointsPerTier
	if score < 0 {
		score = 0
	}
	return score, Category(worst)
}

func Category(severity int) t.Risk {
	switch {
	case severity <= 1:
		return t.RiskLow
	case severity <= 3:
		return t.RiskMedium
	default:
		return t.RiskHigh
	}
}
