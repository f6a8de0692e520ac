package simulator

import (
	"math"
	"time"

	"github.com/urbansense/smart-city-platform/internal/domain"
)

// patternMultiplier shapes the base value by time of day (and day of
// week where it matters). Each sensor type has its own curve.
func patternMultiplier(t domain.SensorType, at time.Time) float64 {
	hour := float64(at.Hour()) + float64(at.Minute())/60.0
	weekend := at.Weekday() == time.Saturday || at.Weekday() == time.Sunday

	switch t {
	case domain.SensorTraffic:
		m := trafficMultiplier(hour)
		if weekend {
			// Commuter peaks flatten out on weekends.
			m = 0.3 + (m-0.3)*0.5
		}
		return m

	case domain.SensorWaste:
		// Fill level climbs monotonically through the day; collection
		// trucks run in the 02:00-04:00 window.
		if hour >= 2 && hour < 4 {
			return 0.15
		}
		start := hour
		if start < 4 {
			start += 24 // 00:00-02:00 continues the previous day's climb
		}
		return 0.3 + 1.3*(start-4)/20.0

	case domain.SensorLight:
		// Street lighting draw: high at night, near-idle in daylight.
		if hour >= 20 || hour < 6 {
			return 1.5
		}
		if hour >= 7 && hour < 19 {
			return 0.4
		}
		return 1.0 // dawn/dusk ramp

	case domain.SensorNoise:
		// Peaks around midday, quiet in the small hours.
		return 0.9 + 0.6*math.Sin((hour-7)*math.Pi/12.0)

	case domain.SensorEnvironment:
		// Diurnal temperature curve peaking mid-afternoon.
		return 1.0 + 0.25*math.Sin((hour-9)*math.Pi/12.0)

	default: // WATER: demand bumps at morning and evening
		if (hour >= 6 && hour < 9) || (hour >= 18 && hour < 21) {
			return 1.3
		}
		if hour >= 0 && hour < 5 {
			return 0.6
		}
		return 1.0
	}
}

func trafficMultiplier(hour float64) float64 {
	switch {
	case hour >= 7 && hour < 9:
		return 1.8
	case hour >= 17 && hour < 19:
		return 1.8
	case hour >= 23 || hour < 5:
		return 0.3
	default:
		return 1.0
	}
}
