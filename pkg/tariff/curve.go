package tariff

import (
	"fmt"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// WindowHours returns the clock hours covered by a window, in order. Both
// ends are included and an end before the start wraps past midnight, so
// 22-6 covers 22, 23 and 0 through 6.
func WindowHours(w types.TimeWindow) ([]int, error) {
	if w.StartHour < 0 || w.StartHour >= types.HoursPerDay || w.EndHour < 0 || w.EndHour >= types.HoursPerDay {
		return nil, fmt.Errorf("invalid window %d-%d", w.StartHour, w.EndHour)
	}
	end := w.EndHour
	if end < w.StartHour {
		end += types.HoursPerDay
	}
	hours := make([]int, 0, end-w.StartHour+1)
	for h := w.StartHour; h <= end; h++ {
		hours = append(hours, h%types.HoursPerDay)
	}
	return hours, nil
}

// deviceWindowHours merges all windows of a device so overlapping windows
// only count an hour once.
func deviceWindowHours(windows []types.TimeWindow) ([types.HoursPerDay]bool, error) {
	var on [types.HoursPerDay]bool
	for _, w := range windows {
		hours, err := WindowHours(w)
		if err != nil {
			return on, err
		}
		for _, h := range hours {
			on[h] = true
		}
	}
	return on, nil
}

// BuildLoadCurve aggregates the hourly load of all devices in kW.
//
// Baseload devices add their full load to every hour. Dynamic devices with
// windows add their full load to every hour inside a window. Dynamic devices
// that only have a duration spread watts*duration/24 evenly over the day.
// Invalid devices are reported in Validation and skipped or zeroed.
func BuildLoadCurve(devices []types.Device) types.LoadCurve {
	var curve types.LoadCurve
	for _, d := range devices {
		var validation []string
		watts := sanitize(d.Watts, msgNegativeWatts, &validation)
		kw := watts / 1000

		switch {
		case d.Baseload:
			for h := range curve.KW {
				curve.KW[h] += kw
			}
		case len(d.Windows) > 0:
			on, err := deviceWindowHours(d.Windows)
			if err != nil {
				validation = append(validation, msgInvalidWindow)
				break
			}
			for h := range curve.KW {
				if on[h] {
					curve.KW[h] += kw
				}
			}
		default:
			duration := sanitize(d.DurationHours, msgNegativeUsage, &validation)
			perHour := watts * duration / types.HoursPerDay / 1000
			for h := range curve.KW {
				curve.KW[h] += perHour
			}
		}

		for _, msg := range validation {
			curve.Validation = append(curve.Validation, fmt.Sprintf("%s: %s", d.Name, msg))
		}
	}
	return curve
}

// CurveDayCost is the cost of the load curve for one day of prices. It
// returns nil if the day has no valid hourly prices.
func CurveDayCost(curve types.LoadCurve, day types.DailyPrices) *float64 {
	var total float64
	var valid bool
	for h := 0; h < types.HoursPerDay && h < len(day.Hourly); h++ {
		if day.Hourly[h] == nil {
			continue
		}
		total += curve.KW[h] * *day.Hourly[h]
		valid = true
	}
	if !valid {
		return nil
	}
	return &total
}

// RoundCurve rounds every hour of the curve for display.
func RoundCurve(curve types.LoadCurve) types.LoadCurve {
	for h := range curve.KW {
		curve.KW[h] = Round2(curve.KW[h])
	}
	return curve
}
