package tariff

import (
	"fmt"
	"math"

	"github.com/stromtarif/stromtarif/pkg/types"
)

const (
	// BaseloadHoursPerYear is the yearly runtime assumed for baseload devices.
	BaseloadHoursPerYear = 24 * 365

	// StandardChargesPerWeek is the number of full charges assumed when an
	// electric vehicle is not charged manually.
	StandardChargesPerWeek = 4

	weeksPerYear = 52
)

// AnnualHours returns the yearly runtime of a device. Invalid usage values
// are recorded in validation and treated as 0.
func AnnualHours(d types.Device, validation *[]string) float64 {
	if d.Baseload {
		return BaseloadHoursPerYear
	}
	amount := sanitize(d.UsageAmount, msgNegativeUsage, validation)
	perYear, err := d.UsagePeriod.PeriodsPerYear()
	if err != nil {
		*validation = append(*validation, msgUnknownPeriod)
		return 0
	}
	return amount * perYear
}

// DeviceCost returns the yearly consumption and cost of a device at a flat
// price per kWh. The cost has the unit of the price (cents or euros) times kWh.
func DeviceCost(d types.Device, pricePerKWh float64) types.CostResult {
	var res types.CostResult
	watts := sanitize(d.Watts, msgNegativeWatts, &res.Validation)
	price := sanitize(pricePerKWh, msgNegativePrice, &res.Validation)
	hours := AnnualHours(d, &res.Validation)

	res.AnnualKWh = watts * hours / 1000
	res.AnnualCost = res.AnnualKWh * price
	return res
}

// HourlyCost is the dot product of the per-hour load (watts times the share
// of each hour) and the per-hour price. Hours with a nil price are skipped.
func HourlyCost(watts float64, shares [types.HoursPerDay]float64, prices []*float64) (float64, []string) {
	var validation []string
	watts = sanitize(watts, msgNegativeWatts, &validation)

	var total float64
	for h := 0; h < types.HoursPerDay && h < len(prices); h++ {
		if prices[h] == nil || shares[h] <= 0 {
			continue
		}
		total += (watts * shares[h]) * *prices[h]
	}
	return total, validation
}

// DeviceShares returns the hourly usage shape of a device on its own: 1 for
// every hour a baseload device or a window runs, durationHours/24 spread
// over the day otherwise.
func DeviceShares(d types.Device) ([types.HoursPerDay]float64, error) {
	var shares [types.HoursPerDay]float64
	switch {
	case d.Baseload:
		for h := range shares {
			shares[h] = 1
		}
	case len(d.Windows) > 0:
		hours, err := deviceWindowHours(d.Windows)
		if err != nil {
			return shares, err
		}
		for h, on := range hours {
			if on {
				shares[h] = 1
			}
		}
	case d.DurationHours > 0:
		for h := range shares {
			shares[h] = d.DurationHours / types.HoursPerDay
		}
	}
	return shares, nil
}

// DeviceDayCost calculates the cost of running a device for one day against
// an hourly price curve. When profile is nil the device's own usage shape is
// used.
func DeviceDayCost(d types.Device, profile *types.ProfileDay, day types.DailyPrices) (float64, []string) {
	var shares [types.HoursPerDay]float64
	if profile != nil {
		shares = profile.Shares
	} else {
		var err error
		shares, err = DeviceShares(d)
		if err != nil {
			return 0, []string{fmt.Sprintf("%s: %s", d.Name, msgInvalidWindow)}
		}
	}
	return HourlyCost(d.Watts, shares, day.Hourly)
}

// EVCost calculates the charging cost of an electric vehicle. Standard
// charging assumes StandardChargesPerWeek full charges. Invalid input results
// in nil values and a validation message.
func EVCost(ev types.EVCharging, pricePerKWh float64) types.EVCostResult {
	var res types.EVCostResult
	if !positive(ev.BatteryKWh) {
		res.Validation = append(res.Validation, msgInvalidBattery)
	}
	charges := float64(StandardChargesPerWeek)
	if ev.Manual {
		charges = ev.ChargesPerWeek
		if !positive(charges) {
			res.Validation = append(res.Validation, msgInvalidCharges)
		}
	}
	if math.IsNaN(pricePerKWh) || math.IsInf(pricePerKWh, 0) || pricePerKWh < 0 {
		res.Validation = append(res.Validation, msgInvalidEVPrice)
	}
	if len(res.Validation) > 0 {
		return res
	}

	weeklyKWh := ev.BatteryKWh * charges
	weeklyCost := weeklyKWh * pricePerKWh
	res.WeeklyKWh = ptr(weeklyKWh)
	res.WeeklyCost = ptr(weeklyCost)
	res.AnnualCost = ptr(weeklyCost * weeksPerYear)
	return res
}
