package types

import "fmt"

// UsagePeriod defines how often a device's UsageAmount hours are repeated.
type UsagePeriod string

const (
	UsageDaily  UsagePeriod = "daily"
	UsageWeekly UsagePeriod = "weekly"
	UsageYearly UsagePeriod = "yearly"
)

// PeriodsPerYear returns how many times the period occurs in a year.
func (p UsagePeriod) PeriodsPerYear() (float64, error) {
	switch p {
	case UsageDaily:
		return 365, nil
	case UsageWeekly:
		return 52, nil
	case UsageYearly:
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown usage period: %q", string(p))
	}
}

// TimeWindow is a range of clock hours during which a device runs. Both
// ends are inclusive. An EndHour lower than StartHour wraps past midnight.
type TimeWindow struct {
	StartHour int `json:"startHour" yaml:"startHour" toml:"startHour"`
	EndHour   int `json:"endHour" yaml:"endHour" toml:"endHour"`
}

// Device is a household appliance. Behavior depends only on these fields and
// never on the name.
type Device struct {
	ID          string  `json:"id" yaml:"id" toml:"id"`
	Name        string  `json:"name" yaml:"name" toml:"name"`
	Description string  `json:"description,omitempty" yaml:"description" toml:"description"`
	Watts       float64 `json:"watts" yaml:"watts" toml:"watts"`

	// Baseload devices run 24 hours a day, 365 days a year and ignore
	// UsageAmount and UsagePeriod.
	Baseload bool `json:"baseload" yaml:"baseload" toml:"baseload"`

	// UsageAmount is hours of operation per UsagePeriod.
	UsageAmount float64     `json:"usageAmount" yaml:"usageAmount" toml:"usageAmount"`
	UsagePeriod UsagePeriod `json:"usagePeriod" yaml:"usagePeriod" toml:"usagePeriod"`

	// Windows concentrate the load on specific clock hours in the daily load
	// curve. When empty, DurationHours is spread evenly over the day.
	Windows       []TimeWindow `json:"windows,omitempty" yaml:"windows" toml:"windows"`
	DurationHours float64      `json:"durationHours,omitempty" yaml:"durationHours" toml:"durationHours"`
}

// EVCharging describes how an electric vehicle is charged at home.
type EVCharging struct {
	BatteryKWh float64 `json:"batteryKWh"`
	// Manual uses ChargesPerWeek instead of the standard assumption.
	Manual         bool    `json:"manual"`
	ChargesPerWeek float64 `json:"chargesPerWeek"`
}

// CostResult is the yearly consumption and cost of a device.
type CostResult struct {
	AnnualKWh float64 `json:"annualKWh"`
	// AnnualCost is in the unit of the price multiplied by kWh.
	AnnualCost float64  `json:"annualCost"`
	Validation []string `json:"validation,omitempty"`
}

// EVCostResult is the charging cost of an electric vehicle. Nil values mean
// the input was not sufficient to compute a value.
type EVCostResult struct {
	WeeklyKWh  *float64 `json:"weeklyKWh"`
	WeeklyCost *float64 `json:"weeklyCost"`
	AnnualCost *float64 `json:"annualCost"`
	Validation []string `json:"validation,omitempty"`
}

// LoadCurve is the aggregated household load in kW for each hour of a day.
type LoadCurve struct {
	KW         [HoursPerDay]float64 `json:"kw"`
	Validation []string             `json:"validation,omitempty"`
}
