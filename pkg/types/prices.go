package types

import "time"

const (
	// HoursPerDay is the number of hourly values in every price or profile day.
	HoursPerDay = 24

	// DateLayout is the DD/MM/YYYY layout used by the upstream data.
	DateLayout = "02/01/2006"
	// MonthLayout is the MM/YYYY layout used for month keys.
	MonthLayout = "01/2006"
)

// DailyPrices holds the day-ahead spot prices of a single day.
type DailyPrices struct {
	// Date is formatted as DD/MM/YYYY.
	Date string `json:"date"`

	// Hourly has exactly HoursPerDay entries in cents/kWh. A nil entry means
	// the upstream value for that hour was missing or not numeric.
	Hourly []*float64 `json:"hourly"`
}

// ProfileVariant identifies a standard household load profile.
type ProfileVariant string

const (
	ProfileH0   ProfileVariant = "h0"
	ProfileH0PV ProfileVariant = "h0pv"
)

// Valid returns true if the variant is a known profile.
func (v ProfileVariant) Valid() bool {
	switch v {
	case ProfileH0, ProfileH0PV:
		return true
	}
	return false
}

// ProfileDay holds the share of daily consumption for each hour of a day.
type ProfileDay struct {
	Date    string               `json:"date"`
	Variant ProfileVariant       `json:"variant"`
	Shares  [HoursPerDay]float64 `json:"shares"`
}

// Dataset is everything loaded from the upstream sources in one go.
type Dataset struct {
	Prices   []DailyPrices `json:"prices"`
	H0       []ProfileDay  `json:"h0"`
	H0PV     []ProfileDay  `json:"h0pv"`
	LoadedAt time.Time     `json:"loadedAt"`
}

// Profile returns the profile days for the given variant.
func (d Dataset) Profile(variant ProfileVariant) []ProfileDay {
	switch variant {
	case ProfileH0:
		return d.H0
	case ProfileH0PV:
		return d.H0PV
	}
	return nil
}

// PriceDay returns the prices for the given DD/MM/YYYY date.
func (d Dataset) PriceDay(date string) (DailyPrices, bool) {
	for _, p := range d.Prices {
		if p.Date == date {
			return p, true
		}
	}
	return DailyPrices{}, false
}

// ProfileForDate returns the profile of the given variant for a DD/MM/YYYY date.
func (d Dataset) ProfileForDate(variant ProfileVariant, date string) (ProfileDay, bool) {
	for _, p := range d.Profile(variant) {
		if p.Date == date {
			return p, true
		}
	}
	return ProfileDay{}, false
}
