package types

// WeekStrategy selects how days are grouped into calendar weeks.
type WeekStrategy string

const (
	// WeekStrategyTable uses a fixed table of weeks, which can span month
	// boundaries.
	WeekStrategyTable WeekStrategy = "table"
	// WeekStrategyComputed numbers weeks within a month starting on Mondays.
	WeekStrategyComputed WeekStrategy = "computed"
)

// CalendarWeek is a bucket of consecutive days.
type CalendarWeek struct {
	WeekNumber  string   `json:"weekNumber"`
	MonthKey    string   `json:"monthKey"`
	MemberDates []string `json:"memberDates"`
}

// DateRange returns the first and last member date.
func (w CalendarWeek) DateRange() [2]string {
	if len(w.MemberDates) == 0 {
		return [2]string{}
	}
	return [2]string{w.MemberDates[0], w.MemberDates[len(w.MemberDates)-1]}
}

// DayAggregate is the average price of a single day. Average is nil when the
// day had no valid hourly values.
type DayAggregate struct {
	Date    string   `json:"date"`
	Average *float64 `json:"average"`
}

// WeeklyAggregate summarizes the member days of one CalendarWeek.
type WeeklyAggregate struct {
	WeekNumber    string         `json:"weekNumber"`
	DateRange     [2]string      `json:"dateRange"`
	Average       *float64       `json:"average"`
	Cheapest      *DayAggregate  `json:"cheapest"`
	MostExpensive *DayAggregate  `json:"mostExpensive"`
	Days          []DayAggregate `json:"days"`
}

// MonthlyAggregate summarizes all days of a month and its weeks.
type MonthlyAggregate struct {
	MonthKey      string            `json:"monthKey"`
	Average       *float64          `json:"average"`
	Cheapest      *DayAggregate     `json:"cheapest"`
	MostExpensive *DayAggregate     `json:"mostExpensive"`
	Days          []DayAggregate    `json:"days"`
	Weeks         []WeeklyAggregate `json:"weeks"`
}

// ConsumptionUnit says what period a user supplied consumption covers.
type ConsumptionUnit string

const (
	ConsumptionDaily   ConsumptionUnit = "daily"
	ConsumptionMonthly ConsumptionUnit = "monthly"
	ConsumptionYearly  ConsumptionUnit = "yearly"
)

// WeekProjection is the projected cost of a single week.
type WeekProjection struct {
	WeekNumber string   `json:"weekNumber"`
	KWh        float64  `json:"kWh"`
	Price      *float64 `json:"price"`
	Cost       *float64 `json:"cost"`
}

// Projection is the projected cost of a month given a consumption.
type Projection struct {
	MonthKey        string           `json:"monthKey"`
	ConsumptionUnit ConsumptionUnit  `json:"consumptionUnit"`
	MonthlyKWh      float64          `json:"monthlyKWh"`
	Price           *float64         `json:"price"`
	MonthCost       *float64         `json:"monthCost"`
	Weeks           []WeekProjection `json:"weeks"`
	Validation      []string         `json:"validation,omitempty"`
}
