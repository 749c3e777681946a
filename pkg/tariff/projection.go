package tariff

import (
	"fmt"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// MonthlyKWh converts a consumption in the given unit to kWh for the month.
func MonthlyKWh(consumption float64, unit types.ConsumptionUnit, daysInMonth int) (float64, error) {
	switch unit {
	case types.ConsumptionDaily:
		return consumption * float64(daysInMonth), nil
	case types.ConsumptionMonthly, "":
		return consumption, nil
	case types.ConsumptionYearly:
		return consumption / 12, nil
	default:
		return 0, fmt.Errorf("unknown consumption unit: %q", string(unit))
	}
}

// Project estimates the cost of a month and its weeks. The monthly
// consumption is split evenly across the weeks of the aggregate. The price
// is ownPrice when given and valid, otherwise the computed average of the
// month or week; without a price the costs are nil.
func Project(agg types.MonthlyAggregate, consumption float64, unit types.ConsumptionUnit, ownPrice *float64) (types.Projection, error) {
	year, month, err := ParseMonthKey(agg.MonthKey)
	if err != nil {
		return types.Projection{}, err
	}
	proj := types.Projection{
		MonthKey:        agg.MonthKey,
		ConsumptionUnit: unit,
		Weeks:           make([]types.WeekProjection, 0, len(agg.Weeks)),
	}
	if proj.ConsumptionUnit == "" {
		proj.ConsumptionUnit = types.ConsumptionMonthly
	}
	consumption = sanitize(consumption, msgNegativeConsume, &proj.Validation)
	proj.MonthlyKWh, err = MonthlyKWh(consumption, unit, DaysInMonth(year, month))
	if err != nil {
		return types.Projection{}, err
	}

	var own *float64
	if ownPrice != nil {
		var validation []string
		p := sanitize(*ownPrice, msgNegativePrice, &validation)
		if len(validation) == 0 {
			own = &p
		}
		proj.Validation = append(proj.Validation, validation...)
	}

	proj.Price = agg.Average
	if own != nil {
		proj.Price = own
	}
	if proj.Price != nil {
		proj.MonthCost = ptr(proj.MonthlyKWh * *proj.Price)
	}

	if len(agg.Weeks) == 0 {
		return proj, nil
	}
	weeklyKWh := proj.MonthlyKWh / float64(len(agg.Weeks))
	for _, w := range agg.Weeks {
		wp := types.WeekProjection{
			WeekNumber: w.WeekNumber,
			KWh:        weeklyKWh,
			Price:      w.Average,
		}
		if own != nil {
			wp.Price = own
		}
		if wp.Price != nil {
			wp.Cost = ptr(weeklyKWh * *wp.Price)
		}
		proj.Weeks = append(proj.Weeks, wp)
	}
	return proj, nil
}

// RoundProjection rounds all values of a projection for display.
func RoundProjection(p types.Projection) types.Projection {
	p.MonthlyKWh = Round2(p.MonthlyKWh)
	p.Price = Round2Ptr(p.Price)
	p.MonthCost = Round2Ptr(p.MonthCost)
	weeks := make([]types.WeekProjection, len(p.Weeks))
	for i, w := range p.Weeks {
		w.KWh = Round2(w.KWh)
		w.Price = Round2Ptr(w.Price)
		w.Cost = Round2Ptr(w.Cost)
		weeks[i] = w
	}
	p.Weeks = weeks
	return p
}
