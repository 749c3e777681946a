package chart

import (
	"errors"
	"fmt"

	charts "github.com/vicanso/go-charts/v2"

	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

// ErrNoData is returned when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

// Renderer draws PNG charts of prices.
type Renderer struct {
	theme  string
	width  int
	height int
}

// New returns a Renderer with the default size and theme.
func New() *Renderer {
	return &Renderer{
		theme:  "light",
		width:  1000,
		height: 400,
	}
}

func (r *Renderer) options(title string, labels []string, legend []string) []charts.OptionFunc {
	return []charts.OptionFunc{
		charts.PNGTypeOption(),
		charts.TitleTextOptionFunc(title),
		charts.XAxisDataOptionFunc(labels),
		charts.LegendLabelsOptionFunc(legend, charts.PositionRight),
		charts.ThemeOptionFunc(r.theme),
		charts.WidthOptionFunc(r.width),
		charts.HeightOptionFunc(r.height),
		charts.PaddingOptionFunc(charts.Box{
			Top:    20,
			Right:  20,
			Bottom: 20,
			Left:   20,
		}),
	}
}

// MonthPNG draws the daily average prices of a month as a line with the
// month average marked. Days without an average are left out.
func (r *Renderer) MonthPNG(agg types.MonthlyAggregate) ([]byte, error) {
	var labels []string
	var values []float64
	for _, d := range agg.Days {
		if d.Average == nil {
			continue
		}
		t, err := tariff.ParseDate(d.Date)
		if err != nil {
			return nil, err
		}
		labels = append(labels, t.Format("02.01."))
		values = append(values, tariff.Round2(*d.Average))
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, agg.MonthKey)
	}

	opts := r.options(
		fmt.Sprintf("Durchschnittlicher Strompreis %s", agg.MonthKey),
		labels,
		[]string{"ct/kWh"},
	)
	opts = append(opts, charts.MarkLineOptionFunc(0, "average"))
	p, err := charts.LineRender([][]float64{values}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to render month chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

// DayPNG draws the hourly prices of a day as bars. When curve is given, the
// hourly cost of the load curve is drawn as a second series. Missing hours
// are drawn as 0.
func (r *Renderer) DayPNG(day types.DailyPrices, curve *types.LoadCurve) ([]byte, error) {
	if tariff.DayAverage(day) == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoData, day.Date)
	}

	labels := make([]string, types.HoursPerDay)
	prices := make([]float64, types.HoursPerDay)
	for h := 0; h < types.HoursPerDay; h++ {
		labels[h] = fmt.Sprintf("%02d", h)
		if h < len(day.Hourly) && day.Hourly[h] != nil {
			prices[h] = tariff.Round2(*day.Hourly[h])
		}
	}

	values := [][]float64{prices}
	legend := []string{"ct/kWh"}
	if curve != nil {
		costs := make([]float64, types.HoursPerDay)
		for h := range costs {
			costs[h] = tariff.Round2(curve.KW[h] * prices[h])
		}
		values = append(values, costs)
		legend = append(legend, "ct/h")
	}

	p, err := charts.BarRender(values, r.options(fmt.Sprintf("Strompreis am %s", day.Date), labels, legend)...)
	if err != nil {
		return nil, fmt.Errorf("failed to render day chart: %w", err)
	}
	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}
