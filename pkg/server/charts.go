package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/stromtarif/stromtarif/pkg/chart"
	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

func writePNG(w http.ResponseWriter, r *http.Request, png []byte, err error) {
	if err != nil {
		if errors.Is(err, chart.ErrNoData) {
			writeJSONError(w, "no data to plot", http.StatusNotFound)
			return
		}
		ctx := r.Context()
		log.Ctx(ctx).ErrorContext(ctx, "failed to render chart", slog.Any("error", err))
		writeJSONError(w, "failed to render chart", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write(png); err != nil {
		panic(http.ErrAbortHandler)
	}
}

// handleMonthChart draws the daily averages of a month. Weeks are not
// plotted, so any month with data can be drawn.
func (s *Server) handleMonthChart(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, _, err := tariff.ParseMonthKey(month); err != nil {
		writeJSONError(w, "invalid month, expected MM/YYYY", http.StatusBadRequest)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	days, err := tariff.MonthDays(ds.Prices, month)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	agg := types.MonthlyAggregate{
		MonthKey: month,
		Days:     make([]types.DayAggregate, 0, len(days)),
	}
	for _, d := range days {
		agg.Days = append(agg.Days, types.DayAggregate{Date: d.Date, Average: tariff.DayAverage(d)})
	}
	agg.Average = tariff.MeanOfDays(agg.Days)
	png, err := s.charts.MonthPNG(agg)
	writePNG(w, r, png, err)
}

// handleDayChart draws the prices of a day. With curve=1 the load curve of
// the session's devices is added.
func (s *Server) handleDayChart(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !tariff.ValidDate(date) {
		writeJSONError(w, "invalid date, expected DD/MM/YYYY", http.StatusBadRequest)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	day, ok := ds.PriceDay(date)
	if !ok {
		writeJSONError(w, noDataMessage(date), http.StatusNotFound)
		return
	}
	var png []byte
	var err error
	if r.URL.Query().Get("curve") == "1" {
		curve := tariff.BuildLoadCurve(s.readSession(w, r).List())
		png, err = s.charts.DayPNG(day, &curve)
	} else {
		png, err = s.charts.DayPNG(day, nil)
	}
	writePNG(w, r, png, err)
}
