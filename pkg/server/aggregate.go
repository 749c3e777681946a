package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

type aggregateResponse struct {
	Aggregate  types.MonthlyAggregate `json:"aggregate"`
	Projection *types.Projection      `json:"projection,omitempty"`
	Message    string                 `json:"message,omitempty"`
}

// queryFloat parses an optional numeric query parameter. A comma is accepted
// as the decimal separator. Values that are present but not numeric come
// back as NaN so the engine reports them.
func queryFloat(r *http.Request, key string) (float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
	if err != nil {
		return math.NaN(), true
	}
	return v, true
}

// bucketer returns the week bucketer for the request's strategy parameter,
// falling back to the server default.
func (s *Server) bucketer(r *http.Request) (tariff.WeekBucketer, error) {
	strategy := types.WeekStrategy(r.URL.Query().Get("strategy"))
	if strategy == "" {
		strategy = s.weekStrategy
	}
	return tariff.Bucketer(strategy)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if _, _, err := tariff.ParseMonthKey(month); err != nil {
		writeJSONError(w, "invalid month, expected MM/YYYY", http.StatusBadRequest)
		return
	}
	bucketer, err := s.bucketer(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	unit := types.ConsumptionUnit(r.URL.Query().Get("unit"))
	switch unit {
	case "", types.ConsumptionDaily, types.ConsumptionMonthly, types.ConsumptionYearly:
	default:
		writeJSONError(w, "invalid unit, expected daily, monthly or yearly", http.StatusBadRequest)
		return
	}

	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	agg, err := tariff.AggregateMonth(ds.Prices, month, bucketer)
	if err != nil {
		if errors.Is(err, tariff.ErrMonthNotInTable) {
			writeJSONError(w, "month is not covered by the week table", http.StatusBadRequest)
			return
		}
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := aggregateResponse{Aggregate: tariff.RoundMonth(agg)}
	if len(agg.Days) == 0 {
		res.Message = noDataMessage(month)
	}
	if consumption, ok := queryFloat(r, "consumption"); ok {
		var ownPrice *float64
		if v, ok := queryFloat(r, "ownPrice"); ok {
			ownPrice = &v
		}
		// aggregate values are projected unrounded
		p, err := tariff.Project(agg, consumption, unit, ownPrice)
		if err != nil {
			writeJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		p = tariff.RoundProjection(p)
		res.Projection = &p
	}
	writeJSON(w, res, http.StatusOK)
}

type weeksResponse struct {
	MonthKey string               `json:"monthKey"`
	Weeks    []types.CalendarWeek `json:"weeks"`
}

func (s *Server) handleWeeks(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	year, m, err := tariff.ParseMonthKey(month)
	if err != nil {
		writeJSONError(w, "invalid month, expected MM/YYYY", http.StatusBadRequest)
		return
	}
	bucketer, err := s.bucketer(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	weeks, err := bucketer.Weeks(year, m)
	if err != nil {
		writeJSONError(w, "month is not covered by the week table", http.StatusBadRequest)
		return
	}
	writeJSON(w, weeksResponse{MonthKey: month, Weeks: weeks}, http.StatusOK)
}
