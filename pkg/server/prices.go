package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

type priceDay struct {
	Date    string     `json:"date"`
	Hourly  []*float64 `json:"hourly"`
	Average *float64   `json:"average"`
}

type pricesResponse struct {
	MonthKey string     `json:"monthKey"`
	Days     []priceDay `json:"days"`
	Message  string     `json:"message,omitempty"`
}

func noDataMessage(what string) string {
	return fmt.Sprintf("Keine Daten für %s verfügbar", what)
}

func roundedPriceDay(day types.DailyPrices) priceDay {
	hourly := make([]*float64, len(day.Hourly))
	for i, v := range day.Hourly {
		hourly[i] = tariff.Round2Ptr(v)
	}
	return priceDay{
		Date:    day.Date,
		Hourly:  hourly,
		Average: tariff.Round2Ptr(tariff.DayAverage(day)),
	}
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
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
		writeJSONError(w, "invalid month, expected MM/YYYY", http.StatusBadRequest)
		return
	}
	res := pricesResponse{
		MonthKey: month,
		Days:     make([]priceDay, 0, len(days)),
	}
	for _, day := range days {
		res.Days = append(res.Days, roundedPriceDay(day))
	}
	if len(res.Days) == 0 {
		res.Message = noDataMessage(month)
	}
	writeJSON(w, res, http.StatusOK)
}

type priceDayResponse struct {
	Day     *priceDay `json:"day"`
	Message string    `json:"message,omitempty"`
}

func (s *Server) handlePriceDay(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !tariff.ValidDate(date) {
		writeJSONError(w, "invalid date, expected DD/MM/YYYY", http.StatusBadRequest)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	var res priceDayResponse
	if day, ok := ds.PriceDay(date); ok {
		pd := roundedPriceDay(day)
		res.Day = &pd
	} else {
		res.Message = noDataMessage(date)
	}
	writeJSON(w, res, http.StatusOK)
}

type profileResponse struct {
	Profile *types.ProfileDay `json:"profile"`
	Message string            `json:"message,omitempty"`
}

// parseVariant returns the profile variant of the request, h0 when absent.
func parseVariant(r *http.Request) (types.ProfileVariant, error) {
	v := types.ProfileVariant(r.URL.Query().Get("variant"))
	if v == "" {
		return types.ProfileH0, nil
	}
	if !v.Valid() {
		return "", errors.New("invalid variant, expected h0 or h0pv")
	}
	return v, nil
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if !tariff.ValidDate(date) {
		writeJSONError(w, "invalid date, expected DD/MM/YYYY", http.StatusBadRequest)
		return
	}
	variant, err := parseVariant(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}
	var res profileResponse
	if p, ok := ds.ProfileForDate(variant, date); ok {
		res.Profile = &p
	} else {
		res.Message = noDataMessage(date)
	}
	writeJSON(w, res, http.StatusOK)
}
