package server

import (
	"math"
	"net/http"

	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

const (
	costModeFlat   = "flat"
	costModeHourly = "hourly"
)

type deviceCostRequest struct {
	// Either DeviceID refers to a device of the session or Device is given
	// inline.
	DeviceID string        `json:"deviceId"`
	Device   *types.Device `json:"device"`

	Mode string `json:"mode"`
	// Price is the flat price per kWh.
	Price *float64 `json:"price"`
	// Date selects the price day in hourly mode.
	Date string `json:"date"`
	// Variant optionally weights the hours with a standard load profile.
	Variant types.ProfileVariant `json:"variant"`
}

type deviceCostResponse struct {
	Mode       string   `json:"mode"`
	Device     string   `json:"device"`
	AnnualKWh  *float64 `json:"annualKWh,omitempty"`
	AnnualCost *float64 `json:"annualCost,omitempty"`
	DayCost    *float64 `json:"dayCost,omitempty"`
	Validation []string `json:"validation,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// priceOrNaN turns a missing price into NaN so the engine reports it.
func priceOrNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (s *Server) handleDeviceCost(w http.ResponseWriter, r *http.Request) {
	var req deviceCostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var d types.Device
	switch {
	case req.Device != nil:
		d = *req.Device
	case req.DeviceID != "":
		var err error
		d, err = s.readSession(w, r).Get(req.DeviceID)
		if err != nil {
			writeRegistryError(w, r, err)
			return
		}
	default:
		writeJSONError(w, "deviceId or device is required", http.StatusBadRequest)
		return
	}

	switch req.Mode {
	case costModeFlat, "":
		res := tariff.DeviceCost(d, priceOrNaN(req.Price))
		writeJSON(w, deviceCostResponse{
			Mode:       costModeFlat,
			Device:     d.Name,
			AnnualKWh:  tariff.Round2Ptr(&res.AnnualKWh),
			AnnualCost: tariff.Round2Ptr(&res.AnnualCost),
			Validation: res.Validation,
		}, http.StatusOK)
	case costModeHourly:
		s.hourlyDeviceCost(w, r, d, req)
	default:
		writeJSONError(w, "invalid mode, expected flat or hourly", http.StatusBadRequest)
	}
}

func (s *Server) hourlyDeviceCost(w http.ResponseWriter, r *http.Request, d types.Device, req deviceCostRequest) {
	if !tariff.ValidDate(req.Date) {
		writeJSONError(w, "invalid date, expected DD/MM/YYYY", http.StatusBadRequest)
		return
	}
	if req.Variant != "" && !req.Variant.Valid() {
		writeJSONError(w, "invalid variant, expected h0 or h0pv", http.StatusBadRequest)
		return
	}
	ds, ok := s.loadDataset(w, r)
	if !ok {
		return
	}

	res := deviceCostResponse{Mode: costModeHourly, Device: d.Name}
	day, ok := ds.PriceDay(req.Date)
	if !ok {
		res.Message = noDataMessage(req.Date)
		writeJSON(w, res, http.StatusOK)
		return
	}
	var profile *types.ProfileDay
	if req.Variant != "" {
		p, ok := ds.ProfileForDate(req.Variant, req.Date)
		if !ok {
			res.Message = noDataMessage(req.Date)
			writeJSON(w, res, http.StatusOK)
			return
		}
		profile = &p
	}
	cost, validation := tariff.DeviceDayCost(d, profile, day)
	res.DayCost = tariff.Round2Ptr(&cost)
	res.Validation = validation
	writeJSON(w, res, http.StatusOK)
}

type evCostRequest struct {
	types.EVCharging
	Price *float64 `json:"price"`
}

func (s *Server) handleEVCost(w http.ResponseWriter, r *http.Request) {
	var req evCostRequest
	if !decodeBody(w, r, &req) {
		return
	}
	res := tariff.EVCost(req.EVCharging, priceOrNaN(req.Price))
	res.WeeklyKWh = tariff.Round2Ptr(res.WeeklyKWh)
	res.WeeklyCost = tariff.Round2Ptr(res.WeeklyCost)
	res.AnnualCost = tariff.Round2Ptr(res.AnnualCost)
	writeJSON(w, res, http.StatusOK)
}

type curveResponse struct {
	Curve   types.LoadCurve `json:"curve"`
	DayCost *float64        `json:"dayCost,omitempty"`
	Message string          `json:"message,omitempty"`
}

func (s *Server) handleCurve(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date != "" && !tariff.ValidDate(date) {
		writeJSONError(w, "invalid date, expected DD/MM/YYYY", http.StatusBadRequest)
		return
	}
	curve := tariff.BuildLoadCurve(s.readSession(w, r).List())
	res := curveResponse{Curve: tariff.RoundCurve(curve)}
	if date != "" {
		ds, ok := s.loadDataset(w, r)
		if !ok {
			return
		}
		if day, ok := ds.PriceDay(date); ok {
			res.DayCost = tariff.Round2Ptr(tariff.CurveDayCost(curve, day))
		} else {
			res.Message = noDataMessage(date)
		}
	}
	writeJSON(w, res, http.StatusOK)
}
