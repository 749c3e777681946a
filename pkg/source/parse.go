package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/stromtarif/stromtarif/pkg/log"
	"github.com/stromtarif/stromtarif/pkg/tariff"
	"github.com/stromtarif/stromtarif/pkg/types"
)

const (
	// PriceScale converts the raw upstream price values to cents/kWh.
	PriceScale = 0.1

	priceDateMarker = "Prices - EPEX"
	extraKey        = "__parsed_extra"
)

// parseNumber accepts JSON numbers and numeric strings, including a comma as
// decimal separator. Anything else is nil.
func parseNumber(raw json.RawMessage) *float64 {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return &f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// parsePrices parses the body of the price endpoint. Records without a valid
// date or with fewer than 24 values are skipped.
func parsePrices(ctx context.Context, body []byte) ([]types.DailyPrices, error) {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}
	var records []map[string]json.RawMessage
	if err := json.Unmarshal(payload["germany"], &records); err != nil || records == nil {
		return nil, fmt.Errorf("%w: germany is not an array", ErrUnexpectedPayload)
	}

	prices := make([]types.DailyPrices, 0, len(records))
	for i, rec := range records {
		date := priceRecordDate(rec)
		if !tariff.ValidDate(date) {
			log.Ctx(ctx).WarnContext(ctx, "skipping price record with invalid date", slog.Int("index", i), slog.String("date", date))
			continue
		}
		var values []json.RawMessage
		if err := json.Unmarshal(rec[extraKey], &values); err != nil || len(values) < types.HoursPerDay {
			log.Ctx(ctx).WarnContext(ctx, "skipping price record without hourly values", slog.String("date", date), slog.Int("count", len(values)))
			continue
		}
		day := types.DailyPrices{
			Date:   date,
			Hourly: make([]*float64, types.HoursPerDay),
		}
		for h := 0; h < types.HoursPerDay; h++ {
			if v := parseNumber(values[h]); v != nil {
				scaled := *v * PriceScale
				day.Hourly[h] = &scaled
			}
		}
		prices = append(prices, day)
	}
	return prices, nil
}

// priceRecordDate returns the value of the key that contains the EPEX
// marker.
func priceRecordDate(rec map[string]json.RawMessage) string {
	for k, v := range rec {
		if !strings.Contains(k, priceDateMarker) {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

type profileRecord struct {
	Date  string                     `json:"date"`
	Extra map[string]json.RawMessage `json:"__parsed_extra"`
}

// parseProfile parses the body of a profile endpoint. Hour keys may be
// plain hours ("7") or clock times ("07:00").
func parseProfile(ctx context.Context, variant types.ProfileVariant, body []byte) ([]types.ProfileDay, error) {
	var records []profileRecord
	if err := json.Unmarshal(body, &records); err != nil || records == nil {
		return nil, fmt.Errorf("%w: %s is not an array", ErrUnexpectedPayload, variant)
	}

	days := make([]types.ProfileDay, 0, len(records))
	for _, rec := range records {
		date := strings.TrimSpace(rec.Date)
		if !tariff.ValidDate(date) {
			log.Ctx(ctx).WarnContext(ctx, "skipping profile record with invalid date", slog.String("variant", string(variant)), slog.String("date", date))
			continue
		}
		day := types.ProfileDay{Date: date, Variant: variant}
		for k, raw := range rec.Extra {
			h, ok := parseHour(k)
			if !ok {
				continue
			}
			v := parseNumber(raw)
			if v == nil || *v < 0 {
				continue
			}
			day.Shares[h] = *v
		}
		days = append(days, day)
	}
	return days, nil
}

func parseHour(k string) (int, bool) {
	k = strings.TrimSpace(k)
	if i := strings.IndexByte(k, ':'); i >= 0 {
		k = k[:i]
	}
	h, err := strconv.Atoi(k)
	if err != nil || h < 0 || h >= types.HoursPerDay {
		return 0, false
	}
	return h, true
}
