package server

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stromtarif/stromtarif/pkg/types"
)

func TestHandleDeviceCost(t *testing.T) {
	ts := newTestServer(t)
	ts.dataset.On("Load", mock.Anything).Return(testDataset(), nil)

	t.Run("Flat Inline", func(t *testing.T) {
		w := ts.do(jsonRequest("POST", "/api/cost/device", `{"device":{"name":"Pumpe","watts":100,"baseload":true},"price":0.3}`, ""))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[deviceCostResponse](t, w)
		assert.Equal(t, costModeFlat, res.Mode)
		require.NotNil(t, res.AnnualKWh)
		assert.Equal(t, 876.0, *res.AnnualKWh)
		require.NotNil(t, res.AnnualCost)
		assert.Equal(t, 262.8, *res.AnnualCost)
	})

	t.Run("Flat Registry Device", func(t *testing.T) {
		w := ts.do(jsonRequest("POST", "/api/cost/device", `{"deviceId":"kuehlschrank","price":0.3}`, ""))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[deviceCostResponse](t, w)
		assert.Equal(t, "Kühlschrank", res.Device)
		assert.Equal(t, 1314.0, *res.AnnualKWh)
		assert.Equal(t, 394.2, *res.AnnualCost)

		w = ts.do(jsonRequest("POST", "/api/cost/device", `{"deviceId":"missing","price":0.3}`, ""))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Flat Missing Price", func(t *testing.T) {
		w := ts.do(jsonRequest("POST", "/api/cost/device", `{"device":{"name":"TV","watts":100,"usageAmount":1,"usagePeriod":"daily"}}`, ""))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[deviceCostResponse](t, w)
		assert.Equal(t, 36.5, *res.AnnualKWh)
		assert.Equal(t, 0.0, *res.AnnualCost)
		assert.Equal(t, []string{"Bitte geben Sie eine gültige Zahl ein."}, res.Validation)
	})

	t.Run("Hourly", func(t *testing.T) {
		w := ts.do(jsonRequest("POST", "/api/cost/device", `{"device":{"name":"Pumpe","watts":1000,"baseload":true},"mode":"hourly","date":"01/01/2025"}`, ""))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[deviceCostResponse](t, w)
		require.NotNil(t, res.DayCost)
		assert.Equal(t, 240000.0, *res.DayCost)
		assert.Nil(t, res.AnnualCost)
	})

	t.Run("Hourly Profile", func(t *testing.T) {
		w := ts.do(jsonRequest("POST", "/api/cost/device", `{"device":{"name":"Haushalt","watts":1000,"baseload":true},"mode":"hourly","date":"01/01/2025","variant":"h0"}`, ""))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[deviceCostResponse](t, w)
		require.NotNil(t, res.DayCost)
		assert.InDelta(t, 10000.0, *res.DayCost, 0.01)
	})

	t.Run("Hourly Missing Day", func(t *testing.T) {
		w := ts.do(jsonRequest("POST", "/api/cost/device", `{"device":{"name":"Pumpe","watts":1000,"baseload":true},"mode":"hourly","date":"20/01/2025"}`, ""))
		require.Equal(t, http.StatusOK, w.Code)
		res := decode[deviceCostResponse](t, w)
		assert.Nil(t, res.DayCost)
		assert.Equal(t, "Keine Daten für 20/01/2025 verfügbar", res.Message)
	})

	t.Run("Bad Requests", func(t *testing.T) {
		for _, body := range []string{
			`{}`,
			`{"device":{"name":"X"},"mode":"weekly"}`,
			`{"device":{"name":"X"},"mode":"hourly","date":"2025-01-01"}`,
			`{"device":{"name":"X"},"mode":"hourly","date":"01/01/2025","variant":"g0"}`,
		} {
			w := ts.do(jsonRequest("POST", "/api/cost/device", body, ""))
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
	})
}

func TestHandleEVCost(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(jsonRequest("POST", "/api/cost/ev", `{"batteryKWh":50,"price":0.3}`, ""))
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[types.EVCostResult](t, w)
	require.NotNil(t, res.WeeklyKWh)
	assert.Equal(t, 200.0, *res.WeeklyKWh)
	assert.Equal(t, 60.0, *res.WeeklyCost)
	assert.Equal(t, 3120.0, *res.AnnualCost)

	w = ts.do(jsonRequest("POST", "/api/cost/ev", `{"batteryKWh":50,"manual":true,"chargesPerWeek":0}`, ""))
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[types.EVCostResult](t, w)
	assert.Nil(t, res.AnnualCost)
	assert.Len(t, res.Validation, 2)
}

func TestHandleCurve(t *testing.T) {
	ts := newTestServer(t)
	ts.dataset.On("Load", mock.Anything).Return(testDataset(), nil)

	w := ts.get("/api/curve")
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[curveResponse](t, w)
	// baseload plus evenly spread lighting
	assert.Equal(t, 0.51, res.Curve.KW[0])
	assert.Nil(t, res.DayCost)
	ts.dataset.AssertNotCalled(t, "Load", mock.Anything)

	w = ts.get("/api/curve?date=01/01/2025")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[curveResponse](t, w)
	require.NotNil(t, res.DayCost)
	assert.Greater(t, *res.DayCost, 0.0)

	w = ts.get("/api/curve?date=10/01/2025")
	require.Equal(t, http.StatusOK, w.Code)
	res = decode[curveResponse](t, w)
	assert.Nil(t, res.DayCost)
	assert.NotEmpty(t, res.Message)

	w = ts.get("/api/curve?date=1.1.2025")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
