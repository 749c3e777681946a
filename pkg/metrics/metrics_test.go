package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stromtarif/stromtarif/pkg/types"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg)

	c.ObserveUpstream("/api/h0", time.Second, nil)
	c.ObserveUpstream("/api/h0", time.Second, errors.New("boom"))
	c.ObserveUpstream("/api/h0pv", time.Second, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("/api/h0", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.upstreamRequests.WithLabelValues("/api/h0", "success")))

	c.ObserveStorage("get_daily_prices", time.Millisecond, nil)
	c.ObserveStorage("get_daily_prices", time.Millisecond, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.storageErrors.WithLabelValues("get_daily_prices")))

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.ObserveSync(at, nil)
	c.ObserveSync(at.Add(time.Hour), errors.New("boom"))
	assert.Equal(t, float64(at.Unix()), testutil.ToFloat64(c.lastSync))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.syncs.WithLabelValues("error")))

	c.SetDataset(types.Dataset{Prices: make([]types.DailyPrices, 3), H0: make([]types.ProfileDay, 2)})
	assert.Equal(t, 3.0, testutil.ToFloat64(c.datasetDays.WithLabelValues("prices")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.datasetDays.WithLabelValues("h0pv")))

	c.RegisterSessions(func() int { return 7 })
	n, err := testutil.GatherAndCount(reg, "test_sessions")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInstrumentHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg)

	h := c.InstrumentHandler("/api/prices", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	for i := 0; i < 2; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/prices", nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("/api/prices", "get", "418")))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `test_http_requests_total{code="418",method="get",route="/api/prices"} 2`))
}
