package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stromtarif/stromtarif/pkg/chart"
	"github.com/stromtarif/stromtarif/pkg/metrics"
	"github.com/stromtarif/stromtarif/pkg/registry"
	"github.com/stromtarif/stromtarif/pkg/storage/storagemock"
	"github.com/stromtarif/stromtarif/pkg/types"
)

type mockDataset struct {
	mock.Mock
}

func (m *mockDataset) Load(ctx context.Context) (types.Dataset, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).(types.Dataset), args.Error(1)
	}
	return types.Dataset{}, nil
}

func (m *mockDataset) Invalidate() {
	m.Called()
}

func flat(v float64) []*float64 {
	hourly := make([]*float64, types.HoursPerDay)
	for h := range hourly {
		p := v
		hourly[h] = &p
	}
	return hourly
}

func evenShares() [types.HoursPerDay]float64 {
	var shares [types.HoursPerDay]float64
	for h := range shares {
		shares[h] = 1.0 / types.HoursPerDay
	}
	return shares
}

// testDataset has three days in January 2025 averaging 10, 20 and 30.
func testDataset() types.Dataset {
	return types.Dataset{
		Prices: []types.DailyPrices{
			{Date: "01/01/2025", Hourly: flat(10)},
			{Date: "02/01/2025", Hourly: flat(20)},
			{Date: "03/01/2025", Hourly: flat(30)},
		},
		H0: []types.ProfileDay{
			{Date: "01/01/2025", Variant: types.ProfileH0, Shares: evenShares()},
		},
		LoadedAt: time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC),
	}
}

type testServer struct {
	*Server
	dataset  *mockDataset
	upstream *mockDataset
	storage  *storagemock.MockDatabase
	registry *prometheus.Registry
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	catalog, err := registry.DefaultCatalog()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	ts := &testServer{
		dataset:  &mockDataset{},
		upstream: &mockDataset{},
		storage:  &storagemock.MockDatabase{},
		registry: reg,
	}
	ts.Server = &Server{
		dataset:      ts.dataset,
		upstream:     ts.upstream,
		sessions:     registry.NewSessions(catalog, time.Hour),
		storage:      ts.storage,
		metrics:      metrics.NewCollector("test", reg),
		charts:       chart.New(),
		serverName:   "test",
		weekStrategy: types.WeekStrategyTable,
		now: func() time.Time {
			return time.Date(2025, 1, 5, 12, 0, 0, 0, time.UTC)
		},
	}
	ts.handler = ts.setupHandler()
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

func (ts *testServer) get(path string) *httptest.ResponseRecorder {
	return ts.do(httptest.NewRequest("GET", path, nil))
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}
