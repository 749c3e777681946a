package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stromtarif/stromtarif/pkg/types"
)

func hourlyJSON(values ...string) string {
	for len(values) < types.HoursPerDay {
		values = append(values, "100")
	}
	return "[" + strings.Join(values, ",") + "]"
}

func testAPI(t *testing.T, handlers map[string]string) *httptest.Server {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := handlers[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(api.Close)
	return api
}

func TestFetchPrices(t *testing.T) {
	prices := fmt.Sprintf(`{"germany":[
		{"Day-ahead Auction Prices - EPEX (EUR/MWh)":"01/01/2025","__parsed_extra":%s},
		{"Day-ahead Auction Prices - EPEX (EUR/MWh)":"2025-01-02","__parsed_extra":%s},
		{"Day-ahead Auction Prices - EPEX (EUR/MWh)":"03/01/2025","__parsed_extra":[1,2,3]},
		{"other":"04/01/2025","__parsed_extra":%s}
	]}`,
		hourlyJSON(`"12,5"`, `null`, `"n/a"`, `-20`),
		hourlyJSON(),
		hourlyJSON(),
	)
	api := testAPI(t, map[string]string{"/api/mongodb": prices})

	c := New(api.URL, api.Client())
	days, err := c.FetchPrices(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 1)

	day := days[0]
	assert.Equal(t, "01/01/2025", day.Date)
	require.Len(t, day.Hourly, types.HoursPerDay)
	require.NotNil(t, day.Hourly[0])
	assert.InDelta(t, 1.25, *day.Hourly[0], 1e-9)
	assert.Nil(t, day.Hourly[1])
	assert.Nil(t, day.Hourly[2])
	assert.InDelta(t, -2.0, *day.Hourly[3], 1e-9)
	assert.InDelta(t, 10.0, *day.Hourly[23], 1e-9)
}

func TestFetchPricesErrors(t *testing.T) {
	api := testAPI(t, map[string]string{
		"/api/h0":   `{"not":"an array"}`,
		"/api/h0pv": `[]`,
	})

	c := New(api.URL, api.Client())
	_, err := c.FetchPrices(context.Background())
	assert.ErrorIs(t, err, ErrStatus)
	assert.Contains(t, err.Error(), "404")

	_, err = c.FetchProfile(context.Background(), types.ProfileH0)
	assert.ErrorIs(t, err, ErrUnexpectedPayload)

	days, err := c.FetchProfile(context.Background(), types.ProfileH0PV)
	require.NoError(t, err)
	assert.Empty(t, days)

	_, err = c.FetchProfile(context.Background(), "h1")
	assert.Error(t, err)

	bad := testAPI(t, map[string]string{"/api/mongodb": `{"germany":{"a":1}}`})
	_, err = New(bad.URL, bad.Client()).FetchPrices(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedPayload)
}

func TestFetchProfile(t *testing.T) {
	api := testAPI(t, map[string]string{
		"/api/h0": `[
			{"date":"01/01/2025","__parsed_extra":{"0":0.02,"07:00":"0,05","23":0.04,"24":1,"x":1,"5":-1}},
			{"date":"bad","__parsed_extra":{"0":1}}
		]`,
	})

	c := New(api.URL, api.Client())
	days, err := c.FetchProfile(context.Background(), types.ProfileH0)
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, types.ProfileH0, days[0].Variant)
	assert.Equal(t, 0.02, days[0].Shares[0])
	assert.Equal(t, 0.05, days[0].Shares[7])
	assert.Equal(t, 0.04, days[0].Shares[23])
	assert.Equal(t, 0.0, days[0].Shares[5])
}

func TestLoad(t *testing.T) {
	handlers := map[string]string{
		"/api/mongodb": fmt.Sprintf(`{"germany":[{"Prices - EPEX":"01/01/2025","__parsed_extra":%s}]}`, hourlyJSON()),
		"/api/h0":      `[{"date":"01/01/2025","__parsed_extra":{"0":0.1}}]`,
		"/api/h0pv":    `[{"date":"01/01/2025","__parsed_extra":{"0":0.2}}]`,
	}

	t.Run("Success", func(t *testing.T) {
		api := testAPI(t, handlers)
		var observed atomic.Int32
		c := New(api.URL, api.Client())
		c.SetObserver(func(endpoint string, took time.Duration, err error) {
			observed.Add(1)
			assert.NoError(t, err)
		})
		ds, err := c.Load(context.Background())
		require.NoError(t, err)
		assert.Len(t, ds.Prices, 1)
		assert.Len(t, ds.H0, 1)
		assert.Len(t, ds.H0PV, 1)
		assert.False(t, ds.LoadedAt.IsZero())
		assert.Equal(t, int32(3), observed.Load())
	})

	t.Run("OneFailureFailsAll", func(t *testing.T) {
		partial := map[string]string{
			"/api/mongodb": handlers["/api/mongodb"],
			"/api/h0":      handlers["/api/h0"],
		}
		api := testAPI(t, partial)
		ds, err := New(api.URL, api.Client()).Load(context.Background())
		assert.ErrorIs(t, err, ErrStatus)
		assert.Empty(t, ds.Prices)
		assert.True(t, strings.HasPrefix(UserMessage(err), "Fehler beim Abrufen der Daten: "))
	})
}

type countingLoader struct {
	calls atomic.Int32
	err   error
}

func (l *countingLoader) Load(ctx context.Context) (types.Dataset, error) {
	l.calls.Add(1)
	if l.err != nil {
		return types.Dataset{}, l.err
	}
	return types.Dataset{Prices: []types.DailyPrices{{Date: "01/01/2025"}}}, nil
}

func TestCache(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	loader := &countingLoader{}
	c := NewCache(loader, time.Minute)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	_, err := c.Load(ctx)
	require.NoError(t, err)
	_, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), loader.calls.Load())

	now = now.Add(2 * time.Minute)
	ds, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, ds.Prices, 1)
	assert.Equal(t, int32(2), loader.calls.Load())

	c.Invalidate()
	_, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(3), loader.calls.Load())

	t.Run("FailuresNotCached", func(t *testing.T) {
		failing := &countingLoader{err: errors.New("boom")}
		c := NewCache(failing, time.Minute)
		_, err := c.Load(ctx)
		assert.Error(t, err)
		_, err = c.Load(ctx)
		assert.Error(t, err)
		assert.Equal(t, int32(2), failing.calls.Load())
	})
}

// slowLoader blocks until release is closed or its context is done.
type slowLoader struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (l *slowLoader) Load(ctx context.Context) (types.Dataset, error) {
	if l.calls.Add(1) == 1 {
		close(l.started)
	}
	select {
	case <-l.release:
		return types.Dataset{Prices: []types.DailyPrices{{Date: "01/01/2025"}}}, nil
	case <-ctx.Done():
		return types.Dataset{}, ctx.Err()
	}
}

func TestCacheCallerCanceled(t *testing.T) {
	loader := &slowLoader{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	c := NewCache(loader, time.Minute)

	type result struct {
		ds  types.Dataset
		err error
	}
	firstCtx, cancelFirst := context.WithCancel(context.Background())
	defer cancelFirst()
	first := make(chan result, 1)
	go func() {
		ds, err := c.Load(firstCtx)
		first <- result{ds, err}
	}()
	<-loader.started

	second := make(chan result, 1)
	go func() {
		ds, err := c.Load(context.Background())
		second <- result{ds, err}
	}()
	// let the second caller join the running load
	time.Sleep(40 * time.Millisecond)

	cancelFirst()
	select {
	case res := <-first:
		assert.ErrorIs(t, res.err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(loader.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		assert.Len(t, res.ds.Prices, 1)
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, int32(1), loader.calls.Load())

	// the shared load was cached
	_, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), loader.calls.Load())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "Fehler beim Abrufen der Daten: boom", UserMessage(errors.New("boom")))
}
