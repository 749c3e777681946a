package metrics

import (
	"net/http"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stromtarif/stromtarif/pkg/types"
)

// Collector holds the application metrics.
type Collector struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec

	storageDuration *prometheus.HistogramVec
	storageErrors   *prometheus.CounterVec

	syncs       *prometheus.CounterVec
	lastSync    prometheus.Gauge
	datasetDays *prometheus.GaugeVec

	namespace string
	factory   promauto.Factory
}

// Configured sets up flags for metrics and returns the collector.
func Configured() *Collector {
	namespace := lflag.String("metrics-namespace", "stromtarif", "Namespace prefixed to all metric names")

	c := &Collector{}
	lflag.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		*c = *NewCollector(*namespace, reg)
	})
	return c
}

// NewCollector registers all metrics with reg.
func NewCollector(namespace string, reg *prometheus.Registry) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		registry:  reg,
		namespace: namespace,
		factory:   factory,

		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of API requests by route, method and status code",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{"route", "method"},
		),

		upstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "upstream_requests_total",
				Help:      "Total number of requests to the price and profile API by endpoint and result",
			},
			[]string{"endpoint", "result"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_request_duration_seconds",
				Help:      "Duration of requests to the price and profile API",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"endpoint"},
		),

		storageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "storage_operation_duration_seconds",
				Help:      "Duration of storage operations by operation",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op"},
		),
		storageErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "storage_errors_total",
				Help:      "Total number of failed storage operations by operation",
			},
			[]string{"op"},
		),

		syncs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syncs_total",
				Help:      "Total number of dataset syncs by result",
			},
			[]string{"result"},
		),
		lastSync: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_sync_timestamp_seconds",
				Help:      "Unix time of the last successful sync",
			},
		),
		datasetDays: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_days",
				Help:      "Number of days in the loaded dataset by kind",
			},
			[]string{"kind"},
		),
	}
}

// Handler serves the metrics of the collector's registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// InstrumentHandler counts and times requests to the handler of a route.
func (c *Collector) InstrumentHandler(route string, h http.Handler) http.Handler {
	labels := prometheus.Labels{"route": route}
	return promhttp.InstrumentHandlerDuration(
		c.httpDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(c.httpRequests.MustCurryWith(labels), h),
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveUpstream records one request to the price and profile API.
func (c *Collector) ObserveUpstream(endpoint string, took time.Duration, err error) {
	c.upstreamRequests.WithLabelValues(endpoint, result(err)).Inc()
	c.upstreamDuration.WithLabelValues(endpoint).Observe(took.Seconds())
}

// ObserveStorage records one storage operation.
func (c *Collector) ObserveStorage(op string, took time.Duration, err error) {
	c.storageDuration.WithLabelValues(op).Observe(took.Seconds())
	if err != nil {
		c.storageErrors.WithLabelValues(op).Inc()
	}
}

// ObserveSync records the result of a sync.
func (c *Collector) ObserveSync(at time.Time, err error) {
	c.syncs.WithLabelValues(result(err)).Inc()
	if err == nil {
		c.lastSync.Set(float64(at.Unix()))
	}
}

// SetDataset records the size of the loaded dataset.
func (c *Collector) SetDataset(ds types.Dataset) {
	c.datasetDays.WithLabelValues("prices").Set(float64(len(ds.Prices)))
	c.datasetDays.WithLabelValues(string(types.ProfileH0)).Set(float64(len(ds.H0)))
	c.datasetDays.WithLabelValues(string(types.ProfileH0PV)).Set(float64(len(ds.H0PV)))
}

// RegisterSessions exposes the number of device sessions.
func (c *Collector) RegisterSessions(count func() int) {
	c.factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: c.namespace,
			Name:      "sessions",
			Help:      "Number of device sessions",
		},
		func() float64 { return float64(count()) },
	)
}
