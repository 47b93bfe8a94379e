package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"parking-grid/internal/parking"
)

// httpMetrics records request counts and latencies labelled by route pattern.
type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newHTTPMetrics(reg prometheus.Registerer) *httpMetrics {
	m := &httpMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *httpMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// lotCollector exposes the active lot's occupancy at scrape time. Nothing is
// reported until a lot has been configured.
type lotCollector struct {
	garage    *parking.Garage
	total     *prometheus.Desc
	available *prometheus.Desc
	occupied  *prometheus.Desc
}

func newLotCollector(garage *parking.Garage) *lotCollector {
	return &lotCollector{
		garage: garage,
		total: prometheus.NewDesc("parking_lot_spaces_total",
			"Number of spaces allocated in the active parking lot", nil, nil),
		available: prometheus.NewDesc("parking_lot_spaces_available",
			"Number of available spaces in the active parking lot", nil, nil),
		occupied: prometheus.NewDesc("parking_lot_spaces_occupied",
			"Number of occupied spaces in the active parking lot", nil, nil),
	}
}

func (c *lotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.total
	ch <- c.available
	ch <- c.occupied
}

func (c *lotCollector) Collect(ch chan<- prometheus.Metric) {
	lot, err := c.garage.Lot()
	if err != nil {
		return
	}

	total := lot.TotalSpaces()
	available := lot.Available()
	ch <- prometheus.MustNewConstMetric(c.total, prometheus.GaugeValue, float64(total))
	ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, float64(available))
	ch <- prometheus.MustNewConstMetric(c.occupied, prometheus.GaugeValue, float64(total-available))
}

func newRegistry(garage *parking.Garage) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		newLotCollector(garage),
	)
	return reg
}
