package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Metrics holds all Prometheus metrics for the API
type Metrics struct {
	// HTTP request metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight *prometheus.GaugeVec

	// Table metrics
	tableLoadsTotal   *prometheus.CounterVec
	tableLoadDuration *prometheus.HistogramVec
	tableRows         *prometheus.GaugeVec
	rowLookupsTotal   *prometheus.CounterVec
	authRequestsTotal *prometheus.CounterVec
	healthChecksTotal *prometheus.CounterVec
}

// NewMetrics creates all Prometheus metrics and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbc_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbc_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		httpRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbc_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"method", "endpoint"},
		),

		tableLoadsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbc_table_loads_total",
				Help: "Total number of table loads from the catalog",
			},
			[]string{"table", "status"},
		),

		tableLoadDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dbc_table_load_duration_seconds",
				Help:    "Table load duration in seconds, including cache hits",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"table"},
		),

		tableRows: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dbc_table_rows",
				Help: "Number of rows in the most recently loaded revision of a table",
			},
			[]string{"table"},
		),

		rowLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbc_row_lookups_total",
				Help: "Total number of primary key lookups",
			},
			[]string{"table", "result"},
		),

		authRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbc_auth_requests_total",
				Help: "Total number of authentication requests",
			},
			[]string{"status"},
		),

		healthChecksTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dbc_health_checks_total",
				Help: "Total number of health checks",
			},
			[]string{"status"},
		),
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	statusCodeStr := strconv.Itoa(statusCode)

	m.httpRequestsTotal.WithLabelValues(method, endpoint, statusCodeStr).Inc()
	m.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordTableLoad records a catalog load and, on success, the row count
func (m *Metrics) RecordTableLoad(table string, rows int, err error, duration time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusError
	} else {
		m.tableRows.WithLabelValues(table).Set(float64(rows))
	}
	m.tableLoadsTotal.WithLabelValues(table, status).Inc()
	m.tableLoadDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// RecordRowLookup records a primary key lookup
func (m *Metrics) RecordRowLookup(table string, found bool) {
	result := "hit"
	if !found {
		result = "miss"
	}
	m.rowLookupsTotal.WithLabelValues(table, result).Inc()
}

// RecordAuthRequest records an authentication request
func (m *Metrics) RecordAuthRequest(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.authRequestsTotal.WithLabelValues(status).Inc()
}

// RecordHealthCheck records a health check
func (m *Metrics) RecordHealthCheck(success bool) {
	status := statusSuccess
	if !success {
		status = statusError
	}
	m.healthChecksTotal.WithLabelValues(status).Inc()
}

// InstrumentHandler instruments an HTTP handler with metrics
func (m *Metrics) InstrumentHandler(method, endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		gauge := m.httpRequestsInFlight.WithLabelValues(method, endpoint)
		gauge.Inc()
		defer gauge.Dec()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(rw, r)

		m.RecordHTTPRequest(method, endpoint, rw.statusCode, time.Since(start))
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
