// Package metrics exposes Prometheus collectors for the HTTP layer and the
// inventory ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	transfers       *prometheus.CounterVec
	transferredQty  prometheus.Counter
	importRows      *prometheus.CounterVec
	complaints      *prometheus.CounterVec
	notifications   *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labstock",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "labstock",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		transfers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labstock",
			Name:      "transfers_total",
			Help:      "Transfer attempts by outcome.",
		}, []string{"outcome"}),
		transferredQty: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "labstock",
			Name:      "transferred_units_total",
			Help:      "Working units moved between labs.",
		}),
		importRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labstock",
			Name:      "import_rows_total",
			Help:      "Bulk import rows by kind and result.",
		}, []string{"kind", "result"}),
		complaints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labstock",
			Name:      "complaints_total",
			Help:      "Complaints created by severity.",
		}, []string{"severity"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "labstock",
			Name:      "notifications_total",
			Help:      "Notifications by kind and delivery result.",
		}, []string{"kind", "result"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.transfers, m.transferredQty,
		m.importRows, m.complaints, m.notifications,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// Transfer records a transfer attempt. qty only counts on success.
func (m *Metrics) Transfer(outcome string, qty int) {
	if m == nil {
		return
	}
	m.transfers.WithLabelValues(outcome).Inc()
	if outcome == "ok" {
		m.transferredQty.Add(float64(qty))
	}
}

// ImportRows records bulk import results for kind (items or maintenance).
func (m *Metrics) ImportRows(kind string, created, updated, failed int) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(kind, "created").Add(float64(created))
	m.importRows.WithLabelValues(kind, "updated").Add(float64(updated))
	m.importRows.WithLabelValues(kind, "failed").Add(float64(failed))
}

// Complaint records a created complaint.
func (m *Metrics) Complaint(severity string) {
	if m == nil {
		return
	}
	m.complaints.WithLabelValues(severity).Inc()
}

// Notification records a finished notification send. err is the send
// result.
func (m *Metrics) Notification(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(kind, result).Inc()
}
