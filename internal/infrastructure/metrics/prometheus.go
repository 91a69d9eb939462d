// Package metrics expone las métricas de negocio y HTTP en formato Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
)

var _ ports.Metrics = (*Recorder)(nil)

// Recorder agrupa los colectores. Se registran en el Registerer recibido, nunca en el global,
// para que cada test use su propio registro.
type Recorder struct {
	gatherer prometheus.Gatherer

	webhookEvents      *prometheus.CounterVec
	webhookAnomalies   *prometheus.CounterVec
	capacityRejections prometheus.Counter

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New crea y registra los colectores en reg. Con withRuntime también se registran los
// colectores de proceso y del runtime de Go.
func New(reg *prometheus.Registry, withRuntime bool) *Recorder {
	r := &Recorder{
		gatherer: reg,
		webhookEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Webhooks de pago recibidos por evento y resultado.",
		}, []string{"event", "outcome"}),
		webhookAnomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_anomalies_total",
			Help: "Webhooks aplicados o descartados que requieren revisión.",
		}, []string{"kind"}),
		capacityRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "booking_capacity_rejections_total",
			Help: "Aprobaciones rechazadas por falta de cupo.",
		}),
		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_in_flight_requests",
			Help: "Peticiones HTTP en curso.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total de peticiones HTTP.",
		}, []string{"method", "path", "status"}),
		httpRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de las peticiones HTTP en segundos.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}
	reg.MustRegister(
		r.webhookEvents, r.webhookAnomalies, r.capacityRejections,
		r.httpInFlight, r.httpRequestsTotal, r.httpRequestDuration,
	)
	if withRuntime {
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

// CapacityRejected cuenta una aprobación rechazada por cupo.
func (r *Recorder) CapacityRejected() { r.capacityRejections.Inc() }

// WebhookEvent cuenta una entrega de webhook.
func (r *Recorder) WebhookEvent(event, outcome string) {
	if event == "" {
		event = "unknown"
	}
	r.webhookEvents.WithLabelValues(event, outcome).Inc()
}

// WebhookAnomaly cuenta una anomalía de conciliación.
func (r *Recorder) WebhookAnomaly(kind string) { r.webhookAnomalies.WithLabelValues(kind).Inc() }

// RequestStarted marca una petición en curso.
func (r *Recorder) RequestStarted() { r.httpInFlight.Inc() }

// RequestFinished registra una petición terminada. path debe ser la ruta del router
// (":id" sin expandir) para no disparar la cardinalidad.
func (r *Recorder) RequestFinished(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	r.httpRequestDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
	r.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	r.httpInFlight.Dec()
}

// Handler expositor de /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
