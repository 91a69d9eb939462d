package ports

// Resultados de un webhook para métricas y respuesta.
const (
	OutcomeApplied          = "applied"
	OutcomeDuplicate        = "duplicate"
	OutcomeUnknownReference = "unknown_reference"
	OutcomeIgnored          = "ignored"
	OutcomeInvalidSignature = "invalid_signature"
	OutcomeInvalidPayload   = "invalid_payload"
)

// Tipos de anomalía en webhooks.
const (
	AnomalyOutOfOrder            = "out_of_order"
	AnomalyBookingNotConfirmable = "booking_not_confirmable"
	AnomalyOverbooked            = "overbooked"
)

// Metrics puerto de métricas de negocio del motor de reservas y pagos.
type Metrics interface {
	CapacityRejected()
	WebhookEvent(event, outcome string)
	WebhookAnomaly(kind string)
}

// NopMetrics implementación vacía.
type NopMetrics struct{}

func (NopMetrics) CapacityRejected()           {}
func (NopMetrics) WebhookEvent(string, string) {}
func (NopMetrics) WebhookAnomaly(string)       {}
