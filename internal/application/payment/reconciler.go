// Package payment crea intenciones de pago y concilia los webhooks del proveedor.
package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/application/booking"
	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/lifecycle"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/pkg/ids"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
	"github.com/jhoicas/travel-commerce-api/pkg/signature"
)

// ReconcilerConfig proveedor atendido y secreto compartido de webhooks.
type ReconcilerConfig struct {
	Provider      string
	WebhookSecret string
}

// ReconcilerDeps colaboradores del conciliador. Todo se inyecta; no hay clientes globales.
type ReconcilerDeps struct {
	Tx       repository.TxRunner
	Payments repository.PaymentRepository
	Events   ports.EventPublisher
	Metrics  ports.Metrics
	Log      *logger.Logger
	Now      func() time.Time
}

// WebhookResult describe qué hizo el conciliador con una entrega.
type WebhookResult struct {
	Outcome       string
	Event         string
	OrderID       string
	PaymentID     string
	BookingID     string
	PaymentStatus string
	BookingStatus string
	Anomaly       string
}

// Reconciler aplica a lo sumo una vez cada evento terminal por orden del proveedor.
type Reconciler struct {
	cfg      ReconcilerConfig
	tx       repository.TxRunner
	payments repository.PaymentRepository
	events   ports.EventPublisher
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// NewReconciler construye el conciliador.
func NewReconciler(d ReconcilerDeps, cfg ReconcilerConfig) *Reconciler {
	r := &Reconciler{cfg: cfg, tx: d.Tx, payments: d.Payments, events: d.Events, metrics: d.Metrics, log: d.Log, now: d.Now}
	if r.events == nil {
		r.events = ports.NopPublisher{}
	}
	if r.metrics == nil {
		r.metrics = ports.NopMetrics{}
	}
	if r.log == nil {
		r.log = logger.Nop()
	}
	r.log = r.log.Component("webhook")
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Provider nombre del proveedor atendido.
func (r *Reconciler) Provider() string { return r.cfg.Provider }

type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Status           string `json:"status"`
				ErrorCode        string `json:"error_code"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// HandleWebhook verifica la firma sobre los bytes exactos de rawBody y aplica el evento.
// Firma inválida: ErrInvalidSignature sin ninguna lectura ni escritura. Cuerpo ilegible:
// ErrInvalidPayload. Orden desconocida, pago ya terminal y eventos no soportados son éxito
// sin efecto. Un error de BD se devuelve tal cual para que el proveedor reintente.
func (r *Reconciler) HandleWebhook(ctx context.Context, rawBody []byte, sig string) (WebhookResult, error) {
	if !signature.Verify(r.cfg.WebhookSecret, rawBody, sig) {
		r.metrics.WebhookEvent("unknown", ports.OutcomeInvalidSignature)
		r.log.Warn().Str("security", "webhook_signature").Str("provider", r.cfg.Provider).
			Int("body_bytes", len(rawBody)).Bool("signature_present", sig != "").
			Msg("firma de webhook inválida")
		return WebhookResult{Outcome: ports.OutcomeInvalidSignature}, domain.ErrInvalidSignature
	}

	var env webhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil || env.Event == "" {
		r.metrics.WebhookEvent("unknown", ports.OutcomeInvalidPayload)
		return WebhookResult{Outcome: ports.OutcomeInvalidPayload}, domain.ErrInvalidPayload
	}
	res := WebhookResult{Event: env.Event, OrderID: env.Payload.Payment.Entity.OrderID}

	target, supported := lifecycle.PaymentStatusForEvent(env.Event)
	if !supported {
		res.Outcome = ports.OutcomeIgnored
		r.metrics.WebhookEvent(env.Event, res.Outcome)
		r.log.Debug().Str("event", env.Event).Msg("evento de webhook ignorado")
		return res, nil
	}
	if res.OrderID == "" {
		r.metrics.WebhookEvent(env.Event, ports.OutcomeInvalidPayload)
		return WebhookResult{Outcome: ports.OutcomeInvalidPayload, Event: env.Event},
			domain.ErrInvalidPayload.WithMessage("payload.payment.entity.order_id es requerido")
	}

	// Lectura sin bloqueo para descartar rápido desconocidos y reentregas.
	existing, err := r.payments.GetByProviderOrderID(ctx, r.cfg.Provider, res.OrderID)
	if err != nil {
		return res, fmt.Errorf("lookup payment: %w", err)
	}
	if existing == nil {
		return r.finish(ctx, res, ports.OutcomeUnknownReference, nil), nil
	}
	if existing.Status.IsTerminal() {
		return r.finish(ctx, r.duplicate(res, existing, target), ports.OutcomeDuplicate, nil), nil
	}

	var evs []ports.BookingEvent
	err = r.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		evs = nil
		p, err := uow.Payments.GetByProviderOrderIDForUpdate(ctx, r.cfg.Provider, res.OrderID)
		if err != nil {
			return fmt.Errorf("lock payment: %w", err)
		}
		if p == nil {
			res.Outcome = ports.OutcomeUnknownReference
			return nil
		}
		if p.Status.IsTerminal() {
			res = r.duplicate(res, p, target)
			res.Outcome = ports.OutcomeDuplicate
			return nil
		}
		res.Outcome = ports.OutcomeApplied
		res.PaymentID, res.BookingID = p.ID, p.BookingID

		now := r.now().UTC()
		providerPaymentID := env.Payload.Payment.Entity.ID
		if providerPaymentID != "" {
			p.ProviderPaymentID = &providerPaymentID
		}
		p.RawPayload = rawBody
		p.UpdatedAt = now

		if target == entity.PaymentStatusFailed {
			if err := r.writePayment(ctx, uow, p, entity.PaymentStatusFailed, now, map[string]any{
				"error_code": env.Payload.Payment.Entity.ErrorCode,
			}); err != nil {
				return err
			}
			res.PaymentStatus = string(p.Status)
			evs = append(evs, ports.BookingEvent{Type: ports.EventPaymentFailed, BookingID: p.BookingID, PaymentID: p.ID, OccurredAt: now})
			return nil
		}

		b, err := uow.Bookings.GetForUpdate(ctx, p.BookingID)
		if err != nil {
			return fmt.Errorf("lock booking: %w", err)
		}
		if b == nil || b.Status.IsTerminal() {
			res.Anomaly = ports.AnomalyBookingNotConfirmable
			if b != nil {
				res.BookingStatus = string(b.Status)
			}
			if err := r.writePayment(ctx, uow, p, entity.PaymentStatusCaptured, now, nil); err != nil {
				return err
			}
			res.PaymentStatus = string(p.Status)
			return nil
		}
		res.BookingStatus = string(b.Status)
		if b.Status == entity.BookingStatusConfirmed {
			if err := r.writePayment(ctx, uow, p, entity.PaymentStatusCaptured, now, nil); err != nil {
				return err
			}
			res.PaymentStatus = string(p.Status)
			evs = append(evs, ports.BookingEvent{Type: ports.EventPaymentCaptured, BookingID: b.ID, TripID: b.TripID, UserID: b.UserID, PaymentID: p.ID, OccurredAt: now})
			return nil
		}

		// REQUESTED: la captura confirma, sujeta al mismo cupo que Approve.
		t, confirmed, err := booking.LockTripCapacity(ctx, uow, b.TripID)
		if err != nil {
			return err
		}
		overbooked := confirmed >= t.Capacity
		paymentStatus, action, next := entity.PaymentStatusCaptured, lifecycle.BookingApprove, entity.BookingStatusConfirmed
		if overbooked {
			paymentStatus, action, next = entity.PaymentStatusFailed, lifecycle.BookingReject, entity.BookingStatusRejected
			res.Anomaly = ports.AnomalyOverbooked
			p.RawPayload, err = withOverbookedFlag(rawBody)
			if err != nil {
				return err
			}
		}
		if err := r.writePayment(ctx, uow, p, paymentStatus, now, map[string]any{"overbooked": overbooked}); err != nil {
			return err
		}
		if _, err := lifecycle.NextBookingStatus(b.Status, action); err != nil {
			return err
		}
		b.Status = next
		b.UpdatedAt = now
		if err := uow.Bookings.UpdateStatus(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if err := appendAudit(ctx, uow, lifecycle.BookingAuditAction(action), entity.AuditTargetBooking, b.ID, now, map[string]any{
			"payment_id": p.ID, "provider_order_id": p.ProviderOrderID, "confirmed": confirmed, "capacity": t.Capacity,
		}); err != nil {
			return err
		}
		res.PaymentStatus, res.BookingStatus = string(p.Status), string(b.Status)

		kind := ports.EventBookingConfirmed
		if overbooked {
			kind = ports.EventBookingRejected
		}
		evs = append(evs, ports.BookingEvent{Type: kind, BookingID: b.ID, TripID: b.TripID, UserID: b.UserID, PaymentID: p.ID, OccurredAt: now})
		return nil
	})
	if err != nil {
		r.log.Error().Err(err).Str("event", env.Event).Str("order_id", res.OrderID).Msg("error aplicando webhook")
		return res, err
	}
	return r.finish(ctx, res, res.Outcome, evs), nil
}

// duplicate completa el resultado para un pago ya terminal y marca como anomalía un evento
// terminal distinto del registrado (llegada fuera de orden).
func (r *Reconciler) duplicate(res WebhookResult, p *entity.Payment, target entity.PaymentStatus) WebhookResult {
	res.PaymentID, res.BookingID, res.PaymentStatus = p.ID, p.BookingID, string(p.Status)
	if p.Status != target {
		res.Anomaly = ports.AnomalyOutOfOrder
	}
	return res
}

// finish registra métricas y logs y publica los eventos. Solo se llama tras el commit.
func (r *Reconciler) finish(ctx context.Context, res WebhookResult, outcome string, evs []ports.BookingEvent) WebhookResult {
	res.Outcome = outcome
	r.metrics.WebhookEvent(res.Event, outcome)
	switch outcome {
	case ports.OutcomeDuplicate:
		r.log.Info().Str("event", res.Event).Str("order_id", res.OrderID).Str("payment_id", res.PaymentID).
			Str("status", res.PaymentStatus).Msg("webhook reentregado, sin cambios")
	case ports.OutcomeUnknownReference:
		r.log.Warn().Str("event", res.Event).Str("order_id", res.OrderID).Msg("webhook para orden desconocida")
	case ports.OutcomeApplied:
		r.log.Info().Str("event", res.Event).Str("order_id", res.OrderID).Str("payment_status", res.PaymentStatus).
			Str("booking_status", res.BookingStatus).Msg("webhook aplicado")
	}
	if res.Anomaly != "" {
		r.metrics.WebhookAnomaly(res.Anomaly)
		r.log.Warn().Str("kind", res.Anomaly).Str("event", res.Event).Str("order_id", res.OrderID).
			Str("payment_status", res.PaymentStatus).Str("booking_status", res.BookingStatus).Msg("webhook anomaly")
	}
	for _, ev := range evs {
		r.events.Publish(ctx, ev)
	}
	return res
}

func (r *Reconciler) writePayment(ctx context.Context, uow repository.UnitOfWork, p *entity.Payment, target entity.PaymentStatus, now time.Time, meta map[string]any) error {
	next, err := lifecycle.NextPaymentStatus(p.Status, target)
	if err != nil {
		return err
	}
	p.Status = next
	if err := uow.Payments.UpdateResult(ctx, p); err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	action := entity.AuditPaymentCaptured
	if next == entity.PaymentStatusFailed {
		action = entity.AuditPaymentFailed
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["provider"] = p.Provider
	meta["provider_order_id"] = p.ProviderOrderID
	return appendAudit(ctx, uow, action, entity.AuditTargetPayment, p.ID, now, meta)
}

func appendAudit(ctx context.Context, uow repository.UnitOfWork, action, targetType, targetID string, now time.Time, meta map[string]any) error {
	if err := uow.Audit.Append(ctx, &entity.AuditEntry{
		ID:         ids.At(now),
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   meta,
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

func withOverbookedFlag(raw []byte) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	doc["overbooked"] = true
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return out, nil
}
