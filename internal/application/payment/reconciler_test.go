package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/travel-commerce-api/internal/application/payment"
	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/memory"
	"github.com/jhoicas/travel-commerce-api/pkg/signature"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

const secret = "whsec_test"

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.BookingEvent
}

func (r *recordingPublisher) Publish(_ context.Context, ev ports.BookingEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingPublisher) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == kind {
			n++
		}
	}
	return n
}

type recordingMetrics struct {
	ports.NopMetrics
	mu        sync.Mutex
	outcomes  []string
	anomalies []string
}

func (m *recordingMetrics) WebhookEvent(_, outcome string) {
	m.mu.Lock()
	m.outcomes = append(m.outcomes, outcome)
	m.mu.Unlock()
}

func (m *recordingMetrics) WebhookAnomaly(kind string) {
	m.mu.Lock()
	m.anomalies = append(m.anomalies, kind)
	m.mu.Unlock()
}

type fixture struct {
	store   *memory.Store
	rec     *payment.Reconciler
	events  *recordingPublisher
	metrics *recordingMetrics
}

var tripStart = time.Date(2026, 12, 20, 6, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	s := memory.NewStore()
	require.NoError(t, s.UnitOfWork().Trips.Create(context.Background(), &entity.Trip{
		ID: "trip-1", Title: "Spiti", Status: entity.TripStatusPublished, Capacity: capacity,
		Price: decimal.NewFromInt(9000), StartDate: tripStart,
	}))
	f := &fixture{store: s, events: &recordingPublisher{}, metrics: &recordingMetrics{}}
	f.rec = payment.NewReconciler(payment.ReconcilerDeps{
		Tx:       s,
		Payments: s.UnitOfWork().Payments,
		Events:   f.events,
		Metrics:  f.metrics,
	}, payment.ReconcilerConfig{Provider: "razorpay", WebhookSecret: secret})
	return f
}

func (f *fixture) addBooking(t *testing.T, id, userID string, status entity.BookingStatus) {
	t.Helper()
	require.NoError(t, f.store.UnitOfWork().Bookings.Create(context.Background(), &entity.Booking{
		ID: id, UserID: userID, TripID: "trip-1", Status: status, Guests: 1,
		TotalPrice: decimal.NewFromInt(9000), StartDate: tripStart,
	}))
}

func (f *fixture) addPayment(t *testing.T, id, bookingID, orderID string) {
	t.Helper()
	require.NoError(t, f.store.UnitOfWork().Payments.Create(context.Background(), &entity.Payment{
		ID: id, BookingID: bookingID, Provider: "razorpay", ProviderOrderID: orderID,
		Amount: decimal.NewFromInt(9000), Currency: "INR", Status: entity.PaymentStatusCreated,
	}))
}

func (f *fixture) payment(t *testing.T, orderID string) *entity.Payment {
	t.Helper()
	p, err := f.store.UnitOfWork().Payments.GetByProviderOrderID(context.Background(), "razorpay", orderID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (f *fixture) bookingStatus(t *testing.T, id string) entity.BookingStatus {
	t.Helper()
	b, err := f.store.UnitOfWork().Bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b.Status
}

func webhookBody(event, orderID string) []byte {
	return []byte(`{"event":"` + event + `","payload":{"payment":{"entity":{"id":"pay_1","order_id":"` + orderID + `","status":"captured"}}}}`)
}

// ──────────────────────────────────────────────────────────────────────────────
// Captura e idempotencia
// ──────────────────────────────────────────────────────────────────────────────

// Captura de una reserva REQUESTED: confirma la reserva; la reentrega idéntica no emite nada.
func TestHandleWebhook_CapturaYReentrega(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")
	sig := signature.Sign(secret, body)
	ctx := context.Background()

	res, err := f.rec.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeApplied, res.Outcome)
	assert.Equal(t, "CAPTURED", res.PaymentStatus)
	assert.Equal(t, "CONFIRMED", res.BookingStatus)
	assert.Equal(t, entity.BookingStatusConfirmed, f.bookingStatus(t, "b1"))

	p := f.payment(t, "order_1")
	assert.Equal(t, entity.PaymentStatusCaptured, p.Status)
	require.NotNil(t, p.ProviderPaymentID)
	assert.Equal(t, "pay_1", *p.ProviderPaymentID)
	assert.JSONEq(t, string(body), string(p.RawPayload))
	auditBefore := len(f.store.AuditEntries())

	res, err = f.rec.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeDuplicate, res.Outcome)
	assert.Empty(t, res.Anomaly)

	assert.Equal(t, 1, f.events.count(ports.EventBookingConfirmed))
	assert.Len(t, f.store.AuditEntries(), auditBefore, "la reentrega no audita")
	assert.Equal(t, []string{ports.OutcomeApplied, ports.OutcomeDuplicate}, f.metrics.outcomes)
}

// Captura de una reserva ya CONFIRMED: solo cambia el pago.
func TestHandleWebhook_CapturaConReservaConfirmada(t *testing.T) {
	f := newFixture(t, 1)
	f.addBooking(t, "b1", "u1", entity.BookingStatusConfirmed)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")

	res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeApplied, res.Outcome)
	assert.Empty(t, res.Anomaly, "no cuenta contra el cupo una reserva ya confirmada")
	assert.Equal(t, entity.PaymentStatusCaptured, f.payment(t, "order_1").Status)
	assert.Equal(t, 1, f.events.count(ports.EventPaymentCaptured))
	assert.Zero(t, f.events.count(ports.EventBookingConfirmed))
}

// Captura sin cupo: pago FAILED con marca overbooked y reserva REJECTED.
func TestHandleWebhook_CapturaSinCupoRechaza(t *testing.T) {
	f := newFixture(t, 1)
	f.addBooking(t, "b0", "u0", entity.BookingStatusConfirmed)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")

	res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeApplied, res.Outcome)
	assert.Equal(t, ports.AnomalyOverbooked, res.Anomaly)
	assert.Equal(t, entity.BookingStatusRejected, f.bookingStatus(t, "b1"))

	p := f.payment(t, "order_1")
	assert.Equal(t, entity.PaymentStatusFailed, p.Status)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(p.RawPayload, &raw))
	assert.Equal(t, true, raw["overbooked"])

	assert.Equal(t, 1, f.events.count(ports.EventBookingRejected))
	assert.Equal(t, []string{ports.AnomalyOverbooked}, f.metrics.anomalies)
}

// Captura de una reserva ya cancelada: el dinero existe, se registra y se señala.
func TestHandleWebhook_CapturaDeReservaTerminal(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusCancelled)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")

	res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
	require.NoError(t, err)
	assert.Equal(t, ports.AnomalyBookingNotConfirmable, res.Anomaly)
	assert.Equal(t, entity.PaymentStatusCaptured, f.payment(t, "order_1").Status)
	assert.Equal(t, entity.BookingStatusCancelled, f.bookingStatus(t, "b1"))
	assert.Empty(t, f.events.events)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fallos y orden de llegada
// ──────────────────────────────────────────────────────────────────────────────

func TestHandleWebhook_PagoFallido(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.failed", "order_1")

	res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeApplied, res.Outcome)
	assert.Equal(t, entity.PaymentStatusFailed, f.payment(t, "order_1").Status)
	assert.Equal(t, entity.BookingStatusRequested, f.bookingStatus(t, "b1"), "la reserva no cambia")
	assert.Equal(t, 1, f.events.count(ports.EventPaymentFailed))
}

// Un failed que llega después de captured no cambia nada y queda señalado.
func TestHandleWebhook_FueraDeOrden(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	ctx := context.Background()

	captured := webhookBody("payment.captured", "order_1")
	_, err := f.rec.HandleWebhook(ctx, captured, signature.Sign(secret, captured))
	require.NoError(t, err)

	failed := webhookBody("payment.failed", "order_1")
	res, err := f.rec.HandleWebhook(ctx, failed, signature.Sign(secret, failed))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeDuplicate, res.Outcome)
	assert.Equal(t, ports.AnomalyOutOfOrder, res.Anomaly)
	assert.Equal(t, entity.PaymentStatusCaptured, f.payment(t, "order_1").Status)
	assert.Equal(t, entity.BookingStatusConfirmed, f.bookingStatus(t, "b1"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Entradas rechazadas o sin efecto
// ──────────────────────────────────────────────────────────────────────────────

// Un solo byte alterado: firma inválida y ninguna lectura de la BD.
func TestHandleWebhook_FirmaInvalidaNoLeeNada(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")
	sig := signature.Sign(secret, body)
	tampered := bytes.Replace(body, []byte(`"pay_1"`), []byte(`"pay_2"`), 1)

	f.store.InjectFault("payments.GetByProviderOrderID", errors.New("no debería leerse"))

	res, err := f.rec.HandleWebhook(context.Background(), tampered, sig)
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Equal(t, 400, domain.AsError(err).Status)
	assert.Equal(t, ports.OutcomeInvalidSignature, res.Outcome)

	f.store.InjectFault("payments.GetByProviderOrderID", nil)
	assert.Equal(t, entity.PaymentStatusCreated, f.payment(t, "order_1").Status)
	assert.Empty(t, f.store.AuditEntries())
	assert.Empty(t, f.events.events)
}

func TestHandleWebhook_SinFirma(t *testing.T) {
	f := newFixture(t, 5)
	_, err := f.rec.HandleWebhook(context.Background(), webhookBody("payment.captured", "order_1"), "")
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestHandleWebhook_OrdenDesconocida(t *testing.T) {
	f := newFixture(t, 5)
	body := webhookBody("payment.captured", "order_missing")

	res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeUnknownReference, res.Outcome)
	assert.Empty(t, f.store.AuditEntries())
}

func TestHandleWebhook_EventoNoSoportado(t *testing.T) {
	f := newFixture(t, 5)
	body := webhookBody("order.paid", "order_1")

	res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeIgnored, res.Outcome)
}

func TestHandleWebhook_CuerpoInvalido(t *testing.T) {
	f := newFixture(t, 5)
	cases := map[string][]byte{
		"json roto":    []byte(`{"event":`),
		"sin evento":   []byte(`{"payload":{}}`),
		"sin order_id": []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			res, err := f.rec.HandleWebhook(context.Background(), body, signature.Sign(secret, body))
			require.ErrorIs(t, err, domain.ErrInvalidPayload)
			assert.Equal(t, ports.OutcomeInvalidPayload, res.Outcome)
		})
	}
}

// Un error de BD se propaga para que el proveedor reintente, y el reintento aplica.
func TestHandleWebhook_ErrorDeBDPermiteReintento(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")
	sig := signature.Sign(secret, body)
	ctx := context.Background()

	f.store.InjectFault("audit.Append", errors.New("disk full"))
	_, err := f.rec.HandleWebhook(ctx, body, sig)
	require.Error(t, err)
	assert.Equal(t, 500, domain.AsError(err).Status)
	assert.Equal(t, entity.PaymentStatusCreated, f.payment(t, "order_1").Status)
	assert.Equal(t, entity.BookingStatusRequested, f.bookingStatus(t, "b1"))
	assert.Empty(t, f.events.events)

	f.store.InjectFault("audit.Append", nil)
	res, err := f.rec.HandleWebhook(ctx, body, sig)
	require.NoError(t, err)
	assert.Equal(t, ports.OutcomeApplied, res.Outcome)
	assert.Equal(t, 1, f.events.count(ports.EventBookingConfirmed))
}

// Entregas concurrentes del mismo evento: se aplica exactamente una.
func TestHandleWebhook_EntregasConcurrentes(t *testing.T) {
	f := newFixture(t, 5)
	f.addBooking(t, "b1", "u1", entity.BookingStatusRequested)
	f.addPayment(t, "p1", "b1", "order_1")
	body := webhookBody("payment.captured", "order_1")
	sig := signature.Sign(secret, body)

	var wg sync.WaitGroup
	var mu sync.Mutex
	applied := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.rec.HandleWebhook(context.Background(), body, sig)
			assert.NoError(t, err)
			if res.Outcome == ports.OutcomeApplied {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, applied)
	assert.Equal(t, 1, f.events.count(ports.EventBookingConfirmed))
}

func signSecret(body []byte) string { return signature.Sign(secret, body) }
