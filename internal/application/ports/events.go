package ports

import (
	"context"
	"time"
)

// Tipos de evento de reserva emitidos después del commit.
const (
	EventBookingConfirmed = "booking.confirmed"
	EventBookingRejected  = "booking.rejected"
	EventPaymentCaptured  = "payment.captured"
	EventPaymentFailed    = "payment.failed"
)

// BookingEvent notificación de un cambio ya confirmado en BD.
type BookingEvent struct {
	Type       string
	BookingID  string
	TripID     string
	UserID     string
	PaymentID  string
	OccurredAt time.Time
}

// EventPublisher puerto de salida para notificaciones (correo, colas, etc.).
// Nunca se invoca dentro de una transacción.
type EventPublisher interface {
	Publish(ctx context.Context, ev BookingEvent)
}

// NopPublisher descarta los eventos.
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, BookingEvent) {}
