package entity

import "time"

// Acciones registradas en la bitácora de auditoría.
const (
	AuditRoleAssigned     = "ROLE_ASSIGNED"
	AuditRoleRevoked      = "ROLE_REVOKED"
	AuditBookingCreated   = "BOOKING_CREATED"
	AuditBookingConfirmed = "BOOKING_CONFIRMED"
	AuditBookingRejected  = "BOOKING_REJECTED"
	AuditBookingCancelled = "BOOKING_CANCELLED"
	AuditBookingCompleted = "BOOKING_COMPLETED"
	AuditPaymentCaptured  = "PAYMENT_CAPTURED"
	AuditPaymentFailed    = "PAYMENT_FAILED"
	AuditUserRegistered   = "USER_REGISTERED"
)

// Tipos de recurso auditado.
const (
	AuditTargetUser    = "USER"
	AuditTargetTrip    = "TRIP"
	AuditTargetBooking = "BOOKING"
	AuditTargetPayment = "PAYMENT"
)

// AuditEntry es un registro append-only de una mutación privilegiada.
// ActorID vacío indica un actor de sistema (ej. webhook del proveedor).
type AuditEntry struct {
	ID         string
	Action     string
	ActorID    string
	TargetType string
	TargetID   string
	Metadata   map[string]any
	CreatedAt  time.Time
}
