package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus estado de un pago con el proveedor.
type PaymentStatus string

// Estados de Payment. CAPTURED y FAILED son terminales e inmutables.
const (
	PaymentStatusCreated  PaymentStatus = "CREATED"
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// IsTerminal informa si el pago ya fue resuelto por el proveedor.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCaptured || s == PaymentStatusFailed
}

// Payment registra una transacción del proveedor ligada a una reserva. Una reserva puede
// acumular varios pagos por reintentos, pero solo uno puede estar en CREATED.
type Payment struct {
	ID                string
	BookingID         string
	Provider          string
	ProviderOrderID   string  // único por proveedor
	ProviderPaymentID *string // nil hasta que el proveedor lo informa
	Amount            decimal.Decimal
	Currency          string
	Status            PaymentStatus
	RawPayload        []byte // último evento aplicado (JSON)
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
