package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus estado del ciclo de vida de una reserva.
type BookingStatus string

// Estados de Booking. CANCELLED, REJECTED y COMPLETED son terminales.
const (
	BookingStatusRequested BookingStatus = "REQUESTED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusRejected  BookingStatus = "REJECTED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// IsTerminal informa si el estado no admite más transiciones.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusCancelled || s == BookingStatusCompleted
}

// Booking es la reserva de un usuario sobre un viaje.
type Booking struct {
	ID         string
	UserID     string
	TripID     string
	Status     BookingStatus
	Guests     int
	TotalPrice decimal.Decimal
	StartDate  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
