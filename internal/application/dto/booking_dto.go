package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateBookingRequest entrada para reservar un viaje publicado.
type CreateBookingRequest struct {
	TripID string `json:"trip_id" validate:"required"`
	Guests int    `json:"guests" validate:"required,min=1"`
}

// BookingResponse salida de una reserva.
type BookingResponse struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	TripID     string          `json:"trip_id"`
	Status     string          `json:"status"`
	Guests     int             `json:"guests"`
	TotalPrice decimal.Decimal `json:"total_price"`
	StartDate  time.Time       `json:"start_date"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
