package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripResponse salida de un viaje.
type TripResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Status      string          `json:"status"`
	Capacity    int             `json:"capacity"`
	Price       decimal.Decimal `json:"price"`
	StartDate   time.Time       `json:"start_date"`
	CreatedByID string          `json:"created_by_id"`
	PublishedAt *time.Time      `json:"published_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
