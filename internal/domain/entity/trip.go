package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TripStatus estado del ciclo de vida de un viaje.
type TripStatus string

// Estados de Trip.
const (
	TripStatusDraft         TripStatus = "DRAFT"
	TripStatusPendingReview TripStatus = "PENDING_REVIEW"
	TripStatusApproved      TripStatus = "APPROVED"
	TripStatusPublished     TripStatus = "PUBLISHED"
	TripStatusArchived      TripStatus = "ARCHIVED"
)

// Trip representa un viaje publicado en el catálogo. Capacity es el número máximo de
// reservas CONFIRMED simultáneas.
type Trip struct {
	ID          string
	Title       string
	Status      TripStatus
	Capacity    int
	Price       decimal.Decimal // precio por persona
	StartDate   time.Time
	CreatedByID string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
