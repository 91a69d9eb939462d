package repository

import (
	"context"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// BookingRepository puerto de persistencia para Booking.
// Usado dentro de transacciones para garantizar el invariante de cupo.
type BookingRepository interface {
	// Create devuelve domain.ErrDuplicateEntry si el usuario ya tiene una reserva activa en el viaje.
	Create(ctx context.Context, booking *entity.Booking) error
	GetByID(ctx context.Context, id string) (*entity.Booking, error)
	// GetForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Booking, error)
	CountConfirmedByTrip(ctx context.Context, tripID string) (int, error)
	// UpdateStatus persiste Status y UpdatedAt.
	UpdateStatus(ctx context.Context, booking *entity.Booking) error
}
