package repository

import (
	"context"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// PaymentRepository puerto de persistencia para Payment.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByProviderOrderID(ctx context.Context, provider, orderID string) (*entity.Payment, error)
	// GetByProviderOrderIDForUpdate bloquea la fila del pago (SELECT FOR UPDATE).
	GetByProviderOrderIDForUpdate(ctx context.Context, provider, orderID string) (*entity.Payment, error)
	// FindOpenByBooking devuelve el pago CREATED de la reserva, si existe.
	FindOpenByBooking(ctx context.Context, bookingID string) (*entity.Payment, error)
	HasCapturedByBooking(ctx context.Context, bookingID string) (bool, error)
	// UpdateResult persiste Status, ProviderPaymentID, RawPayload y UpdatedAt.
	UpdateResult(ctx context.Context, payment *entity.Payment) error
}
