package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// IntentConfig datos públicos del checkout.
type IntentConfig struct {
	Currency string
	KeyID    string // clave pública del proveedor, se entrega al cliente
}

// IntentUseCase abre (o reutiliza) el pago CREATED de una reserva.
type IntentUseCase struct {
	bookings repository.BookingRepository
	payments repository.PaymentRepository
	gateway  ports.PaymentGateway
	cfg      IntentConfig
	log      *logger.Logger
	now      func() time.Time
}

// NewIntentUseCase construye el caso de uso.
func NewIntentUseCase(bookings repository.BookingRepository, payments repository.PaymentRepository, gateway ports.PaymentGateway, cfg IntentConfig, log *logger.Logger) *IntentUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &IntentUseCase{bookings: bookings, payments: payments, gateway: gateway, cfg: cfg, log: log.Component("payment_intent"), now: time.Now}
}

// CreateIntent solo para el titular de la reserva. Mientras exista un pago CREATED se
// devuelve ese mismo; una reserva ya pagada o terminal no admite nuevos pagos.
func (uc *IntentUseCase) CreateIntent(ctx context.Context, p rbac.Principal, bookingID string) (*dto.PaymentIntentResponse, error) {
	b, err := uc.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound.WithMessage("reserva no encontrada")
	}
	if b.UserID != p.UserID() {
		return nil, domain.ErrNotFound.WithMessage("reserva no encontrada")
	}
	if b.Status != entity.BookingStatusRequested && b.Status != entity.BookingStatusConfirmed {
		return nil, domain.ErrInvalidStatusTransition.WithMessage("no se puede pagar una reserva en estado " + string(b.Status))
	}
	if !b.TotalPrice.IsPositive() {
		return nil, domain.ErrInvalidInput.WithMessage("el importe de la reserva no es válido")
	}
	paid, err := uc.payments.HasCapturedByBooking(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("check captured: %w", err)
	}
	if paid {
		return nil, domain.ErrInvalidStatusTransition.WithMessage("la reserva ya está pagada")
	}

	if open, err := uc.payments.FindOpenByBooking(ctx, b.ID); err != nil {
		return nil, fmt.Errorf("find open payment: %w", err)
	} else if open != nil {
		return uc.toResponse(open), nil
	}

	paymentID := uuid.New().String()
	order, err := uc.gateway.CreateOrder(ctx, ports.OrderRequest{
		Receipt:   b.ID,
		Reference: paymentID,
		Amount:    b.TotalPrice,
		Currency:  uc.cfg.Currency,
		Notes:     map[string]string{"booking_id": b.ID, "trip_id": b.TripID, "payment_id": paymentID},
	})
	if err != nil {
		uc.log.Error().Err(err).Str("booking_id", b.ID).Str("provider", uc.gateway.Provider()).Msg("no se pudo crear la orden")
		return nil, fmt.Errorf("create order: %w", err)
	}

	now := uc.now().UTC()
	pay := &entity.Payment{
		ID:              paymentID,
		BookingID:       b.ID,
		Provider:        uc.gateway.Provider(),
		ProviderOrderID: order.OrderID,
		Amount:          order.Amount,
		Currency:        order.Currency,
		Status:          entity.PaymentStatusCreated,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.payments.Create(ctx, pay); err != nil {
		if errors.Is(err, domain.ErrDuplicateEntry) {
			// Otra petición concurrente abrió el pago primero.
			open, ferr := uc.payments.FindOpenByBooking(ctx, b.ID)
			if ferr == nil && open != nil {
				return uc.toResponse(open), nil
			}
		}
		return nil, err
	}
	uc.log.Info().Str("booking_id", b.ID).Str("order_id", order.OrderID).Str("mode", uc.gateway.Mode()).Msg("intención de pago creada")
	return uc.toResponse(pay), nil
}

func (uc *IntentUseCase) toResponse(p *entity.Payment) *dto.PaymentIntentResponse {
	return &dto.PaymentIntentResponse{
		PaymentID: p.ID,
		BookingID: p.BookingID,
		Provider:  p.Provider,
		Mode:      uc.gateway.Mode(),
		OrderID:   p.ProviderOrderID,
		Amount:    p.Amount,
		Currency:  p.Currency,
		KeyID:     uc.cfg.KeyID,
	}
}
