// Package booking implementa el motor de reservas con cupo duro por viaje.
package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/lifecycle"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/pkg/ids"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// Config parámetros del motor.
type Config struct {
	// CancellationCutoff antelación mínima respecto a StartDate para que el titular cancele.
	// Cero desactiva el plazo.
	CancellationCutoff time.Duration
}

// Deps colaboradores del caso de uso.
type Deps struct {
	Tx       repository.TxRunner
	Bookings repository.BookingRepository
	Events   ports.EventPublisher
	Metrics  ports.Metrics
	Log      *logger.Logger
	Now      func() time.Time
}

// UseCase ciclo de vida de Booking. Toda lectura de cupo y su escritura ocurren dentro de
// Tx; el orden de bloqueo es siempre reserva y luego viaje.
type UseCase struct {
	tx       repository.TxRunner
	bookings repository.BookingRepository
	events   ports.EventPublisher
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
	cfg      Config
}

// NewUseCase construye el motor.
func NewUseCase(d Deps, cfg Config) *UseCase {
	uc := &UseCase{tx: d.Tx, bookings: d.Bookings, events: d.Events, metrics: d.Metrics, log: d.Log, now: d.Now, cfg: cfg}
	if uc.events == nil {
		uc.events = ports.NopPublisher{}
	}
	if uc.metrics == nil {
		uc.metrics = ports.NopMetrics{}
	}
	if uc.log == nil {
		uc.log = logger.Nop()
	}
	uc.log = uc.log.Component("booking")
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc
}

// Create reserva un viaje PUBLISHED para el usuario del Principal. El precio total es
// precio por persona por número de huéspedes.
func (uc *UseCase) Create(ctx context.Context, p rbac.Principal, in dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	if !p.HasPermission(rbac.PermBookingCreate) {
		return nil, domain.ErrForbidden.WithMessage("falta el permiso " + rbac.PermBookingCreate)
	}
	if in.TripID == "" || in.Guests < 1 {
		return nil, domain.ErrInvalidInput.WithMessage("trip_id y guests (>= 1) son requeridos")
	}

	var out *entity.Booking
	err := uc.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		t, err := uow.Trips.GetByID(ctx, in.TripID)
		if err != nil {
			return fmt.Errorf("get trip: %w", err)
		}
		if t == nil {
			return domain.ErrNotFound.WithMessage("viaje no encontrado")
		}
		if t.Status != entity.TripStatusPublished {
			return domain.ErrInvalidInput.WithMessage("el viaje no está publicado")
		}
		now := uc.now().UTC()
		b := &entity.Booking{
			ID:         uuid.New().String(),
			UserID:     p.UserID(),
			TripID:     t.ID,
			Status:     entity.BookingStatusRequested,
			Guests:     in.Guests,
			TotalPrice: t.Price.Mul(decimal.NewFromInt(int64(in.Guests))),
			StartDate:  t.StartDate,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := uow.Bookings.Create(ctx, b); err != nil {
			return err
		}
		if err := appendAudit(ctx, uow, entity.AuditBookingCreated, p.UserID(), b, now, map[string]any{
			"trip_id": t.ID, "guests": in.Guests, "total_price": b.TotalPrice.String(),
		}); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToBookingResponse(out), nil
}

// Approve confirma una reserva REQUESTED si el viaje tiene cupo. Bajo el bloqueo del viaje
// cuenta las CONFIRMED; si count >= capacity devuelve ErrInsufficientCapacity sin escribir.
// El evento BookingConfirmed se emite solo tras el commit.
func (uc *UseCase) Approve(ctx context.Context, p rbac.Principal, bookingID string) (*dto.BookingResponse, error) {
	if !p.HasPermission(rbac.PermBookingApprove) {
		return nil, domain.ErrForbidden.WithMessage("falta el permiso " + rbac.PermBookingApprove)
	}

	var out *entity.Booking
	err := uc.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		b, err := lockBooking(ctx, uow, bookingID)
		if err != nil {
			return err
		}
		next, err := lifecycle.NextBookingStatus(b.Status, lifecycle.BookingApprove)
		if err != nil {
			return err
		}
		t, confirmed, err := LockTripCapacity(ctx, uow, b.TripID)
		if err != nil {
			return err
		}
		if confirmed >= t.Capacity {
			return domain.ErrInsufficientCapacity.WithMessage(
				fmt.Sprintf("el viaje tiene %d de %d cupos confirmados", confirmed, t.Capacity))
		}
		now := uc.now().UTC()
		b.Status = next
		b.UpdatedAt = now
		if err := uow.Bookings.UpdateStatus(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if err := appendAudit(ctx, uow, lifecycle.BookingAuditAction(lifecycle.BookingApprove), p.UserID(), b, now, map[string]any{
			"trip_id": t.ID, "confirmed": confirmed + 1, "capacity": t.Capacity,
		}); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		if domain.AsError(err).Code == domain.ErrInsufficientCapacity.Code {
			uc.metrics.CapacityRejected()
			uc.log.Warn().Str("booking_id", bookingID).Str("actor_id", p.UserID()).Msg("aprobación rechazada por cupo")
		}
		return nil, err
	}

	uc.events.Publish(ctx, ports.BookingEvent{
		Type: ports.EventBookingConfirmed, BookingID: out.ID, TripID: out.TripID, UserID: out.UserID, OccurredAt: out.UpdatedAt,
	})
	return ToBookingResponse(out), nil
}

// Reject REQUESTED -> REJECTED.
func (uc *UseCase) Reject(ctx context.Context, p rbac.Principal, bookingID string) (*dto.BookingResponse, error) {
	if !p.HasPermission(rbac.PermBookingReject) {
		return nil, domain.ErrForbidden.WithMessage("falta el permiso " + rbac.PermBookingReject)
	}
	out, err := uc.simpleTransition(ctx, p, bookingID, lifecycle.BookingReject, nil)
	if err != nil {
		return nil, err
	}
	uc.events.Publish(ctx, ports.BookingEvent{
		Type: ports.EventBookingRejected, BookingID: out.ID, TripID: out.TripID, UserID: out.UserID, OccurredAt: out.UpdatedAt,
	})
	return ToBookingResponse(out), nil
}

// Cancel CONFIRMED -> CANCELLED. Lo puede hacer quien tenga booking:cancel o el titular;
// el titular además debe estar dentro del plazo de cancelación. Para cualquier otro la
// reserva no existe.
func (uc *UseCase) Cancel(ctx context.Context, p rbac.Principal, bookingID string) (*dto.BookingResponse, error) {
	staff := p.HasPermission(rbac.PermBookingCancel)
	out, err := uc.simpleTransition(ctx, p, bookingID, lifecycle.BookingCancel, func(b *entity.Booking) error {
		if staff {
			return nil
		}
		if b.UserID != p.UserID() {
			return domain.ErrNotFound.WithMessage("reserva no encontrada")
		}
		if b.Status != entity.BookingStatusConfirmed {
			return nil
		}
		return uc.checkDeadline(b)
	})
	if err != nil {
		return nil, err
	}
	return ToBookingResponse(out), nil
}

// Complete CONFIRMED -> COMPLETED.
func (uc *UseCase) Complete(ctx context.Context, p rbac.Principal, bookingID string) (*dto.BookingResponse, error) {
	if !p.HasPermission(rbac.PermBookingComplete) {
		return nil, domain.ErrForbidden.WithMessage("falta el permiso " + rbac.PermBookingComplete)
	}
	out, err := uc.simpleTransition(ctx, p, bookingID, lifecycle.BookingComplete, nil)
	if err != nil {
		return nil, err
	}
	return ToBookingResponse(out), nil
}

// Get devuelve la reserva al titular o a quien tenga booking:read.
func (uc *UseCase) Get(ctx context.Context, p rbac.Principal, bookingID string) (*dto.BookingResponse, error) {
	b, err := uc.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if b == nil || (b.UserID != p.UserID() && !p.HasPermission(rbac.PermBookingRead)) {
		return nil, domain.ErrNotFound.WithMessage("reserva no encontrada")
	}
	return ToBookingResponse(b), nil
}

func (uc *UseCase) checkDeadline(b *entity.Booking) error {
	if uc.cfg.CancellationCutoff <= 0 {
		return nil
	}
	deadline := b.StartDate.Add(-uc.cfg.CancellationCutoff)
	if uc.now().After(deadline) {
		return domain.ErrPastCancellationDeadline.WithMessage(
			"la cancelación se permitía hasta " + deadline.UTC().Format(time.RFC3339))
	}
	return nil
}

// simpleTransition aplica una transición sin interacción con el cupo. guard corre con la
// fila bloqueada, antes de validar la tabla.
func (uc *UseCase) simpleTransition(ctx context.Context, p rbac.Principal, bookingID string, a lifecycle.BookingAction, guard func(*entity.Booking) error) (*entity.Booking, error) {
	var out *entity.Booking
	err := uc.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		b, err := lockBooking(ctx, uow, bookingID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(b); err != nil {
				return err
			}
		}
		next, err := lifecycle.NextBookingStatus(b.Status, a)
		if err != nil {
			return err
		}
		from := b.Status
		now := uc.now().UTC()
		b.Status = next
		b.UpdatedAt = now
		if err := uow.Bookings.UpdateStatus(ctx, b); err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if err := appendAudit(ctx, uow, lifecycle.BookingAuditAction(a), p.UserID(), b, now, map[string]any{
			"from": string(from), "to": string(next),
		}); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("booking_id", out.ID).Str("action", string(a)).Str("actor_id", p.UserID()).Msg("transición de reserva")
	return out, nil
}

func lockBooking(ctx context.Context, uow repository.UnitOfWork, id string) (*entity.Booking, error) {
	b, err := uow.Bookings.GetForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lock booking: %w", err)
	}
	if b == nil {
		return nil, domain.ErrNotFound.WithMessage("reserva no encontrada")
	}
	return b, nil
}

// LockTripCapacity bloquea la fila del viaje y cuenta sus reservas CONFIRMED. Debe llamarse
// dentro de una transacción y después de bloquear la reserva. La usa también el conciliador
// de pagos al confirmar por captura.
func LockTripCapacity(ctx context.Context, uow repository.UnitOfWork, tripID string) (*entity.Trip, int, error) {
	t, err := uow.Trips.GetForUpdate(ctx, tripID)
	if err != nil {
		return nil, 0, fmt.Errorf("lock trip: %w", err)
	}
	if t == nil {
		return nil, 0, domain.ErrNotFound.WithMessage("viaje no encontrado")
	}
	n, err := uow.Bookings.CountConfirmedByTrip(ctx, tripID)
	if err != nil {
		return nil, 0, fmt.Errorf("count confirmed: %w", err)
	}
	return t, n, nil
}

func appendAudit(ctx context.Context, uow repository.UnitOfWork, action, actorID string, b *entity.Booking, now time.Time, meta map[string]any) error {
	if err := uow.Audit.Append(ctx, &entity.AuditEntry{
		ID:         ids.At(now),
		Action:     action,
		ActorID:    actorID,
		TargetType: entity.AuditTargetBooking,
		TargetID:   b.ID,
		Metadata:   meta,
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}

// ToBookingResponse mapea la entidad a su DTO.
func ToBookingResponse(b *entity.Booking) *dto.BookingResponse {
	if b == nil {
		return nil
	}
	return &dto.BookingResponse{
		ID:         b.ID,
		UserID:     b.UserID,
		TripID:     b.TripID,
		Status:     string(b.Status),
		Guests:     b.Guests,
		TotalPrice: b.TotalPrice,
		StartDate:  b.StartDate,
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}
