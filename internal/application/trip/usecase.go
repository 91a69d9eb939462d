// Package trip implementa el ciclo de vida editorial de los viajes.
package trip

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/lifecycle"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/pkg/ids"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// UseCase transiciones de estado de Trip.
type UseCase struct {
	tx    repository.TxRunner
	trips repository.TripRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewUseCase construye el caso de uso.
func NewUseCase(tx repository.TxRunner, trips repository.TripRepository, log *logger.Logger) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{tx: tx, trips: trips, log: log.Component("trip"), now: time.Now}
}

// Transition aplica action al viaje. El permiso se comprueba antes de cualquier lectura;
// la fila se bloquea y la escritura y su auditoría van en la misma transacción.
func (uc *UseCase) Transition(ctx context.Context, p rbac.Principal, tripID, action string) (*dto.TripResponse, error) {
	a, err := lifecycle.ParseTripAction(action)
	if err != nil {
		return nil, err
	}
	if !p.HasPermission(lifecycle.TripPermission(a)) {
		return nil, domain.ErrForbidden.WithMessage("falta el permiso " + lifecycle.TripPermission(a))
	}

	var out *entity.Trip
	err = uc.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		t, err := uow.Trips.GetForUpdate(ctx, tripID)
		if err != nil {
			return fmt.Errorf("lock trip: %w", err)
		}
		if t == nil {
			return domain.ErrNotFound.WithMessage("viaje no encontrado")
		}
		next, err := lifecycle.NextTripStatus(t.Status, a)
		if err != nil {
			return err
		}
		from := t.Status
		now := uc.now().UTC()
		t.Status = next
		t.UpdatedAt = now
		if a == lifecycle.TripPublish {
			t.PublishedAt = &now
		}
		if err := uow.Trips.UpdateStatus(ctx, t); err != nil {
			return fmt.Errorf("update trip: %w", err)
		}
		if err := uow.Audit.Append(ctx, &entity.AuditEntry{
			ID:         ids.At(now),
			Action:     lifecycle.TripAuditAction(a),
			ActorID:    p.UserID(),
			TargetType: entity.AuditTargetTrip,
			TargetID:   t.ID,
			Metadata:   map[string]any{"from": string(from), "to": string(next)},
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("audit trip transition: %w", err)
		}
		out = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	uc.log.Info().Str("trip_id", out.ID).Str("action", string(a)).Str("status", string(out.Status)).
		Str("actor_id", p.UserID()).Msg("transición de viaje")
	return ToTripResponse(out), nil
}

// Get devuelve el viaje. Los viajes no publicados solo son visibles con algún permiso editorial.
func (uc *UseCase) Get(ctx context.Context, p rbac.Principal, tripID string) (*dto.TripResponse, error) {
	t, err := uc.trips.GetByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("get trip: %w", err)
	}
	if t == nil {
		return nil, domain.ErrNotFound.WithMessage("viaje no encontrado")
	}
	if t.Status != entity.TripStatusPublished && t.CreatedByID != p.UserID() &&
		!p.HasAnyPermission(rbac.PermTripApprove, rbac.PermTripPublish, rbac.PermTripArchive, rbac.PermTripRestore) {
		return nil, domain.ErrNotFound.WithMessage("viaje no encontrado")
	}
	return ToTripResponse(t), nil
}

// ToTripResponse mapea la entidad a su DTO.
func ToTripResponse(t *entity.Trip) *dto.TripResponse {
	if t == nil {
		return nil
	}
	return &dto.TripResponse{
		ID:          t.ID,
		Title:       t.Title,
		Status:      string(t.Status),
		Capacity:    t.Capacity,
		Price:       t.Price,
		StartDate:   t.StartDate,
		CreatedByID: t.CreatedByID,
		PublishedAt: t.PublishedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}
