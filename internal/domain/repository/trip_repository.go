package repository

import (
	"context"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// TripRepository puerto de persistencia para Trip.
type TripRepository interface {
	Create(ctx context.Context, trip *entity.Trip) error
	GetByID(ctx context.Context, id string) (*entity.Trip, error)
	// GetForUpdate bloquea la fila del viaje (SELECT FOR UPDATE). Es el token de exclusión
	// mutua por viaje para el cupo.
	GetForUpdate(ctx context.Context, id string) (*entity.Trip, error)
	// UpdateStatus persiste Status, PublishedAt y UpdatedAt.
	UpdateStatus(ctx context.Context, trip *entity.Trip) error
}
