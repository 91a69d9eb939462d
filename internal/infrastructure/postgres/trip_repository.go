package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var _ repository.TripRepository = (*TripRepo)(nil)

// TripRepo implementación de TripRepository sobre PostgreSQL (usable con pool o tx).
type TripRepo struct {
	q Querier
}

// NewTripRepository construye el adaptador de viajes.
func NewTripRepository(q Querier) *TripRepo {
	return &TripRepo{q: q}
}

const tripColumns = `id, title, status, capacity, price, start_date, created_by_id, published_at, created_at, updated_at`

// Create persiste un viaje.
func (r *TripRepo) Create(ctx context.Context, t *entity.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		t.ID, t.Title, string(t.Status), t.Capacity, t.Price, t.StartDate,
		nullString(t.CreatedByID), t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	)
	return wrapWrite("insert trip", err)
}

// GetByID obtiene un viaje por ID.
func (r *TripRepo) GetByID(ctx context.Context, id string) (*entity.Trip, error) {
	return r.findOne(ctx, "get trip", `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id)
}

// GetForUpdate obtiene el viaje y bloquea la fila (SELECT FOR UPDATE).
func (r *TripRepo) GetForUpdate(ctx context.Context, id string) (*entity.Trip, error) {
	return r.findOne(ctx, "get trip for update", `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id)
}

func (r *TripRepo) findOne(ctx context.Context, op, query, id string) (*entity.Trip, error) {
	var (
		t         entity.Trip
		status    string
		createdBy *string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.Title, &status, &t.Capacity, &t.Price, &t.StartDate,
		&createdBy, &t.PublishedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t.Status = entity.TripStatus(status)
	if createdBy != nil {
		t.CreatedByID = *createdBy
	}
	return &t, nil
}

// UpdateStatus persiste Status, PublishedAt y UpdatedAt.
func (r *TripRepo) UpdateStatus(ctx context.Context, t *entity.Trip) error {
	_, err := r.q.Exec(ctx, `
		UPDATE trips SET status = $2, published_at = $3, updated_at = $4
		WHERE id = $1`, t.ID, string(t.Status), t.PublishedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update trip status: %w", err)
	}
	return nil
}
