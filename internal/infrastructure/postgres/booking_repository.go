package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var _ repository.BookingRepository = (*BookingRepo)(nil)

// BookingRepo implementación de BookingRepository sobre PostgreSQL (usable con pool o tx).
type BookingRepo struct {
	q Querier
}

// NewBookingRepository construye el adaptador de reservas.
func NewBookingRepository(q Querier) *BookingRepo {
	return &BookingRepo{q: q}
}

const bookingColumns = `id, user_id, trip_id, status, guests, total_price, start_date, created_at, updated_at`

// Create persiste la reserva. El índice parcial bookings_one_active_per_user_trip rechaza
// una segunda reserva activa del mismo usuario en el viaje.
func (r *BookingRepo) Create(ctx context.Context, b *entity.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		b.ID, b.UserID, b.TripID, string(b.Status), b.Guests, b.TotalPrice, b.StartDate, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateEntry.WithMessage("ya tienes una reserva activa para este viaje")
	}
	return wrapWrite("insert booking", err)
}

// GetByID obtiene una reserva por ID.
func (r *BookingRepo) GetByID(ctx context.Context, id string) (*entity.Booking, error) {
	return r.findOne(ctx, "get booking", `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate obtiene la reserva y bloquea la fila.
func (r *BookingRepo) GetForUpdate(ctx context.Context, id string) (*entity.Booking, error) {
	return r.findOne(ctx, "get booking for update", `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

func (r *BookingRepo) findOne(ctx context.Context, op, query, id string) (*entity.Booking, error) {
	var (
		b      entity.Booking
		status string
	)
	err := r.q.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.UserID, &b.TripID, &status, &b.Guests, &b.TotalPrice, &b.StartDate, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	b.Status = entity.BookingStatus(status)
	return &b, nil
}

// CountConfirmedByTrip cuenta las reservas CONFIRMED del viaje. Llamar con la fila del
// viaje bloqueada para que el conteo sea estable hasta el commit.
func (r *BookingRepo) CountConfirmedByTrip(ctx context.Context, tripID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE trip_id = $1 AND status = $2`,
		tripID, string(entity.BookingStatusConfirmed)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed bookings: %w", err)
	}
	return n, nil
}

// UpdateStatus persiste Status y UpdatedAt.
func (r *BookingRepo) UpdateStatus(ctx context.Context, b *entity.Booking) error {
	_, err := r.q.Exec(ctx, `UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		b.ID, string(b.Status), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	return nil
}
