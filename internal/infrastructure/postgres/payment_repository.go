package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

// PaymentRepo implementación de PaymentRepository sobre PostgreSQL (usable con pool o tx).
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador de pagos.
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

const paymentColumns = `id, booking_id, provider, provider_order_id, provider_payment_id, amount, currency, status, raw_payload, created_at, updated_at`

// Create persiste el pago. Falla con ErrDuplicateEntry si la orden ya existe o la reserva
// ya tiene un pago CREATED.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.BookingID, p.Provider, p.ProviderOrderID, p.ProviderPaymentID, p.Amount, p.Currency,
		string(p.Status), jsonOrNil(p.RawPayload), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateEntry.WithMessage("la reserva ya tiene un pago abierto")
	}
	return wrapWrite("insert payment", err)
}

// GetByProviderOrderID lectura sin bloqueo por (proveedor, orden).
func (r *PaymentRepo) GetByProviderOrderID(ctx context.Context, provider, orderID string) (*entity.Payment, error) {
	return r.findOne(ctx, "get payment by order",
		`SELECT `+paymentColumns+` FROM payments WHERE provider = $1 AND provider_order_id = $2`, provider, orderID)
}

// GetByProviderOrderIDForUpdate como GetByProviderOrderID pero bloquea la fila.
func (r *PaymentRepo) GetByProviderOrderIDForUpdate(ctx context.Context, provider, orderID string) (*entity.Payment, error) {
	return r.findOne(ctx, "get payment by order for update",
		`SELECT `+paymentColumns+` FROM payments WHERE provider = $1 AND provider_order_id = $2 FOR UPDATE`, provider, orderID)
}

// FindOpenByBooking devuelve el pago CREATED de la reserva, si existe.
func (r *PaymentRepo) FindOpenByBooking(ctx context.Context, bookingID string) (*entity.Payment, error) {
	return r.findOne(ctx, "find open payment",
		`SELECT `+paymentColumns+` FROM payments WHERE booking_id = $1 AND status = $2 LIMIT 1`,
		bookingID, string(entity.PaymentStatusCreated))
}

// HasCapturedByBooking informa si la reserva tiene algún pago CAPTURED.
func (r *PaymentRepo) HasCapturedByBooking(ctx context.Context, bookingID string) (bool, error) {
	var ok bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE booking_id = $1 AND status = $2)`,
		bookingID, string(entity.PaymentStatusCaptured)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("has captured payment: %w", err)
	}
	return ok, nil
}

func (r *PaymentRepo) findOne(ctx context.Context, op, query string, args ...any) (*entity.Payment, error) {
	var (
		p      entity.Payment
		status string
	)
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&p.ID, &p.BookingID, &p.Provider, &p.ProviderOrderID, &p.ProviderPaymentID, &p.Amount, &p.Currency,
		&status, &p.RawPayload, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	p.Status = entity.PaymentStatus(status)
	return &p, nil
}

// UpdateResult persiste Status, ProviderPaymentID, RawPayload y UpdatedAt.
func (r *PaymentRepo) UpdateResult(ctx context.Context, p *entity.Payment) error {
	_, err := r.q.Exec(ctx, `
		UPDATE payments SET status = $2, provider_payment_id = $3, raw_payload = $4, updated_at = $5
		WHERE id = $1`, p.ID, string(p.Status), p.ProviderPaymentID, jsonOrNil(p.RawPayload), p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	return nil
}

// jsonOrNil envía NULL en lugar de un JSONB vacío.
func jsonOrNil(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
