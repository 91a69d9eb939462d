package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	db DB
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(db DB) *TxRunner {
	return &TxRunner{db: db}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewUnitOfWork(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// NewUnitOfWork arma los repositorios sobre q (pool o tx).
func NewUnitOfWork(q Querier) repository.UnitOfWork {
	return repository.UnitOfWork{
		Users:    NewUserRepository(q),
		Roles:    NewRoleRepository(q),
		Trips:    NewTripRepository(q),
		Bookings: NewBookingRepository(q),
		Payments: NewPaymentRepository(q),
		Audit:    NewAuditRepository(q),
	}
}
