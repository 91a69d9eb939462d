package repository

import "context"

// UnitOfWork agrupa los repositorios atados a una misma transacción.
type UnitOfWork struct {
	Users    UserRepository
	Roles    RoleRepository
	Trips    TripRepository
	Bookings BookingRepository
	Payments PaymentRepository
	Audit    AuditRepository
}

// TxRunner ejecuta fn dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; en otro caso Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(uow UnitOfWork) error) error
}
