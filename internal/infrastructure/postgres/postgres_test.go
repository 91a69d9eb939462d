package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/internal/infrastructure/postgres"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

// ──────────────────────────────────────────────────────────────────────────────
// TxRunner
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_CommitCuandoFnTermina(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT count\(\*\) FROM bookings WHERE trip_id = \$1 AND status = \$2`).
		WithArgs("trip-1", "CONFIRMED").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectCommit()

	var got int
	err := postgres.NewTxRunner(mock).Run(context.Background(), func(uow repository.UnitOfWork) error {
		n, err := uow.Bookings.CountConfirmedByTrip(context.Background(), "trip-1")
		got = n
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_RollbackCuandoFnFalla(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := postgres.NewTxRunner(mock).Run(context.Background(), func(repository.UnitOfWork) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxRunner_ErrorEnBegin(t *testing.T) {
	mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

	err := postgres.NewTxRunner(mock).Run(context.Background(), func(repository.UnitOfWork) error {
		t.Fatal("fn no debe ejecutarse")
		return nil
	})
	assert.ErrorContains(t, err, "begin transaction")
}

// ──────────────────────────────────────────────────────────────────────────────
// Repositorios
// ──────────────────────────────────────────────────────────────────────────────

func TestBookingRepo_CreateDuplicadoActivo(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO bookings`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "bookings_one_active_per_user_trip"})

	err := postgres.NewBookingRepository(mock).Create(context.Background(), &entity.Booking{
		ID: "b1", UserID: "u1", TripID: "t1", Status: entity.BookingStatusRequested, Guests: 1,
		TotalPrice: decimal.NewFromInt(10), StartDate: time.Now(),
	})
	assert.ErrorIs(t, err, domain.ErrDuplicateEntry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRepo_GetForUpdateBloqueaYNoEncontrado(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT .+ FROM trips WHERE id = \$1 FOR UPDATE`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	trip, err := postgres.NewTripRepository(mock).GetForUpdate(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, trip)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepo_AsignacionIdempotente(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectExec(`INSERT INTO user_roles .+ ON CONFLICT \(user_id, role_id\) DO NOTHING`).
		WithArgs("u1", "r1", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO user_roles`).
		WithArgs("u1", "r1", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(`DELETE FROM user_roles WHERE user_id = \$1 AND role_id = \$2`).
		WithArgs("u1", "r1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := postgres.NewRoleRepository(mock)
	a := &entity.RoleAssignment{UserID: "u1", RoleID: "r1", CreatedAt: now}

	created, err := repo.CreateAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateAssignment(context.Background(), a)
	require.NoError(t, err)
	assert.False(t, created)

	deleted, err := repo.DeleteAssignment(context.Background(), "u1", "r1")
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoleRepo_PermisosDelUsuario(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT DISTINCT p.key FROM user_roles`).
		WithArgs("u1").
		WillReturnRows(pgxmock.NewRows([]string{"key"}).AddRow("booking:create").AddRow("trip:submit"))

	keys, err := postgres.NewRoleRepository(mock).PermissionKeysByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"booking:create", "trip:submit"}, keys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepo_HasCaptured(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM payments WHERE booking_id = \$1 AND status = \$2\)`).
		WithArgs("b1", "CAPTURED").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := postgres.NewPaymentRepository(mock).HasCapturedByBooking(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepo_ActorDeSistemaEsNull(t *testing.T) {
	mock := newMock(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO audit_log`).
		WithArgs("01J000", "PAYMENT_CAPTURED", (*string)(nil), "PAYMENT", "p1", `{"provider":"razorpay"}`, at).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := postgres.NewAuditRepository(mock).Append(context.Background(), &entity.AuditEntry{
		ID: "01J000", Action: entity.AuditPaymentCaptured, TargetType: entity.AuditTargetPayment, TargetID: "p1",
		Metadata: map[string]any{"provider": "razorpay"}, CreatedAt: at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteErrorsSeEnvuelven(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`UPDATE bookings SET status`).
		WithArgs("b1", "CONFIRMED", pgxmock.AnyArg()).
		WillReturnError(errors.New("connection reset"))

	err := postgres.NewBookingRepository(mock).UpdateStatus(context.Background(), &entity.Booking{
		ID: "b1", Status: entity.BookingStatusConfirmed, UpdatedAt: time.Now(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update booking status")
	assert.Equal(t, 500, domain.AsError(err).Status)
}

// ──────────────────────────────────────────────────────────────────────────────
// Migraciones
// ──────────────────────────────────────────────────────────────────────────────

func TestMigrator_AplicaSoloPendientes(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT name FROM schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"name"}))
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS users`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs("0001_commerce.up.sql").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	applied, err := postgres.NewMigrator(mock).Up(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_commerce.up.sql"}, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrator_NadaPendiente(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery(`SELECT name FROM schema_migrations`).
		WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("0001_commerce.up.sql"))

	applied, err := postgres.NewMigrator(mock).Up(context.Background())
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}
