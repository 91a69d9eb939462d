// Package memory implementa los puertos de persistencia en memoria. Sirve a los tests de
// aplicación y a ejecuciones locales sin PostgreSQL.
//
// Las transacciones imitan a PostgreSQL en lo que importa al motor: GetForUpdate toma un
// bloqueo por fila que se mantiene hasta el fin de la transacción, y un error en fn deshace
// las escrituras. Las escrituras se aplican en el acto, así que otra transacción que no
// bloquee la misma fila puede leerlas antes del commit.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

type assignmentKey struct{ userID, roleID string }

// Store base de datos en memoria.
type Store struct {
	mu          sync.RWMutex
	users       map[string]entity.User
	roles       map[string]entity.Role
	perms       map[string]entity.Permission
	rolePerms   map[string]map[string]struct{}
	assignments map[assignmentKey]entity.RoleAssignment
	trips       map[string]entity.Trip
	bookings    map[string]entity.Booking
	payments    map[string]entity.Payment
	audit       []entity.AuditEntry
	faults      map[string]error

	locks sync.Map // clave de fila -> *sync.Mutex
}

// NewStore crea un Store vacío.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]entity.User),
		roles:       make(map[string]entity.Role),
		perms:       make(map[string]entity.Permission),
		rolePerms:   make(map[string]map[string]struct{}),
		assignments: make(map[assignmentKey]entity.RoleAssignment),
		trips:       make(map[string]entity.Trip),
		bookings:    make(map[string]entity.Booking),
		payments:    make(map[string]entity.Payment),
		faults:      make(map[string]error),
	}
}

type txState struct {
	held map[string]*sync.Mutex
	undo []func()
}

// Run ejecuta fn con repositorios atados a una transacción. Si fn devuelve error se
// deshacen sus escrituras; los bloqueos de fila se liberan al terminar.
func (s *Store) Run(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &txState{held: make(map[string]*sync.Mutex)}
	defer func() {
		for _, m := range tx.held {
			m.Unlock()
		}
	}()

	err := fn(s.unitOfWork(tx))
	if err == nil {
		err = s.fault("commit")
	}
	if err != nil {
		s.mu.Lock()
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// UnitOfWork repositorios sin transacción (cada operación es atómica por sí misma).
func (s *Store) UnitOfWork() repository.UnitOfWork {
	return s.unitOfWork(nil)
}

func (s *Store) unitOfWork(tx *txState) repository.UnitOfWork {
	sess := &session{s: s, tx: tx}
	return repository.UnitOfWork{
		Users:    &userRepo{sess},
		Roles:    &roleRepo{sess},
		Trips:    &tripRepo{sess},
		Bookings: &bookingRepo{sess},
		Payments: &paymentRepo{sess},
		Audit:    &auditRepo{sess},
	}
}

// InjectFault hace que la operación op ("bookings.UpdateStatus", "commit", ...) falle con err.
// Un err nil elimina la falla.
func (s *Store) InjectFault(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.faults, op)
		return
	}
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faults[op]
}

// AuditEntries copia de la bitácora en orden de inserción.
func (s *Store) AuditEntries() []entity.AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entity.AuditEntry, len(s.audit))
	copy(out, s.audit)
	return out
}

// session comparte el estado de transacción entre los repositorios de una UnitOfWork.
type session struct {
	s  *Store
	tx *txState
}

// lock toma el bloqueo de fila key hasta el fin de la transacción. Fuera de transacción no bloquea.
func (ss *session) lock(key string) {
	if ss.tx == nil {
		return
	}
	if _, ok := ss.tx.held[key]; ok {
		return
	}
	v, _ := ss.s.locks.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	ss.tx.held[key] = m
}

// write ejecuta apply bajo el mutex del Store. apply devuelve la función que deshace su
// efecto, que se registra si hay transacción.
func (ss *session) write(op string, apply func() (undo func(), err error)) error {
	if err := ss.s.fault(op); err != nil {
		return err
	}
	ss.s.mu.Lock()
	undo, err := apply()
	ss.s.mu.Unlock()
	if err != nil {
		return err
	}
	if ss.tx != nil && undo != nil {
		ss.tx.undo = append(ss.tx.undo, undo)
	}
	return nil
}

// read ejecuta fn bajo el mutex de lectura del Store.
func (ss *session) read(op string, fn func()) error {
	if err := ss.s.fault(op); err != nil {
		return err
	}
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()
	fn()
	return nil
}
