package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var (
	_ repository.UserRepository    = (*userRepo)(nil)
	_ repository.RoleRepository    = (*roleRepo)(nil)
	_ repository.TripRepository    = (*tripRepo)(nil)
	_ repository.BookingRepository = (*bookingRepo)(nil)
	_ repository.PaymentRepository = (*paymentRepo)(nil)
	_ repository.AuditRepository   = (*auditRepo)(nil)
)

// ──────────────────────────────────────────────────────────────────────────────
// Users
// ──────────────────────────────────────────────────────────────────────────────

type userRepo struct{ *session }

func (r *userRepo) Create(_ context.Context, u *entity.User) error {
	return r.write("users.Create", func() (func(), error) {
		if _, ok := r.s.users[u.ID]; ok {
			return nil, domain.ErrDuplicateEntry
		}
		for _, existing := range r.s.users {
			if strings.EqualFold(existing.Email, u.Email) {
				return nil, domain.ErrDuplicateEntry.WithMessage("el email ya está registrado")
			}
		}
		r.s.users[u.ID] = *u
		id := u.ID
		return func() { delete(r.s.users, id) }, nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.read("users.GetByID", func() {
		if u, ok := r.s.users[id]; ok {
			out = &u
		}
	})
	return out, err
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.read("users.GetByEmail", func() {
		for _, u := range r.s.users {
			if strings.EqualFold(u.Email, email) {
				u := u
				out = &u
				return
			}
		}
	})
	return out, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────────────────────────────────

type roleRepo struct{ *session }

func (r *roleRepo) findByName(name string) (entity.Role, bool) {
	for _, role := range r.s.roles {
		if role.Name == name {
			return role, true
		}
	}
	return entity.Role{}, false
}

func (r *roleRepo) GetByName(_ context.Context, name string) (*entity.Role, error) {
	var out *entity.Role
	err := r.read("roles.GetByName", func() {
		if role, ok := r.findByName(name); ok {
			out = &role
		}
	})
	return out, err
}

func (r *roleRepo) GetByNameForUpdate(ctx context.Context, name string) (*entity.Role, error) {
	r.lock("role:" + name)
	return r.GetByName(ctx, name)
}

func (r *roleRepo) Upsert(_ context.Context, role *entity.Role) error {
	return r.write("roles.Upsert", func() (func(), error) {
		prev, existed := r.findByName(role.Name)
		if existed {
			role.ID = prev.ID
			role.CreatedAt = prev.CreatedAt
		} else if role.ID == "" {
			role.ID = uuid.New().String()
		}
		r.s.roles[role.ID] = *role
		id := role.ID
		return func() {
			if existed {
				r.s.roles[id] = prev
			} else {
				delete(r.s.roles, id)
			}
		}, nil
	})
}

func (r *roleRepo) UpsertPermission(_ context.Context, perm *entity.Permission) error {
	return r.write("roles.UpsertPermission", func() (func(), error) {
		var prev entity.Permission
		existed := false
		for _, p := range r.s.perms {
			if p.Key == perm.Key {
				prev, existed = p, true
				break
			}
		}
		if existed {
			perm.ID = prev.ID
		} else if perm.ID == "" {
			perm.ID = uuid.New().String()
		}
		r.s.perms[perm.ID] = *perm
		id := perm.ID
		return func() {
			if existed {
				r.s.perms[id] = prev
			} else {
				delete(r.s.perms, id)
			}
		}, nil
	})
}

func (r *roleRepo) GrantPermission(_ context.Context, roleID, permissionID string) error {
	return r.write("roles.GrantPermission", func() (func(), error) {
		set, ok := r.s.rolePerms[roleID]
		if !ok {
			set = make(map[string]struct{})
			r.s.rolePerms[roleID] = set
		}
		if _, held := set[permissionID]; held {
			return nil, nil
		}
		set[permissionID] = struct{}{}
		return func() { delete(r.s.rolePerms[roleID], permissionID) }, nil
	})
}

func (r *roleRepo) RoleNamesByUser(_ context.Context, userID string) ([]string, error) {
	var out []string
	err := r.read("roles.RoleNamesByUser", func() {
		for k := range r.s.assignments {
			if k.userID != userID {
				continue
			}
			if role, ok := r.s.roles[k.roleID]; ok {
				out = append(out, role.Name)
			}
		}
	})
	sort.Strings(out)
	return out, err
}

func (r *roleRepo) PermissionKeysByUser(_ context.Context, userID string) ([]string, error) {
	var out []string
	err := r.read("roles.PermissionKeysByUser", func() {
		seen := make(map[string]struct{})
		for k := range r.s.assignments {
			if k.userID != userID {
				continue
			}
			for permID := range r.s.rolePerms[k.roleID] {
				p, ok := r.s.perms[permID]
				if !ok {
					continue
				}
				if _, dup := seen[p.Key]; dup {
					continue
				}
				seen[p.Key] = struct{}{}
				out = append(out, p.Key)
			}
		}
	})
	sort.Strings(out)
	return out, err
}

func (r *roleRepo) AssignmentExists(_ context.Context, userID, roleID string) (bool, error) {
	var ok bool
	err := r.read("roles.AssignmentExists", func() {
		_, ok = r.s.assignments[assignmentKey{userID, roleID}]
	})
	return ok, err
}

func (r *roleRepo) CreateAssignment(_ context.Context, a *entity.RoleAssignment) (bool, error) {
	created := false
	err := r.write("roles.CreateAssignment", func() (func(), error) {
		k := assignmentKey{a.UserID, a.RoleID}
		if _, ok := r.s.assignments[k]; ok {
			return nil, nil
		}
		r.s.assignments[k] = *a
		created = true
		return func() { delete(r.s.assignments, k) }, nil
	})
	return created, err
}

func (r *roleRepo) DeleteAssignment(_ context.Context, userID, roleID string) (bool, error) {
	deleted := false
	err := r.write("roles.DeleteAssignment", func() (func(), error) {
		k := assignmentKey{userID, roleID}
		prev, ok := r.s.assignments[k]
		if !ok {
			return nil, nil
		}
		delete(r.s.assignments, k)
		deleted = true
		return func() { r.s.assignments[k] = prev }, nil
	})
	return deleted, err
}

func (r *roleRepo) CountUsersWithRole(_ context.Context, roleID string) (int, error) {
	n := 0
	err := r.read("roles.CountUsersWithRole", func() {
		for k := range r.s.assignments {
			if k.roleID != roleID {
				continue
			}
			if u, ok := r.s.users[k.userID]; ok && u.DeletedAt == nil {
				n++
			}
		}
	})
	return n, err
}

// ──────────────────────────────────────────────────────────────────────────────
// Trips
// ──────────────────────────────────────────────────────────────────────────────

type tripRepo struct{ *session }

func (r *tripRepo) Create(_ context.Context, t *entity.Trip) error {
	return r.write("trips.Create", func() (func(), error) {
		if _, ok := r.s.trips[t.ID]; ok {
			return nil, domain.ErrDuplicateEntry
		}
		r.s.trips[t.ID] = *t
		id := t.ID
		return func() { delete(r.s.trips, id) }, nil
	})
}

func (r *tripRepo) GetByID(_ context.Context, id string) (*entity.Trip, error) {
	var out *entity.Trip
	err := r.read("trips.GetByID", func() {
		if t, ok := r.s.trips[id]; ok {
			out = &t
		}
	})
	return out, err
}

func (r *tripRepo) GetForUpdate(ctx context.Context, id string) (*entity.Trip, error) {
	r.lock("trip:" + id)
	return r.GetByID(ctx, id)
}

func (r *tripRepo) UpdateStatus(_ context.Context, t *entity.Trip) error {
	return r.write("trips.UpdateStatus", func() (func(), error) {
		prev, ok := r.s.trips[t.ID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		next := prev
		next.Status = t.Status
		next.PublishedAt = t.PublishedAt
		next.UpdatedAt = t.UpdatedAt
		r.s.trips[t.ID] = next
		return func() { r.s.trips[prev.ID] = prev }, nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Bookings
// ──────────────────────────────────────────────────────────────────────────────

type bookingRepo struct{ *session }

func isActiveBooking(s entity.BookingStatus) bool {
	return s == entity.BookingStatusRequested || s == entity.BookingStatusConfirmed
}

func (r *bookingRepo) Create(_ context.Context, b *entity.Booking) error {
	return r.write("bookings.Create", func() (func(), error) {
		if _, ok := r.s.bookings[b.ID]; ok {
			return nil, domain.ErrDuplicateEntry
		}
		for _, existing := range r.s.bookings {
			if existing.UserID == b.UserID && existing.TripID == b.TripID && isActiveBooking(existing.Status) {
				return nil, domain.ErrDuplicateEntry.WithMessage("ya tienes una reserva activa para este viaje")
			}
		}
		r.s.bookings[b.ID] = *b
		id := b.ID
		return func() { delete(r.s.bookings, id) }, nil
	})
}

func (r *bookingRepo) GetByID(_ context.Context, id string) (*entity.Booking, error) {
	var out *entity.Booking
	err := r.read("bookings.GetByID", func() {
		if b, ok := r.s.bookings[id]; ok {
			out = &b
		}
	})
	return out, err
}

func (r *bookingRepo) GetForUpdate(ctx context.Context, id string) (*entity.Booking, error) {
	r.lock("booking:" + id)
	return r.GetByID(ctx, id)
}

func (r *bookingRepo) CountConfirmedByTrip(_ context.Context, tripID string) (int, error) {
	n := 0
	err := r.read("bookings.CountConfirmedByTrip", func() {
		for _, b := range r.s.bookings {
			if b.TripID == tripID && b.Status == entity.BookingStatusConfirmed {
				n++
			}
		}
	})
	return n, err
}

func (r *bookingRepo) UpdateStatus(_ context.Context, b *entity.Booking) error {
	return r.write("bookings.UpdateStatus", func() (func(), error) {
		prev, ok := r.s.bookings[b.ID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		next := prev
		next.Status = b.Status
		next.UpdatedAt = b.UpdatedAt
		r.s.bookings[b.ID] = next
		return func() { r.s.bookings[prev.ID] = prev }, nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Payments
// ──────────────────────────────────────────────────────────────────────────────

type paymentRepo struct{ *session }

func clonePayment(p entity.Payment) *entity.Payment {
	if p.RawPayload != nil {
		p.RawPayload = append([]byte(nil), p.RawPayload...)
	}
	if p.ProviderPaymentID != nil {
		id := *p.ProviderPaymentID
		p.ProviderPaymentID = &id
	}
	return &p
}

func (r *paymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.write("payments.Create", func() (func(), error) {
		for _, existing := range r.s.payments {
			if existing.ID == p.ID || (existing.Provider == p.Provider && existing.ProviderOrderID == p.ProviderOrderID) {
				return nil, domain.ErrDuplicateEntry
			}
			if existing.BookingID == p.BookingID && existing.Status == entity.PaymentStatusCreated {
				return nil, domain.ErrDuplicateEntry.WithMessage("la reserva ya tiene un pago abierto")
			}
		}
		r.s.payments[p.ID] = *clonePayment(*p)
		id := p.ID
		return func() { delete(r.s.payments, id) }, nil
	})
}

func (r *paymentRepo) GetByProviderOrderID(_ context.Context, provider, orderID string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.read("payments.GetByProviderOrderID", func() {
		for _, p := range r.s.payments {
			if p.Provider == provider && p.ProviderOrderID == orderID {
				out = clonePayment(p)
				return
			}
		}
	})
	return out, err
}

func (r *paymentRepo) GetByProviderOrderIDForUpdate(ctx context.Context, provider, orderID string) (*entity.Payment, error) {
	r.lock("payment:" + provider + ":" + orderID)
	return r.GetByProviderOrderID(ctx, provider, orderID)
}

func (r *paymentRepo) FindOpenByBooking(_ context.Context, bookingID string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.read("payments.FindOpenByBooking", func() {
		for _, p := range r.s.payments {
			if p.BookingID == bookingID && p.Status == entity.PaymentStatusCreated {
				out = clonePayment(p)
				return
			}
		}
	})
	return out, err
}

func (r *paymentRepo) HasCapturedByBooking(_ context.Context, bookingID string) (bool, error) {
	found := false
	err := r.read("payments.HasCapturedByBooking", func() {
		for _, p := range r.s.payments {
			if p.BookingID == bookingID && p.Status == entity.PaymentStatusCaptured {
				found = true
				return
			}
		}
	})
	return found, err
}

func (r *paymentRepo) UpdateResult(_ context.Context, p *entity.Payment) error {
	return r.write("payments.UpdateResult", func() (func(), error) {
		prev, ok := r.s.payments[p.ID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		next := *clonePayment(prev)
		next.Status = p.Status
		next.ProviderPaymentID = p.ProviderPaymentID
		next.RawPayload = append([]byte(nil), p.RawPayload...)
		next.UpdatedAt = p.UpdatedAt
		r.s.payments[p.ID] = next
		return func() { r.s.payments[prev.ID] = prev }, nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Audit
// ──────────────────────────────────────────────────────────────────────────────

type auditRepo struct{ *session }

func (r *auditRepo) Append(_ context.Context, e *entity.AuditEntry) error {
	return r.write("audit.Append", func() (func(), error) {
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		r.s.audit = append(r.s.audit, *e)
		id := e.ID
		return func() {
			for i := range r.s.audit {
				if r.s.audit[i].ID == id {
					r.s.audit = append(r.s.audit[:i], r.s.audit[i+1:]...)
					return
				}
			}
		}, nil
	})
}
