package entity

import "time"

// Estados válidos de User.
const (
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
	UserStatusBanned    = "BANNED"
)

// User representa una identidad del sistema. Nunca se borra físicamente mientras tenga
// reservas o viajes asociados: DeletedAt marca el borrado lógico.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Status       string // ACTIVE, SUSPENDED, BANNED
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
}

// IsActive informa si el usuario puede operar (activo y no borrado).
func (u *User) IsActive() bool {
	return u != nil && u.DeletedAt == nil && u.Status == UserStatusActive
}
