package entity

import "time"

// Nombres de roles del sistema. El nombre es el discriminante de la jerarquía.
const (
	RoleUser       = "USER"
	RoleUploader   = "UPLOADER"
	RoleAdmin      = "ADMIN"
	RoleSuperAdmin = "SUPER_ADMIN"
)

// Role agrupa permisos. IsSystem marca roles que no se pueden borrar.
type Role struct {
	ID          string
	Name        string
	Description string
	IsSystem    bool
	CreatedAt   time.Time
}

// Permission es una capacidad atómica identificada por una clave opaca (ej. "booking:approve").
type Permission struct {
	ID          string
	Key         string
	Description string
}

// RoleAssignment une User y Role; el par (UserID, RoleID) es único.
type RoleAssignment struct {
	UserID    string
	RoleID    string
	CreatedAt time.Time
}
