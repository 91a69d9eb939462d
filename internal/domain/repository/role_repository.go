package repository

import (
	"context"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// RoleRepository puerto para roles, permisos y asignaciones usuario-rol.
type RoleRepository interface {
	GetByName(ctx context.Context, name string) (*entity.Role, error)
	// GetByNameForUpdate bloquea la fila del rol (SELECT FOR UPDATE). Serializa las
	// revocaciones concurrentes del mismo rol.
	GetByNameForUpdate(ctx context.Context, name string) (*entity.Role, error)
	// Upsert crea o actualiza el rol por nombre y completa role.ID.
	Upsert(ctx context.Context, role *entity.Role) error
	// UpsertPermission crea o actualiza el permiso por clave y completa perm.ID.
	UpsertPermission(ctx context.Context, perm *entity.Permission) error
	GrantPermission(ctx context.Context, roleID, permissionID string) error

	RoleNamesByUser(ctx context.Context, userID string) ([]string, error)
	PermissionKeysByUser(ctx context.Context, userID string) ([]string, error)

	AssignmentExists(ctx context.Context, userID, roleID string) (bool, error)
	// CreateAssignment inserta la asignación; created es false si ya existía.
	CreateAssignment(ctx context.Context, a *entity.RoleAssignment) (created bool, err error)
	// DeleteAssignment elimina la asignación; deleted es false si no existía.
	DeleteAssignment(ctx context.Context, userID, roleID string) (deleted bool, err error)
	CountUsersWithRole(ctx context.Context, roleID string) (int, error)
}
