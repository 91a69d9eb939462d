// Package authz resuelve el Principal de una petición a partir de la persistencia.
package authz

import (
	"context"
	"fmt"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

// PermissionResolver calcula roles y permisos efectivos de un usuario.
type PermissionResolver struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

// NewPermissionResolver construye el resolver.
func NewPermissionResolver(users repository.UserRepository, roles repository.RoleRepository) *PermissionResolver {
	return &PermissionResolver{users: users, roles: roles}
}

// Resolve devuelve el Principal de userID. Usuario inexistente, borrado o no ACTIVE
// resuelve a ErrUnauthorized.
func (r *PermissionResolver) Resolve(ctx context.Context, userID string) (rbac.Principal, error) {
	if userID == "" {
		return rbac.Principal{}, domain.ErrUnauthorized
	}
	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("resolve user: %w", err)
	}
	if user == nil {
		return rbac.Principal{}, domain.ErrUnauthorized
	}
	if !user.IsActive() {
		return rbac.Principal{}, domain.ErrUnauthorized.WithMessage("la cuenta no está activa")
	}
	roles, err := r.roles.RoleNamesByUser(ctx, userID)
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("resolve roles: %w", err)
	}
	perms, err := r.roles.PermissionKeysByUser(ctx, userID)
	if err != nil {
		return rbac.Principal{}, fmt.Errorf("resolve permissions: %w", err)
	}
	return rbac.NewPrincipal(userID, roles, perms), nil
}
