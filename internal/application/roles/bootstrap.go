package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

// Bootstrap siembra de forma idempotente los roles del sistema, sus permisos y, si se indica,
// el primer SUPER_ADMIN. Es la única vía de asignación fuera del Guard.
func Bootstrap(ctx context.Context, tx repository.TxRunner, superAdminEmail string) error {
	return tx.Run(ctx, func(uow repository.UnitOfWork) error {
		now := time.Now().UTC()
		permIDs := make(map[string]string)
		for _, key := range rbac.AllPermissions() {
			p := &entity.Permission{Key: key}
			if err := uow.Roles.UpsertPermission(ctx, p); err != nil {
				return fmt.Errorf("upsert permission %s: %w", key, err)
			}
			permIDs[key] = p.ID
		}
		var superRoleID string
		for _, def := range rbac.SystemRoles() {
			role := &entity.Role{Name: def.Name, Description: def.Description, IsSystem: true, CreatedAt: now}
			if err := uow.Roles.Upsert(ctx, role); err != nil {
				return fmt.Errorf("upsert role %s: %w", def.Name, err)
			}
			for _, key := range def.Permissions {
				if err := uow.Roles.GrantPermission(ctx, role.ID, permIDs[key]); err != nil {
					return fmt.Errorf("grant %s to %s: %w", key, def.Name, err)
				}
			}
			if def.Name == entity.RoleSuperAdmin {
				superRoleID = role.ID
			}
		}
		if superAdminEmail == "" {
			return nil
		}
		user, err := uow.Users.GetByEmail(ctx, superAdminEmail)
		if err != nil {
			return fmt.Errorf("get user by email: %w", err)
		}
		if user == nil {
			return domain.ErrNotFound.WithMessage("usuario no encontrado: " + superAdminEmail)
		}
		created, err := uow.Roles.CreateAssignment(ctx, &entity.RoleAssignment{UserID: user.ID, RoleID: superRoleID, CreatedAt: now})
		if err != nil {
			return fmt.Errorf("assign super admin: %w", err)
		}
		if !created {
			return nil
		}
		return appendAudit(ctx, uow, entity.AuditRoleAssigned, "", user.ID, entity.RoleSuperAdmin, now)
	})
}
