// Package roles implementa la asignación y revocación de roles con jerarquía.
package roles

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
	"github.com/jhoicas/travel-commerce-api/pkg/ids"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// Guard única vía para crear o borrar RoleAssignment (además del seed).
type Guard struct {
	tx    repository.TxRunner
	users repository.UserRepository
	roles repository.RoleRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewGuard construye el guard.
func NewGuard(tx repository.TxRunner, users repository.UserRepository, roles repository.RoleRepository, log *logger.Logger) *Guard {
	if log == nil {
		log = logger.Nop()
	}
	return &Guard{tx: tx, users: users, roles: roles, log: log.Component("roles"), now: time.Now}
}

// AssignRole asigna roleName a targetUserID. Si el usuario ya lo tiene no muta nada ni audita.
func (g *Guard) AssignRole(ctx context.Context, actor rbac.Principal, targetUserID, roleName string) (*dto.RoleChangeResponse, error) {
	name, err := g.authorize(actor, targetUserID, roleName)
	if err != nil {
		return nil, err
	}
	role, err := g.lookup(ctx, targetUserID, name)
	if err != nil {
		return nil, err
	}

	changed := false
	err = g.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		now := g.now().UTC()
		created, err := uow.Roles.CreateAssignment(ctx, &entity.RoleAssignment{UserID: targetUserID, RoleID: role.ID, CreatedAt: now})
		if err != nil {
			return fmt.Errorf("create assignment: %w", err)
		}
		if !created {
			return nil
		}
		changed = true
		return appendAudit(ctx, uow, entity.AuditRoleAssigned, actor.UserID(), targetUserID, role.Name, now)
	})
	if err != nil {
		return nil, err
	}
	if changed {
		g.log.Info().Str("actor_id", actor.UserID()).Str("target_id", targetUserID).Str("role", role.Name).Msg("rol asignado")
	}
	return &dto.RoleChangeResponse{UserID: targetUserID, RoleName: role.Name, Changed: changed}, nil
}

// RevokeRole quita roleName a targetUserID. Revocar un rol no asignado no muta nada.
// No se puede dejar el sistema sin ningún SUPER_ADMIN.
func (g *Guard) RevokeRole(ctx context.Context, actor rbac.Principal, targetUserID, roleName string) (*dto.RoleChangeResponse, error) {
	name, err := g.authorize(actor, targetUserID, roleName)
	if err != nil {
		return nil, err
	}
	if _, err := g.lookup(ctx, targetUserID, name); err != nil {
		return nil, err
	}

	changed := false
	err = g.tx.Run(ctx, func(uow repository.UnitOfWork) error {
		// Bloquear el rol serializa revocaciones concurrentes del mismo rol.
		role, err := uow.Roles.GetByNameForUpdate(ctx, name)
		if err != nil {
			return fmt.Errorf("lock role: %w", err)
		}
		if role == nil {
			return domain.ErrNotFound.WithMessage("rol no encontrado")
		}
		held, err := uow.Roles.AssignmentExists(ctx, targetUserID, role.ID)
		if err != nil {
			return fmt.Errorf("assignment exists: %w", err)
		}
		if !held {
			return nil
		}
		if role.Name == entity.RoleSuperAdmin {
			n, err := uow.Roles.CountUsersWithRole(ctx, role.ID)
			if err != nil {
				return fmt.Errorf("count super admins: %w", err)
			}
			if n <= 1 {
				return domain.ErrForbidden.WithMessage("no se puede revocar el último SUPER_ADMIN")
			}
		}
		deleted, err := uow.Roles.DeleteAssignment(ctx, targetUserID, role.ID)
		if err != nil {
			return fmt.Errorf("delete assignment: %w", err)
		}
		if !deleted {
			return nil
		}
		changed = true
		return appendAudit(ctx, uow, entity.AuditRoleRevoked, actor.UserID(), targetUserID, role.Name, g.now().UTC())
	})
	if err != nil {
		return nil, err
	}
	if changed {
		g.log.Info().Str("actor_id", actor.UserID()).Str("target_id", targetUserID).Str("role", name).Msg("rol revocado")
	}
	return &dto.RoleChangeResponse{UserID: targetUserID, RoleName: name, Changed: changed}, nil
}

// authorize aplica las reglas que no dependen de la persistencia, en orden:
// permiso, auto-modificación y jerarquía.
func (g *Guard) authorize(actor rbac.Principal, targetUserID, roleName string) (string, error) {
	if !actor.HasAnyPermission(rbac.PermUserAssignRole, rbac.PermRoleAssign) {
		return "", domain.ErrForbidden.WithMessage("falta el permiso " + rbac.PermUserAssignRole)
	}
	if targetUserID == "" || roleName == "" {
		return "", domain.ErrInvalidInput.WithMessage("userId y roleName son requeridos")
	}
	if actor.UserID() == targetUserID {
		g.log.Warn().Str("actor_id", actor.UserID()).Str("role", roleName).Msg("intento de modificar roles propios")
		return "", domain.ErrForbidden.WithMessage("no puedes modificar tus propios roles")
	}
	name := rbac.NormalizeRoleName(roleName)
	if name == entity.RoleSuperAdmin && !actor.IsSuperAdmin() {
		g.log.Warn().Str("actor_id", actor.UserID()).Str("target_id", targetUserID).Msg("intento de gestionar SUPER_ADMIN sin serlo")
		return "", domain.ErrForbidden.WithMessage("solo un SUPER_ADMIN puede gestionar el rol SUPER_ADMIN")
	}
	return name, nil
}

func (g *Guard) lookup(ctx context.Context, targetUserID, name string) (*entity.Role, error) {
	role, err := g.roles.GetByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}
	if role == nil {
		return nil, domain.ErrNotFound.WithMessage("rol no encontrado: " + name)
	}
	user, err := g.users.GetByID(ctx, targetUserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil || user.DeletedAt != nil {
		return nil, domain.ErrNotFound.WithMessage("usuario no encontrado")
	}
	return role, nil
}

func appendAudit(ctx context.Context, uow repository.UnitOfWork, action, actorID, targetID, roleName string, now time.Time) error {
	if err := uow.Audit.Append(ctx, &entity.AuditEntry{
		ID:         ids.At(now),
		Action:     action,
		ActorID:    actorID,
		TargetType: entity.AuditTargetUser,
		TargetID:   targetID,
		Metadata:   map[string]any{"roleName": roleName},
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("audit %s: %w", action, err)
	}
	return nil
}
