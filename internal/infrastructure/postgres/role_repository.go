package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
	"github.com/jhoicas/travel-commerce-api/internal/domain/repository"
)

var _ repository.RoleRepository = (*RoleRepo)(nil)

// RoleRepo roles, permisos y asignaciones sobre PostgreSQL.
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador. Pasar pool o tx.
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

const roleColumns = `id, name, description, is_system, created_at`

// GetByName obtiene un rol por nombre.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (*entity.Role, error) {
	return r.findOne(ctx, "get role", `SELECT `+roleColumns+` FROM roles WHERE name = $1`, name)
}

// GetByNameForUpdate obtiene el rol y bloquea su fila.
func (r *RoleRepo) GetByNameForUpdate(ctx context.Context, name string) (*entity.Role, error) {
	return r.findOne(ctx, "get role for update", `SELECT `+roleColumns+` FROM roles WHERE name = $1 FOR UPDATE`, name)
}

func (r *RoleRepo) findOne(ctx context.Context, op, query, name string) (*entity.Role, error) {
	var role entity.Role
	err := r.q.QueryRow(ctx, query, name).Scan(&role.ID, &role.Name, &role.Description, &role.IsSystem, &role.CreatedAt)
	if err != nil {
		if noRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &role, nil
}

// Upsert inserta o actualiza el rol por nombre y completa role.ID con el id persistido.
func (r *RoleRepo) Upsert(ctx context.Context, role *entity.Role) error {
	if role.ID == "" {
		role.ID = uuid.New().String()
	}
	query := `
		INSERT INTO roles (id, name, description, is_system, created_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name)
		DO UPDATE SET description = EXCLUDED.description, is_system = EXCLUDED.is_system
		RETURNING id, created_at`
	if err := r.q.QueryRow(ctx, query, role.ID, role.Name, role.Description, role.IsSystem).Scan(&role.ID, &role.CreatedAt); err != nil {
		return fmt.Errorf("upsert role: %w", err)
	}
	return nil
}

// UpsertPermission inserta o actualiza el permiso por clave y completa perm.ID.
func (r *RoleRepo) UpsertPermission(ctx context.Context, perm *entity.Permission) error {
	if perm.ID == "" {
		perm.ID = uuid.New().String()
	}
	query := `
		INSERT INTO permissions (id, key, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`
	if err := r.q.QueryRow(ctx, query, perm.ID, perm.Key, perm.Description).Scan(&perm.ID); err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}
	return nil
}

// GrantPermission concede el permiso al rol (idempotente).
func (r *RoleRepo) GrantPermission(ctx context.Context, roleID, permissionID string) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING`, roleID, permissionID)
	if err != nil {
		return fmt.Errorf("grant permission: %w", err)
	}
	return nil
}

// RoleNamesByUser nombres de los roles del usuario.
func (r *RoleRepo) RoleNamesByUser(ctx context.Context, userID string) ([]string, error) {
	return r.strings(ctx, "list user roles", `
		SELECT r.name FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1 ORDER BY r.name`, userID)
}

// PermissionKeysByUser unión de las claves de permiso de todos los roles del usuario.
func (r *RoleRepo) PermissionKeysByUser(ctx context.Context, userID string) ([]string, error) {
	return r.strings(ctx, "list user permissions", `
		SELECT DISTINCT p.key FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1 ORDER BY p.key`, userID)
}

func (r *RoleRepo) strings(ctx context.Context, op, query string, arg any) ([]string, error) {
	rows, err := r.q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// AssignmentExists informa si el usuario tiene el rol.
func (r *RoleRepo) AssignmentExists(ctx context.Context, userID, roleID string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id = $1 AND role_id = $2)`,
		userID, roleID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("assignment exists: %w", err)
	}
	return exists, nil
}

// CreateAssignment inserta la asignación; created es false si ya existía.
func (r *RoleRepo) CreateAssignment(ctx context.Context, a *entity.RoleAssignment) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO user_roles (user_id, role_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, role_id) DO NOTHING`, a.UserID, a.RoleID, a.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("create assignment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// DeleteAssignment elimina la asignación; deleted es false si no existía.
func (r *RoleRepo) DeleteAssignment(ctx context.Context, userID, roleID string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	if err != nil {
		return false, fmt.Errorf("delete assignment: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountUsersWithRole cuántos usuarios tienen el rol.
func (r *RoleRepo) CountUsersWithRole(ctx context.Context, roleID string) (int, error) {
	var n int
	if err := r.q.QueryRow(ctx, `SELECT count(*) FROM user_roles WHERE role_id = $1`, roleID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count role users: %w", err)
	}
	return n, nil
}
