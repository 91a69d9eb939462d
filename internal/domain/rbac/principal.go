package rbac

import (
	"sort"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// Principal identidad autorizada de una petición: usuario, roles y conjunto de permisos.
// Es inmutable; se calcula una vez por petición y no se cachea entre peticiones.
type Principal struct {
	userID string
	roles  map[string]struct{}
	perms  map[string]struct{}
}

// NewPrincipal construye el Principal copiando roles y permisos.
func NewPrincipal(userID string, roles, permissions []string) Principal {
	p := Principal{
		userID: userID,
		roles:  make(map[string]struct{}, len(roles)),
		perms:  make(map[string]struct{}, len(permissions)),
	}
	for _, r := range roles {
		p.roles[r] = struct{}{}
	}
	for _, k := range permissions {
		p.perms[k] = struct{}{}
	}
	return p
}

// UserID id del usuario autenticado.
func (p Principal) UserID() string { return p.userID }

// IsZero indica un Principal sin resolver.
func (p Principal) IsZero() bool { return p.userID == "" }

// HasRole pertenencia exacta del rol.
func (p Principal) HasRole(name string) bool {
	_, ok := p.roles[name]
	return ok
}

// IsSuperAdmin atajo para el vértice de la jerarquía.
func (p Principal) IsSuperAdmin() bool { return p.HasRole(entity.RoleSuperAdmin) }

// HasPermission pertenencia exacta de la clave.
func (p Principal) HasPermission(key string) bool {
	_, ok := p.perms[key]
	return ok
}

// HasAnyPermission true si el Principal tiene al menos una de las claves.
func (p Principal) HasAnyPermission(keys ...string) bool {
	for _, k := range keys {
		if p.HasPermission(k) {
			return true
		}
	}
	return false
}

// Roles nombres de rol ordenados.
func (p Principal) Roles() []string { return sortedKeys(p.roles) }

// Permissions claves de permiso ordenadas.
func (p Principal) Permissions() []string { return sortedKeys(p.perms) }

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
