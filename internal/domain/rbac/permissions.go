// Package rbac define el catálogo de permisos y el Principal resuelto por petición.
package rbac

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// Claves de permiso. Son opacas: solo se comparan por igualdad.
const (
	PermTripSubmit  = "trip:submit"
	PermTripApprove = "trip:approve"
	PermTripPublish = "trip:publish"
	PermTripArchive = "trip:archive"
	PermTripRestore = "trip:restore"

	PermBookingCreate   = "booking:create"
	PermBookingRead     = "booking:read"
	PermBookingApprove  = "booking:approve"
	PermBookingReject   = "booking:reject"
	PermBookingCancel   = "booking:cancel"
	PermBookingComplete = "booking:complete"

	PermUserAssignRole = "user:assign-role"
	PermRoleAssign     = "role:assign"
	PermAuditRead      = "audit:read"
)

// RoleDefinition describe un rol del sistema y sus permisos de fábrica.
type RoleDefinition struct {
	Name        string
	Description string
	Permissions []string
}

// SystemRoles catálogo de roles que siembra cmd/seed_rbac. Los roles del sistema no se borran.
func SystemRoles() []RoleDefinition {
	userPerms := []string{PermBookingCreate}
	uploaderPerms := append([]string{PermTripSubmit}, userPerms...)
	adminPerms := append([]string{
		PermTripApprove, PermTripPublish, PermTripArchive, PermTripRestore,
		PermBookingRead, PermBookingApprove, PermBookingReject, PermBookingCancel, PermBookingComplete,
		PermUserAssignRole, PermAuditRead,
	}, uploaderPerms...)
	superPerms := append([]string{PermRoleAssign}, adminPerms...)

	return []RoleDefinition{
		{Name: entity.RoleUser, Description: "Viajero: crea y paga sus reservas", Permissions: userPerms},
		{Name: entity.RoleUploader, Description: "Operador: crea viajes y los envía a revisión", Permissions: uploaderPerms},
		{Name: entity.RoleAdmin, Description: "Administrador del catálogo y de reservas", Permissions: adminPerms},
		{Name: entity.RoleSuperAdmin, Description: "Administración total, incluida la gestión de SUPER_ADMIN", Permissions: superPerms},
	}
}

// AllPermissions devuelve todas las claves conocidas, sin repetir.
func AllPermissions() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range SystemRoles() {
		for _, p := range r.Permissions {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

var upper = cases.Upper(language.Und)

// NormalizeRoleName lleva un nombre de rol a su forma canónica ("super-admin " -> "SUPER_ADMIN").
func NormalizeRoleName(name string) string {
	n := strings.TrimSpace(name)
	n = strings.ReplaceAll(n, "-", "_")
	return upper.String(n)
}
