package http

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/domain/rbac"
	"github.com/jhoicas/travel-commerce-api/pkg/jwt"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// Locals keys en Fiber.
const (
	LocalUserID    = "user_id"
	LocalPrincipal = "principal"
)

// AuthMiddleware valida el Bearer Token JWT y deja el UserID en c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "MISSING_TOKEN", "Authorization header requerido")
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return unauthorized(c, "INVALID_TOKEN", "formato: Bearer <token>")
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return unauthorized(c, "MISSING_TOKEN", "token vacío")
		}
		userID, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return unauthorized(c, "INVALID_TOKEN", "token inválido o expirado")
		}
		c.Locals(LocalUserID, userID)
		return c.Next()
	}
}

func unauthorized(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Status: fiber.StatusUnauthorized, Code: code, Message: msg})
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalUserID).(string)
	return s
}

// principalResolver lo implementa *authz.PermissionResolver.
type principalResolver interface {
	Resolve(ctx context.Context, userID string) (rbac.Principal, error)
}

// PrincipalMiddleware resuelve roles y permisos del usuario una vez por petición. Debe usarse
// DESPUÉS de AuthMiddleware. Un usuario suspendido o borrado queda fuera aunque su token siga vigente.
func PrincipalMiddleware(resolver principalResolver, log *logger.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := resolver.Resolve(c.UserContext(), GetUserID(c))
		if err != nil {
			return writeError(c, log, err)
		}
		c.Locals(LocalPrincipal, p)
		return c.Next()
	}
}

// GetPrincipal devuelve el principal resuelto; vacío si no pasó por PrincipalMiddleware.
func GetPrincipal(c *fiber.Ctx) rbac.Principal {
	p, _ := c.Locals(LocalPrincipal).(rbac.Principal)
	return p
}

// RequirePermission deja pasar si el principal tiene al menos uno de los permisos.
// Los casos de uso vuelven a comprobar; esto corta antes de leer la BD.
//
// Comportamiento:
//   - 401 si no hay principal en el contexto.
//   - 403 si no tiene ninguno de los permisos.
func RequirePermission(keys ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := GetPrincipal(c)
		if p.IsZero() {
			return unauthorized(c, "UNAUTHORIZED", "no autenticado")
		}
		if !p.HasAnyPermission(keys...) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Status:  fiber.StatusForbidden,
				Code:    "FORBIDDEN",
				Message: "se requiere el permiso " + strings.Join(keys, " o "),
			})
		}
		return c.Next()
	}
}
