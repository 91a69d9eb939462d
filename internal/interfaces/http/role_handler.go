package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/application/roles"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// RoleHandler asignación y revocación de roles (administración).
type RoleHandler struct {
	guard *roles.Guard
	log   *logger.Logger
}

// NewRoleHandler construye el handler.
func NewRoleHandler(guard *roles.Guard, log *logger.Logger) *RoleHandler {
	return &RoleHandler{guard: guard, log: log}
}

// bindRoleChange lee el cuerpo. ok=false si ya se respondió 400.
func bindRoleChange(c *fiber.Ctx) (in dto.RoleChangeRequest, ok bool, err error) {
	if err := c.BodyParser(&in); err != nil {
		return in, false, badRequest(c, "cuerpo inválido")
	}
	if in.UserID == "" || in.RoleName == "" {
		return in, false, badRequest(c, "userId y roleName son requeridos")
	}
	return in, true, nil
}

// Assign godoc
// @Summary      Asignar rol
// @Description  SUPER_ADMIN solo lo asigna otro SUPER_ADMIN; nadie modifica sus propios roles.
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RoleChangeRequest  true  "userId, roleName"
// @Success      200   {object}  dto.RoleChangeResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/roles/assign [post]
func (h *RoleHandler) Assign(c *fiber.Ctx) error {
	in, ok, err := bindRoleChange(c)
	if !ok {
		return err
	}
	out, err := h.guard.AssignRole(c.UserContext(), GetPrincipal(c), in.UserID, in.RoleName)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Revoke godoc
// @Summary      Revocar rol
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RoleChangeRequest  true  "userId, roleName"
// @Success      200   {object}  dto.RoleChangeResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/roles/revoke [post]
func (h *RoleHandler) Revoke(c *fiber.Ctx) error {
	in, ok, err := bindRoleChange(c)
	if !ok {
		return err
	}
	out, err := h.guard.RevokeRole(c.UserContext(), GetPrincipal(c), in.UserID, in.RoleName)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
