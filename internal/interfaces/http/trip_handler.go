package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/travel-commerce-api/internal/application/trip"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// TripHandler expone el ciclo de vida editorial de los viajes.
type TripHandler struct {
	uc  *trip.UseCase
	log *logger.Logger
}

// NewTripHandler construye el handler.
func NewTripHandler(uc *trip.UseCase, log *logger.Logger) *TripHandler {
	return &TripHandler{uc: uc, log: log}
}

// Transition godoc
// @Summary      Transición de estado de un viaje
// @Description  submit (DRAFT→PENDING_REVIEW), approve (PENDING_REVIEW→APPROVED), publish (APPROVED→PUBLISHED), archive (PUBLISHED→ARCHIVED), restore (ARCHIVED→DRAFT)
// @Tags         trips
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID del viaje"
// @Param        action  path  string  true  "submit | approve | publish | archive | restore"
// @Success      200  {object}  dto.TripResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/trips/{id}/{action} [post]
func (h *TripHandler) Transition(c *fiber.Ctx) error {
	out, err := h.uc.Transition(c.UserContext(), GetPrincipal(c), c.Params("id"), c.Params("action"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener viaje por ID
// @Tags         trips
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del viaje"
// @Success      200  {object}  dto.TripResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/trips/{id} [get]
func (h *TripHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
