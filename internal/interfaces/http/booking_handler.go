package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/travel-commerce-api/internal/application/booking"
	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/application/payment"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// BookingHandler maneja reservas y la apertura de su pago.
type BookingHandler struct {
	uc     *booking.UseCase
	intent *payment.IntentUseCase
	log    *logger.Logger
}

// NewBookingHandler construye el handler.
func NewBookingHandler(uc *booking.UseCase, intent *payment.IntentUseCase, log *logger.Logger) *BookingHandler {
	return &BookingHandler{uc: uc, intent: intent, log: log}
}

// Create godoc
// @Summary      Reservar un viaje publicado
// @Tags         bookings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateBookingRequest  true  "trip_id, guests"
// @Success      201   {object}  dto.BookingResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/bookings [post]
func (h *BookingHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateBookingRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "cuerpo inválido")
	}
	if in.TripID == "" {
		return badRequest(c, "trip_id es requerido")
	}
	out, err := h.uc.Create(c.UserContext(), GetPrincipal(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener reserva por ID
// @Tags         bookings
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.BookingResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bookings/{id} [get]
func (h *BookingHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Transition godoc
// @Summary      Transición de estado de una reserva
// @Description  approve y la captura de pago respetan el cupo del viaje (409 INSUFFICIENT_CAPACITY)
// @Tags         bookings
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID de la reserva"
// @Param        action  path  string  true  "approve | reject | cancel | complete"
// @Success      200  {object}  dto.BookingResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/bookings/{id}/{action} [post]
func (h *BookingHandler) Transition(c *fiber.Ctx) error {
	ctx, p, id := c.UserContext(), GetPrincipal(c), c.Params("id")
	var (
		out *dto.BookingResponse
		err error
	)
	switch c.Params("action") {
	case "approve":
		out, err = h.uc.Approve(ctx, p, id)
	case "reject":
		out, err = h.uc.Reject(ctx, p, id)
	case "cancel":
		out, err = h.uc.Cancel(ctx, p, id)
	case "complete":
		out, err = h.uc.Complete(ctx, p, id)
	default:
		return fiber.ErrNotFound
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Pay godoc
// @Summary      Abrir (o reutilizar) el pago de una reserva
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la reserva"
// @Success      200  {object}  dto.PaymentIntentResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/bookings/{id}/pay [post]
func (h *BookingHandler) Pay(c *fiber.Ctx) error {
	out, err := h.intent.CreateIntent(c.UserContext(), GetPrincipal(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
