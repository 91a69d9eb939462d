package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// writeError traduce err a su terna de dominio. Los errores internos se registran con
// detalle y al cliente solo le llega el mensaje genérico.
func writeError(c *fiber.Ctx, log *logger.Logger, err error) error {
	de := domain.AsError(err)
	if de.Status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error interno")
		de = domain.ErrInternal
	}
	return c.Status(de.Status).JSON(dto.ErrorResponse{Status: de.Status, Code: de.Code, Message: de.Message})
}

// badRequest respuesta 400 de validación de entrada.
func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
		Status: fiber.StatusBadRequest, Code: domain.ErrInvalidInput.Code, Message: msg,
	})
}

// ErrorHandler handler de errores de fiber (rutas inexistentes, panics recuperados, etc.).
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if fe, ok := err.(*fiber.Error); ok {
			code := "HTTP_ERROR"
			if fe.Code == fiber.StatusNotFound {
				code = domain.ErrNotFound.Code
			}
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Status: fe.Code, Code: code, Message: fe.Message})
		}
		return writeError(c, log, err)
	}
}
