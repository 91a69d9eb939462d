package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/travel-commerce-api/internal/application/dto"
	"github.com/jhoicas/travel-commerce-api/internal/application/payment"
	"github.com/jhoicas/travel-commerce-api/pkg/logger"
)

// WebhookHandler recibe las notificaciones del proveedor de pagos. No lleva JWT: la
// autenticidad la da la firma HMAC del cuerpo.
type WebhookHandler struct {
	rec *payment.Reconciler
	log *logger.Logger
}

// NewWebhookHandler construye el handler.
func NewWebhookHandler(rec *payment.Reconciler, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{rec: rec, log: log}
}

// signatureHeader cabecera de firma del proveedor: "X-Razorpay-Signature" para razorpay.
func signatureHeader(provider string) string {
	if provider == "" {
		return "X-Signature"
	}
	return "X-" + strings.ToUpper(provider[:1]) + strings.ToLower(provider[1:]) + "-Signature"
}

// Handle godoc
// @Summary      Webhook del proveedor de pagos
// @Description  Verifica la firma sobre los bytes exactos del cuerpo y aplica el evento a lo sumo una vez por orden.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        provider  path    string  true  "proveedor (razorpay)"
// @Param        X-Razorpay-Signature  header  string  true  "HMAC-SHA256 hex del cuerpo"
// @Success      200  {object}  dto.WebhookResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /webhooks/{provider} [post]
func (h *WebhookHandler) Handle(c *fiber.Ctx) error {
	provider := h.rec.Provider()
	if !strings.EqualFold(c.Params("provider"), provider) {
		return fiber.ErrNotFound
	}
	// c.Body() apunta al buffer de fasthttp; se copia porque el conciliador lo guarda como raw_payload.
	raw := append([]byte(nil), c.Body()...)
	res, err := h.rec.HandleWebhook(c.UserContext(), raw, c.Get(signatureHeader(provider)))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(dto.WebhookResponse{Status: "ok", Outcome: res.Outcome})
}
