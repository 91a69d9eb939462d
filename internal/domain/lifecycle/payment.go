package lifecycle

import (
	"github.com/jhoicas/travel-commerce-api/internal/domain"
	"github.com/jhoicas/travel-commerce-api/internal/domain/entity"
)

// Eventos del proveedor de pagos que el conciliador aplica.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

// PaymentStatusForEvent traduce un evento del proveedor al estado terminal del pago.
// ok es false para eventos que no se aplican.
func PaymentStatusForEvent(event string) (entity.PaymentStatus, bool) {
	switch event {
	case EventPaymentCaptured:
		return entity.PaymentStatusCaptured, true
	case EventPaymentFailed:
		return entity.PaymentStatusFailed, true
	default:
		return "", false
	}
}

// NextPaymentStatus solo admite CREATED -> CAPTURED|FAILED. Los estados terminales son inmutables.
func NextPaymentStatus(current, target entity.PaymentStatus) (entity.PaymentStatus, error) {
	if current != entity.PaymentStatusCreated || !target.IsTerminal() {
		return "", domain.ErrInvalidStatusTransition.WithMessage(
			"pago en estado " + string(current) + " no admite " + string(target))
	}
	return target, nil
}
