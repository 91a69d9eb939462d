package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// OrderRequest datos para abrir una orden de cobro con el proveedor.
type OrderRequest struct {
	Receipt   string // referencia interna (id de la reserva)
	Reference string // id del pago que abrirá la orden, único por intento
	Amount    decimal.Decimal
	Currency  string
	Notes     map[string]string
}

// Order orden creada por el proveedor. OrderID es la referencia que luego llega en el webhook.
type Order struct {
	OrderID  string
	Amount   decimal.Decimal
	Currency string
}

// PaymentGateway define el puerto de salida hacia el proveedor de pagos.
// Hay un adaptador real (HTTPS) y uno stub para desarrollo y pruebas; el conciliador de
// webhooks no depende de cuál esté activo.
type PaymentGateway interface {
	Provider() string
	Mode() string
	CreateOrder(ctx context.Context, in OrderRequest) (*Order, error)
}
