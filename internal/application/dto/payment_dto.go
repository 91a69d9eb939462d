package dto

import "github.com/shopspring/decimal"

// PaymentIntentResponse datos que el cliente necesita para abrir el checkout del proveedor.
type PaymentIntentResponse struct {
	PaymentID string          `json:"payment_id"`
	BookingID string          `json:"booking_id"`
	Provider  string          `json:"provider"`
	Mode      string          `json:"mode"`
	OrderID   string          `json:"order_id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	KeyID     string          `json:"key_id,omitempty"`
}

// WebhookResponse acuse al proveedor.
type WebhookResponse struct {
	Status  string `json:"status"`
	Outcome string `json:"outcome"`
}
