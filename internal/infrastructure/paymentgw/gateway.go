// Package paymentgw contiene los adaptadores del puerto PaymentGateway.
package paymentgw

import (
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
)

// Modos de operación del gateway.
const (
	ModeLive = "live"
	ModeStub = "stub"
)

// Config selección del adaptador según el entorno.
type Config struct {
	AppEnv    string // development, staging, production
	Provider  string
	Mode      string // live | stub
	KeyID     string
	KeySecret string
	BaseURL   string // opcional; por defecto la API pública del proveedor
	Timeout   time.Duration
}

// New devuelve el adaptador del modo configurado. En production solo se admite live; live
// exige credenciales.
func New(cfg Config) (ports.PaymentGateway, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	switch mode {
	case ModeLive:
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("paymentgw: modo live requiere key id y key secret")
		}
		return NewRazorpayClient(cfg), nil
	case ModeStub:
		if cfg.AppEnv == "production" {
			return nil, fmt.Errorf("paymentgw: el modo stub no está permitido en production")
		}
		return NewStubGateway(cfg.Provider), nil
	default:
		return nil, fmt.Errorf("paymentgw: modo desconocido %q", cfg.Mode)
	}
}
