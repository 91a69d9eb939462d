package paymentgw

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
)

var _ ports.PaymentGateway = (*StubGateway)(nil)

// stubNamespace espacio UUIDv5 de las órdenes simuladas.
var stubNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:travel-commerce:payment-stub"))

// StubGateway simula al proveedor sin red. Los ids de orden son deterministas por
// (receipt, reference); no guarda estado, así que sobrevive a reinicios y réplicas.
type StubGateway struct {
	provider string
}

// NewStubGateway construye el gateway simulado.
func NewStubGateway(provider string) *StubGateway {
	if provider == "" {
		provider = "razorpay"
	}
	return &StubGateway{provider: provider}
}

// Provider nombre del proveedor simulado.
func (g *StubGateway) Provider() string { return g.provider }

// Mode siempre stub.
func (g *StubGateway) Mode() string { return ModeStub }

// CreateOrder devuelve order_stub_<uuidv5> sin llamar al proveedor.
func (g *StubGateway) CreateOrder(_ context.Context, in ports.OrderRequest) (*ports.Order, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("stub: importe inválido %s", in.Amount)
	}
	if in.Reference == "" {
		return nil, errors.New("stub: reference requerida")
	}
	id := uuid.NewSHA1(stubNamespace, []byte(in.Receipt+"#"+in.Reference))
	return &ports.Order{
		OrderID:  "order_stub_" + strings.ReplaceAll(id.String(), "-", ""),
		Amount:   in.Amount,
		Currency: in.Currency,
	}, nil
}
