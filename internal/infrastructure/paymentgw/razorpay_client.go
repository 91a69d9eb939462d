package paymentgw

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/travel-commerce-api/internal/application/ports"
)

const defaultRazorpayURL = "https://api.razorpay.com"

var _ ports.PaymentGateway = (*RazorpayClient)(nil)

// RazorpayClient implementa PaymentGateway contra la API REST de órdenes del proveedor.
// Los importes viajan en la unidad mínima de la moneda (paise para INR).
type RazorpayClient struct {
	provider   string
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
}

// NewRazorpayClient construye el cliente con timeout de red (15 s por defecto).
func NewRazorpayClient(cfg Config) *RazorpayClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultRazorpayURL
	}
	provider := cfg.Provider
	if provider == "" {
		provider = "razorpay"
	}
	return &RazorpayClient{
		provider:   provider,
		baseURL:    baseURL,
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Provider nombre del proveedor.
func (c *RazorpayClient) Provider() string { return c.provider }

// Mode siempre live.
func (c *RazorpayClient) Mode() string { return ModeLive }

type createOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// CreateOrder abre una orden. El importe se convierte a la unidad mínima (x100).
func (c *RazorpayClient) CreateOrder(ctx context.Context, in ports.OrderRequest) (*ports.Order, error) {
	minor := in.Amount.Shift(2).Round(0).IntPart()
	if minor <= 0 {
		return nil, fmt.Errorf("razorpay: importe inválido %s", in.Amount)
	}
	payload, err := json.Marshal(createOrderBody{Amount: minor, Currency: in.Currency, Receipt: in.Receipt, Notes: in.Notes})
	if err != nil {
		return nil, fmt.Errorf("razorpay: serializar orden: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("razorpay: crear request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("razorpay: timeout o cancelación: %w", ctx.Err())
		}
		return nil, fmt.Errorf("razorpay: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, fmt.Errorf("razorpay: leer respuesta: %w", err)
	}
	if resp.StatusCode >= 300 {
		var e errorResponse
		_ = json.Unmarshal(raw, &e)
		return nil, fmt.Errorf("razorpay: HTTP %d: %s %s", resp.StatusCode, e.Error.Code, e.Error.Description)
	}

	var out orderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("razorpay: parsear respuesta: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("razorpay: respuesta sin id de orden")
	}
	return &ports.Order{
		OrderID:  out.ID,
		Amount:   decimal.New(out.Amount, -2),
		Currency: out.Currency,
	}, nil
}
