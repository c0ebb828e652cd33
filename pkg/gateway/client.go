package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"dustclean/pkg/utils"

	"go.uber.org/zap"
)

// ErrUnavailable marks network or 5xx/429 failures talking to the gateway.
// Callers decide whether to retry; the client never does.
var ErrUnavailable = errors.New("payment gateway unavailable")

// Order is a gateway-side payment intent created before the customer pays.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"` // minor units
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Refund is the gateway's record of money returned for a captured payment.
type Refund struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

// API is the outbound surface the payment service depends on.
type API interface {
	CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*Order, error)
	RefundPayment(ctx context.Context, gatewayPaymentID string, amount float64) (*Refund, error)
}

// Client talks to the gateway's REST API with basic auth.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	log        *zap.Logger
}

func NewClient(config utils.GatewayConfig, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		baseURL:    config.BaseURL,
		keyID:      config.KeyID,
		keySecret:  config.KeySecret,
		log:        log.With(zap.String("component", "gateway")),
	}
}

// CreateOrder opens an order with the gateway. The amount is converted to
// the currency's minor unit as the gateway requires.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string, notes map[string]string) (*Order, error) {
	payload := map[string]any{
		"amount":   toMinorUnits(amount),
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	var order Order
	if err := c.post(ctx, "/orders", payload, &order); err != nil {
		return nil, err
	}

	c.log.Info("Gateway order created",
		zap.String("order_id", order.ID),
		zap.Int64("amount", order.Amount),
		zap.String("currency", order.Currency),
	)

	return &order, nil
}

// RefundPayment asks the gateway to return part or all of a captured payment.
func (c *Client) RefundPayment(ctx context.Context, gatewayPaymentID string, amount float64) (*Refund, error) {
	payload := map[string]any{
		"amount": toMinorUnits(amount),
	}

	var refund Refund
	path := fmt.Sprintf("/payments/%s/refund", gatewayPaymentID)
	if err := c.post(ctx, path, payload, &refund); err != nil {
		return nil, err
	}

	c.log.Info("Gateway refund created",
		zap.String("refund_id", refund.ID),
		zap.String("gateway_payment_id", gatewayPaymentID),
		zap.Int64("amount", refund.Amount),
	)

	return &refund, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal gateway request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("Gateway call failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		c.log.Error("Gateway returned error status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway rejected request: status %d: %s", resp.StatusCode, respBody)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}

	return nil
}

func toMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
