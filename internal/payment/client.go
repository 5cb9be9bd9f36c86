package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

var (
	ErrProviderUnavailable = errors.New("payment provider unavailable")
)

// Request is the payload sent to the external payment collaborator: the
// shipping address, the cart snapshot, the derived total and the chosen
// method.
type Request struct {
	Address       domain.Address    `json:"address_form"`
	Items         []domain.CartItem `json:"cart_items"`
	Total         float64           `json:"cart_total"`
	PaymentMethod string            `json:"payment_method"`
}

// Response is the collaborator's answer: either a redirect target for
// card payments or an immediate outcome (empty URL) for UPI.
type Response struct {
	RedirectURL string `json:"url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Client is the boundary to the external payment collaborator.
type Client interface {
	CreatePayment(ctx context.Context, req Request) (*Response, error)
}

// HTTPClient calls the payment provider over HTTP. Calls carry an explicit
// timeout so an unresponsive provider fails the submission instead of
// hanging it.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPClient creates a payment client for the given provider endpoint.
func NewHTTPClient(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CreatePayment submits the checkout to the provider and returns its
// redirect target or immediate outcome.
func (c *HTTPClient) CreatePayment(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize payment request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build payment request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		c.logger.Error("Payment provider call failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer httpResp.Body.Close()

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}

	if resp.Error != "" {
		return nil, fmt.Errorf("payment processing failed: %s", resp.Error)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("payment processing failed: provider returned status %d", httpResp.StatusCode)
	}

	return &resp, nil
}
