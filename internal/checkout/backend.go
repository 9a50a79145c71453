package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fitstack/walletpay/internal/domain"
)

// BackendClient reads the server-rendered inputs of a checkout.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewBackendClient creates a client for the merchant backend at baseURL.
func NewBackendClient(baseURL string, timeout time.Duration) *BackendClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &BackendClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FeaturedProduct asks the storefront which product to offer.
func (c *BackendClient) FeaturedProduct(ctx context.Context) (*domain.Product, error) {
	var resp struct {
		Product *domain.Product `json:"product"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/products/featured", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, domain.ErrProductNotFound
	}
	return resp.Product, nil
}

// CreateCheckout opens an order and returns its checkout context.
func (c *BackendClient) CreateCheckout(ctx context.Context, req domain.CheckoutRequest) (*domain.CheckoutContext, error) {
	var resp struct {
		Checkout *domain.CheckoutContext `json:"checkout"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/checkout", req, &resp); err != nil {
		return nil, err
	}
	if resp.Checkout == nil {
		return nil, fmt.Errorf("backend returned no checkout context: %w", domain.ErrBackendRejection)
	}
	return resp.Checkout, nil
}

func (c *BackendClient) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %v: %w", method, path, err, domain.ErrTransport)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s: %v: %w", path, err, domain.ErrTransport)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s %s: status %d: %w", method, path, resp.StatusCode, domain.ErrTransport)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		_ = json.Unmarshal(raw, &apiErr)
		return domain.NewPaymentError(domain.ErrBackendRejection, apiErr.Error, apiErr.Code)
	}
	return json.Unmarshal(raw, out)
}
