// Package backend is the client for the storefront REST API this service
// consumes: site settings, coupon validation, order creation and the
// cart-addition tracking hook. The API is opaque to us; only the shapes
// below are relied upon.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

const minimumOrderKey = "minimum_order_value"

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

type setting struct {
	Key   string `json:"setting_key"`
	Value string `json:"setting_value"`
}

// MinimumOrder reads the minimum order value from the settings endpoint.
// The second return is false when the settings list does not carry the
// key or its value does not parse as a positive amount.
func (c *Client) MinimumOrder(ctx context.Context) (decimal.Decimal, bool, error) {
	var out struct {
		Settings []setting `json:"settings"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/settings", nil, &out); err != nil {
		return decimal.Zero, false, fmt.Errorf("fetching settings: %w", err)
	}

	for _, s := range out.Settings {
		if s.Key != minimumOrderKey {
			continue
		}
		v, err := decimal.NewFromString(s.Value)
		if err != nil || !v.IsPositive() {
			return decimal.Zero, false, nil
		}
		return v, true, nil
	}
	return decimal.Zero, false, nil
}

type Validation struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Message        string          `json:"message"`
}

func (c *Client) ValidateCoupon(ctx context.Context, code string, orderAmount decimal.Decimal) (Validation, error) {
	in := struct {
		Code        string          `json:"code"`
		OrderAmount decimal.Decimal `json:"order_amount"`
	}{code, orderAmount}

	var out Validation
	if err := c.do(ctx, http.MethodPost, "/api/coupons/validate", in, &out); err != nil {
		return Validation{}, fmt.Errorf("validating coupon: %w", err)
	}
	return out, nil
}

type Coupon struct {
	ID            int             `json:"id"`
	Code          string          `json:"code"`
	DiscountType  string          `json:"discount_type"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	MinimumOrder  decimal.Decimal `json:"minimum_order_amount"`
	Description   string          `json:"description"`
}

func (c *Client) AvailableCoupons(ctx context.Context, orderAmount decimal.Decimal) ([]Coupon, error) {
	in := struct {
		OrderAmount decimal.Decimal `json:"order_amount"`
	}{orderAmount}

	var out struct {
		Coupons []Coupon `json:"coupons"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/coupons/available", in, &out); err != nil {
		return nil, fmt.Errorf("listing available coupons: %w", err)
	}
	return out.Coupons, nil
}

type OrderProduct struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

type OrderItem struct {
	Product  OrderProduct `json:"product"`
	Quantity int          `json:"quantity"`
}

type OrderRequest struct {
	CustomerName    string          `json:"customer_name"`
	CustomerEmail   string          `json:"customer_email"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerAddress string          `json:"customer_address"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CouponCode      string          `json:"coupon_code,omitempty"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	FinalAmount     decimal.Decimal `json:"final_amount"`
	PaymentMethod   string          `json:"payment_method"`
}

type OrderResult struct {
	Success bool   `json:"success"`
	OrderID string `json:"orderId"`
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (OrderResult, error) {
	var out OrderResult
	if err := c.do(ctx, http.MethodPost, "/api/orders", req, &out); err != nil {
		return OrderResult{}, fmt.Errorf("creating order: %w", err)
	}
	return out, nil
}

type Addition struct {
	SessionID     string          `json:"session_id"`
	ProductID     string          `json:"product_id"`
	ProductName   string          `json:"product_name"`
	ProductPrice  decimal.Decimal `json:"product_price"`
	QuantityAdded int             `json:"quantity_added"`
	UserAgent     string          `json:"user_agent"`
}

func (c *Client) TrackCartAddition(ctx context.Context, add Addition) error {
	if err := c.do(ctx, http.MethodPost, "/api/cart-tracking", add, nil); err != nil {
		return fmt.Errorf("tracking cart addition: %w", err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, path string, in any, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	r, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if in != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := c.http.Do(r)
	if err != nil {
		return err
	}
	defer w.Body.Close()

	if w.StatusCode < 200 || w.StatusCode > 299 {
		var er struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(w.Body).Decode(&er); err == nil && er.Error != "" {
			return fmt.Errorf("%s %s: status %d: %s", method, path, w.StatusCode, er.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, w.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(w.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}
