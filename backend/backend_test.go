package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func newTestClient(h http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(h)
	return New(srv.URL, 2*time.Second), srv
}

func TestMinimumOrder(t *testing.T) {
	tests := []struct {
		name     string
		settings []map[string]string
		want     string
		wantOK   bool
	}{
		{
			name: "present",
			settings: []map[string]string{
				{"setting_key": "store_name", "setting_value": "wepink"},
				{"setting_key": "minimum_order_value", "setting_value": "150.50"},
			},
			want:   "150.5",
			wantOK: true,
		},
		{
			name: "absent",
			settings: []map[string]string{
				{"setting_key": "store_name", "setting_value": "wepink"},
			},
			wantOK: false,
		},
		{
			name: "not a number",
			settings: []map[string]string{
				{"setting_key": "minimum_order_value", "setting_value": "soon"},
			},
			wantOK: false,
		},
		{
			name: "not positive",
			settings: []map[string]string{
				{"setting_key": "minimum_order_value", "setting_value": "0"},
			},
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := mux.NewRouter()
			r.HandleFunc("/api/settings", func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"settings": tc.settings})
			}).Methods(http.MethodGet)

			c, srv := newTestClient(r)
			defer srv.Close()

			got, ok, err := c.MinimumOrder(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if tc.wantOK && !got.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestValidateCoupon(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/coupons/validate", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Code        string          `json:"code"`
			OrderAmount decimal.Decimal `json:"order_amount"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if in.Code != "SAVE50" || !in.OrderAmount.Equal(decimal.NewFromInt(210)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"valid":           true,
			"discount_amount": 50,
			"message":         "coupon applied",
		})
	}).Methods(http.MethodPost)

	c, srv := newTestClient(r)
	defer srv.Close()

	v, err := c.ValidateCoupon(context.Background(), "SAVE50", decimal.NewFromInt(210))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !v.Valid {
		t.Fatal("expected a valid coupon")
	}
	if !v.DiscountAmount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected discount 50, got %s", v.DiscountAmount)
	}
}

func TestCreateOrder(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		var in OrderRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if len(in.Items) != 1 || in.Items[0].Quantity != 2 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(OrderResult{Success: true, OrderID: "ord-1"})
	}).Methods(http.MethodPost)

	c, srv := newTestClient(r)
	defer srv.Close()

	res, err := c.CreateOrder(context.Background(), OrderRequest{
		CustomerName: "Ana",
		Items: []OrderItem{{
			Product:  OrderProduct{ID: "1", Name: "serum", Price: decimal.NewFromInt(50)},
			Quantity: 2,
		}},
		TotalAmount:   decimal.NewFromInt(100),
		FinalAmount:   decimal.NewFromInt(100),
		PaymentMethod: "pix",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.OrderID != "ord-1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestErrorBodySurfaced(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/api/orders", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "stock ran out"})
	}).Methods(http.MethodPost)

	c, srv := newTestClient(r)
	defer srv.Close()

	_, err := c.CreateOrder(context.Background(), OrderRequest{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if got := err.Error(); !strings.Contains(got, "stock ran out") {
		t.Fatalf("server message lost: %q", got)
	}
}
