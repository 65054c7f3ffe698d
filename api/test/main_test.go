package test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wepink/cart-service/api"
	"github.com/wepink/cart-service/api/background"
	"github.com/wepink/cart-service/backend"
	"github.com/wepink/cart-service/core/cart"
	"github.com/wepink/cart-service/core/coupon"
	"github.com/wepink/cart-service/core/session"
	"github.com/wepink/cart-service/core/settings"
	"github.com/wepink/cart-service/rate"
	"github.com/wepink/cart-service/snapshot"
	"github.com/wepink/cart-service/tracking"
	"github.com/wepink/cart-service/validate"
)

// mockBackend stands in for the storefront REST API: settings, coupons,
// orders and the tracking hook.
type mockBackend struct {
	mu        sync.Mutex
	minimum   string
	coupons   map[string]decimal.Decimal
	orders    int
	trackings int
}

func newMockBackend() *mockBackend {
	return &mockBackend{
		minimum: "200",
		coupons: make(map[string]decimal.Decimal),
	}
}

func (m *mockBackend) AddCoupon(code string, discount decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.coupons[code] = discount
}

func (m *mockBackend) Orders() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders
}

func (m *mockBackend) Trackings() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trackings
}

func (m *mockBackend) handle() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/settings", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		min := m.minimum
		m.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{
			"settings": []map[string]string{
				{"setting_key": "minimum_order_value", "setting_value": min},
			},
		})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/coupons/validate", func(w http.ResponseWriter, req *http.Request) {
		var in struct {
			Code        string          `json:"code"`
			OrderAmount decimal.Decimal `json:"order_amount"`
		}
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		discount, ok := m.coupons[in.Code]
		m.mu.Unlock()

		out := map[string]any{"valid": false, "discount_amount": 0, "message": "unknown coupon"}
		if ok {
			out = map[string]any{"valid": true, "discount_amount": discount, "message": "coupon applied"}
		}
		json.NewEncoder(w).Encode(out)
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/coupons/available", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		coupons := make([]map[string]any, 0, len(m.coupons))
		i := 0
		for code, discount := range m.coupons {
			i++
			coupons = append(coupons, map[string]any{
				"id":                   i,
				"code":                 code,
				"discount_type":        "fixed",
				"discount_value":       discount,
				"minimum_order_amount": m.minimum,
				"description":          "test coupon",
			})
		}
		m.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{"coupons": coupons})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/orders", func(w http.ResponseWriter, req *http.Request) {
		var in backend.OrderRequest
		if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		m.mu.Lock()
		m.orders++
		m.mu.Unlock()

		json.NewEncoder(w).Encode(backend.OrderResult{Success: true, OrderID: validate.GenerateID()})
	}).Methods(http.MethodPost)

	r.HandleFunc("/api/cart-tracking", func(w http.ResponseWriter, _ *http.Request) {
		m.mu.Lock()
		m.trackings++
		m.mu.Unlock()

		json.NewEncoder(w).Encode(map[string]any{"triggered_discounts": []any{}})
	}).Methods(http.MethodPost)

	return r
}

type TestEnv struct {
	URL     string
	Backend *mockBackend

	bg     *background.Background
	client *http.Client
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	mb := newMockBackend()
	upstream := httptest.NewServer(mb.handle())
	t.Cleanup(upstream.Close)

	log := logrus.New()
	log.SetOutput(io.Discard)

	client := backend.New(upstream.URL, 2*time.Second)
	bg := background.New(log)

	minimum := settings.Resolve(context.Background(), client, decimal.NewFromInt(200), log)

	carts := cart.NewManager(cart.ManagerConfig{
		Minimum:  minimum,
		Snaps:    snapshot.NewMemory(),
		Notifier: tracking.NewBackend(client, bg, 2*time.Second, log),
		Log:      log,
	})

	h := api.APIMux(api.APIConfig{
		Log:           log,
		Session:       session.NewManager(time.Hour),
		Carts:         carts,
		Coupons:       coupon.NewRegistry(),
		Backend:       client,
		CouponLimiter: rate.NewLimiter(1000, 100, rate.Every(time.Microsecond)),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("building cookie jar: %v", err)
	}

	return &TestEnv{
		URL:     srv.URL,
		Backend: mb,
		bg:      bg,
		client:  &http.Client{Jar: jar},
	}
}

func (e *TestEnv) Client() *http.Client { return e.client }

// WaitBackground flushes in-flight tracking calls.
func (e *TestEnv) WaitBackground(t *testing.T) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.bg.Shutdown(ctx); err != nil {
		t.Fatalf("waiting for background tasks: %v", err)
	}
}

func (e *TestEnv) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, buf)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}

	w, err := e.client.Do(r)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer w.Body.Close()

	if out != nil && w.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return w.StatusCode
}

// cartView mirrors the wire shape of the cart endpoint.
type cartView struct {
	Items []struct {
		Product struct {
			ID    string          `json:"id"`
			Name  string          `json:"name"`
			Price decimal.Decimal `json:"price"`
		} `json:"product"`
		Quantity int `json:"quantity"`
	} `json:"items"`
	TotalItems          int             `json:"totalItems"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	MinimumOrder        decimal.Decimal `json:"minimumOrder"`
	RemainingForMinimum decimal.Decimal `json:"remainingForMinimum"`
	MinimumOrderMet     bool            `json:"minimumOrderMet"`
}

func (e *TestEnv) addItem(t *testing.T, id string, price int64, qty int) cartView {
	t.Helper()

	body := map[string]any{
		"product":  map[string]any{"id": id, "name": "product-" + id, "price": price},
		"quantity": qty,
	}

	var v cartView
	if code := e.do(t, http.MethodPost, "/cart/items", body, &v); code != http.StatusOK {
		t.Fatalf("adding item %s: status %d", id, code)
	}
	return v
}

func (e *TestEnv) showCart(t *testing.T) cartView {
	t.Helper()

	var v cartView
	if code := e.do(t, http.MethodGet, "/cart", nil, &v); code != http.StatusOK {
		t.Fatalf("showing cart: status %d", code)
	}
	return v
}
