// Package tracking reports cart additions to the storefront's analytics
// and dynamic-discount hook. Notifications are best effort: a failed or
// slow report must never affect the cart mutation that triggered it.
package tracking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wepink/cart-service/api/background"
	"github.com/wepink/cart-service/backend"
)

type Addition struct {
	SessionID    string
	ProductID    string
	ProductName  string
	ProductPrice decimal.Decimal
	Quantity     int
	UserAgent    string
}

// Notifier receives cart additions. Implementations swallow their own
// failures.
type Notifier interface {
	CartAdded(ctx context.Context, add Addition)
}

type Noop struct{}

func (Noop) CartAdded(context.Context, Addition) {}

// Backend ships additions to the cart-tracking endpoint on background
// goroutines, detached from the request context so an aborted request
// does not cancel the report.
type Backend struct {
	client  *backend.Client
	bg      *background.Background
	timeout time.Duration
	log     logrus.FieldLogger
}

func NewBackend(client *backend.Client, bg *background.Background, timeout time.Duration, log logrus.FieldLogger) *Backend {
	return &Backend{client: client, bg: bg, timeout: timeout, log: log}
}

func (b *Backend) CartAdded(_ context.Context, add Addition) {
	b.bg.Add(func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		err := b.client.TrackCartAddition(ctx, backend.Addition{
			SessionID:     add.SessionID,
			ProductID:     add.ProductID,
			ProductName:   add.ProductName,
			ProductPrice:  add.ProductPrice,
			QuantityAdded: add.Quantity,
			UserAgent:     add.UserAgent,
		})
		if err != nil {
			b.log.WithField("product_id", add.ProductID).Warnf("cart tracking failed: %v", err)
		}
	})
}
