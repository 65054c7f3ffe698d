package settings

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Source yields the minimum order value from the site settings.
// The bool is false when the setting is absent or not a positive amount.
type Source interface {
	MinimumOrder(ctx context.Context) (decimal.Decimal, bool, error)
}

// Minimum holds the current minimum order value. It is resolved once at
// startup and may be refreshed later; readers always see a consistent
// value.
type Minimum struct {
	mu  sync.RWMutex
	val decimal.Decimal
}

// New builds a Minimum pinned at v.
func New(v decimal.Decimal) *Minimum {
	return &Minimum{val: v}
}

// Resolve reads the minimum order value from src, falling back to
// fallback when the fetch fails or the setting is missing. The fetch
// failure is logged and never fatal.
func Resolve(ctx context.Context, src Source, fallback decimal.Decimal, log logrus.FieldLogger) *Minimum {
	m := New(fallback)

	v, ok, err := src.MinimumOrder(ctx)
	if err != nil {
		log.WithField("fallback", fallback.String()).Warnf("could not fetch minimum order value: %v", err)
		return m
	}
	if !ok {
		log.WithField("fallback", fallback.String()).Info("settings carry no usable minimum order value")
		return m
	}

	m.val = v
	return m
}

func (m *Minimum) Value() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.val
}

// Set replaces the current value. Used by the refresh loop.
func (m *Minimum) Set(v decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.val = v
}
