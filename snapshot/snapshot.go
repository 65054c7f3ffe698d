// Package snapshot persists cart item lists between visits. Every
// implementation stores the same JSON array of {product, quantity}
// objects under a per-session key, so drivers are interchangeable.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/wepink/cart-service/core/cart"
)

func encode(items cart.Items) ([]byte, error) {
	if items == nil {
		items = cart.Items{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding cart items: %w", err)
	}
	return b, nil
}

func decode(b []byte) (cart.Items, error) {
	var items cart.Items
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("decoding cart items: %w", err)
	}
	return items, nil
}

// Memory keeps snapshots in the process. Used by tests and as the
// degraded mode when no external store is configured.
type Memory struct {
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string][]byte)}
}

func (m *Memory) Load(ctx context.Context, sessionID string) (cart.Items, bool, error) {
	m.mu.RLock()
	b, ok := m.items[sessionID]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	items, err := decode(b)
	if err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (m *Memory) Save(ctx context.Context, sessionID string, items cart.Items) error {
	b, err := encode(items)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.items[sessionID] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.items, sessionID)
	m.mu.Unlock()
	return nil
}
