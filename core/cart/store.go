package cart

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wepink/cart-service/core/settings"
	"github.com/wepink/cart-service/tracking"
)

// Snapshots persists the item list between visits, keyed by session id.
// Load's bool reports whether a snapshot existed.
type Snapshots interface {
	Load(ctx context.Context, sessionID string) (Items, bool, error)
	Save(ctx context.Context, sessionID string, items Items) error
	Delete(ctx context.Context, sessionID string) error
}

// Store is the single source of truth for one session's basket and the
// arithmetic derived from it. All mutations run under the store lock, so
// there is exactly one logical writer per session.
type Store struct {
	sessionID string

	mu     sync.Mutex
	items  Items
	loaded bool

	minimum  *settings.Minimum
	snaps    Snapshots
	notifier tracking.Notifier
	log      logrus.FieldLogger
}

// load rehydrates the item list from its snapshot. A storage failure is
// logged and degrades to an empty in-memory cart. The store is marked
// loaded either way; mutations never write back before that point, so a
// half-initialized store cannot clobber a previously saved snapshot.
func (s *Store) load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items, ok, err := s.snaps.Load(ctx, s.sessionID)
	if err != nil {
		s.log.WithField("session_id", s.sessionID).Warnf("loading cart snapshot: %v", err)
	} else if ok {
		s.items = items
	}
	s.loaded = true
}

// persist writes the current item list back to storage. Storage errors
// degrade to in-memory operation for this mutation.
func (s *Store) persist(ctx context.Context) {
	if !s.loaded {
		return
	}
	if err := s.snaps.Save(ctx, s.sessionID, s.items); err != nil {
		s.log.WithField("session_id", s.sessionID).Warnf("saving cart snapshot: %v", err)
	}
}

// AddItem merges the product into the basket and fires a best-effort
// tracking notification. The notification cannot fail the mutation.
func (s *Store) AddItem(ctx context.Context, p Product, qty int, userAgent string) {
	s.mu.Lock()
	s.items = s.items.Add(p, qty)
	s.persist(ctx)
	s.mu.Unlock()

	s.notifier.CartAdded(ctx, tracking.Addition{
		SessionID:    s.sessionID,
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductPrice: p.Price,
		Quantity:     qty,
		UserAgent:    userAgent,
	})
}

func (s *Store) RemoveItem(ctx context.Context, productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items.Remove(productID)
	s.persist(ctx)
}

func (s *Store) UpdateQuantity(ctx context.Context, productID string, qty int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = s.items.SetQuantity(productID, qty)
	s.persist(ctx)
}

// Clear empties the basket and deletes the snapshot right away, not on
// the next mutation-triggered save.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	if err := s.snaps.Delete(ctx, s.sessionID); err != nil {
		s.log.WithField("session_id", s.sessionID).Warnf("deleting cart snapshot: %v", err)
	}
}

func (s *Store) Items() Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.clone()
}

func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalItems()
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items.TotalPrice()
}

func (s *Store) MinimumOrder() decimal.Decimal {
	return s.minimum.Value()
}

func (s *Store) RemainingForMinimum() decimal.Decimal {
	rem := s.minimum.Value().Sub(s.TotalPrice())
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

func (s *Store) MinimumOrderMet() bool {
	return s.TotalPrice().GreaterThanOrEqual(s.minimum.Value())
}

// View is the cart as presented to callers.
type View struct {
	Items               Items           `json:"items"`
	TotalItems          int             `json:"totalItems"`
	TotalPrice          decimal.Decimal `json:"totalPrice"`
	MinimumOrder        decimal.Decimal `json:"minimumOrder"`
	RemainingForMinimum decimal.Decimal `json:"remainingForMinimum"`
	MinimumOrderMet     bool            `json:"minimumOrderMet"`
}

func (s *Store) View() View {
	s.mu.Lock()
	items := s.items.clone()
	s.mu.Unlock()

	min := s.minimum.Value()
	tot := items.TotalPrice()
	rem := min.Sub(tot)
	if rem.IsNegative() {
		rem = decimal.Zero
	}

	return View{
		Items:               items,
		TotalItems:          items.TotalItems(),
		TotalPrice:          tot,
		MinimumOrder:        min,
		RemainingForMinimum: rem,
		MinimumOrderMet:     tot.GreaterThanOrEqual(min),
	}
}

// Manager hands out one store per session id, rehydrating it from its
// snapshot on first access.
type Manager struct {
	mu     sync.Mutex
	stores map[string]*Store

	minimum  *settings.Minimum
	snaps    Snapshots
	notifier tracking.Notifier
	log      logrus.FieldLogger
}

type ManagerConfig struct {
	Minimum  *settings.Minimum
	Snaps    Snapshots
	Notifier tracking.Notifier
	Log      logrus.FieldLogger
}

func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		stores:   make(map[string]*Store),
		minimum:  cfg.Minimum,
		snaps:    cfg.Snaps,
		notifier: cfg.Notifier,
		log:      cfg.Log,
	}
}

func (m *Manager) Store(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	s, ok := m.stores[sessionID]
	if !ok {
		s = &Store{
			sessionID: sessionID,
			minimum:   m.minimum,
			snaps:     m.snaps,
			notifier:  m.notifier,
			log:       m.log,
		}
		m.stores[sessionID] = s
	}
	m.mu.Unlock()

	if !ok {
		s.load(ctx)
	}
	return s
}
