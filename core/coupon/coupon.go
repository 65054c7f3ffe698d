package coupon

import (
	"sync"

	"github.com/shopspring/decimal"
)

// State of a coupon application within one session. Nothing here
// survives the session: every new session starts empty.
type State string

const (
	StateEmpty      State = "empty"
	StateValidating State = "validating"
	StateApplied    State = "applied"
	StateError      State = "error"
)

// Application tracks one session's coupon entry:
// empty -> validating -> applied | error, with any code edit or
// eligibility change resetting to empty.
type Application struct {
	mu       sync.Mutex
	state    State
	code     string
	discount decimal.Decimal
	message  string
}

// Status is a read-only view of the application.
type Status struct {
	State          State           `json:"state"`
	Code           string          `json:"code,omitempty"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message,omitempty"`
}

// Begin moves the application into validating for the given code. A code
// different from the currently held one discards the previous outcome
// first.
func (a *Application) Begin(code string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if code != a.code {
		a.discount = decimal.Zero
		a.message = ""
	}
	a.code = code
	a.state = StateValidating
}

func (a *Application) Succeed(discount decimal.Decimal, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = StateApplied
	a.discount = discount
	a.message = message
}

func (a *Application) Fail(message string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = StateError
	a.discount = decimal.Zero
	a.message = message
}

func (a *Application) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = StateEmpty
	a.code = ""
	a.discount = decimal.Zero
	a.message = ""
}

func (a *Application) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := a.state
	if st == "" {
		st = StateEmpty
	}

	return Status{
		State:          st,
		Code:           a.code,
		DiscountAmount: a.discount,
		Message:        a.message,
	}
}

// Registry holds the per-session applications. Sessions appear lazily
// and are dropped on invalidation once back to empty.
type Registry struct {
	mu   sync.Mutex
	apps map[string]*Application
}

func NewRegistry() *Registry {
	return &Registry{apps: make(map[string]*Application)}
}

func (r *Registry) Get(sessionID string) *Application {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.apps[sessionID]
	if !ok {
		a = &Application{state: StateEmpty}
		r.apps[sessionID] = a
	}
	return a
}

// Invalidate resets and forgets the session's application.
func (r *Registry) Invalidate(sessionID string) {
	r.mu.Lock()
	a, ok := r.apps[sessionID]
	if ok {
		delete(r.apps, sessionID)
	}
	r.mu.Unlock()

	if ok {
		a.Reset()
	}
}
