package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/wepink/cart-service/api/web"
	"github.com/wepink/cart-service/random"
)

// IDKey is the session key holding the durable per-client identifier
// reused across visits for cart persistence and tracking calls.
const IDKey = "user-session-id"

func NewManager(lifetime time.Duration) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.SameSite = http.SameSiteLaxMode
	return sm
}

// NewID builds a client identifier in the session_{timestamp}_{random}
// shape the tracking endpoint expects.
func NewID() string {
	return fmt.Sprintf("session_%d_%s", time.Now().UnixMilli(), random.String(9))
}

// LoadAndSave adapts the scs middleware to the handler chain.
func LoadAndSave(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := sm.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				err = handler(r.Context(), w, r)
			}))
			sh.ServeHTTP(w, r)

			return err
		}
		return h
	}
	return m
}

// Identify guarantees every request carries a client identifier,
// generating one on first contact.
func Identify(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if sm.GetString(ctx, IDKey) == "" {
				sm.Put(ctx, IDKey, NewID())
			}
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// ID returns the request's client identifier, empty outside a session.
func ID(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, IDKey)
}
