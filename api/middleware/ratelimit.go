package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/wepink/cart-service/api/web"
	"github.com/wepink/cart-service/api/weberr"
	"github.com/wepink/cart-service/rate"
)

// RateLimit rejects requests whose client key has exhausted its tokens.
// The key function usually returns the session id, falling back to the
// remote address for clients without a session yet.
func RateLimit(lim *rate.Limiter, key func(ctx context.Context, r *http.Request) string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := key(ctx, r)
			if id == "" {
				id = r.RemoteAddr
			}

			if !lim.Check(id) {
				return weberr.TooManyRequests(errors.New("rate limit exceeded for " + id))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
