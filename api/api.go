package api

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wepink/cart-service/api/middleware"
	"github.com/wepink/cart-service/api/web"
	"github.com/wepink/cart-service/backend"
	"github.com/wepink/cart-service/core/cart"
	"github.com/wepink/cart-service/core/checkout"
	"github.com/wepink/cart-service/core/coupon"
	"github.com/wepink/cart-service/core/session"
	"github.com/wepink/cart-service/rate"
)

type APIConfig struct {
	CorsOrigin    string
	Log           logrus.FieldLogger
	Session       *scs.SessionManager
	Carts         *cart.Manager
	Coupons       *coupon.Registry
	Backend       *backend.Client
	CouponLimiter *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, session.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, session.Identify(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	limited := middleware.RateLimit(cfg.CouponLimiter, func(ctx context.Context, r *http.Request) string {
		return session.ID(ctx, cfg.Session)
	})

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.Carts, cfg.Session))
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.Carts, cfg.Coupons, cfg.Session))
	a.Handle(http.MethodPost, "/cart/items", cart.HandleCreateItem(cfg.Carts, cfg.Coupons, cfg.Session))
	a.Handle(http.MethodPut, "/cart/items/{product_id}", cart.HandleUpdateQuantity(cfg.Carts, cfg.Coupons, cfg.Session))
	a.Handle(http.MethodDelete, "/cart/items/{product_id}", cart.HandleDeleteItem(cfg.Carts, cfg.Coupons, cfg.Session))

	a.Handle(http.MethodGet, "/coupons", coupon.HandleShow(cfg.Coupons, cfg.Session))
	a.Handle(http.MethodDelete, "/coupons", coupon.HandleDelete(cfg.Coupons, cfg.Session))
	a.Handle(http.MethodPost, "/coupons/validate", coupon.HandleValidate(cfg.Carts, cfg.Coupons, cfg.Backend, cfg.Session), limited)
	a.Handle(http.MethodGet, "/coupons/available", coupon.HandleListAvailable(cfg.Carts, cfg.Backend, cfg.Session))

	a.Handle(http.MethodPost, "/checkout", checkout.HandleSubmit(cfg.Carts, cfg.Coupons, cfg.Backend, cfg.Session))

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
