package coupon

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/shopspring/decimal"
	"github.com/wepink/cart-service/api/web"
	"github.com/wepink/cart-service/api/weberr"
	"github.com/wepink/cart-service/backend"
	"github.com/wepink/cart-service/core/cart"
	"github.com/wepink/cart-service/core/session"
	"github.com/wepink/cart-service/validate"
)

// Validator checks a code against the coupon endpoint for an order
// amount.
type Validator interface {
	ValidateCoupon(ctx context.Context, code string, orderAmount decimal.Decimal) (backend.Validation, error)
}

// Lister fetches the coupons usable at a given order amount.
type Lister interface {
	AvailableCoupons(ctx context.Context, orderAmount decimal.Decimal) ([]backend.Coupon, error)
}

type CodeNew struct {
	Code string `json:"code" validate:"required,max=64"`
}

func HandleValidate(carts *cart.Manager, registry *Registry, client Validator, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in CodeNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(in); err != nil {
			return weberr.UnprocessableEntity(err, err.Error())
		}

		sid := session.ID(ctx, sm)
		subtotal := carts.Store(ctx, sid).TotalPrice()

		app := registry.Get(sid)
		app.Begin(in.Code)

		v, err := client.ValidateCoupon(ctx, in.Code, subtotal)
		if err != nil {
			app.Fail("could not validate the coupon, try again later")
			return weberr.BadGateway(err, "could not validate the coupon, try again later")
		}

		if !v.Valid {
			app.Fail(v.Message)
		} else {
			app.Succeed(v.DiscountAmount, v.Message)
		}

		return web.Respond(ctx, w, app.Status(), http.StatusOK)
	}
}

func HandleShow(registry *Registry, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		app := registry.Get(session.ID(ctx, sm))
		return web.Respond(ctx, w, app.Status(), http.StatusOK)
	}
}

func HandleDelete(registry *Registry, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		registry.Invalidate(session.ID(ctx, sm))
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleListAvailable(carts *cart.Manager, client Lister, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		subtotal := carts.Store(ctx, session.ID(ctx, sm)).TotalPrice()

		coupons, err := client.AvailableCoupons(ctx, subtotal)
		if err != nil {
			return weberr.BadGateway(err, "could not list available coupons")
		}
		if coupons == nil {
			coupons = []backend.Coupon{}
		}

		return web.Respond(ctx, w, coupons, http.StatusOK)
	}
}
