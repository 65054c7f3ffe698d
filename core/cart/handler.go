package cart

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/wepink/cart-service/api/web"
	"github.com/wepink/cart-service/api/weberr"
	"github.com/wepink/cart-service/core/session"
	"github.com/wepink/cart-service/validate"
)

// CouponInvalidator drops a session's applied coupon. The cart calls it
// when a mutation breaks minimum-order eligibility.
type CouponInvalidator interface {
	Invalidate(sessionID string)
}

type ItemNew struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

type QuantityUp struct {
	Quantity int `json:"quantity"`
}

func HandleShow(carts *Manager, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		s := carts.Store(ctx, session.ID(ctx, sm))
		return web.Respond(ctx, w, s.View(), http.StatusOK)
	}
}

func HandleCreateItem(carts *Manager, coupons CouponInvalidator, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(in); err != nil {
			return weberr.UnprocessableEntity(err, err.Error())
		}

		sid := session.ID(ctx, sm)
		s := carts.Store(ctx, sid)
		s.AddItem(ctx, in.Product, in.Quantity, r.UserAgent())

		if !s.MinimumOrderMet() {
			coupons.Invalidate(sid)
		}

		return web.Respond(ctx, w, s.View(), http.StatusOK)
	}
}

func HandleUpdateQuantity(carts *Manager, coupons CouponInvalidator, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		var in QuantityUp
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		sid := session.ID(ctx, sm)
		s := carts.Store(ctx, sid)
		s.UpdateQuantity(ctx, productID, in.Quantity)

		if !s.MinimumOrderMet() {
			coupons.Invalidate(sid)
		}

		return web.Respond(ctx, w, s.View(), http.StatusOK)
	}
}

func HandleDeleteItem(carts *Manager, coupons CouponInvalidator, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		productID := web.Param(r, "product_id")

		sid := session.ID(ctx, sm)
		s := carts.Store(ctx, sid)
		s.RemoveItem(ctx, productID)

		if !s.MinimumOrderMet() {
			coupons.Invalidate(sid)
		}

		return web.Respond(ctx, w, s.View(), http.StatusOK)
	}
}

func HandleDelete(carts *Manager, coupons CouponInvalidator, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		sid := session.ID(ctx, sm)
		carts.Store(ctx, sid).Clear(ctx)
		coupons.Invalidate(sid)

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
