package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/shopspring/decimal"
	"github.com/wepink/cart-service/api/web"
	"github.com/wepink/cart-service/api/weberr"
	"github.com/wepink/cart-service/backend"
	"github.com/wepink/cart-service/core/cart"
	"github.com/wepink/cart-service/core/coupon"
	"github.com/wepink/cart-service/core/session"
	"github.com/wepink/cart-service/validate"
)

// Submitter creates the order and revalidates a coupon when one rides
// along.
type Submitter interface {
	CreateOrder(ctx context.Context, req backend.OrderRequest) (backend.OrderResult, error)
	ValidateCoupon(ctx context.Context, code string, orderAmount decimal.Decimal) (backend.Validation, error)
}

// HandleSubmit turns the session's cart into an order. The minimum-order
// gate is enforced twice: on the pre-discount subtotal and again on the
// final amount, so a coupon can never drop a completed order below the
// threshold. The cart is cleared only after the order endpoint accepts;
// a failed submission leaves the basket untouched.
func HandleSubmit(carts *cart.Manager, coupons *coupon.Registry, client Submitter, sm *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var in OrderNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(err)
		}

		if err := validate.Check(in); err != nil {
			return weberr.UnprocessableEntity(err, err.Error())
		}

		sid := session.ID(ctx, sm)
		s := carts.Store(ctx, sid)

		items := s.Items()
		if len(items) == 0 {
			err := errors.New("no items to checkout")
			return weberr.UnprocessableEntity(err, err.Error())
		}

		subtotal := items.TotalPrice()
		minimum := s.MinimumOrder()

		if subtotal.LessThan(minimum) {
			remaining := minimum.Sub(subtotal)
			err := fmt.Errorf("subtotal %s is below the %s minimum", subtotal, minimum)
			msg := fmt.Sprintf("add %s more to reach the minimum order of %s", remaining, minimum)
			return weberr.UnprocessableEntity(err, msg)
		}

		discount := decimal.Zero
		if in.CouponCode != "" {
			v, err := client.ValidateCoupon(ctx, in.CouponCode, subtotal)
			if err != nil {
				return weberr.BadGateway(err, "could not validate the coupon, try again later")
			}
			if !v.Valid {
				msg := v.Message
				if msg == "" {
					msg = "the coupon is not valid for this order"
				}
				coupons.Invalidate(sid)
				return weberr.UnprocessableEntity(fmt.Errorf("coupon %q rejected", in.CouponCode), msg)
			}
			discount = v.DiscountAmount
		}

		final := subtotal.Sub(discount)
		if final.LessThan(minimum) {
			err := fmt.Errorf("final amount %s is below the %s minimum after discount", final, minimum)
			msg := fmt.Sprintf("the discounted total must still reach the minimum order of %s", minimum)
			return weberr.UnprocessableEntity(err, msg)
		}

		req := backend.OrderRequest{
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			CustomerPhone:   in.CustomerPhone,
			CustomerAddress: in.CustomerAddress,
			Items:           orderItems(items),
			TotalAmount:     subtotal,
			CouponCode:      in.CouponCode,
			DiscountAmount:  discount,
			FinalAmount:     final,
			PaymentMethod:   in.PaymentMethod,
		}

		res, err := client.CreateOrder(ctx, req)
		if err != nil {
			return weberr.BadGateway(err, "could not submit the order, your cart was kept")
		}
		if !res.Success {
			err := errors.New("order endpoint reported failure")
			return weberr.BadGateway(err, "could not submit the order, your cart was kept")
		}

		s.Clear(ctx)
		coupons.Invalidate(sid)

		conf := Confirmation{
			OrderID:        res.OrderID,
			TotalAmount:    subtotal,
			DiscountAmount: discount,
			FinalAmount:    final,
		}
		return web.Respond(ctx, w, conf, http.StatusCreated)
	}
}

func orderItems(items cart.Items) []backend.OrderItem {
	out := make([]backend.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, backend.OrderItem{
			Product: backend.OrderProduct{
				ID:    it.Product.ID,
				Name:  it.Product.Name,
				Price: it.Product.Price,
			},
			Quantity: it.Quantity,
		})
	}
	return out
}
