package checkout

import (
	"github.com/shopspring/decimal"
)

// OrderNew carries the customer details for order submission. The coupon
// code, when present, is revalidated server-side at submit time; a
// previously applied discount is never trusted as-is.
type OrderNew struct {
	CustomerName    string `json:"customerName" validate:"required"`
	CustomerEmail   string `json:"customerEmail" validate:"required,email"`
	CustomerPhone   string `json:"customerPhone" validate:"required"`
	CustomerAddress string `json:"customerAddress" validate:"required"`
	PaymentMethod   string `json:"paymentMethod" validate:"required"`
	CouponCode      string `json:"couponCode" validate:"omitempty,max=64"`
}

// Confirmation is returned once the order endpoint accepts the cart.
type Confirmation struct {
	OrderID        string          `json:"orderId"`
	TotalAmount    decimal.Decimal `json:"totalAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	FinalAmount    decimal.Decimal `json:"finalAmount"`
}
