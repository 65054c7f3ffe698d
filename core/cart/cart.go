package cart

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog reference borrowed by the cart. The price is read
// at add time and not re-synced with the catalog afterwards.
type Product struct {
	ID    string          `json:"id" validate:"required"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Image string          `json:"image,omitempty"`
}

type Item struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Items is an ordered line-item list, unique by product id. No item ever
// carries a quantity below 1.
type Items []Item

// Add merges qty into an existing line for the same product id, or
// appends a new line at the end. A non-positive qty is clamped to 1.
func (its Items) Add(p Product, qty int) Items {
	if qty < 1 {
		qty = 1
	}

	out := its.clone()
	for i := range out {
		if out[i].Product.ID == p.ID {
			out[i].Quantity += qty
			return out
		}
	}
	return append(out, Item{Product: p, Quantity: qty})
}

// Remove drops the line for productID. Removing an absent product is a
// no-op, not an error.
func (its Items) Remove(productID string) Items {
	out := make(Items, 0, len(its))
	for _, it := range its {
		if it.Product.ID != productID {
			out = append(out, it)
		}
	}
	return out
}

// SetQuantity sets the line's quantity to an absolute value. A value of
// zero or below removes the line.
func (its Items) SetQuantity(productID string, qty int) Items {
	if qty <= 0 {
		return its.Remove(productID)
	}

	out := its.clone()
	for i := range out {
		if out[i].Product.ID == productID {
			out[i].Quantity = qty
		}
	}
	return out
}

// TotalItems is the sum of all quantities, used for badge counts.
func (its Items) TotalItems() int {
	var n int
	for _, it := range its {
		n += it.Quantity
	}
	return n
}

// TotalPrice is the pre-discount subtotal.
func (its Items) TotalPrice() decimal.Decimal {
	tot := decimal.Zero
	for _, it := range its {
		line := it.Product.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		tot = tot.Add(line)
	}
	return tot
}

func (its Items) clone() Items {
	out := make(Items, len(its))
	copy(out, its)
	return out
}
