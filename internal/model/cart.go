package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is a session-scoped basket, created lazily the first time a
// visitor touches it. Lines keep insertion order.
type Cart struct {
	ID        uuid.UUID `json:"id" db:"id"`
	SessionID string    `json:"sessionId" db:"session_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// CartLine is one (product, variant) position in a cart. The unit price is
// captured when the line is created and does not follow later catalogue
// price changes.
type CartLine struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	CartID    uuid.UUID       `json:"-" db:"cart_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	VariantID *uuid.UUID      `json:"variantId,omitempty" db:"variant_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// LineTotal returns quantity times captured unit price.
func (l *CartLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotal sums the line totals. Always recomputed, never cached.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for i := range lines {
		total = total.Add(lines[i].LineTotal())
	}
	return total
}

// CartItemCount sums the line quantities.
func CartItemCount(lines []CartLine) int {
	count := 0
	for i := range lines {
		count += lines[i].Quantity
	}
	return count
}

// CartView is the storefront's read model of a cart, including any coupon
// currently applied to the session.
type CartView struct {
	Cart      *Cart           `json:"cart"`
	Lines     []CartLine      `json:"lines"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Coupon    *Coupon         `json:"coupon,omitempty"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
}
