package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountType distinguishes percentage coupons from flat-amount ones.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount code with a validity window and an optional usage
// cap. UsedCount only moves forward, and only on confirmed use.
type Coupon struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Code          string           `json:"code" db:"code"`
	Description   string           `json:"description" db:"description"`
	DiscountType  DiscountType     `json:"discountType" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discountValue" db:"discount_value"`
	MinAmount     decimal.Decimal  `json:"minAmount" db:"min_amount"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	IsActive      bool             `json:"isActive" db:"is_active"`
	ValidFrom     time.Time        `json:"validFrom" db:"valid_from"`
	ValidTo       time.Time        `json:"validTo" db:"valid_to"`
	UsageLimit    *int             `json:"usageLimit,omitempty" db:"usage_limit"`
	UsedCount     int              `json:"usedCount" db:"used_count"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}

// IsValidAt reports whether the coupon can be applied at the given time:
// active, inside its validity window, and not past its usage limit.
func (c *Coupon) IsValidAt(now time.Time) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidTo) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return true
}

// CalculateDiscount returns the discount for an order of the given amount.
// Invalid coupons and orders below the minimum amount get zero. Percentage
// discounts are capped at MaxDiscount when set; every discount is capped
// at the order amount so the total never goes negative.
func (c *Coupon) CalculateDiscount(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValidAt(now) || amount.LessThan(c.MinAmount) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	if c.DiscountType == DiscountPercentage {
		discount = amount.Mul(c.DiscountValue).Div(decimal.NewFromInt(100))
		if c.MaxDiscount != nil && discount.GreaterThan(*c.MaxDiscount) {
			discount = *c.MaxDiscount
		}
	} else {
		discount = c.DiscountValue
	}

	if discount.GreaterThan(amount) {
		discount = amount
	}
	if discount.IsNegative() {
		return decimal.Zero
	}
	return discount
}
