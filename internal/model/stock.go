package model

import (
	"time"

	"github.com/google/uuid"
)

// DefaultMinStockLevel is the reorder threshold used when a stock entry is
// seeded lazily on first use.
const DefaultMinStockLevel = 5

// DefaultStockLocation is the warehouse location assigned to lazily seeded
// stock entries.
const DefaultStockLocation = "Main warehouse"

// StockEntry tracks owned and reserved units for one (product, variant)
// pair. VariantID is nil for the product's variant-less stock. Exactly one
// entry exists per pair; the storage layer enforces the uniqueness.
//
// The invariant ReservedQuantity <= Quantity holds after every ledger
// operation except SetQuantity, which deliberately skips the check (see
// SetQuantity).
type StockEntry struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	ProductID        uuid.UUID  `json:"productId" db:"product_id"`
	VariantID        *uuid.UUID `json:"variantId,omitempty" db:"variant_id"`
	Quantity         int        `json:"quantity" db:"quantity"`
	ReservedQuantity int        `json:"reservedQuantity" db:"reserved_quantity"`
	MinStockLevel    int        `json:"minStockLevel" db:"min_stock_level"`
	Location         string     `json:"location" db:"location"`
	CreatedAt        time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time  `json:"updatedAt" db:"updated_at"`
}

// Available returns the quantity not held by cart reservations.
func (e *StockEntry) Available() int {
	return e.Quantity - e.ReservedQuantity
}

// IsLowStock reports whether available stock has dropped to or below the
// reorder threshold.
func (e *StockEntry) IsLowStock() bool {
	return e.Available() <= e.MinStockLevel
}

// Reserve holds qty units for an uncommitted cart. It fails with an
// insufficient-stock error and leaves the entry unchanged when fewer than
// qty units are available.
func (e *StockEntry) Reserve(qty int) error {
	if e.Available() < qty {
		return NewInsufficientStock(e.Available())
	}
	e.ReservedQuantity += qty
	return nil
}

// Release gives back qty previously reserved units. Releasing more than is
// currently reserved signals a bookkeeping bug upstream and fails with
// ErrInvalidRelease, leaving the entry unchanged.
func (e *StockEntry) Release(qty int) error {
	if e.ReservedQuantity < qty {
		return ErrInvalidRelease
	}
	e.ReservedQuantity -= qty
	return nil
}

// Consume permanently removes qty owned units at order confirmation. It
// decrements Quantity only; the matching reservation must be released
// separately by the caller.
func (e *StockEntry) Consume(qty int) error {
	if e.Available() < qty {
		return NewInsufficientStock(e.Available())
	}
	e.Quantity -= qty
	return nil
}

// Add records inbound intake of qty units.
func (e *StockEntry) Add(qty int) {
	e.Quantity += qty
}

// SetQuantity overwrites the owned quantity for an adjustment movement.
// It does not validate against ReservedQuantity, so an adjustment can
// drive Available negative. That matches the warehouse's manual-override
// behaviour; callers wanting the invariant must check first.
func (e *StockEntry) SetQuantity(qty int) {
	e.Quantity = qty
}
