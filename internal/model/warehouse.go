package model

import (
	"time"

	"github.com/google/uuid"
)

// MovementType classifies an inventory movement.
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a known movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementIn, MovementOut, MovementAdjustment:
		return true
	}
	return false
}

// InventoryMovement is one entry in the append-only warehouse ledger.
// Inserting a movement applies its effect to the matching stock entry:
// in adds, out consumes, adjustment overwrites the absolute quantity.
// Movements are never updated or deleted (outside the administrative
// purge).
type InventoryMovement struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	ProductID uuid.UUID    `json:"productId" db:"product_id"`
	VariantID *uuid.UUID   `json:"variantId,omitempty" db:"variant_id"`
	Type      MovementType `json:"type" db:"movement_type"`
	Quantity  int          `json:"quantity" db:"quantity"`
	Reason    string       `json:"reason" db:"reason"`
	OrderID   *uuid.UUID   `json:"orderId,omitempty" db:"order_id"`
	Notes     string       `json:"notes" db:"notes"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}

// Shipment records the dispatch of an order. At most one exists per order;
// creating it is what moves the order to shipped.
type Shipment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrderID        uuid.UUID `json:"orderId" db:"order_id"`
	TrackingNumber string    `json:"trackingNumber" db:"tracking_number"`
	Carrier        string    `json:"carrier" db:"carrier"`
	Notes          string    `json:"notes" db:"notes"`
	ShippedAt      time.Time `json:"shippedAt" db:"shipped_at"`
}

// PurgeResult reports what an administrative order purge removed.
type PurgeResult struct {
	Orders    int64 `json:"orders"`
	Movements int64 `json:"movements"`
	Shipments int64 `json:"shipments"`
}
