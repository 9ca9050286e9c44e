package service

import (
	"context"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductService defines catalogue read operations.
type ProductService interface {
	// GetAll retrieves active products with pagination and an optional
	// category filter.
	GetAll(ctx context.Context, limit, offset int, category string) ([]model.Product, error)

	// GetByID retrieves a single product.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
}

// CartService defines the session cart operations. Every mutation keeps
// the stock reservation ledger in step with the cart lines.
type CartService interface {
	// View builds the cart read model for a session. couponCode is the
	// code currently applied to the session, or empty; a stale or invalid
	// code yields a view with no coupon so the caller can drop the
	// association.
	View(ctx context.Context, sessionID, couponCode string) (*model.CartView, error)

	// AddItem puts quantity units of a (product, variant) pair in the
	// cart, reserving stock for them. Adding a pair already in the cart
	// increments the existing line.
	AddItem(ctx context.Context, sessionID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*model.CartLine, error)

	// UpdateItem changes a line to the given quantity, moving the stock
	// reservation accordingly. A quantity of zero or less removes the
	// line.
	UpdateItem(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) error

	// RemoveItem deletes a line and releases its reservation.
	RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) error

	// Clear deletes every line of the session's cart and releases all of
	// its reservations.
	Clear(ctx context.Context, sessionID string) error
}

// CouponService defines coupon evaluation against a session's cart.
type CouponService interface {
	// Evaluate checks that the code names a coupon valid for the
	// session's current cart and returns the coupon together with the
	// discount it would grant right now. Evaluation never consumes a use.
	Evaluate(ctx context.Context, sessionID, code string) (*model.Coupon, decimal.Decimal, error)
}

// OrderService defines checkout and storefront order lookup.
type OrderService interface {
	// Checkout converts the session's cart into an order atomically:
	// stock is consumed, reservations are released, the cart is cleared
	// and the coupon use (if any) is recorded, all or nothing.
	Checkout(ctx context.Context, sessionID string, req *model.CheckoutRequest) (*model.OrderResponse, error)

	// GetByNumber retrieves an order with its items.
	GetByNumber(ctx context.Context, orderNumber string) (*model.OrderResponse, error)
}

// MovementRequest carries a manually recorded inventory movement.
type MovementRequest struct {
	ProductID uuid.UUID          `json:"productId"`
	VariantID *uuid.UUID         `json:"variantId,omitempty"`
	Type      model.MovementType `json:"type"`
	Quantity  int                `json:"quantity"`
	Reason    string             `json:"reason"`
	Notes     string             `json:"notes"`
}

// ShipmentRequest carries the dispatch details for shipping an order.
type ShipmentRequest struct {
	TrackingNumber string `json:"trackingNumber"`
	Carrier        string `json:"carrier"`
	Notes          string `json:"notes"`
}

// WarehouseService defines the back-office operations: order lifecycle
// transitions, the inventory movement ledger, shipments and stock
// overview.
type WarehouseService interface {
	// ListOrders retrieves orders newest first, optionally filtered by
	// status.
	ListOrders(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, error)

	// Confirm moves a pending order to confirmed.
	Confirm(ctx context.Context, orderNumber string) (*model.Order, error)

	// MarkReadyToShip moves a confirmed order to ready_to_ship.
	MarkReadyToShip(ctx context.Context, orderNumber string) (*model.Order, error)

	// Ship dispatches a ready_to_ship order: the order moves to shipped,
	// a shipment is recorded and one outbound ledger entry is written and
	// applied per order item.
	Ship(ctx context.Context, orderNumber string, req *ShipmentRequest) (*model.Shipment, error)

	// Deliver moves a shipped order to delivered.
	Deliver(ctx context.Context, orderNumber string) (*model.Order, error)

	// Cancel moves an order to cancelled from any non-terminal state.
	Cancel(ctx context.Context, orderNumber string) (*model.Order, error)

	// RecordMovement appends a ledger entry and applies its effect to the
	// matching stock entry.
	RecordMovement(ctx context.Context, req *MovementRequest) (*model.InventoryMovement, error)

	// ListMovements retrieves ledger entries newest first, optionally
	// filtered by movement type.
	ListMovements(ctx context.Context, movementType model.MovementType, limit, offset int) ([]model.InventoryMovement, error)

	// ListShipments retrieves shipments newest first.
	ListShipments(ctx context.Context, limit, offset int) ([]model.Shipment, error)

	// ListStock retrieves the stock overview, optionally only entries at
	// or below their minimum stock level.
	ListStock(ctx context.Context, lowOnly bool) ([]model.StockEntry, error)

	// PurgeOrders removes all orders, movements and shipments. Test and
	// demo environments only.
	PurgeOrders(ctx context.Context) (*model.PurgeResult, error)
}
