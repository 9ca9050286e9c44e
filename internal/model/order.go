package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order. Orders move strictly
// forward (pending -> confirmed -> ready_to_ship -> shipped -> delivered);
// cancelled is terminal and reachable from any pre-delivered state.
type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusConfirmed   OrderStatus = "confirmed"
	OrderStatusReadyToShip OrderStatus = "ready_to_ship"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusReadyToShip,
		OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// CancellableStatuses are the states an order may be cancelled from.
// Delivered and cancelled orders are terminal.
func CancellableStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPending,
		OrderStatusConfirmed,
		OrderStatusReadyToShip,
		OrderStatusShipped,
	}
}

// Order is the immutable snapshot written at checkout. Customer and money
// fields never change afterwards; only Status advances.
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	OrderNumber     string          `json:"orderNumber" db:"order_number"`
	SessionID       string          `json:"-" db:"session_id"`
	CustomerName    string          `json:"customerName" db:"customer_name"`
	CustomerEmail   string          `json:"customerEmail" db:"customer_email"`
	CustomerPhone   string          `json:"customerPhone" db:"customer_phone"`
	ShippingAddress string          `json:"shippingAddress" db:"shipping_address"`
	ShippingCity    string          `json:"shippingCity" db:"shipping_city"`
	ShippingState   string          `json:"shippingState" db:"shipping_state"`
	ShippingZipCode string          `json:"shippingZipCode" db:"shipping_zip_code"`
	Status          OrderStatus     `json:"status" db:"status"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Discount        decimal.Decimal `json:"discount" db:"discount"`
	Total           decimal.Decimal `json:"total" db:"total"`
	CouponCode      *string         `json:"couponCode,omitempty" db:"coupon_code"`
	Notes           string          `json:"notes" db:"notes"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is one snapshotted line of an order, decoupled from live cart
// and catalogue state.
type OrderItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID uuid.UUID       `json:"productId" db:"product_id"`
	VariantID *uuid.UUID      `json:"variantId,omitempty" db:"variant_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
	LineTotal decimal.Decimal `json:"lineTotal" db:"line_total"`
}

// NewOrderNumber generates a short human-readable order reference, e.g.
// ORD-3FA85F64.
func NewOrderNumber() string {
	hex := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(hex[:8])
}

// CheckoutRequest carries the checkout form plus the coupon code resolved
// from the visitor's session, threaded through explicitly so checkout has
// no ambient session dependency.
type CheckoutRequest struct {
	CustomerName    string `json:"customerName"`
	CustomerEmail   string `json:"customerEmail"`
	CustomerPhone   string `json:"customerPhone"`
	ShippingAddress string `json:"shippingAddress"`
	ShippingCity    string `json:"shippingCity"`
	ShippingState   string `json:"shippingState"`
	ShippingZipCode string `json:"shippingZipCode"`
	Notes           string `json:"notes"`
	CouponCode      string `json:"-"`
}

// OrderResponse is the order detail payload: the snapshot plus its items.
type OrderResponse struct {
	Order *Order      `json:"order"`
	Items []OrderItem `json:"items"`
}
