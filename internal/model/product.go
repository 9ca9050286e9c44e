package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalogue item. The core never mutates products;
// the nominal Stock count is only used to seed a stock entry the first
// time one is needed.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SKU         string          `json:"sku" db:"sku"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Category    string          `json:"category" db:"category"`
	Stock       int             `json:"stock" db:"stock"`
	IsActive    bool            `json:"isActive" db:"is_active"`
	IsFeatured  bool            `json:"isFeatured" db:"is_featured"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// ProductVariant is a sellable variation of a product (size, colour,
// material) priced as the base price plus a modifier.
type ProductVariant struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	ProductID     uuid.UUID       `json:"productId" db:"product_id"`
	Name          string          `json:"name" db:"name"`
	Value         string          `json:"value" db:"value"`
	SKU           string          `json:"sku" db:"sku"`
	PriceModifier decimal.Decimal `json:"priceModifier" db:"price_modifier"`
	IsActive      bool            `json:"isActive" db:"is_active"`
}

// FinalPrice returns the variant price given the product base price.
func (v *ProductVariant) FinalPrice(basePrice decimal.Decimal) decimal.Decimal {
	return basePrice.Add(v.PriceModifier)
}
