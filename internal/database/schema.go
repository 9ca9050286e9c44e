package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Schema is the full DDL for the storefront and warehouse tables. The
// uniqueness and check constraints here are the storage-level enforcement
// of the domain invariants: one stock entry and one cart line per
// (product, variant) pair including the no-variant case, one cart per
// session, one shipment per order.
const Schema = `
CREATE TABLE IF NOT EXISTS products (
	id UUID PRIMARY KEY,
	sku TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	price DECIMAL(10,2) NOT NULL CHECK (price >= 0),
	category TEXT NOT NULL DEFAULT '',
	stock INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	is_featured BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS product_variants (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	name TEXT NOT NULL,
	value TEXT NOT NULL,
	sku TEXT NOT NULL UNIQUE,
	price_modifier DECIMAL(10,2) NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	UNIQUE (product_id, name, value)
);

CREATE TABLE IF NOT EXISTS stock_entries (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	variant_id UUID REFERENCES product_variants(id) ON DELETE CASCADE,
	quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
	reserved_quantity INTEGER NOT NULL DEFAULT 0 CHECK (reserved_quantity >= 0),
	min_stock_level INTEGER NOT NULL DEFAULT 5,
	location TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE NULLS NOT DISTINCT (product_id, variant_id)
);

CREATE TABLE IF NOT EXISTS carts (
	id UUID PRIMARY KEY,
	session_id TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS cart_lines (
	id UUID PRIMARY KEY,
	cart_id UUID NOT NULL REFERENCES carts(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	variant_id UUID REFERENCES product_variants(id) ON DELETE CASCADE,
	quantity INTEGER NOT NULL CHECK (quantity >= 1),
	unit_price DECIMAL(10,2) NOT NULL CHECK (unit_price >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE NULLS NOT DISTINCT (cart_id, product_id, variant_id)
);

CREATE TABLE IF NOT EXISTS coupons (
	id UUID PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	discount_type TEXT NOT NULL CHECK (discount_type IN ('percentage', 'fixed')),
	discount_value DECIMAL(10,2) NOT NULL CHECK (discount_value >= 0),
	min_amount DECIMAL(10,2) NOT NULL DEFAULT 0,
	max_discount DECIMAL(10,2),
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	valid_from TIMESTAMPTZ NOT NULL,
	valid_to TIMESTAMPTZ NOT NULL,
	usage_limit INTEGER,
	used_count INTEGER NOT NULL DEFAULT 0 CHECK (used_count >= 0),
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id UUID PRIMARY KEY,
	order_number TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	customer_name TEXT NOT NULL,
	customer_email TEXT NOT NULL,
	customer_phone TEXT NOT NULL DEFAULT '',
	shipping_address TEXT NOT NULL,
	shipping_city TEXT NOT NULL,
	shipping_state TEXT NOT NULL DEFAULT '',
	shipping_zip_code TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN
		('pending', 'confirmed', 'ready_to_ship', 'shipped', 'delivered', 'cancelled')),
	subtotal DECIMAL(10,2) NOT NULL CHECK (subtotal >= 0),
	discount DECIMAL(10,2) NOT NULL DEFAULT 0 CHECK (discount >= 0),
	total DECIMAL(10,2) NOT NULL CHECK (total >= 0),
	coupon_code TEXT,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS order_items (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id UUID NOT NULL REFERENCES products(id),
	variant_id UUID REFERENCES product_variants(id),
	quantity INTEGER NOT NULL CHECK (quantity > 0),
	unit_price DECIMAL(10,2) NOT NULL CHECK (unit_price >= 0),
	line_total DECIMAL(10,2) NOT NULL CHECK (line_total >= 0)
);

CREATE TABLE IF NOT EXISTS inventory_movements (
	id UUID PRIMARY KEY,
	product_id UUID NOT NULL REFERENCES products(id) ON DELETE CASCADE,
	variant_id UUID REFERENCES product_variants(id) ON DELETE CASCADE,
	movement_type TEXT NOT NULL CHECK (movement_type IN ('in', 'out', 'adjustment')),
	quantity INTEGER NOT NULL,
	reason TEXT NOT NULL,
	order_id UUID REFERENCES orders(id) ON DELETE SET NULL,
	notes TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS shipments (
	id UUID PRIMARY KEY,
	order_id UUID NOT NULL UNIQUE REFERENCES orders(id) ON DELETE CASCADE,
	tracking_number TEXT NOT NULL DEFAULT '',
	carrier TEXT NOT NULL DEFAULT '',
	notes TEXT NOT NULL DEFAULT '',
	shipped_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_movements_created ON inventory_movements (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_cart_lines_cart ON cart_lines (cart_id, created_at);
`

// Migrate applies the schema. All statements are idempotent, so running it
// on every start is safe.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	logger.Info().Msg("database schema up to date")
	return nil
}
