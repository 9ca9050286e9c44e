// Command seed loads a sample hardware-store catalogue and a handful of
// coupons into the database. Existing rows with the same SKU or coupon
// code are left untouched, so it can be re-run safely against a
// development database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"ironware/internal/config"
	"ironware/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)

	ctx := context.Background()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	if err := seedProducts(ctx, pool, logger); err != nil {
		return err
	}
	if err := seedCoupons(ctx, pool, logger); err != nil {
		return err
	}

	logger.Info().Msg("seeding completed")
	return nil
}

type sampleVariant struct {
	name          string
	value         string
	sku           string
	priceModifier string
}

type sampleProduct struct {
	sku         string
	name        string
	description string
	price       string
	category    string
	stock       int
	featured    bool
	variants    []sampleVariant
}

var sampleProducts = []sampleProduct{
	{
		sku: "HMR-CLAW-16", name: "Claw Hammer 16oz",
		description: "Forged steel head with a fibreglass handle.",
		price:       "18.50", category: "hand-tools", stock: 40, featured: true,
	},
	{
		sku: "DRL-CDL-18V", name: "Cordless Drill 18V",
		description: "Two-speed gearbox, 13mm keyless chuck, battery sold separately.",
		price:       "89.00", category: "power-tools", stock: 15, featured: true,
		variants: []sampleVariant{
			{name: "Battery", value: "2.0Ah", sku: "DRL-CDL-18V-2AH", priceModifier: "25.00"},
			{name: "Battery", value: "4.0Ah", sku: "DRL-CDL-18V-4AH", priceModifier: "45.00"},
		},
	},
	{
		sku: "SCR-PH2-100", name: "Phillips Screwdriver PH2",
		description: "Magnetic tip, 100mm shaft.",
		price:       "6.90", category: "hand-tools", stock: 120,
	},
	{
		sku: "PNT-INT-WHT", name: "Interior Wall Paint",
		description: "Matte white emulsion for interior walls.",
		price:       "24.90", category: "paint", stock: 60,
		variants: []sampleVariant{
			{name: "Size", value: "2.5L", sku: "PNT-INT-WHT-2L5", priceModifier: "0"},
			{name: "Size", value: "10L", sku: "PNT-INT-WHT-10L", priceModifier: "55.00"},
		},
	},
	{
		sku: "LDR-ALU-3M", name: "Aluminium Step Ladder 3m",
		description: "Five steps, anti-slip feet, folds flat.",
		price:       "74.00", category: "site-equipment", stock: 8,
	},
	{
		sku: "BOX-ASR-SCR", name: "Assorted Wood Screw Box",
		description: "540 pieces across eight common sizes.",
		price:       "21.40", category: "fixings", stock: 75,
	},
	{
		sku: "GLV-NIT-L", name: "Nitrile Work Gloves",
		description: "Nitrile coated palm, breathable back.",
		price:       "4.20", category: "safety", stock: 200,
		variants: []sampleVariant{
			{name: "Size", value: "M", sku: "GLV-NIT-M", priceModifier: "0"},
			{name: "Size", value: "L", sku: "GLV-NIT-L-1", priceModifier: "0"},
			{name: "Size", value: "XL", sku: "GLV-NIT-XL", priceModifier: "0.50"},
		},
	},
	{
		sku: "TPE-MSR-5M", name: "Tape Measure 5m",
		description: "Auto-lock blade with a belt clip.",
		price:       "9.80", category: "hand-tools", stock: 90,
	},
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	inserted := 0
	for _, p := range sampleProducts {
		productID := uuid.New()
		tag, err := pool.Exec(ctx, `
			INSERT INTO products (id, sku, name, description, price, category, stock, is_active, is_featured)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8)
			ON CONFLICT (sku) DO NOTHING`,
			productID, p.sku, p.name, p.description,
			decimal.RequireFromString(p.price), p.category, p.stock, p.featured,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.sku, err)
		}
		if tag.RowsAffected() == 0 {
			continue
		}
		inserted++

		for _, v := range p.variants {
			_, err := pool.Exec(ctx, `
				INSERT INTO product_variants (id, product_id, name, value, sku, price_modifier, is_active)
				VALUES ($1, $2, $3, $4, $5, $6, TRUE)
				ON CONFLICT (sku) DO NOTHING`,
				uuid.New(), productID, v.name, v.value, v.sku,
				decimal.RequireFromString(v.priceModifier),
			)
			if err != nil {
				return fmt.Errorf("failed to seed variant %s: %w", v.sku, err)
			}
		}
	}

	logger.Info().Int("inserted", inserted).Int("total", len(sampleProducts)).Msg("catalogue seeded")
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool, logger zerolog.Logger) error {
	now := time.Now()
	year := now.AddDate(1, 0, 0)

	type sampleCoupon struct {
		code          string
		description   string
		discountType  string
		discountValue string
		minAmount     string
		maxDiscount   *string
		usageLimit    *int
	}

	cap50 := "50.00"
	limit100 := 100

	coupons := []sampleCoupon{
		{
			code: "WELCOME10", description: "10% off your first order",
			discountType: "percentage", discountValue: "10", minAmount: "0",
			maxDiscount: &cap50,
		},
		{
			code: "TRADE25", description: "25 off orders over 250 for trade accounts",
			discountType: "fixed", discountValue: "25.00", minAmount: "250.00",
		},
		{
			code: "SITE5", description: "5% off site equipment season promotion",
			discountType: "percentage", discountValue: "5", minAmount: "50.00",
			usageLimit: &limit100,
		},
	}

	inserted := 0
	for _, c := range coupons {
		var maxDiscount *decimal.Decimal
		if c.maxDiscount != nil {
			d := decimal.RequireFromString(*c.maxDiscount)
			maxDiscount = &d
		}
		tag, err := pool.Exec(ctx, `
			INSERT INTO coupons (id, code, description, discount_type, discount_value,
				min_amount, max_discount, is_active, valid_from, valid_to, usage_limit, used_count)
			VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE, $8, $9, $10, 0)
			ON CONFLICT (code) DO NOTHING`,
			uuid.New(), c.code, c.description, c.discountType,
			decimal.RequireFromString(c.discountValue),
			decimal.RequireFromString(c.minAmount), maxDiscount,
			now, year, c.usageLimit,
		)
		if err != nil {
			return fmt.Errorf("failed to seed coupon %s: %w", c.code, err)
		}
		if tag.RowsAffected() > 0 {
			inserted++
		}
	}

	logger.Info().Int("inserted", inserted).Int("total", len(coupons)).Msg("coupons seeded")
	return nil
}
