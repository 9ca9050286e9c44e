package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"ironware/internal/database"
	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and
// the full schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		t.Fatalf("failed to parse connection string: %v", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// CleanupDB removes all data, children before parents.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"shipments", "inventory_movements", "order_items", "orders",
		"cart_lines", "carts", "stock_entries", "product_variants",
		"coupons", "products",
	}
	for _, table := range tables {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// SeedProduct inserts one active product and returns it.
func SeedProduct(t *testing.T, pool *pgxpool.Pool, sku, name, price string, stock int) *model.Product {
	t.Helper()

	p := &model.Product{
		ID:       uuid.New(),
		SKU:      sku,
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Category: "hand-tools",
		Stock:    stock,
		IsActive: true,
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products (id, sku, name, description, price, category, stock, is_active)
		VALUES ($1, $2, $3, '', $4, $5, $6, TRUE)`,
		p.ID, p.SKU, p.Name, p.Price, p.Category, p.Stock,
	)
	if err != nil {
		t.Fatalf("failed to seed product %s: %v", sku, err)
	}
	return p
}

// SeedCoupon inserts an active coupon valid for a year from now.
func SeedCoupon(t *testing.T, pool *pgxpool.Pool, code string, discountType model.DiscountType, value, minAmount string, usageLimit *int) *model.Coupon {
	t.Helper()

	now := time.Now()
	c := &model.Coupon{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  discountType,
		DiscountValue: decimal.RequireFromString(value),
		MinAmount:     decimal.RequireFromString(minAmount),
		IsActive:      true,
		ValidFrom:     now.Add(-time.Hour),
		ValidTo:       now.AddDate(1, 0, 0),
		UsageLimit:    usageLimit,
	}
	_, err := pool.Exec(context.Background(), `
		INSERT INTO coupons (id, code, description, discount_type, discount_value,
			min_amount, is_active, valid_from, valid_to, usage_limit, used_count)
		VALUES ($1, $2, '', $3, $4, $5, TRUE, $6, $7, $8, 0)`,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.MinAmount,
		c.ValidFrom, c.ValidTo, c.UsageLimit,
	)
	if err != nil {
		t.Fatalf("failed to seed coupon %s: %v", code, err)
	}
	return c
}

// memoryStore is an in-process session.Store so the API tests do not need
// a Redis container alongside PostgreSQL.
type memoryStore struct {
	mu      sync.Mutex
	coupons map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{coupons: make(map[string]string)}
}

func (s *memoryStore) AppliedCoupon(_ context.Context, sessionID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons[sessionID], nil
}

func (s *memoryStore) ApplyCoupon(_ context.Context, sessionID, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coupons[sessionID] = code
	return nil
}

func (s *memoryStore) ClearCoupon(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.coupons, sessionID)
	return nil
}

func (s *memoryStore) Close() error { return nil }
