package repository

import (
	"context"
	"fmt"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const orderColumns = `id, order_number, session_id, customer_name, customer_email, customer_phone,
	shipping_address, shipping_city, shipping_state, shipping_zip_code,
	status, subtotal, discount, total, coupon_code, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.SessionID, &o.CustomerName, &o.CustomerEmail,
		&o.CustomerPhone, &o.ShippingAddress, &o.ShippingCity, &o.ShippingState,
		&o.ShippingZipCode, &o.Status, &o.Subtotal, &o.Discount, &o.Total,
		&o.CouponCode, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserts a new order within the provided transaction.
func (r *orderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.OrderNumber, order.SessionID, order.CustomerName,
		order.CustomerEmail, order.CustomerPhone, order.ShippingAddress,
		order.ShippingCity, order.ShippingState, order.ShippingZipCode,
		order.Status, order.Subtotal, order.Discount, order.Total,
		order.CouponCode, order.Notes, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", order.OrderNumber).Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().Str("order_number", order.OrderNumber).Msg("order created")

	return nil
}

// CreateItems inserts the order's item snapshots within the provided
// transaction.
func (r *orderRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, variant_id, quantity, unit_price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.VariantID,
			item.Quantity, item.UnitPrice, item.LineTotal)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Str("product_id", items[i].ProductID.String()).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// GetByNumber retrieves an order by its order number.
func (r *orderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`

	order, err := scanOrder(r.pool.QueryRow(ctx, query, orderNumber))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("order_number", orderNumber).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	return order, nil
}

// GetItems retrieves the order's item snapshots.
func (r *orderRepository) GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	query := `
		SELECT id, order_id, product_id, variant_id, quantity, unit_price, line_total
		FROM order_items
		WHERE order_id = $1
		ORDER BY id
	`

	rows, err := r.pool.Query(ctx, query, orderID)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderItem
	for rows.Next() {
		var item model.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VariantID,
			&item.Quantity, &item.UnitPrice, &item.LineTotal)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// List retrieves orders newest first, optionally filtered by status.
func (r *orderRepository) List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE $3 = '' OR status = $3
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset, string(status))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves the order to the given status only if its current
// status is one of from. The guard and the write are a single statement,
// so a stale caller simply affects zero rows.
func (r *orderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	query := `
		UPDATE orders
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
	`

	tag, err := tx.Exec(ctx, query, orderID, string(to), statuses)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to update order status")
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteAll removes every order; order_items cascade at the storage layer.
func (r *orderRepository) DeleteAll(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM orders`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to delete orders")
		return 0, fmt.Errorf("failed to delete orders: %w", err)
	}
	return tag.RowsAffected(), nil
}
