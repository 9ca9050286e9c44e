package repository

import (
	"context"
	"fmt"
	"time"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// cartRepository implements CartRepository using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const cartLineColumns = `id, cart_id, product_id, variant_id, quantity, unit_price, created_at, updated_at`

func scanCartLine(row pgx.Row) (*model.CartLine, error) {
	var l model.CartLine
	err := row.Scan(
		&l.ID, &l.CartID, &l.ProductID, &l.VariantID, &l.Quantity,
		&l.UnitPrice, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetOrCreate returns the session's cart, creating it lazily. A lost
// insert race against a concurrent request for the same session falls
// back to reading the winner's row.
func (r *cartRepository) GetOrCreate(ctx context.Context, sessionID string) (*model.Cart, error) {
	selectQuery := `SELECT id, session_id, created_at, updated_at FROM carts WHERE session_id = $1`

	var cart model.Cart
	err := r.pool.QueryRow(ctx, selectQuery, sessionID).Scan(
		&cart.ID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err == nil {
		return &cart, nil
	}
	if err != pgx.ErrNoRows {
		r.logger.Error().Err(err).Msg("failed to query cart")
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	now := time.Now()
	insertQuery := `
		INSERT INTO carts (id, session_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (session_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, insertQuery, uuid.New(), sessionID, now); err != nil {
		r.logger.Error().Err(err).Msg("failed to create cart")
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	err = r.pool.QueryRow(ctx, selectQuery, sessionID).Scan(
		&cart.ID, &cart.SessionID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read cart after create: %w", err)
	}

	return &cart, nil
}

// ListLines retrieves the cart's lines in insertion order.
func (r *cartRepository) ListLines(ctx context.Context, cartID uuid.UUID) ([]model.CartLine, error) {
	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE cart_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart lines")
		return nil, fmt.Errorf("failed to query cart lines: %w", err)
	}
	defer rows.Close()

	var lines []model.CartLine
	for rows.Next() {
		l, err := scanCartLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

// GetLine retrieves one line by ID, scoped to the cart.
func (r *cartRepository) GetLine(ctx context.Context, cartID, lineID uuid.UUID) (*model.CartLine, error) {
	query := `SELECT ` + cartLineColumns + ` FROM cart_lines WHERE id = $1 AND cart_id = $2`

	line, err := scanCartLine(r.pool.QueryRow(ctx, query, lineID, cartID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to query cart line")
		return nil, fmt.Errorf("failed to query cart line: %w", err)
	}

	return line, nil
}

// FindLine retrieves the cart's line for a (product, variant) pair within
// the transaction.
func (r *cartRepository) FindLine(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID, variantID *uuid.UUID) (*model.CartLine, error) {
	query := `
		SELECT ` + cartLineColumns + `
		FROM cart_lines
		WHERE cart_id = $1 AND product_id = $2 AND variant_id IS NOT DISTINCT FROM $3
	`

	line, err := scanCartLine(tx.QueryRow(ctx, query, cartID, productID, variantID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to find cart line")
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}

	return line, nil
}

// InsertLine inserts a new cart line.
func (r *cartRepository) InsertLine(ctx context.Context, tx pgx.Tx, line *model.CartLine) error {
	query := `
		INSERT INTO cart_lines (id, cart_id, product_id, variant_id, quantity, unit_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := tx.Exec(ctx, query,
		line.ID, line.CartID, line.ProductID, line.VariantID,
		line.Quantity, line.UnitPrice, line.CreatedAt, line.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", line.CartID.String()).Msg("failed to insert cart line")
		return fmt.Errorf("failed to insert cart line: %w", err)
	}

	return nil
}

// UpdateLineQuantity overwrites a line's quantity.
func (r *cartRepository) UpdateLineQuantity(ctx context.Context, tx pgx.Tx, lineID uuid.UUID, quantity int) error {
	query := `UPDATE cart_lines SET quantity = $2, updated_at = NOW() WHERE id = $1`

	tag, err := tx.Exec(ctx, query, lineID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to update cart line")
		return fmt.Errorf("failed to update cart line: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cart line %s vanished during update", lineID)
	}

	return nil
}

// DeleteLine removes one line.
func (r *cartRepository) DeleteLine(ctx context.Context, tx pgx.Tx, lineID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID); err != nil {
		r.logger.Error().Err(err).Str("line_id", lineID.String()).Msg("failed to delete cart line")
		return fmt.Errorf("failed to delete cart line: %w", err)
	}
	return nil
}

// DeleteAllLines removes every line of the cart.
func (r *cartRepository) DeleteAllLines(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE cart_id = $1`, cartID); err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart lines")
		return fmt.Errorf("failed to clear cart lines: %w", err)
	}
	return nil
}
