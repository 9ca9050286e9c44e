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

// stockRepository implements StockRepository using PostgreSQL. The
// UNIQUE NULLS NOT DISTINCT (product_id, variant_id) constraint is the
// single-entry-per-pair rule; SELECT ... FOR UPDATE provides the
// per-entry serialization every mutation needs.
type stockRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStockRepository creates a new PostgreSQL-backed stock repository.
func NewStockRepository(pool *pgxpool.Pool, logger zerolog.Logger) StockRepository {
	return &stockRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "stock").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *stockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

const stockColumns = `id, product_id, variant_id, quantity, reserved_quantity, min_stock_level, location, created_at, updated_at`

func scanStockEntry(row pgx.Row) (*model.StockEntry, error) {
	var e model.StockEntry
	err := row.Scan(
		&e.ID, &e.ProductID, &e.VariantID, &e.Quantity, &e.ReservedQuantity,
		&e.MinStockLevel, &e.Location, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Get retrieves the stock entry for a (product, variant) pair without
// locking.
func (r *stockRepository) Get(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*model.StockEntry, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_entries
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
	`

	entry, err := scanStockEntry(r.pool.QueryRow(ctx, query, productID, variantID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to query stock entry")
		return nil, fmt.Errorf("failed to query stock entry: %w", err)
	}

	return entry, nil
}

// GetForUpdate retrieves and row-locks the stock entry for a
// (product, variant) pair within the transaction.
func (r *stockRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variantID *uuid.UUID) (*model.StockEntry, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_entries
		WHERE product_id = $1 AND variant_id IS NOT DISTINCT FROM $2
		FOR UPDATE
	`

	entry, err := scanStockEntry(tx.QueryRow(ctx, query, productID, variantID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to lock stock entry")
		return nil, fmt.Errorf("failed to lock stock entry: %w", err)
	}

	return entry, nil
}

// Create inserts a new stock entry. A duplicate (product, variant) pair
// surfaces as ErrStockEntryExists instead of being silently dropped.
func (r *stockRepository) Create(ctx context.Context, tx pgx.Tx, entry *model.StockEntry) error {
	query := `
		INSERT INTO stock_entries
			(id, product_id, variant_id, quantity, reserved_quantity, min_stock_level, location, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		entry.ID, entry.ProductID, entry.VariantID, entry.Quantity,
		entry.ReservedQuantity, entry.MinStockLevel, entry.Location,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrStockEntryExists
		}
		r.logger.Error().Err(err).Str("product_id", entry.ProductID.String()).Msg("failed to create stock entry")
		return fmt.Errorf("failed to create stock entry: %w", err)
	}

	r.logger.Debug().
		Str("product_id", entry.ProductID.String()).
		Int("quantity", entry.Quantity).
		Msg("stock entry created")

	return nil
}

// UpdateQuantities persists quantity and reserved_quantity.
func (r *stockRepository) UpdateQuantities(ctx context.Context, tx pgx.Tx, entry *model.StockEntry) error {
	query := `
		UPDATE stock_entries
		SET quantity = $2, reserved_quantity = $3, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, entry.ID, entry.Quantity, entry.ReservedQuantity)
	if err != nil {
		r.logger.Error().Err(err).Str("stock_entry_id", entry.ID.String()).Msg("failed to update stock entry")
		return fmt.Errorf("failed to update stock entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("stock entry %s vanished during update", entry.ID)
	}

	return nil
}

// List retrieves stock entries, optionally only the low-stock ones.
func (r *stockRepository) List(ctx context.Context, lowOnly bool) ([]model.StockEntry, error) {
	query := `
		SELECT ` + stockColumns + `
		FROM stock_entries
		WHERE NOT $1 OR quantity - reserved_quantity <= min_stock_level
		ORDER BY product_id, variant_id
	`

	rows, err := r.pool.Query(ctx, query, lowOnly)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query stock entries")
		return nil, fmt.Errorf("failed to query stock entries: %w", err)
	}
	defer rows.Close()

	var entries []model.StockEntry
	for rows.Next() {
		e, err := scanStockEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock entry: %w", err)
		}
		entries = append(entries, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stock entries: %w", err)
	}

	return entries, nil
}
