package repository

import (
	"context"
	"fmt"

	"ironware/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// warehouseRepository implements WarehouseRepository using PostgreSQL.
type warehouseRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewWarehouseRepository creates a new PostgreSQL-backed warehouse
// repository.
func NewWarehouseRepository(pool *pgxpool.Pool, logger zerolog.Logger) WarehouseRepository {
	return &warehouseRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "warehouse").Logger(),
	}
}

// CreateMovement appends one ledger entry.
func (r *warehouseRepository) CreateMovement(ctx context.Context, tx pgx.Tx, mv *model.InventoryMovement) error {
	query := `
		INSERT INTO inventory_movements
			(id, product_id, variant_id, movement_type, quantity, reason, order_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		mv.ID, mv.ProductID, mv.VariantID, mv.Type, mv.Quantity,
		mv.Reason, mv.OrderID, mv.Notes, mv.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", mv.ProductID.String()).Msg("failed to create inventory movement")
		return fmt.Errorf("failed to create inventory movement: %w", err)
	}

	return nil
}

// ListMovements retrieves ledger entries newest first, optionally
// filtered by movement type.
func (r *warehouseRepository) ListMovements(ctx context.Context, movementType model.MovementType, limit, offset int) ([]model.InventoryMovement, error) {
	query := `
		SELECT id, product_id, variant_id, movement_type, quantity, reason, order_id, notes, created_at
		FROM inventory_movements
		WHERE $3 = '' OR movement_type = $3
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset, string(movementType))
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query inventory movements")
		return nil, fmt.Errorf("failed to query inventory movements: %w", err)
	}
	defer rows.Close()

	var movements []model.InventoryMovement
	for rows.Next() {
		var mv model.InventoryMovement
		err := rows.Scan(&mv.ID, &mv.ProductID, &mv.VariantID, &mv.Type,
			&mv.Quantity, &mv.Reason, &mv.OrderID, &mv.Notes, &mv.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory movement: %w", err)
		}
		movements = append(movements, mv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating inventory movements: %w", err)
	}

	return movements, nil
}

const shipmentColumns = `id, order_id, tracking_number, carrier, notes, shipped_at`

// GetOrCreateShipment inserts the shipment unless the order already has
// one; the UNIQUE (order_id) constraint makes the insert race-safe and
// the existing row is returned instead.
func (r *warehouseRepository) GetOrCreateShipment(ctx context.Context, tx pgx.Tx, shipment *model.Shipment) (*model.Shipment, bool, error) {
	insertQuery := `
		INSERT INTO shipments (id, order_id, tracking_number, carrier, notes, shipped_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (order_id) DO NOTHING
	`

	tag, err := tx.Exec(ctx, insertQuery,
		shipment.ID, shipment.OrderID, shipment.TrackingNumber,
		shipment.Carrier, shipment.Notes, shipment.ShippedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", shipment.OrderID.String()).Msg("failed to create shipment")
		return nil, false, fmt.Errorf("failed to create shipment: %w", err)
	}

	if tag.RowsAffected() == 1 {
		return shipment, true, nil
	}

	selectQuery := `SELECT ` + shipmentColumns + ` FROM shipments WHERE order_id = $1`

	var existing model.Shipment
	err = tx.QueryRow(ctx, selectQuery, shipment.OrderID).Scan(
		&existing.ID, &existing.OrderID, &existing.TrackingNumber,
		&existing.Carrier, &existing.Notes, &existing.ShippedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read existing shipment: %w", err)
	}

	return &existing, false, nil
}

// ListShipments retrieves shipments newest first.
func (r *warehouseRepository) ListShipments(ctx context.Context, limit, offset int) ([]model.Shipment, error) {
	query := `
		SELECT ` + shipmentColumns + `
		FROM shipments
		ORDER BY shipped_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query shipments")
		return nil, fmt.Errorf("failed to query shipments: %w", err)
	}
	defer rows.Close()

	var shipments []model.Shipment
	for rows.Next() {
		var s model.Shipment
		err := rows.Scan(&s.ID, &s.OrderID, &s.TrackingNumber, &s.Carrier, &s.Notes, &s.ShippedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shipment: %w", err)
		}
		shipments = append(shipments, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shipments: %w", err)
	}

	return shipments, nil
}

// DeleteAllMovements removes every ledger entry.
func (r *warehouseRepository) DeleteAllMovements(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM inventory_movements`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to delete inventory movements")
		return 0, fmt.Errorf("failed to delete inventory movements: %w", err)
	}
	return tag.RowsAffected(), nil
}

// DeleteAllShipments removes every shipment.
func (r *warehouseRepository) DeleteAllShipments(ctx context.Context, tx pgx.Tx) (int64, error) {
	tag, err := tx.Exec(ctx, `DELETE FROM shipments`)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to delete shipments")
		return 0, fmt.Errorf("failed to delete shipments: %w", err)
	}
	return tag.RowsAffected(), nil
}
