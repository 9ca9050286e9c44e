package service

import (
	"context"
	"fmt"
	"time"

	"ironware/internal/model"
	"ironware/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// defaultCarrier is recorded when a shipment is created without one.
const defaultCarrier = "Unspecified"

// warehouseService implements WarehouseService.
type warehouseService struct {
	orderRepo     repository.OrderRepository
	warehouseRepo repository.WarehouseRepository
	stockRepo     repository.StockRepository
	productRepo   repository.ProductRepository
	logger        zerolog.Logger
}

// NewWarehouseService creates a new warehouse service.
func NewWarehouseService(
	orderRepo repository.OrderRepository,
	warehouseRepo repository.WarehouseRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	logger zerolog.Logger,
) WarehouseService {
	return &warehouseService{
		orderRepo:     orderRepo,
		warehouseRepo: warehouseRepo,
		stockRepo:     stockRepo,
		productRepo:   productRepo,
		logger:        logger.With().Str("service", "warehouse").Logger(),
	}
}

// ListOrders retrieves orders newest first, optionally filtered by status.
func (s *warehouseService) ListOrders(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, error) {
	if status != "" && !status.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("Unknown order status %q", status))
	}
	limit, offset = clampPage(limit, offset)
	return s.orderRepo.List(ctx, status, limit, offset)
}

// Confirm moves a pending order to confirmed.
func (s *warehouseService) Confirm(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.transition(ctx, orderNumber, []model.OrderStatus{model.OrderStatusPending}, model.OrderStatusConfirmed)
}

// MarkReadyToShip moves a confirmed order to ready_to_ship.
func (s *warehouseService) MarkReadyToShip(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.transition(ctx, orderNumber, []model.OrderStatus{model.OrderStatusConfirmed}, model.OrderStatusReadyToShip)
}

// Deliver moves a shipped order to delivered.
func (s *warehouseService) Deliver(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.transition(ctx, orderNumber, []model.OrderStatus{model.OrderStatusShipped}, model.OrderStatusDelivered)
}

// Cancel moves an order to cancelled from any non-terminal state. Stock
// already consumed by the order is not restored; restitution is a manual
// inbound movement if the goods actually come back.
func (s *warehouseService) Cancel(ctx context.Context, orderNumber string) (*model.Order, error) {
	return s.transition(ctx, orderNumber, model.CancellableStatuses(), model.OrderStatusCancelled)
}

// Ship dispatches a ready_to_ship order. The status flip guards the whole
// operation: when it affects no row the order was not ready to ship and
// nothing else happens. One outbound ledger entry is written per order
// item and applied to its stock entry like any other movement, with the
// same permissive handling as RecordMovement.
func (s *warehouseService) Ship(ctx context.Context, orderNumber string, req *ShipmentRequest) (*model.Shipment, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	items, err := s.orderRepo.GetItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ship order: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	moved, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID,
		[]model.OrderStatus{model.OrderStatusReadyToShip}, model.OrderStatusShipped)
	if err != nil {
		return nil, err
	}
	if !moved {
		err = model.ErrOrderUnexpectedState
		return nil, err
	}

	carrier := req.Carrier
	if carrier == "" {
		carrier = defaultCarrier
	}

	now := time.Now()
	shipment := &model.Shipment{
		ID:             uuid.New(),
		OrderID:        order.ID,
		TrackingNumber: req.TrackingNumber,
		Carrier:        carrier,
		Notes:          req.Notes,
		ShippedAt:      now,
	}

	shipment, created, err := s.warehouseRepo.GetOrCreateShipment(ctx, tx, shipment)
	if err != nil {
		return nil, err
	}
	if !created {
		// The transition guard makes this unreachable in normal flow.
		s.logger.Warn().Str("order_number", orderNumber).Msg("order already had a shipment")
	}

	for i := range items {
		item := &items[i]
		mv := &model.InventoryMovement{
			ID:        uuid.New(),
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Type:      model.MovementOut,
			Quantity:  item.Quantity,
			Reason:    "Order shipped",
			OrderID:   &order.ID,
			CreatedAt: now,
		}
		if err = s.warehouseRepo.CreateMovement(ctx, tx, mv); err != nil {
			return nil, err
		}

		entry, lerr := s.stockRepo.GetForUpdate(ctx, tx, item.ProductID, item.VariantID)
		if lerr != nil {
			err = lerr
			return nil, err
		}
		if entry == nil {
			s.logger.Warn().
				Str("order_number", orderNumber).
				Str("product_id", item.ProductID.String()).
				Msg("no stock entry for order item, movement recorded without stock effect")
			continue
		}
		if cerr := entry.Consume(item.Quantity); cerr != nil {
			s.logger.Warn().
				Str("order_number", orderNumber).
				Str("product_id", item.ProductID.String()).
				Int("requested", item.Quantity).
				Int("available", entry.Available()).
				Msg("outbound movement exceeds available stock, recorded without stock effect")
		}
		entry.UpdatedAt = now
		if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit shipment: %w", err)
	}

	s.logger.Info().
		Str("order_number", orderNumber).
		Str("carrier", carrier).
		Str("tracking_number", shipment.TrackingNumber).
		Int("items", len(items)).
		Msg("order shipped")

	return shipment, nil
}

// RecordMovement appends a ledger entry and applies its effect to the
// matching stock entry. A failing effect does not void the entry: the
// ledger records what the warehouse reported, the mismatch is logged for
// follow-up.
func (s *warehouseService) RecordMovement(ctx context.Context, req *MovementRequest) (*model.InventoryMovement, error) {
	if !req.Type.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("Unknown movement type %q", req.Type))
	}
	if req.Quantity <= 0 && req.Type != model.MovementAdjustment {
		return nil, model.ErrInvalidQuantity
	}
	if req.Quantity < 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if req.VariantID != nil {
		variant, verr := s.productRepo.GetVariant(ctx, *req.VariantID)
		if verr != nil {
			return nil, verr
		}
		if variant == nil || variant.ProductID != product.ID {
			return nil, model.ErrVariantNotFound
		}
	}

	tx, err := s.stockRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to record movement: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	entry, err := lockOrInitStock(ctx, tx, s.stockRepo, product, req.VariantID, s.logger)
	if err != nil {
		return nil, err
	}

	mv := &model.InventoryMovement{
		ID:        uuid.New(),
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Notes:     req.Notes,
		CreatedAt: time.Now(),
	}
	if err = s.warehouseRepo.CreateMovement(ctx, tx, mv); err != nil {
		return nil, err
	}

	switch req.Type {
	case model.MovementIn:
		entry.Add(req.Quantity)
	case model.MovementOut:
		if cerr := entry.Consume(req.Quantity); cerr != nil {
			s.logger.Warn().
				Str("movement_id", mv.ID.String()).
				Str("product_id", req.ProductID.String()).
				Int("requested", req.Quantity).
				Int("available", entry.Available()).
				Msg("outbound movement exceeds available stock, recorded without stock effect")
		}
	case model.MovementAdjustment:
		entry.SetQuantity(req.Quantity)
	}
	entry.UpdatedAt = mv.CreatedAt
	if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit movement: %w", err)
	}

	s.logger.Info().
		Str("movement_id", mv.ID.String()).
		Str("product_id", req.ProductID.String()).
		Str("type", string(req.Type)).
		Int("quantity", req.Quantity).
		Msg("inventory movement recorded")

	return mv, nil
}

// ListMovements retrieves ledger entries newest first, optionally
// filtered by movement type.
func (s *warehouseService) ListMovements(ctx context.Context, movementType model.MovementType, limit, offset int) ([]model.InventoryMovement, error) {
	if movementType != "" && !movementType.Valid() {
		return nil, model.NewDomainError(model.ErrCodeValidation, fmt.Sprintf("Unknown movement type %q", movementType))
	}
	limit, offset = clampPage(limit, offset)
	return s.warehouseRepo.ListMovements(ctx, movementType, limit, offset)
}

// ListShipments retrieves shipments newest first.
func (s *warehouseService) ListShipments(ctx context.Context, limit, offset int) ([]model.Shipment, error) {
	limit, offset = clampPage(limit, offset)
	return s.warehouseRepo.ListShipments(ctx, limit, offset)
}

// ListStock retrieves the stock overview.
func (s *warehouseService) ListStock(ctx context.Context, lowOnly bool) ([]model.StockEntry, error) {
	return s.stockRepo.List(ctx, lowOnly)
}

// PurgeOrders removes all orders, movements and shipments in one
// transaction. Shipments and movements go first so nothing references an
// order mid-purge.
func (s *warehouseService) PurgeOrders(ctx context.Context) (*model.PurgeResult, error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to purge orders: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	result := &model.PurgeResult{}
	if result.Shipments, err = s.warehouseRepo.DeleteAllShipments(ctx, tx); err != nil {
		return nil, err
	}
	if result.Movements, err = s.warehouseRepo.DeleteAllMovements(ctx, tx); err != nil {
		return nil, err
	}
	if result.Orders, err = s.orderRepo.DeleteAll(ctx, tx); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit purge: %w", err)
	}

	s.logger.Warn().
		Int64("orders", result.Orders).
		Int64("movements", result.Movements).
		Int64("shipments", result.Shipments).
		Msg("orders purged")

	return result, nil
}

// transition applies a guarded status change to an order.
func (s *warehouseService) transition(ctx context.Context, orderNumber string, from []model.OrderStatus, to model.OrderStatus) (*model.Order, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	moved, err := s.orderRepo.UpdateStatus(ctx, tx, order.ID, from, to)
	if err != nil {
		return nil, err
	}
	if !moved {
		err = model.ErrOrderUnexpectedState
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit status update: %w", err)
	}

	order.Status = to
	order.UpdatedAt = time.Now()

	s.logger.Info().
		Str("order_number", orderNumber).
		Str("status", string(to)).
		Msg("order status updated")

	return order, nil
}

