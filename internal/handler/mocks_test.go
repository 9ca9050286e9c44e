package handler

import (
	"context"

	"ironware/internal/model"
	"ironware/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockProductService is a mock implementation of service.ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int, category string) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

// MockCartService is a mock implementation of service.CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) View(ctx context.Context, sessionID, couponCode string) (*model.CartView, error) {
	args := m.Called(ctx, sessionID, couponCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartView), args.Error(1)
}

func (m *MockCartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*model.CartLine, error) {
	args := m.Called(ctx, sessionID, productID, variantID, quantity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartLine), args.Error(1)
}

func (m *MockCartService) UpdateItem(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) error {
	args := m.Called(ctx, sessionID, lineID, quantity)
	return args.Error(0)
}

func (m *MockCartService) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) error {
	args := m.Called(ctx, sessionID, lineID)
	return args.Error(0)
}

func (m *MockCartService) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockCouponService is a mock implementation of service.CouponService.
type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Evaluate(ctx context.Context, sessionID, code string) (*model.Coupon, decimal.Decimal, error) {
	args := m.Called(ctx, sessionID, code)
	if args.Get(0) == nil {
		return nil, decimal.Zero, args.Error(2)
	}
	return args.Get(0).(*model.Coupon), args.Get(1).(decimal.Decimal), args.Error(2)
}

// MockOrderService is a mock implementation of service.OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Checkout(ctx context.Context, sessionID string, req *model.CheckoutRequest) (*model.OrderResponse, error) {
	args := m.Called(ctx, sessionID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

func (m *MockOrderService) GetByNumber(ctx context.Context, orderNumber string) (*model.OrderResponse, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.OrderResponse), args.Error(1)
}

// MockWarehouseService is a mock implementation of service.WarehouseService.
type MockWarehouseService struct {
	mock.Mock
}

func (m *MockWarehouseService) ListOrders(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockWarehouseService) Confirm(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockWarehouseService) MarkReadyToShip(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockWarehouseService) Ship(ctx context.Context, orderNumber string, req *service.ShipmentRequest) (*model.Shipment, error) {
	args := m.Called(ctx, orderNumber, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Shipment), args.Error(1)
}

func (m *MockWarehouseService) Deliver(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockWarehouseService) Cancel(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockWarehouseService) RecordMovement(ctx context.Context, req *service.MovementRequest) (*model.InventoryMovement, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.InventoryMovement), args.Error(1)
}

func (m *MockWarehouseService) ListMovements(ctx context.Context, movementType model.MovementType, limit, offset int) ([]model.InventoryMovement, error) {
	args := m.Called(ctx, movementType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryMovement), args.Error(1)
}

func (m *MockWarehouseService) ListShipments(ctx context.Context, limit, offset int) ([]model.Shipment, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shipment), args.Error(1)
}

func (m *MockWarehouseService) ListStock(ctx context.Context, lowOnly bool) ([]model.StockEntry, error) {
	args := m.Called(ctx, lowOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StockEntry), args.Error(1)
}

func (m *MockWarehouseService) PurgeOrders(ctx context.Context) (*model.PurgeResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PurgeResult), args.Error(1)
}

// MockSessionStore is a mock implementation of session.Store.
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) AppliedCoupon(ctx context.Context, sessionID string) (string, error) {
	args := m.Called(ctx, sessionID)
	return args.String(0), args.Error(1)
}

func (m *MockSessionStore) ApplyCoupon(ctx context.Context, sessionID, code string) error {
	args := m.Called(ctx, sessionID, code)
	return args.Error(0)
}

func (m *MockSessionStore) ClearCoupon(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
