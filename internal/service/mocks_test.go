package service

import (
	"context"
	"time"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of ProductRepository.
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetAll(ctx context.Context, limit, offset int, category string) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductRepository) GetVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductVariant), args.Error(1)
}

// MockStockRepository is a mock implementation of StockRepository.
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStockRepository) Get(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*model.StockEntry, error) {
	args := m.Called(ctx, productID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockEntry), args.Error(1)
}

func (m *MockStockRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variantID *uuid.UUID) (*model.StockEntry, error) {
	args := m.Called(ctx, tx, productID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.StockEntry), args.Error(1)
}

func (m *MockStockRepository) Create(ctx context.Context, tx pgx.Tx, entry *model.StockEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockStockRepository) UpdateQuantities(ctx context.Context, tx pgx.Tx, entry *model.StockEntry) error {
	args := m.Called(ctx, tx, entry)
	return args.Error(0)
}

func (m *MockStockRepository) List(ctx context.Context, lowOnly bool) ([]model.StockEntry, error) {
	args := m.Called(ctx, lowOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.StockEntry), args.Error(1)
}

// MockCartRepository is a mock implementation of CartRepository.
type MockCartRepository struct {
	mock.Mock
}

func (m *MockCartRepository) GetOrCreate(ctx context.Context, sessionID string) (*model.Cart, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartRepository) ListLines(ctx context.Context, cartID uuid.UUID) ([]model.CartLine, error) {
	args := m.Called(ctx, cartID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.CartLine), args.Error(1)
}

func (m *MockCartRepository) GetLine(ctx context.Context, cartID, lineID uuid.UUID) (*model.CartLine, error) {
	args := m.Called(ctx, cartID, lineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartLine), args.Error(1)
}

func (m *MockCartRepository) FindLine(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID, variantID *uuid.UUID) (*model.CartLine, error) {
	args := m.Called(ctx, tx, cartID, productID, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CartLine), args.Error(1)
}

func (m *MockCartRepository) InsertLine(ctx context.Context, tx pgx.Tx, line *model.CartLine) error {
	args := m.Called(ctx, tx, line)
	return args.Error(0)
}

func (m *MockCartRepository) UpdateLineQuantity(ctx context.Context, tx pgx.Tx, lineID uuid.UUID, quantity int) error {
	args := m.Called(ctx, tx, lineID, quantity)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteLine(ctx context.Context, tx pgx.Tx, lineID uuid.UUID) error {
	args := m.Called(ctx, tx, lineID)
	return args.Error(0)
}

func (m *MockCartRepository) DeleteAllLines(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	args := m.Called(ctx, tx, cartID)
	return args.Error(0)
}

// MockCouponRepository is a mock implementation of CouponRepository.
type MockCouponRepository struct {
	mock.Mock
}

func (m *MockCouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Coupon), args.Error(1)
}

func (m *MockCouponRepository) Use(ctx context.Context, tx pgx.Tx, code string, now time.Time) (bool, error) {
	args := m.Called(ctx, tx, code, now)
	return args.Bool(0), args.Error(1)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if tx, ok := args.Get(0).(pgx.Tx); ok {
		return tx, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrderRepository) Create(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	args := m.Called(ctx, tx, order)
	return args.Error(0)
}

func (m *MockOrderRepository) CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	args := m.Called(ctx, tx, items)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error) {
	args := m.Called(ctx, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.OrderItem), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, error) {
	args := m.Called(ctx, status, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from []model.OrderStatus, to model.OrderStatus) (bool, error) {
	args := m.Called(ctx, tx, orderID, from, to)
	return args.Bool(0), args.Error(1)
}

func (m *MockOrderRepository) DeleteAll(ctx context.Context, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

// MockWarehouseRepository is a mock implementation of WarehouseRepository.
type MockWarehouseRepository struct {
	mock.Mock
}

func (m *MockWarehouseRepository) CreateMovement(ctx context.Context, tx pgx.Tx, mv *model.InventoryMovement) error {
	args := m.Called(ctx, tx, mv)
	return args.Error(0)
}

func (m *MockWarehouseRepository) ListMovements(ctx context.Context, movementType model.MovementType, limit, offset int) ([]model.InventoryMovement, error) {
	args := m.Called(ctx, movementType, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.InventoryMovement), args.Error(1)
}

func (m *MockWarehouseRepository) GetOrCreateShipment(ctx context.Context, tx pgx.Tx, shipment *model.Shipment) (*model.Shipment, bool, error) {
	args := m.Called(ctx, tx, shipment)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Shipment), args.Bool(1), args.Error(2)
}

func (m *MockWarehouseRepository) ListShipments(ctx context.Context, limit, offset int) ([]model.Shipment, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Shipment), args.Error(1)
}

func (m *MockWarehouseRepository) DeleteAllMovements(ctx context.Context, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockWarehouseRepository) DeleteAllShipments(ctx context.Context, tx pgx.Tx) (int64, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(int64), args.Error(1)
}

// MockTx is a minimal mock implementation of pgx.Tx for testing.
type MockTx struct {
	mock.Mock
	committed  bool
	rolledBack bool
}

func (m *MockTx) Commit(ctx context.Context) error {
	args := m.Called(ctx)
	m.committed = true
	return args.Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	args := m.Called(ctx)
	m.rolledBack = true
	return args.Error(0)
}

// Stub methods to satisfy pgx.Tx interface - these are not used in our tests
func (m *MockTx) Begin(ctx context.Context) (pgx.Tx, error) { return nil, nil }
func (m *MockTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (m *MockTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (m *MockTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (m *MockTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (commandTag pgconn.CommandTag, err error) {
	return
}
func (m *MockTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (m *MockTx) Conn() *pgx.Conn                                               { return nil }
