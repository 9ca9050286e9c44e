package repository

import (
	"context"
	"errors"
	"time"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProductRepository defines read access to the catalogue. The core never
// mutates products; they are maintained by the seeding utility and the
// shop administration.
type ProductRepository interface {
	// GetAll retrieves active products with pagination and an optional
	// category filter.
	GetAll(ctx context.Context, limit, offset int, category string) ([]model.Product, error)

	// GetByID retrieves a single product by its ID, nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetVariant retrieves a single product variant by its ID, nil when
	// absent.
	GetVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)
}

// StockRepository defines access to the stock ledger rows. Mutating
// callers must lock the row with GetForUpdate inside a transaction so
// concurrent reservations against the same entry serialize.
type StockRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Get retrieves the stock entry for a (product, variant) pair without
	// locking, nil when absent.
	Get(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*model.StockEntry, error)

	// GetForUpdate retrieves and row-locks the stock entry for a
	// (product, variant) pair within the transaction, nil when absent.
	GetForUpdate(ctx context.Context, tx pgx.Tx, productID uuid.UUID, variantID *uuid.UUID) (*model.StockEntry, error)

	// Create inserts a new stock entry. A second insert for the same
	// (product, variant) pair fails with ErrStockEntryExists.
	Create(ctx context.Context, tx pgx.Tx, entry *model.StockEntry) error

	// UpdateQuantities persists quantity and reserved_quantity.
	UpdateQuantities(ctx context.Context, tx pgx.Tx, entry *model.StockEntry) error

	// List retrieves stock entries, optionally only those at or below
	// their minimum stock level.
	List(ctx context.Context, lowOnly bool) ([]model.StockEntry, error)
}

// CartRepository defines access to carts and their lines.
type CartRepository interface {
	// GetOrCreate returns the session's cart, creating it lazily.
	GetOrCreate(ctx context.Context, sessionID string) (*model.Cart, error)

	// ListLines retrieves the cart's lines in insertion order.
	ListLines(ctx context.Context, cartID uuid.UUID) ([]model.CartLine, error)

	// GetLine retrieves one line by ID, scoped to the cart; nil when
	// absent.
	GetLine(ctx context.Context, cartID, lineID uuid.UUID) (*model.CartLine, error)

	// FindLine retrieves the cart's line for a (product, variant) pair
	// within the transaction, nil when absent.
	FindLine(ctx context.Context, tx pgx.Tx, cartID, productID uuid.UUID, variantID *uuid.UUID) (*model.CartLine, error)

	// InsertLine inserts a new cart line.
	InsertLine(ctx context.Context, tx pgx.Tx, line *model.CartLine) error

	// UpdateLineQuantity overwrites a line's quantity.
	UpdateLineQuantity(ctx context.Context, tx pgx.Tx, lineID uuid.UUID, quantity int) error

	// DeleteLine removes one line.
	DeleteLine(ctx context.Context, tx pgx.Tx, lineID uuid.UUID) error

	// DeleteAllLines removes every line of the cart.
	DeleteAllLines(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error
}

// CouponRepository defines access to discount coupons.
type CouponRepository interface {
	// GetByCode retrieves a coupon by its unique code, nil when absent.
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)

	// Use atomically increments the coupon's used_count, guarded by the
	// validity rule. It reports false when the coupon was no longer valid
	// at execution time; used_count is untouched in that case.
	Use(ctx context.Context, tx pgx.Tx, code string, now time.Time) (bool, error)
}

// OrderRepository defines access to orders and their item snapshots.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// Create inserts a new order within the provided transaction.
	Create(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateItems inserts the order's item snapshots within the provided
	// transaction.
	CreateItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByNumber retrieves an order by its order number, nil when
	// absent.
	GetByNumber(ctx context.Context, orderNumber string) (*model.Order, error)

	// GetItems retrieves the order's item snapshots.
	GetItems(ctx context.Context, orderID uuid.UUID) ([]model.OrderItem, error)

	// List retrieves orders newest first, optionally filtered by status.
	List(ctx context.Context, status model.OrderStatus, limit, offset int) ([]model.Order, error)

	// UpdateStatus moves the order to the given status only if its
	// current status is one of from. It reports whether the transition
	// applied; false means the order was not in an expected state and
	// nothing changed.
	UpdateStatus(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, from []model.OrderStatus, to model.OrderStatus) (bool, error)

	// DeleteAll removes every order (items cascade) and returns the
	// number of orders deleted.
	DeleteAll(ctx context.Context, tx pgx.Tx) (int64, error)
}

// WarehouseRepository defines access to the inventory movement ledger and
// shipments.
type WarehouseRepository interface {
	// CreateMovement appends one ledger entry.
	CreateMovement(ctx context.Context, tx pgx.Tx, mv *model.InventoryMovement) error

	// ListMovements retrieves ledger entries newest first, optionally
	// filtered by movement type.
	ListMovements(ctx context.Context, movementType model.MovementType, limit, offset int) ([]model.InventoryMovement, error)

	// GetOrCreateShipment inserts the shipment unless one already exists
	// for the order, in which case the existing one is returned. The
	// second return value reports whether a new row was created.
	GetOrCreateShipment(ctx context.Context, tx pgx.Tx, shipment *model.Shipment) (*model.Shipment, bool, error)

	// ListShipments retrieves shipments newest first.
	ListShipments(ctx context.Context, limit, offset int) ([]model.Shipment, error)

	// DeleteAllMovements removes every ledger entry and returns the count.
	DeleteAllMovements(ctx context.Context, tx pgx.Tx) (int64, error)

	// DeleteAllShipments removes every shipment and returns the count.
	DeleteAllShipments(ctx context.Context, tx pgx.Tx) (int64, error)
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
