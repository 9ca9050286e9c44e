package service

import (
	"context"
	"testing"
	"time"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validCheckoutRequest() *model.CheckoutRequest {
	return &model.CheckoutRequest{
		CustomerName:    "Ana Torres",
		CustomerEmail:   "ana@example.com",
		CustomerPhone:   "555-0100",
		ShippingAddress: "12 Forge Street",
		ShippingCity:    "Springfield",
		ShippingState:   "IL",
		ShippingZipCode: "62701",
	}
}

func newOrderServiceForTest() (*MockOrderRepository, *MockCartRepository, *MockStockRepository, *MockCouponRepository, *MockTx, OrderService) {
	orderRepo := new(MockOrderRepository)
	cartRepo := new(MockCartRepository)
	stockRepo := new(MockStockRepository)
	couponRepo := new(MockCouponRepository)
	tx := new(MockTx)
	svc := NewOrderService(orderRepo, cartRepo, stockRepo, couponRepo, zerolog.Nop())
	return orderRepo, cartRepo, stockRepo, couponRepo, tx, svc
}

func TestOrderService_Checkout_Success(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, stockRepo, _, tx, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	productA := uuid.New()
	productB := uuid.New()
	lines := []model.CartLine{
		{ID: uuid.New(), CartID: cart.ID, ProductID: productA, Quantity: 2, UnitPrice: decimal.RequireFromString("19.90")},
		{ID: uuid.New(), CartID: cart.ID, ProductID: productB, Quantity: 1, UnitPrice: decimal.RequireFromString("45.00")},
	}
	entryA := testStockEntry(productA, 10, 2)
	entryB := testStockEntry(productB, 4, 1)

	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(lines, nil)
	orderRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("Create", ctx, tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Status == model.OrderStatusPending &&
			o.Subtotal.Equal(decimal.RequireFromString("84.80")) &&
			o.Discount.IsZero() &&
			o.Total.Equal(decimal.RequireFromString("84.80")) &&
			o.CouponCode == nil
	})).Return(nil)
	orderRepo.On("CreateItems", ctx, tx, mock.MatchedBy(func(items []model.OrderItem) bool {
		return len(items) == 2 && items[0].LineTotal.Equal(decimal.RequireFromString("39.80"))
	})).Return(nil)
	stockRepo.On("GetForUpdate", ctx, tx, productA, noVariant).Return(entryA, nil)
	stockRepo.On("GetForUpdate", ctx, tx, productB, noVariant).Return(entryB, nil)
	stockRepo.On("UpdateQuantities", ctx, tx, mock.MatchedBy(func(e *model.StockEntry) bool {
		return e.ProductID == productA && e.Quantity == 8 && e.ReservedQuantity == 0
	})).Return(nil)
	stockRepo.On("UpdateQuantities", ctx, tx, mock.MatchedBy(func(e *model.StockEntry) bool {
		return e.ProductID == productB && e.Quantity == 3 && e.ReservedQuantity == 0
	})).Return(nil)
	cartRepo.On("DeleteAllLines", ctx, tx, cart.ID).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, testSessionID, validCheckoutRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Contains(t, resp.Order.OrderNumber, "ORD-")
	assert.Len(t, resp.Items, 2)

	orderRepo.AssertExpectations(t)
	cartRepo.AssertExpectations(t)
	stockRepo.AssertExpectations(t)
	tx.AssertExpectations(t)
}

func TestOrderService_Checkout_EmptyCart(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, _, _, _, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(nil, nil)

	resp, err := svc.Checkout(ctx, testSessionID, validCheckoutRequest())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, model.IsDomainError(err, model.ErrCodeEmptyCart))
	orderRepo.AssertNotCalled(t, "BeginTx", mock.Anything)
}

func TestOrderService_Checkout_InsufficientStockRollsBack(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, stockRepo, _, tx, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	productID := uuid.New()
	lines := []model.CartLine{
		{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 5, UnitPrice: decimal.RequireFromString("10.00")},
	}
	// The reservation drifted: only 3 units are owned.
	entry := testStockEntry(productID, 3, 5)

	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(lines, nil)
	orderRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Order")).Return(nil)
	orderRepo.On("CreateItems", ctx, tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	stockRepo.On("GetForUpdate", ctx, tx, productID, noVariant).Return(entry, nil)
	tx.On("Rollback", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, testSessionID, validCheckoutRequest())

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, model.IsDomainError(err, model.ErrCodeInsufficientStock))
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
	cartRepo.AssertNotCalled(t, "DeleteAllLines", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Checkout_CouponUsedAndRecorded(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, stockRepo, couponRepo, tx, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	productID := uuid.New()
	lines := []model.CartLine{
		{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("100.00")},
	}
	entry := testStockEntry(productID, 5, 2)
	coupon := &model.Coupon{
		Code:          "SAVE10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
	}

	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(lines, nil)
	couponRepo.On("GetByCode", ctx, "SAVE10").Return(coupon, nil)
	orderRepo.On("BeginTx", ctx).Return(tx, nil)
	couponRepo.On("Use", ctx, tx, "SAVE10", mock.AnythingOfType("time.Time")).Return(true, nil)
	orderRepo.On("Create", ctx, tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Discount.Equal(decimal.RequireFromString("20.00")) &&
			o.Total.Equal(decimal.RequireFromString("180.00")) &&
			o.CouponCode != nil && *o.CouponCode == "SAVE10"
	})).Return(nil)
	orderRepo.On("CreateItems", ctx, tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	stockRepo.On("GetForUpdate", ctx, tx, productID, noVariant).Return(entry, nil)
	stockRepo.On("UpdateQuantities", ctx, tx, mock.Anything).Return(nil)
	cartRepo.On("DeleteAllLines", ctx, tx, cart.ID).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	req := validCheckoutRequest()
	req.CouponCode = "SAVE10"

	resp, err := svc.Checkout(ctx, testSessionID, req)

	require.NoError(t, err)
	require.NotNil(t, resp.Order.CouponCode)
	assert.Equal(t, "SAVE10", *resp.Order.CouponCode)
	couponRepo.AssertExpectations(t)
}

// When the guarded use is refused (for instance the last use was taken by
// a concurrent checkout), the order goes through at full price.
func TestOrderService_Checkout_CouponRefusedDropsDiscount(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, stockRepo, couponRepo, tx, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	productID := uuid.New()
	lines := []model.CartLine{
		{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 1, UnitPrice: decimal.RequireFromString("100.00")},
	}
	entry := testStockEntry(productID, 5, 1)
	limit := 50
	coupon := &model.Coupon{
		Code:          "LASTONE",
		DiscountType:  model.DiscountFixed,
		DiscountValue: decimal.NewFromInt(15),
		IsActive:      true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidTo:       time.Now().Add(time.Hour),
		UsageLimit:    &limit,
		UsedCount:     49,
	}

	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(lines, nil)
	couponRepo.On("GetByCode", ctx, "LASTONE").Return(coupon, nil)
	orderRepo.On("BeginTx", ctx).Return(tx, nil)
	couponRepo.On("Use", ctx, tx, "LASTONE", mock.AnythingOfType("time.Time")).Return(false, nil)
	orderRepo.On("Create", ctx, tx, mock.MatchedBy(func(o *model.Order) bool {
		return o.Discount.IsZero() &&
			o.Total.Equal(decimal.RequireFromString("100.00")) &&
			o.CouponCode == nil
	})).Return(nil)
	orderRepo.On("CreateItems", ctx, tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	stockRepo.On("GetForUpdate", ctx, tx, productID, noVariant).Return(entry, nil)
	stockRepo.On("UpdateQuantities", ctx, tx, mock.Anything).Return(nil)
	cartRepo.On("DeleteAllLines", ctx, tx, cart.ID).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	req := validCheckoutRequest()
	req.CouponCode = "LASTONE"

	resp, err := svc.Checkout(ctx, testSessionID, req)

	require.NoError(t, err)
	assert.Nil(t, resp.Order.CouponCode)
	assert.True(t, resp.Order.Discount.IsZero())
	orderRepo.AssertExpectations(t)
}

// A line claiming more than the entry has reserved drifted; checkout must
// not give back reservations that may belong to other carts, and the
// consume has to clear available stock on its own.
func TestOrderService_Checkout_DriftedLineLeavesOtherReservations(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, stockRepo, _, tx, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	productID := uuid.New()
	lines := []model.CartLine{
		{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	}
	// 1 unit reserved on the entry, held by another cart.
	entry := testStockEntry(productID, 10, 1)

	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(lines, nil)
	orderRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Order")).Return(nil)
	orderRepo.On("CreateItems", ctx, tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	stockRepo.On("GetForUpdate", ctx, tx, productID, noVariant).Return(entry, nil)
	stockRepo.On("UpdateQuantities", ctx, tx, mock.MatchedBy(func(e *model.StockEntry) bool {
		return e.Quantity == 8 && e.ReservedQuantity == 1
	})).Return(nil)
	cartRepo.On("DeleteAllLines", ctx, tx, cart.ID).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, testSessionID, validCheckoutRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	stockRepo.AssertExpectations(t)
}

// A cart line without a stock entry is tolerated: the order still goes
// through, the missing ledger row is only logged.
func TestOrderService_Checkout_MissingStockEntrySkipped(t *testing.T) {
	ctx := context.Background()
	orderRepo, cartRepo, stockRepo, _, tx, svc := newOrderServiceForTest()

	cart := &model.Cart{ID: uuid.New(), SessionID: testSessionID}
	productID := uuid.New()
	lines := []model.CartLine{
		{ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: 1, UnitPrice: decimal.RequireFromString("10.00")},
	}

	cartRepo.On("GetOrCreate", ctx, testSessionID).Return(cart, nil)
	cartRepo.On("ListLines", ctx, cart.ID).Return(lines, nil)
	orderRepo.On("BeginTx", ctx).Return(tx, nil)
	orderRepo.On("Create", ctx, tx, mock.AnythingOfType("*model.Order")).Return(nil)
	orderRepo.On("CreateItems", ctx, tx, mock.AnythingOfType("[]model.OrderItem")).Return(nil)
	stockRepo.On("GetForUpdate", ctx, tx, productID, noVariant).Return(nil, nil)
	cartRepo.On("DeleteAllLines", ctx, tx, cart.ID).Return(nil)
	tx.On("Commit", ctx).Return(nil)

	resp, err := svc.Checkout(ctx, testSessionID, validCheckoutRequest())

	require.NoError(t, err)
	require.NotNil(t, resp)
	stockRepo.AssertNotCalled(t, "UpdateQuantities", mock.Anything, mock.Anything, mock.Anything)
}

func TestOrderService_Checkout_MissingFields(t *testing.T) {
	ctx := context.Background()
	_, cartRepo, _, _, _, svc := newOrderServiceForTest()

	req := validCheckoutRequest()
	req.CustomerName = ""
	req.ShippingZipCode = "   "

	resp, err := svc.Checkout(ctx, testSessionID, req)

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, model.IsDomainError(err, model.ErrCodeValidation))
	assert.Contains(t, err.Error(), "customerName")
	assert.Contains(t, err.Error(), "shippingZipCode")
	cartRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
}

func TestOrderService_GetByNumber_NotFound(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, _, _, _, svc := newOrderServiceForTest()

	orderRepo.On("GetByNumber", ctx, "ORD-MISSING1").Return(nil, nil)

	resp, err := svc.GetByNumber(ctx, "ORD-MISSING1")

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.True(t, model.IsDomainError(err, model.ErrCodeOrderNotFound))
}

func TestOrderService_GetByNumber_Success(t *testing.T) {
	ctx := context.Background()
	orderRepo, _, _, _, _, svc := newOrderServiceForTest()

	order := &model.Order{ID: uuid.New(), OrderNumber: "ORD-AB12CD34", Status: model.OrderStatusPending}
	items := []model.OrderItem{{ID: uuid.New(), OrderID: order.ID, Quantity: 1}}

	orderRepo.On("GetByNumber", ctx, order.OrderNumber).Return(order, nil)
	orderRepo.On("GetItems", ctx, order.ID).Return(items, nil)

	resp, err := svc.GetByNumber(ctx, order.OrderNumber)

	require.NoError(t, err)
	assert.Equal(t, order.OrderNumber, resp.Order.OrderNumber)
	assert.Len(t, resp.Items, 1)
}
