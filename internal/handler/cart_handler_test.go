package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ironware/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCartHandlerForTest() (*MockCartService, *MockCouponService, *MockSessionStore, *CartHandler) {
	carts := new(MockCartService)
	coupons := new(MockCouponService)
	sessions := new(MockSessionStore)
	h := NewCartHandler(carts, coupons, sessions, zerolog.Nop())
	return carts, coupons, sessions, h
}

func TestCartHandler_Get(t *testing.T) {
	carts, _, sessions, h := newCartHandlerForTest()

	view := &model.CartView{
		Cart:     &model.Cart{ID: uuid.New()},
		Subtotal: decimal.RequireFromString("42.00"),
		Discount: decimal.Zero,
		Total:    decimal.RequireFromString("42.00"),
	}
	sessions.On("AppliedCoupon", mock.Anything, mock.Anything).Return("", nil)
	carts.On("View", mock.Anything, mock.Anything, "").Return(view, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"lines":[]`)
	sessions.AssertNotCalled(t, "ClearCoupon", mock.Anything, mock.Anything)
}

// A coupon association pointing at a vanished coupon is dropped when the
// cart is read.
func TestCartHandler_Get_DropsStaleCoupon(t *testing.T) {
	carts, _, sessions, h := newCartHandlerForTest()

	view := &model.CartView{
		Cart:     &model.Cart{ID: uuid.New()},
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}
	sessions.On("AppliedCoupon", mock.Anything, mock.Anything).Return("GONE", nil)
	carts.On("View", mock.Anything, mock.Anything, "GONE").Return(view, nil)
	sessions.On("ClearCoupon", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sessions.AssertCalled(t, "ClearCoupon", mock.Anything, mock.Anything)
}

func TestCartHandler_AddItem(t *testing.T) {
	carts, _, _, h := newCartHandlerForTest()

	productID := uuid.New()
	line := &model.CartLine{ID: uuid.New(), ProductID: productID, Quantity: 2}
	carts.On("AddItem", mock.Anything, mock.Anything, productID, (*uuid.UUID)(nil), 2).Return(line, nil)

	body := `{"productId": "` + productID.String() + `", "quantity": 2}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	carts.AssertExpectations(t)
}

func TestCartHandler_AddItem_InsufficientStock(t *testing.T) {
	carts, _, _, h := newCartHandlerForTest()

	productID := uuid.New()
	carts.On("AddItem", mock.Anything, mock.Anything, productID, (*uuid.UUID)(nil), 50).
		Return(nil, model.NewInsufficientStock(3))

	body := `{"productId": "` + productID.String() + `", "quantity": 50}`
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp model.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, model.ErrCodeInsufficientStock, resp.Error)
	require.NotNil(t, resp.Available)
	assert.Equal(t, 3, *resp.Available)
}

func TestCartHandler_AddItem_BadJSON(t *testing.T) {
	carts, _, _, h := newCartHandlerForTest()

	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	h.AddItem(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	carts.AssertNotCalled(t, "AddItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCartHandler_UpdateItem(t *testing.T) {
	carts, _, _, h := newCartHandlerForTest()

	lineID := uuid.New()
	carts.On("UpdateItem", mock.Anything, mock.Anything, lineID, 5).Return(nil)

	req := httptest.NewRequest(http.MethodPut, "/api/cart/items/"+lineID.String(), strings.NewReader(`{"quantity": 5}`))
	req.SetPathValue("id", lineID.String())
	rec := httptest.NewRecorder()
	h.UpdateItem(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	carts.AssertExpectations(t)
}

func TestCartHandler_UpdateItem_NotFound(t *testing.T) {
	carts, _, _, h := newCartHandlerForTest()

	lineID := uuid.New()
	carts.On("UpdateItem", mock.Anything, mock.Anything, lineID, 5).Return(model.ErrCartItemNotFound)

	req := httptest.NewRequest(http.MethodPut, "/api/cart/items/"+lineID.String(), strings.NewReader(`{"quantity": 5}`))
	req.SetPathValue("id", lineID.String())
	rec := httptest.NewRecorder()
	h.UpdateItem(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartHandler_ApplyCoupon(t *testing.T) {
	_, coupons, sessions, h := newCartHandlerForTest()

	coupon := &model.Coupon{Code: "SAVE10"}
	coupons.On("Evaluate", mock.Anything, mock.Anything, "SAVE10").
		Return(coupon, decimal.RequireFromString("20.00"), nil)
	sessions.On("ApplyCoupon", mock.Anything, mock.Anything, "SAVE10").Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/coupon", strings.NewReader(`{"code": "SAVE10"}`))
	rec := httptest.NewRecorder()
	h.ApplyCoupon(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "SAVE10")
	sessions.AssertExpectations(t)
}

func TestCartHandler_ApplyCoupon_Invalid(t *testing.T) {
	_, coupons, sessions, h := newCartHandlerForTest()

	coupons.On("Evaluate", mock.Anything, mock.Anything, "OLDNEWS").
		Return(nil, decimal.Zero, model.ErrCouponInvalid)

	req := httptest.NewRequest(http.MethodPost, "/api/cart/coupon", strings.NewReader(`{"code": "OLDNEWS"}`))
	rec := httptest.NewRecorder()
	h.ApplyCoupon(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	sessions.AssertNotCalled(t, "ApplyCoupon", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartHandler_RemoveCoupon(t *testing.T) {
	_, _, sessions, h := newCartHandlerForTest()

	sessions.On("ClearCoupon", mock.Anything, mock.Anything).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/cart/coupon", nil)
	rec := httptest.NewRecorder()
	h.RemoveCoupon(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	sessions.AssertExpectations(t)
}
