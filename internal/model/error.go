package model

import (
	"errors"
	"fmt"
)

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeInvalidQuantity      = "INVALID_QUANTITY"
	ErrCodeInsufficientStock    = "INSUFFICIENT_STOCK"
	ErrCodeInvalidRelease       = "INVALID_RELEASE"
	ErrCodeStockEntryExists     = "STOCK_ENTRY_EXISTS"
	ErrCodeProductNotFound      = "PRODUCT_NOT_FOUND"
	ErrCodeVariantNotFound      = "VARIANT_NOT_FOUND"
	ErrCodeCartItemNotFound     = "CART_ITEM_NOT_FOUND"
	ErrCodeCouponNotFound       = "COUPON_NOT_FOUND"
	ErrCodeCouponInvalid        = "COUPON_INVALID"
	ErrCodeEmptyCart            = "EMPTY_CART"
	ErrCodeOrderNotFound        = "ORDER_NOT_FOUND"
	ErrCodeOrderUnexpectedState = "ORDER_NOT_IN_EXPECTED_STATE"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError is a business-rule violation that is safe to report back to
// the caller. Available is only populated for insufficient-stock errors.
type DomainError struct {
	Code      string
	Message   string
	Available int
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewInsufficientStock reports a reservation or consumption request that
// exceeds the currently available quantity. The available count is carried
// so the storefront can tell the shopper how many units remain.
func NewInsufficientStock(available int) *DomainError {
	return &DomainError{
		Code:      ErrCodeInsufficientStock,
		Message:   fmt.Sprintf("only %d units available", available),
		Available: available,
	}
}

// IsDomainError reports whether err carries the given domain error code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// Common domain errors
var (
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidRelease       = NewDomainError(ErrCodeInvalidRelease, "Release exceeds reserved quantity")
	ErrStockEntryExists     = NewDomainError(ErrCodeStockEntryExists, "Stock entry already exists for this product and variant")
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrVariantNotFound      = NewDomainError(ErrCodeVariantNotFound, "Product variant not found")
	ErrCartItemNotFound     = NewDomainError(ErrCodeCartItemNotFound, "Cart item not found")
	ErrCouponNotFound       = NewDomainError(ErrCodeCouponNotFound, "Coupon code does not exist")
	ErrCouponInvalid        = NewDomainError(ErrCodeCouponInvalid, "Coupon is not valid or has expired")
	ErrEmptyCart            = NewDomainError(ErrCodeEmptyCart, "Cart is empty")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrOrderUnexpectedState = NewDomainError(ErrCodeOrderUnexpectedState, "Order is not in the expected state for this transition")
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Available *int   `json:"available,omitempty"`
}
