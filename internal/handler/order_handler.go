package handler

import (
	"encoding/json"
	"net/http"

	"ironware/internal/middleware"
	"ironware/internal/model"
	"ironware/internal/service"
	"ironware/internal/session"

	"github.com/rs/zerolog"
)

// OrderHandler handles checkout and storefront order lookups.
type OrderHandler struct {
	orders   service.OrderService
	sessions session.Store
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, sessions session.Store, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		sessions: sessions,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// Checkout handles POST /api/checkout. The coupon code is resolved from
// the session here and threaded into the service explicitly; a failing
// session read just means checking out without a discount.
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req model.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	sessionID := middleware.SessionID(r.Context())

	code, err := h.sessions.AppliedCoupon(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read applied coupon, checking out without it")
		code = ""
	}
	req.CouponCode = code

	resp, err := h.orders.Checkout(r.Context(), sessionID, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	// The cart is gone; the coupon association goes with it.
	if code != "" {
		if err := h.sessions.ClearCoupon(r.Context(), sessionID); err != nil {
			h.logger.Error().Err(err).Msg("failed to clear coupon after checkout")
		}
	}

	writeJSON(w, http.StatusCreated, resp)
}

// GetByNumber handles GET /api/orders/{orderNumber}.
func (h *OrderHandler) GetByNumber(w http.ResponseWriter, r *http.Request) {
	orderNumber := r.PathValue("orderNumber")
	if orderNumber == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "order number is required", h.logger)
		return
	}

	resp, err := h.orders.GetByNumber(r.Context(), orderNumber)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
