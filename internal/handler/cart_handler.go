package handler

import (
	"encoding/json"
	"net/http"

	"ironware/internal/middleware"
	"ironware/internal/model"
	"ironware/internal/service"
	"ironware/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartHandler handles session cart HTTP requests, including the coupon
// association which lives in the session store rather than the database.
type CartHandler struct {
	carts    service.CartService
	coupons  service.CouponService
	sessions session.Store
	logger   zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(carts service.CartService, coupons service.CouponService, sessions session.Store, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		carts:    carts,
		coupons:  coupons,
		sessions: sessions,
		logger:   logger.With().Str("handler", "cart").Logger(),
	}
}

type addItemRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Quantity  int        `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

type appliedCouponResponse struct {
	Coupon   *model.Coupon   `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())

	code, err := h.sessions.AppliedCoupon(r.Context(), sessionID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read applied coupon, building cart without it")
		code = ""
	}

	view, err := h.carts.View(r.Context(), sessionID, code)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if view.Lines == nil {
		view.Lines = []model.CartLine{}
	}

	// The coupon vanished or expired since it was applied; drop the
	// stale association so it stops showing up.
	if code != "" && view.Coupon == nil {
		if err := h.sessions.ClearCoupon(r.Context(), sessionID); err != nil {
			h.logger.Error().Err(err).Msg("failed to clear stale coupon")
		}
	}

	writeJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.ProductID == uuid.Nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "productId is required", h.logger)
		return
	}

	sessionID := middleware.SessionID(r.Context())
	line, err := h.carts.AddItem(r.Context(), sessionID, req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, line)
}

// UpdateItem handles PUT /api/cart/items/{id}.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid cart item ID", h.logger)
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	sessionID := middleware.SessionID(r.Context())
	if err := h.carts.UpdateItem(r.Context(), sessionID, lineID, req.Quantity); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveItem handles DELETE /api/cart/items/{id}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	lineID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "invalid cart item ID", h.logger)
		return
	}

	sessionID := middleware.SessionID(r.Context())
	if err := h.carts.RemoveItem(r.Context(), sessionID, lineID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if err := h.carts.Clear(r.Context(), sessionID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ApplyCoupon handles POST /api/cart/coupon.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidation, "code is required", h.logger)
		return
	}

	sessionID := middleware.SessionID(r.Context())
	coupon, discount, err := h.coupons.Evaluate(r.Context(), sessionID, req.Code)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.sessions.ApplyCoupon(r.Context(), sessionID, coupon.Code); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, appliedCouponResponse{Coupon: coupon, Discount: discount})
}

// RemoveCoupon handles DELETE /api/cart/coupon.
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionID(r.Context())
	if err := h.sessions.ClearCoupon(r.Context(), sessionID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
