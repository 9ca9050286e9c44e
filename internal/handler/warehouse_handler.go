package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"ironware/internal/model"
	"ironware/internal/service"

	"github.com/rs/zerolog"
)

// WarehouseHandler handles the authenticated back-office endpoints.
type WarehouseHandler struct {
	warehouse service.WarehouseService
	orders    service.OrderService
	logger    zerolog.Logger
}

// NewWarehouseHandler creates a new warehouse handler.
func NewWarehouseHandler(warehouse service.WarehouseService, orders service.OrderService, logger zerolog.Logger) *WarehouseHandler {
	return &WarehouseHandler{
		warehouse: warehouse,
		orders:    orders,
		logger:    logger.With().Str("handler", "warehouse").Logger(),
	}
}

// ListOrders handles GET /api/warehouse/orders.
func (h *WarehouseHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(r.URL.Query().Get("status"))
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	orders, err := h.warehouse.ListOrders(r.Context(), status, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// GetOrder handles GET /api/warehouse/orders/{orderNumber}.
func (h *WarehouseHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.orders.GetByNumber(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Confirm handles POST /api/warehouse/orders/{orderNumber}/confirm.
func (h *WarehouseHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.warehouse.Confirm)
}

// MarkReadyToShip handles POST /api/warehouse/orders/{orderNumber}/ready.
func (h *WarehouseHandler) MarkReadyToShip(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.warehouse.MarkReadyToShip)
}

// Deliver handles POST /api/warehouse/orders/{orderNumber}/deliver.
func (h *WarehouseHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.warehouse.Deliver)
}

// Cancel handles POST /api/warehouse/orders/{orderNumber}/cancel.
func (h *WarehouseHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.warehouse.Cancel)
}

// Ship handles POST /api/warehouse/orders/{orderNumber}/ship. The body is
// optional; an order can ship before its tracking details are known.
func (h *WarehouseHandler) Ship(w http.ResponseWriter, r *http.Request) {
	var req service.ShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	shipment, err := h.warehouse.Ship(r.Context(), r.PathValue("orderNumber"), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, shipment)
}

// PurgeOrders handles DELETE /api/warehouse/orders.
func (h *WarehouseHandler) PurgeOrders(w http.ResponseWriter, r *http.Request) {
	result, err := h.warehouse.PurgeOrders(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListMovements handles GET /api/warehouse/movements.
func (h *WarehouseHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	movementType := model.MovementType(r.URL.Query().Get("type"))
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	movements, err := h.warehouse.ListMovements(r.Context(), movementType, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if movements == nil {
		movements = []model.InventoryMovement{}
	}

	writeJSON(w, http.StatusOK, movements)
}

// RecordMovement handles POST /api/warehouse/movements.
func (h *WarehouseHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	var req service.MovementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	movement, err := h.warehouse.RecordMovement(r.Context(), &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, movement)
}

// ListShipments handles GET /api/warehouse/shipments.
func (h *WarehouseHandler) ListShipments(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 0)
	offset := queryInt(r, "offset", 0)

	shipments, err := h.warehouse.ListShipments(r.Context(), limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if shipments == nil {
		shipments = []model.Shipment{}
	}

	writeJSON(w, http.StatusOK, shipments)
}

// ListStock handles GET /api/warehouse/stock.
func (h *WarehouseHandler) ListStock(w http.ResponseWriter, r *http.Request) {
	lowOnly := r.URL.Query().Get("low") == "true"

	entries, err := h.warehouse.ListStock(r.Context(), lowOnly)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if entries == nil {
		entries = []model.StockEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}

// transition runs one order lifecycle step and writes the updated order.
func (h *WarehouseHandler) transition(w http.ResponseWriter, r *http.Request, step func(ctx context.Context, orderNumber string) (*model.Order, error)) {
	order, err := step(r.Context(), r.PathValue("orderNumber"))
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
