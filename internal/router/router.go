package router

import (
	"net/http"
	"time"

	"ironware/internal/handler"
	"ironware/internal/middleware"

	"github.com/rs/zerolog"
)

// New creates the HTTP router with all routes and middleware configured.
// The storefront routes are open; the warehouse subtree requires the API
// key.
func New(
	productHandler *handler.ProductHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	warehouseHandler *handler.WarehouseHandler,
	apiKey string,
	sessionTTL time.Duration,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Storefront: catalogue
	mux.HandleFunc("GET /api/products", productHandler.GetAll)
	mux.HandleFunc("GET /api/products/{id}", productHandler.GetByID)

	// Storefront: session cart and coupon
	mux.HandleFunc("GET /api/cart", cartHandler.Get)
	mux.HandleFunc("DELETE /api/cart", cartHandler.Clear)
	mux.HandleFunc("POST /api/cart/items", cartHandler.AddItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", cartHandler.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", cartHandler.RemoveItem)
	mux.HandleFunc("POST /api/cart/coupon", cartHandler.ApplyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", cartHandler.RemoveCoupon)

	// Storefront: checkout and order tracking
	mux.HandleFunc("POST /api/checkout", orderHandler.Checkout)
	mux.HandleFunc("GET /api/orders/{orderNumber}", orderHandler.GetByNumber)

	// Warehouse back office, behind the API key
	warehouse := http.NewServeMux()
	warehouse.HandleFunc("GET /api/warehouse/orders", warehouseHandler.ListOrders)
	warehouse.HandleFunc("DELETE /api/warehouse/orders", warehouseHandler.PurgeOrders)
	warehouse.HandleFunc("GET /api/warehouse/orders/{orderNumber}", warehouseHandler.GetOrder)
	warehouse.HandleFunc("POST /api/warehouse/orders/{orderNumber}/confirm", warehouseHandler.Confirm)
	warehouse.HandleFunc("POST /api/warehouse/orders/{orderNumber}/ready", warehouseHandler.MarkReadyToShip)
	warehouse.HandleFunc("POST /api/warehouse/orders/{orderNumber}/ship", warehouseHandler.Ship)
	warehouse.HandleFunc("POST /api/warehouse/orders/{orderNumber}/deliver", warehouseHandler.Deliver)
	warehouse.HandleFunc("POST /api/warehouse/orders/{orderNumber}/cancel", warehouseHandler.Cancel)
	warehouse.HandleFunc("GET /api/warehouse/movements", warehouseHandler.ListMovements)
	warehouse.HandleFunc("POST /api/warehouse/movements", warehouseHandler.RecordMovement)
	warehouse.HandleFunc("GET /api/warehouse/shipments", warehouseHandler.ListShipments)
	warehouse.HandleFunc("GET /api/warehouse/stock", warehouseHandler.ListStock)
	mux.Handle("/api/warehouse/", middleware.APIKeyAuth(apiKey, logger)(warehouse))

	// Apply middleware in order: Recovery -> Logging -> CORS -> Session
	var h http.Handler = mux
	h = middleware.Session(sessionTTL, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
