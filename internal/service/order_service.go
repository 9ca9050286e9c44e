package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ironware/internal/model"
	"ironware/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo  repository.OrderRepository
	cartRepo   repository.CartRepository
	stockRepo  repository.StockRepository
	couponRepo repository.CouponRepository
	logger     zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	stockRepo repository.StockRepository,
	couponRepo repository.CouponRepository,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:  orderRepo,
		cartRepo:   cartRepo,
		stockRepo:  stockRepo,
		couponRepo: couponRepo,
		logger:     logger.With().Str("service", "order").Logger(),
	}
}

// Checkout converts the session's cart into a pending order. The order
// snapshot, the coupon use, every stock effect and the cart clear commit
// together; any line that cannot be consumed rolls the whole checkout
// back.
func (s *orderService) Checkout(ctx context.Context, sessionID string, req *model.CheckoutRequest) (*model.OrderResponse, error) {
	if err := validateCheckoutRequest(req); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, model.ErrEmptyCart
	}

	subtotal := model.CartTotal(lines)
	now := time.Now()

	// Price the discount up front; the guarded use inside the
	// transaction has the final say.
	discount := decimal.Zero
	if req.CouponCode != "" {
		coupon, cerr := s.couponRepo.GetByCode(ctx, req.CouponCode)
		if cerr != nil {
			return nil, cerr
		}
		if coupon != nil {
			discount = coupon.CalculateDiscount(subtotal, now)
		}
	}

	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to checkout: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	// The usage count only moves on confirmed use, and the order only
	// carries the code when the use went through.
	var couponCode *string
	if discount.IsPositive() {
		used, uerr := s.couponRepo.Use(ctx, tx, req.CouponCode, now)
		if uerr != nil {
			err = uerr
			return nil, err
		}
		if used {
			couponCode = &req.CouponCode
		} else {
			s.logger.Warn().
				Str("code", req.CouponCode).
				Msg("coupon no longer valid at checkout, proceeding without discount")
			discount = decimal.Zero
		}
	}

	order := &model.Order{
		ID:              uuid.New(),
		OrderNumber:     model.NewOrderNumber(),
		SessionID:       sessionID,
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		CustomerPhone:   req.CustomerPhone,
		ShippingAddress: req.ShippingAddress,
		ShippingCity:    req.ShippingCity,
		ShippingState:   req.ShippingState,
		ShippingZipCode: req.ShippingZipCode,
		Status:          model.OrderStatusPending,
		Subtotal:        subtotal,
		Discount:        discount,
		Total:           subtotal.Sub(discount),
		CouponCode:      couponCode,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err = s.orderRepo.Create(ctx, tx, order); err != nil {
		return nil, err
	}

	items := make([]model.OrderItem, len(lines))
	for i := range lines {
		line := &lines[i]
		items[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			LineTotal: line.LineTotal(),
		}
	}
	if err = s.orderRepo.CreateItems(ctx, tx, items); err != nil {
		return nil, err
	}

	// Per line: give the reservation back, then consume the owned units.
	for i := range lines {
		line := &lines[i]
		entry, lerr := s.stockRepo.GetForUpdate(ctx, tx, line.ProductID, line.VariantID)
		if lerr != nil {
			err = lerr
			return nil, err
		}
		if entry == nil {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Str("product_id", line.ProductID.String()).
				Msg("no stock entry for cart line, skipping stock effect")
			continue
		}

		// A failed release means the line's reservation drifted; what is
		// still reserved may belong to other carts, so the entry is left
		// untouched and the consume below has to clear available stock.
		if relErr := entry.Release(line.Quantity); relErr != nil {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Str("product_id", line.ProductID.String()).
				Int("line_quantity", line.Quantity).
				Int("reserved", entry.ReservedQuantity).
				Msg("cart line exceeds reserved quantity, release skipped")
		}
		if err = entry.Consume(line.Quantity); err != nil {
			s.logger.Warn().
				Str("order_number", order.OrderNumber).
				Str("product_id", line.ProductID.String()).
				Int("requested", line.Quantity).
				Int("available", entry.Available()).
				Msg("checkout aborted, insufficient stock")
			return nil, err
		}
		if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
			return nil, err
		}
	}

	if err = s.cartRepo.DeleteAllLines(ctx, tx, cart.ID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit checkout: %w", err)
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("session_id", sessionID).
		Str("total", order.Total.String()).
		Int("items", len(items)).
		Msg("order placed")

	return &model.OrderResponse{Order: order, Items: items}, nil
}

// GetByNumber retrieves an order with its items.
func (s *orderService) GetByNumber(ctx context.Context, orderNumber string) (*model.OrderResponse, error) {
	order, err := s.orderRepo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	items, err := s.orderRepo.GetItems(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	return &model.OrderResponse{Order: order, Items: items}, nil
}

// validateCheckoutRequest checks the customer and shipping fields.
func validateCheckoutRequest(req *model.CheckoutRequest) error {
	missing := []string{}
	for _, field := range []struct {
		name  string
		value string
	}{
		{"customerName", req.CustomerName},
		{"customerEmail", req.CustomerEmail},
		{"shippingAddress", req.ShippingAddress},
		{"shippingCity", req.ShippingCity},
		{"shippingZipCode", req.ShippingZipCode},
	} {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return model.NewDomainError(
			model.ErrCodeValidation,
			fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")),
		)
	}
	if !strings.Contains(req.CustomerEmail, "@") {
		return model.NewDomainError(model.ErrCodeValidation, "Invalid email address")
	}
	return nil
}
