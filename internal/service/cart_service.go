package service

import (
	"context"
	"fmt"
	"time"

	"ironware/internal/model"
	"ironware/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService. Every mutation runs in one
// transaction that row-locks the affected stock entry, so the reservation
// ledger and the cart lines can never drift apart under concurrency.
type cartService struct {
	cartRepo    repository.CartRepository
	stockRepo   repository.StockRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		stockRepo:   stockRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// View builds the cart read model for a session.
func (s *cartService) View(ctx context.Context, sessionID, couponCode string) (*model.CartView, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}

	subtotal := model.CartTotal(lines)
	view := &model.CartView{
		Cart:      cart,
		Lines:     lines,
		ItemCount: model.CartItemCount(lines),
		Subtotal:  subtotal,
		Discount:  decimal.Zero,
		Total:     subtotal,
	}

	if couponCode != "" {
		now := time.Now()
		coupon, err := s.couponRepo.GetByCode(ctx, couponCode)
		if err != nil {
			return nil, err
		}
		if coupon != nil && coupon.IsValidAt(now) {
			view.Coupon = coupon
			view.Discount = coupon.CalculateDiscount(subtotal, now)
			view.Total = subtotal.Sub(view.Discount)
		}
	}

	return view, nil
}

// AddItem puts quantity units of a (product, variant) pair in the cart,
// reserving stock for them first.
func (s *cartService) AddItem(ctx context.Context, sessionID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*model.CartLine, error) {
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, model.ErrProductNotFound
	}

	unitPrice := product.Price
	if variantID != nil {
		variant, err := s.productRepo.GetVariant(ctx, *variantID)
		if err != nil {
			return nil, err
		}
		if variant == nil || variant.ProductID != product.ID || !variant.IsActive {
			return nil, model.ErrVariantNotFound
		}
		unitPrice = variant.FinalPrice(product.Price)
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	tx, err := s.stockRepo.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	entry, err := lockOrInitStock(ctx, tx, s.stockRepo, product, variantID, s.logger)
	if err != nil {
		return nil, err
	}

	line, err := s.cartRepo.FindLine(ctx, tx, cart.ID, product.ID, variantID)
	if err != nil {
		return nil, err
	}

	if err = entry.Reserve(quantity); err != nil {
		s.logger.Warn().
			Str("product_id", product.ID.String()).
			Int("requested", quantity).
			Int("available", entry.Available()).
			Msg("reservation refused, insufficient stock")
		return nil, err
	}

	now := time.Now()
	if line == nil {
		line = &model.CartLine{
			ID:        uuid.New(),
			CartID:    cart.ID,
			ProductID: product.ID,
			VariantID: variantID,
			Quantity:  quantity,
			UnitPrice: unitPrice,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = s.cartRepo.InsertLine(ctx, tx, line); err != nil {
			return nil, err
		}
	} else {
		line.Quantity += quantity
		line.UpdatedAt = now
		if err = s.cartRepo.UpdateLineQuantity(ctx, tx, line.ID, line.Quantity); err != nil {
			return nil, err
		}
	}

	if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("product_id", product.ID.String()).
		Int("quantity", quantity).
		Msg("item added to cart")

	return line, nil
}

// UpdateItem changes a line to the given quantity; zero or less removes
// it. The existing line's own reservation is not counted against the new
// quantity, so raising a line from 3 to 5 only needs 5 available, not 8.
func (s *cartService) UpdateItem(ctx context.Context, sessionID string, lineID uuid.UUID, quantity int) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}

	line, err := s.cartRepo.GetLine(ctx, cart.ID, lineID)
	if err != nil {
		return err
	}
	if line == nil {
		return model.ErrCartItemNotFound
	}

	tx, err := s.stockRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	entry, err := s.stockRepo.GetForUpdate(ctx, tx, line.ProductID, line.VariantID)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		if entry != nil {
			s.releaseLine(entry, line.Quantity, line.ID)
			if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
				return err
			}
		}
		if err = s.cartRepo.DeleteLine(ctx, tx, line.ID); err != nil {
			return err
		}
		if err = tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit cart update: %w", err)
		}
		s.logger.Info().Str("session_id", sessionID).Str("line_id", line.ID.String()).Msg("cart line removed")
		return nil
	}

	if entry == nil {
		product, perr := s.productRepo.GetByID(ctx, line.ProductID)
		if perr != nil {
			err = perr
			return err
		}
		if product == nil {
			err = model.ErrProductNotFound
			return err
		}
		entry, err = lockOrInitStock(ctx, tx, s.stockRepo, product, line.VariantID, s.logger)
		if err != nil {
			return err
		}
	}

	s.releaseLine(entry, line.Quantity, line.ID)
	if err = entry.Reserve(quantity); err != nil {
		s.logger.Warn().
			Str("line_id", line.ID.String()).
			Int("requested", quantity).
			Int("available", entry.Available()).
			Msg("reservation refused, insufficient stock")
		return err
	}

	if err = s.cartRepo.UpdateLineQuantity(ctx, tx, line.ID, quantity); err != nil {
		return err
	}
	if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart update: %w", err)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Str("line_id", line.ID.String()).
		Int("quantity", quantity).
		Msg("cart line updated")

	return nil
}

// RemoveItem deletes a line and releases its reservation.
func (s *cartService) RemoveItem(ctx context.Context, sessionID string, lineID uuid.UUID) error {
	return s.UpdateItem(ctx, sessionID, lineID, 0)
}

// Clear deletes every line of the session's cart and releases all of its
// reservations.
func (s *cartService) Clear(ctx context.Context, sessionID string) error {
	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return err
	}

	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	tx, err := s.stockRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	for i := range lines {
		line := &lines[i]
		entry, lerr := s.stockRepo.GetForUpdate(ctx, tx, line.ProductID, line.VariantID)
		if lerr != nil {
			err = lerr
			return err
		}
		if entry == nil {
			s.logger.Warn().Str("product_id", line.ProductID.String()).Msg("no stock entry for cart line, nothing to release")
			continue
		}
		s.releaseLine(entry, line.Quantity, line.ID)
		if err = s.stockRepo.UpdateQuantities(ctx, tx, entry); err != nil {
			return err
		}
	}

	if err = s.cartRepo.DeleteAllLines(ctx, tx, cart.ID); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit cart clear: %w", err)
	}

	s.logger.Info().Str("session_id", sessionID).Int("lines", len(lines)).Msg("cart cleared")

	return nil
}

// releaseLine gives back a line's reservation. A line holding more than
// is reserved means the ledger drifted; the entry is left untouched, since
// whatever is still reserved may belong to other carts, and the drift is
// logged rather than blocking the shopper.
func (s *cartService) releaseLine(entry *model.StockEntry, qty int, lineID uuid.UUID) {
	if err := entry.Release(qty); err != nil {
		s.logger.Warn().
			Str("line_id", lineID.String()).
			Int("line_quantity", qty).
			Int("reserved", entry.ReservedQuantity).
			Msg("cart line exceeds reserved quantity, release skipped")
	}
}
