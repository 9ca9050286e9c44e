package service

import (
	"context"
	"fmt"
	"time"

	"ironware/internal/model"
	"ironware/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// couponService implements CouponService.
type couponService struct {
	couponRepo repository.CouponRepository
	cartRepo   repository.CartRepository
	logger     zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(
	couponRepo repository.CouponRepository,
	cartRepo repository.CartRepository,
	logger zerolog.Logger,
) CouponService {
	return &couponService{
		couponRepo: couponRepo,
		cartRepo:   cartRepo,
		logger:     logger.With().Str("service", "coupon").Logger(),
	}
}

// Evaluate checks the code against the session's current cart and returns
// the coupon with the discount it would grant. The usage count is not
// touched; it only moves when checkout confirms the use.
func (s *couponService) Evaluate(ctx context.Context, sessionID, code string) (*model.Coupon, decimal.Decimal, error) {
	coupon, err := s.couponRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if coupon == nil {
		return nil, decimal.Zero, model.ErrCouponNotFound
	}

	now := time.Now()
	if !coupon.IsValidAt(now) {
		s.logger.Debug().Str("code", code).Msg("coupon rejected, not valid")
		return nil, decimal.Zero, model.ErrCouponInvalid
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, sessionID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	lines, err := s.cartRepo.ListLines(ctx, cart.ID)
	if err != nil {
		return nil, decimal.Zero, err
	}

	subtotal := model.CartTotal(lines)
	if subtotal.LessThan(coupon.MinAmount) {
		s.logger.Debug().
			Str("code", code).
			Str("subtotal", subtotal.String()).
			Str("min_amount", coupon.MinAmount.String()).
			Msg("coupon rejected, cart below minimum amount")
		return nil, decimal.Zero, model.NewDomainError(
			model.ErrCodeCouponInvalid,
			fmt.Sprintf("Minimum order amount of %s not met", coupon.MinAmount.StringFixed(2)),
		)
	}

	discount := coupon.CalculateDiscount(subtotal, now)

	s.logger.Info().
		Str("session_id", sessionID).
		Str("code", code).
		Str("discount", discount.String()).
		Msg("coupon evaluated")

	return coupon, discount, nil
}
