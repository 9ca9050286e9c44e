package repository

import (
	"context"
	"fmt"
	"time"

	"ironware/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements CouponRepository using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByCode retrieves a coupon by its unique code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `
		SELECT id, code, description, discount_type, discount_value, min_amount,
		       max_discount, is_active, valid_from, valid_to, usage_limit, used_count, created_at
		FROM coupons
		WHERE code = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, code).Scan(
		&c.ID, &c.Code, &c.Description, &c.DiscountType, &c.DiscountValue,
		&c.MinAmount, &c.MaxDiscount, &c.IsActive, &c.ValidFrom, &c.ValidTo,
		&c.UsageLimit, &c.UsedCount, &c.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// Use atomically increments used_count, guarded by the full validity rule
// so the count only moves on confirmed use. Zero rows affected means the
// coupon was no longer valid.
func (r *couponRepository) Use(ctx context.Context, tx pgx.Tx, code string, now time.Time) (bool, error) {
	query := `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE code = $1
		  AND is_active
		  AND valid_from <= $2 AND valid_to >= $2
		  AND (usage_limit IS NULL OR used_count < usage_limit)
	`

	tag, err := tx.Exec(ctx, query, code, now)
	if err != nil {
		r.logger.Error().Err(err).Str("code", code).Msg("failed to use coupon")
		return false, fmt.Errorf("failed to use coupon: %w", err)
	}

	used := tag.RowsAffected() == 1
	if !used {
		r.logger.Debug().Str("code", code).Msg("coupon use refused, no longer valid")
	}

	return used, nil
}
