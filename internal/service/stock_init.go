package service

import (
	"context"
	"errors"
	"time"

	"ironware/internal/model"
	"ironware/internal/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// lockOrInitStock returns the row-locked stock entry for a
// (product, variant) pair, seeding it from the product's nominal stock
// count on first use. A lost insert race against a concurrent seeder
// falls back to locking the winner's row.
func lockOrInitStock(ctx context.Context, tx pgx.Tx, stockRepo repository.StockRepository, product *model.Product, variantID *uuid.UUID, logger zerolog.Logger) (*model.StockEntry, error) {
	entry, err := stockRepo.GetForUpdate(ctx, tx, product.ID, variantID)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		return entry, nil
	}

	now := time.Now()
	entry = &model.StockEntry{
		ID:            uuid.New(),
		ProductID:     product.ID,
		VariantID:     variantID,
		Quantity:      product.Stock,
		MinStockLevel: model.DefaultMinStockLevel,
		Location:      model.DefaultStockLocation,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = stockRepo.Create(ctx, tx, entry)
	if errors.Is(err, model.ErrStockEntryExists) {
		return stockRepo.GetForUpdate(ctx, tx, product.ID, variantID)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("product_id", product.ID.String()).
		Int("quantity", product.Stock).
		Msg("stock entry seeded on first use")

	return entry, nil
}
