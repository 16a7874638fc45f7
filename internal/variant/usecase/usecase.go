package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/model"
	productdto "github.com/fekuna/catalog-service/internal/product/dto"
	"github.com/fekuna/catalog-service/internal/product/mapper"
	"github.com/fekuna/catalog-service/internal/variant"
	"github.com/fekuna/catalog-service/internal/variant/dto"
	"github.com/fekuna/catalog-service/pkg/cache"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type Config struct {
	VariantListTTL time.Duration
}

type variantUseCase struct {
	repo   variant.Repository
	cache  cache.Store
	logger logger.ZapLogger
	cfg    Config
}

func NewVariantUseCase(repo variant.Repository, store cache.Store, log logger.ZapLogger, cfg Config) variant.UseCase {
	if cfg.VariantListTTL == 0 {
		cfg.VariantListTTL = 30 * time.Minute
	}
	return &variantUseCase{
		repo:   repo,
		cache:  store,
		logger: log,
		cfg:    cfg,
	}
}

func (uc *variantUseCase) ListVariants(ctx context.Context, productID string) ([]productdto.ProductVariantDTO, error) {
	cacheKey := fmt.Sprintf("product:%s:variants", productID)

	var cached []productdto.ProductVariantDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	p, err := uc.repo.ProductRef(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("ProductId", "Product not found")
	}

	aggs, err := uc.repo.ListAggregates(ctx, productID)
	if err != nil {
		return nil, err
	}

	out := make([]productdto.ProductVariantDTO, 0, len(aggs))
	for _, agg := range aggs {
		d, err := mapper.ToVariantDTO(agg.Variant, agg.BasePrice, agg.Attributes, agg.AttributeDefs)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}

	if err := uc.cache.Set(ctx, cacheKey, out, uc.cfg.VariantListTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return out, nil
}

func (uc *variantUseCase) CreateVariant(ctx context.Context, productID string, input *dto.CreateVariantInput) (*productdto.ProductVariantDTO, error) {
	p, err := uc.repo.ProductRef(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("ProductId", "Product not found")
	}

	var fields []apperr.FieldError
	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		fields = append(fields, apperr.FieldError{Field: "SKU", Message: "SKU already exists"})
	}
	if input.Price != nil && input.Price.LessThanOrEqual(decimal.Zero) {
		fields = append(fields, apperr.FieldError{Field: "Price", Message: "Price must be greater than 0"})
	}
	attrFields, err := uc.validateAttributes(ctx, input.Attributes)
	if err != nil {
		return nil, err
	}
	fields = append(fields, attrFields...)
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	now := time.Now().UTC()
	v := &model.ProductVariant{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now, Version: 1},
		ProductID:     productID,
		SKU:           input.SKU,
		Name:          input.Name,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		IsActive:      input.IsActive,
	}

	if err := uc.repo.Create(ctx, v, buildAttributes(v.ID, input.Attributes)); err != nil {
		return nil, err
	}

	uc.invalidateProduct(ctx, productID, p.SKU)

	return uc.freshSnapshot(ctx, productID, v.ID)
}

func (uc *variantUseCase) UpdateVariant(ctx context.Context, productID, variantID string, input *dto.UpdateVariantInput) (*productdto.ProductVariantDTO, error) {
	existing, err := uc.repo.FindByID(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("VariantId", "Variant not found")
	}

	var fields []apperr.FieldError
	if input.Price != nil && input.Price.LessThanOrEqual(decimal.Zero) {
		fields = append(fields, apperr.FieldError{Field: "Price", Message: "Price must be greater than 0"})
	}
	attrFields, err := uc.validateAttributes(ctx, input.Attributes)
	if err != nil {
		return nil, err
	}
	fields = append(fields, attrFields...)
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	updated := *existing
	updated.Name = input.Name
	updated.Price = input.Price
	updated.StockQuantity = input.StockQuantity
	updated.IsActive = input.IsActive
	updated.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, &updated, buildAttributes(variantID, input.Attributes)); err != nil {
		return nil, err
	}

	uc.invalidateForVariant(ctx, productID)

	return uc.freshSnapshot(ctx, productID, variantID)
}

func (uc *variantUseCase) DeleteVariant(ctx context.Context, productID, variantID string) (bool, error) {
	existing, err := uc.repo.FindByID(ctx, productID, variantID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, apperr.NotFound("VariantId", "Variant not found")
	}

	if err := uc.repo.Delete(ctx, productID, variantID); err != nil {
		return false, err
	}

	uc.invalidateForVariant(ctx, productID)
	return true, nil
}

// AdjustStock commits the delta under serializable isolation, then assembles
// the snapshot from a fresh post-commit read and drops the product's cache
// entries. The cache is not transactional with storage: a crash between
// commit and invalidation leaves an entry that expires via TTL.
func (uc *variantUseCase) AdjustStock(ctx context.Context, productID, variantID string, delta int) (*productdto.ProductVariantDTO, error) {
	if err := uc.repo.AdjustStock(ctx, productID, variantID, delta); err != nil {
		return nil, err
	}

	agg, err := uc.repo.LoadAggregate(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, apperr.NotFound("VariantId", "Variant not found")
	}

	uc.invalidateProduct(ctx, productID, agg.ProductSKU)

	return mapper.ToVariantDTO(agg.Variant, agg.BasePrice, agg.Attributes, agg.AttributeDefs)
}

func (uc *variantUseCase) freshSnapshot(ctx context.Context, productID, variantID string) (*productdto.ProductVariantDTO, error) {
	agg, err := uc.repo.LoadAggregate(ctx, productID, variantID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, apperr.NotFound("VariantId", "Variant not found")
	}
	return mapper.ToVariantDTO(agg.Variant, agg.BasePrice, agg.Attributes, agg.AttributeDefs)
}

func (uc *variantUseCase) validateAttributes(ctx context.Context, attrs []productdto.AttributeValueInput) ([]apperr.FieldError, error) {
	if len(attrs) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(attrs))
	for _, a := range attrs {
		ids = append(ids, a.AttributeID)
	}
	defs, err := uc.repo.AttributesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	var fields []apperr.FieldError
	for _, a := range attrs {
		def, ok := defs[a.AttributeID]
		if !ok {
			fields = append(fields, apperr.FieldError{Field: "Attributes", Message: "One or more attribute IDs are invalid"})
			break
		}
		if !def.DataType.ValidValue(a.Value) {
			fields = append(fields, apperr.FieldError{
				Field:   "Attributes",
				Message: fmt.Sprintf("Value %q is invalid for attribute %s (%s)", a.Value, def.Name, def.DataType),
			})
		}
	}
	return fields, nil
}

func buildAttributes(variantID string, attrs []productdto.AttributeValueInput) []model.VariantAttribute {
	out := make([]model.VariantAttribute, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, model.VariantAttribute{
			ID:          uuid.New().String(),
			VariantID:   variantID,
			AttributeID: a.AttributeID,
			Value:       a.Value,
		})
	}
	return out
}

// invalidateForVariant runs after the write has committed, so it must never
// turn a committed change into a caller-visible error. The id-derived keys are
// always dropped; the SKU key needs a product lookup and is best effort.
func (uc *variantUseCase) invalidateForVariant(ctx context.Context, productID string) {
	keys := []string{
		fmt.Sprintf("product:%s", productID),
		fmt.Sprintf("product:%s:variants", productID),
	}

	p, err := uc.repo.ProductRef(ctx, productID)
	switch {
	case err != nil:
		uc.logger.Warn("product lookup for cache invalidation failed",
			zap.String("productId", productID), zap.Error(err))
	case p != nil:
		keys = append(keys, fmt.Sprintf("product:sku:%s", p.SKU))
	}

	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// invalidateProduct drops every cache entry a variant change can stale: the
// product aggregate by id and SKU, and the product-scoped variant list.
func (uc *variantUseCase) invalidateProduct(ctx context.Context, productID, productSKU string) {
	keys := []string{
		fmt.Sprintf("product:%s", productID),
		fmt.Sprintf("product:sku:%s", productSKU),
		fmt.Sprintf("product:%s:variants", productID),
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
