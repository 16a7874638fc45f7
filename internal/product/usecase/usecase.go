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
	"github.com/fekuna/catalog-service/internal/product"
	"github.com/fekuna/catalog-service/internal/product/dto"
	"github.com/fekuna/catalog-service/internal/product/mapper"
	"github.com/fekuna/catalog-service/pkg/cache"
	"github.com/fekuna/catalog-service/pkg/logger"
)

var maxBasePrice = decimal.NewFromInt(1_000_000)

type Config struct {
	ProductTTL time.Duration
}

type productUseCase struct {
	repo   product.Repository
	cache  cache.Store
	logger logger.ZapLogger
	cfg    Config
}

func NewProductUseCase(repo product.Repository, store cache.Store, log logger.ZapLogger, cfg Config) product.UseCase {
	if cfg.ProductTTL == 0 {
		cfg.ProductTTL = time.Hour
	}
	return &productUseCase{
		repo:   repo,
		cache:  store,
		logger: log,
		cfg:    cfg,
	}
}

func (uc *productUseCase) ListProducts(ctx context.Context, f *dto.ProductFilters) ([]dto.ProductSummaryDTO, int, error) {
	f.Normalize()

	// List results are intentionally uncached: the filter-parameter space is
	// unbounded, only single-entity reads go through the cache.
	summaries, count, err := uc.repo.FindAll(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	out := make([]dto.ProductSummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, mapper.ToSummaryDTO(s))
	}
	return out, count, nil
}

func (uc *productUseCase) GetProductByID(ctx context.Context, id string) (*dto.ProductDTO, error) {
	cacheKey := fmt.Sprintf("product:%s", id)

	var cached dto.ProductDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	agg, err := uc.repo.LoadAggregateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, apperr.NotFound("Id", "Product not found")
	}

	d, err := mapper.ToProductDTO(agg)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, cacheKey, d, uc.cfg.ProductTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return d, nil
}

func (uc *productUseCase) GetProductBySKU(ctx context.Context, sku string) (*dto.ProductDTO, error) {
	cacheKey := fmt.Sprintf("product:sku:%s", sku)

	var cached dto.ProductDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	agg, err := uc.repo.LoadAggregateBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, apperr.NotFound("SKU", "Product not found")
	}

	d, err := mapper.ToProductDTO(agg)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, cacheKey, d, uc.cfg.ProductTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return d, nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.ProductDTO, error) {
	var fields []apperr.FieldError

	unique, err := uc.repo.IsSKUUnique(ctx, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		fields = append(fields, apperr.FieldError{Field: "SKU", Message: "SKU already exists"})
	}
	if input.BasePrice.LessThanOrEqual(decimal.Zero) {
		fields = append(fields, apperr.FieldError{Field: "BasePrice", Message: "Base price must be greater than 0"})
	}
	if input.BasePrice.GreaterThanOrEqual(maxBasePrice) {
		fields = append(fields, apperr.FieldError{Field: "BasePrice", Message: "Base price must be less than 1,000,000"})
	}

	childFields, err := uc.validateChildren(ctx, input.CategoryIDs, input.PrimaryCategoryID, input.Attributes, input.Images)
	if err != nil {
		return nil, err
	}
	fields = append(fields, childFields...)
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now, Version: 1},
		SKU:         input.SKU,
		Name:        input.Name,
		Description: input.Description,
		BasePrice:   input.BasePrice,
		IsActive:    input.IsActive,
	}

	links, attrs, images := buildChildren(p.ID, input.CategoryIDs, input.PrimaryCategoryID, input.Attributes, input.Images)

	if err := uc.repo.Create(ctx, p, links, attrs, images); err != nil {
		return nil, err
	}

	// Re-read with full joins so the returned DTO and the cache entries come
	// from persisted state rather than the request payload.
	agg, err := uc.repo.LoadAggregateByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, apperr.Internal(fmt.Errorf("product %s missing after create", p.ID))
	}
	d, err := mapper.ToProductDTO(agg)
	if err != nil {
		return nil, err
	}

	uc.cacheSet(ctx, fmt.Sprintf("product:%s", p.ID), d)
	uc.cacheSet(ctx, fmt.Sprintf("product:sku:%s", p.SKU), d)

	return d, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductInput) (*dto.ProductDTO, error) {
	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("Id", "Product not found")
	}

	var fields []apperr.FieldError
	if input.BasePrice.LessThanOrEqual(decimal.Zero) {
		fields = append(fields, apperr.FieldError{Field: "BasePrice", Message: "Base price must be greater than 0"})
	}
	if input.BasePrice.GreaterThanOrEqual(maxBasePrice) {
		fields = append(fields, apperr.FieldError{Field: "BasePrice", Message: "Base price must be less than 1,000,000"})
	}
	childFields, err := uc.validateChildren(ctx, input.CategoryIDs, input.PrimaryCategoryID, input.Attributes, input.Images)
	if err != nil {
		return nil, err
	}
	fields = append(fields, childFields...)
	if len(fields) > 0 {
		return nil, apperr.ValidationFields(fields)
	}

	updated := *existing
	updated.Name = input.Name
	updated.Description = input.Description
	updated.BasePrice = input.BasePrice
	updated.IsActive = input.IsActive
	updated.UpdatedAt = time.Now().UTC()

	links, attrs, images := buildChildren(id, input.CategoryIDs, input.PrimaryCategoryID, input.Attributes, input.Images)

	if err := uc.repo.Update(ctx, &updated, links, attrs, images); err != nil {
		return nil, err
	}

	// SKU is immutable post-create, so the current SKU key is the only SKU
	// entry that can exist. The variant-list key is dropped too because
	// cached variant DTOs embed the effective price derived from base price.
	uc.invalidateProduct(ctx, id, existing.SKU)

	agg, err := uc.repo.LoadAggregateByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, apperr.NotFound("Id", "Product not found")
	}
	return mapper.ToProductDTO(agg)
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, id string) (bool, error) {
	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, apperr.NotFound("Id", "Product not found")
	}

	if err := uc.repo.Delete(ctx, id); err != nil {
		return false, err
	}

	uc.invalidateProduct(ctx, id, existing.SKU)
	return true, nil
}

func (uc *productUseCase) validateChildren(ctx context.Context, categoryIDs []string, primaryCategoryID *string, attrs []dto.AttributeValueInput, images []dto.ImageInput) ([]apperr.FieldError, error) {
	var fields []apperr.FieldError

	missing, err := uc.repo.MissingCategoryIDs(ctx, categoryIDs)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		fields = append(fields, apperr.FieldError{Field: "CategoryIds", Message: "One or more category IDs are invalid"})
	}

	if primaryCategoryID != nil {
		found := false
		for _, id := range categoryIDs {
			if id == *primaryCategoryID {
				found = true
				break
			}
		}
		if !found {
			fields = append(fields, apperr.FieldError{Field: "PrimaryCategoryId", Message: "Primary category must be one of the selected categories"})
		}
	}

	if len(attrs) > 0 {
		ids := make([]string, 0, len(attrs))
		for _, a := range attrs {
			ids = append(ids, a.AttributeID)
		}
		defs, err := uc.repo.AttributesByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
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
	}

	primaryImages := 0
	for _, img := range images {
		if img.IsPrimary {
			primaryImages++
		}
	}
	if primaryImages > 1 {
		fields = append(fields, apperr.FieldError{Field: "Images", Message: "Only one image can be marked as primary"})
	}

	return fields, nil
}

func buildChildren(productID string, categoryIDs []string, primaryCategoryID *string, attrs []dto.AttributeValueInput, images []dto.ImageInput) ([]model.ProductCategory, []model.ProductAttribute, []model.ProductImage) {
	links := make([]model.ProductCategory, 0, len(categoryIDs))
	for _, categoryID := range categoryIDs {
		links = append(links, model.ProductCategory{
			ProductID:  productID,
			CategoryID: categoryID,
			IsPrimary:  primaryCategoryID != nil && categoryID == *primaryCategoryID,
		})
	}

	values := make([]model.ProductAttribute, 0, len(attrs))
	for _, a := range attrs {
		values = append(values, model.ProductAttribute{
			ID:          uuid.New().String(),
			ProductID:   productID,
			AttributeID: a.AttributeID,
			Value:       a.Value,
		})
	}

	imgs := make([]model.ProductImage, 0, len(images))
	for _, img := range images {
		imgs = append(imgs, model.ProductImage{
			ID:           uuid.New().String(),
			ProductID:    productID,
			ImageURL:     img.ImageURL,
			AltText:      img.AltText,
			DisplayOrder: img.DisplayOrder,
			IsPrimary:    img.IsPrimary,
		})
	}

	return links, values, imgs
}

func (uc *productUseCase) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := uc.cache.Set(ctx, key, value, uc.cfg.ProductTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (uc *productUseCase) invalidateProduct(ctx context.Context, id, sku string) {
	keys := []string{
		fmt.Sprintf("product:%s", id),
		fmt.Sprintf("product:sku:%s", sku),
		fmt.Sprintf("product:%s:variants", id),
	}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
}
