package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/internal/variant/dto"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type fakeCache struct {
	entries map[string][]byte
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := f.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.entries, k)
		f.deleted = append(f.deleted, k)
	}
	return nil
}

func (f *fakeCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.deleted = append(f.deleted, pattern)
	return nil
}

// fakeRepo mirrors the storage-side stock rules: sufficiency is checked
// against the stored quantity, and a forced conflict surfaces as Concurrency.
type fakeRepo struct {
	product       *model.Product
	variant       *model.ProductVariant
	forceConflict bool
	adjustCalls   int
	refErr        error
}

func (f *fakeRepo) ProductRef(ctx context.Context, productID string) (*model.Product, error) {
	if f.refErr != nil {
		return nil, f.refErr
	}
	if f.product == nil || f.product.ID != productID {
		return nil, nil
	}
	return f.product, nil
}

func (f *fakeRepo) FindByID(ctx context.Context, productID, variantID string) (*model.ProductVariant, error) {
	if f.variant == nil || f.variant.ID != variantID || f.variant.ProductID != productID {
		return nil, nil
	}
	return f.variant, nil
}

func (f *fakeRepo) LoadAggregate(ctx context.Context, productID, variantID string) (*model.VariantAggregate, error) {
	if f.variant == nil || f.variant.ID != variantID || f.variant.ProductID != productID {
		return nil, nil
	}
	return &model.VariantAggregate{
		Variant:       *f.variant,
		ProductSKU:    f.product.SKU,
		BasePrice:     f.product.BasePrice,
		AttributeDefs: map[string]model.Attribute{},
	}, nil
}

func (f *fakeRepo) ListAggregates(ctx context.Context, productID string) ([]model.VariantAggregate, error) {
	if f.variant == nil || f.variant.ProductID != productID {
		return []model.VariantAggregate{}, nil
	}
	agg, _ := f.LoadAggregate(ctx, productID, f.variant.ID)
	return []model.VariantAggregate{*agg}, nil
}

func (f *fakeRepo) Create(ctx context.Context, v *model.ProductVariant, attrs []model.VariantAttribute) error {
	f.variant = v
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, v *model.ProductVariant, attrs []model.VariantAttribute) error {
	if f.forceConflict {
		return apperr.Concurrency("Concurrency", "Variant was modified by another user. Please refresh and try again.")
	}
	f.variant = v
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, productID, variantID string) error {
	f.variant = nil
	return nil
}

func (f *fakeRepo) AdjustStock(ctx context.Context, productID, variantID string, delta int) error {
	f.adjustCalls++
	if f.variant == nil || f.variant.ID != variantID || f.variant.ProductID != productID {
		return apperr.NotFound("VariantId", "Variant not found")
	}
	if f.forceConflict {
		return apperr.Concurrency("Concurrency", "Stock was modified by another user. Please refresh and try again.")
	}
	if delta < 0 && -delta > f.variant.StockQuantity {
		return apperr.InsufficientStock("Quantity", "Insufficient stock")
	}
	f.variant.StockQuantity += delta
	f.variant.Version++
	return nil
}

func (f *fakeRepo) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	return f.variant == nil || f.variant.SKU != sku, nil
}

func (f *fakeRepo) AttributesByIDs(ctx context.Context, ids []string) (map[string]model.Attribute, error) {
	return map[string]model.Attribute{}, nil
}

func newFixture(stock int) (*fakeRepo, *fakeCache, *variantUseCase) {
	repo := &fakeRepo{
		product: &model.Product{
			BaseModel: model.BaseModel{ID: "p1"},
			SKU:       "ABC-001",
			BasePrice: decimal.RequireFromString("10.00"),
		},
		variant: &model.ProductVariant{
			BaseModel:     model.BaseModel{ID: "v1", Version: 1},
			ProductID:     "p1",
			SKU:           "ABC-001-S",
			Name:          "Small",
			StockQuantity: stock,
			IsActive:      true,
		},
	}
	store := newFakeCache()
	uc := NewVariantUseCase(repo, store, logger.NewNop(), Config{}).(*variantUseCase)
	return repo, store, uc
}

func TestAdjustStock_DeductsAndReturnsFreshSnapshot(t *testing.T) {
	repo, _, uc := newFixture(5)

	d, err := uc.AdjustStock(context.Background(), "p1", "v1", -3)
	require.NoError(t, err)

	assert.Equal(t, 2, d.StockQuantity)
	assert.Equal(t, 2, repo.variant.StockQuantity)
	assert.True(t, d.Price.Equal(decimal.RequireFromString("10.00")), "effective price falls back to base price")
}

func TestAdjustStock_InsufficientStockLeavesStockUntouched(t *testing.T) {
	repo, store, uc := newFixture(2)

	_, err := uc.AdjustStock(context.Background(), "p1", "v1", -10)
	require.Error(t, err)
	assert.True(t, apperr.IsInsufficientStock(err))

	assert.Equal(t, 2, repo.variant.StockQuantity)
	assert.Empty(t, store.deleted, "no cache invalidation on failure")
}

func TestAdjustStock_NotFound(t *testing.T) {
	_, _, uc := newFixture(5)

	_, err := uc.AdjustStock(context.Background(), "p1", "nope", -1)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestAdjustStock_ConcurrencyPropagatesWithoutRetry(t *testing.T) {
	repo, _, uc := newFixture(5)
	repo.forceConflict = true

	_, err := uc.AdjustStock(context.Background(), "p1", "v1", -1)
	require.Error(t, err)
	assert.True(t, apperr.IsConcurrency(err))
	assert.Equal(t, 1, repo.adjustCalls, "conflict must not be retried")
}

func TestAdjustStock_InvalidatesProductCacheKeys(t *testing.T) {
	_, store, uc := newFixture(5)

	_, err := uc.AdjustStock(context.Background(), "p1", "v1", 3)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"product:p1",
		"product:sku:ABC-001",
		"product:p1:variants",
	}, store.deleted)
}

func TestListVariants_CachesAndServesFromCache(t *testing.T) {
	repo, store, uc := newFixture(5)

	first, err := uc.ListVariants(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Contains(t, store.entries, "product:p1:variants")

	// Mutate storage behind the cache; the cached list must still be served.
	repo.variant.StockQuantity = 99
	second, err := uc.ListVariants(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, second[0].StockQuantity)
}

func TestListVariants_UnknownProduct(t *testing.T) {
	_, _, uc := newFixture(5)

	_, err := uc.ListVariants(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, []apperr.FieldError{{Field: "ProductId", Message: "Product not found"}}, apperr.FieldsOf(err))
}

func TestCreateVariant_DuplicateSKURejected(t *testing.T) {
	_, _, uc := newFixture(5)

	_, err := uc.CreateVariant(context.Background(), "p1", &dto.CreateVariantInput{
		SKU:  "ABC-001-S",
		Name: "Duplicate",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "SKU", apperr.FieldsOf(err)[0].Field)
}

func TestUpdateVariant_InvalidatesCacheKeys(t *testing.T) {
	_, store, uc := newFixture(5)

	_, err := uc.UpdateVariant(context.Background(), "p1", "v1", &dto.UpdateVariantInput{
		Name:          "Renamed",
		StockQuantity: 5,
		IsActive:      true,
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{
		"product:p1",
		"product:sku:ABC-001",
		"product:p1:variants",
	}, store.deleted)
}

func TestUpdateVariant_InvalidationSurvivesProductLookupFailure(t *testing.T) {
	repo, store, uc := newFixture(5)

	// The write commits first; only the SKU-key lookup fails afterwards.
	repo.refErr = errors.New("connection reset")

	_, err := uc.UpdateVariant(context.Background(), "p1", "v1", &dto.UpdateVariantInput{
		Name:          "Renamed",
		StockQuantity: 5,
		IsActive:      true,
	})
	require.NoError(t, err, "a committed write must not surface a lookup failure")

	assert.Contains(t, store.deleted, "product:p1")
	assert.Contains(t, store.deleted, "product:p1:variants")
	assert.NotContains(t, store.deleted, "product:sku:ABC-001")
}

func TestDeleteVariant_NotFound(t *testing.T) {
	_, _, uc := newFixture(5)

	ok, err := uc.DeleteVariant(context.Background(), "p1", "missing")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, apperr.IsNotFound(err))
}
