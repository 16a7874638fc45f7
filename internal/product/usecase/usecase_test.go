package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/internal/product/dto"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type fakeCache struct {
	entries map[string][]byte
	gets    int
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	f.gets++
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

type fakeRepo struct {
	aggregate  *model.ProductAggregate
	categories map[string]struct{}
	attrs      map[string]model.Attribute
	skus       map[string]struct{}
	loads      int
	updated    bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		categories: map[string]struct{}{},
		attrs:      map[string]model.Attribute{},
		skus:       map[string]struct{}{},
	}
}

func (f *fakeRepo) Create(ctx context.Context, p *model.Product, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error {
	f.skus[p.SKU] = struct{}{}
	f.aggregate = &model.ProductAggregate{
		Product:           *p,
		VariantAttributes: map[string][]model.VariantAttribute{},
		AttributeDefs:     f.attrs,
	}
	return nil
}

func (f *fakeRepo) Update(ctx context.Context, p *model.Product, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error {
	f.updated = true
	f.aggregate.Product = *p
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	f.aggregate = nil
	return nil
}

func (f *fakeRepo) FindByID(ctx context.Context, id string) (*model.Product, error) {
	if f.aggregate == nil || f.aggregate.Product.ID != id {
		return nil, nil
	}
	p := f.aggregate.Product
	return &p, nil
}

func (f *fakeRepo) LoadAggregateByID(ctx context.Context, id string) (*model.ProductAggregate, error) {
	f.loads++
	if f.aggregate == nil || f.aggregate.Product.ID != id {
		return nil, nil
	}
	return f.aggregate, nil
}

func (f *fakeRepo) LoadAggregateBySKU(ctx context.Context, sku string) (*model.ProductAggregate, error) {
	f.loads++
	if f.aggregate == nil || f.aggregate.Product.SKU != sku {
		return nil, nil
	}
	return f.aggregate, nil
}

func (f *fakeRepo) FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.ProductSummary, int, error) {
	if f.aggregate == nil {
		return nil, 0, nil
	}
	return []model.ProductSummary{{Product: f.aggregate.Product}}, 1, nil
}

func (f *fakeRepo) IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error) {
	_, exists := f.skus[sku]
	return !exists, nil
}

func (f *fakeRepo) MissingCategoryIDs(ctx context.Context, ids []string) ([]string, error) {
	var missing []string
	for _, id := range ids {
		if _, ok := f.categories[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (f *fakeRepo) AttributesByIDs(ctx context.Context, ids []string) (map[string]model.Attribute, error) {
	out := map[string]model.Attribute{}
	for _, id := range ids {
		if a, ok := f.attrs[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

func seedProduct(repo *fakeRepo) {
	repo.skus["ABC-001"] = struct{}{}
	repo.aggregate = &model.ProductAggregate{
		Product: model.Product{
			BaseModel: model.BaseModel{ID: "p1", Version: 1},
			SKU:       "ABC-001",
			Name:      "Shirt",
			BasePrice: decimal.RequireFromString("10.00"),
			IsActive:  true,
		},
		VariantAttributes: map[string][]model.VariantAttribute{},
		AttributeDefs:     map[string]model.Attribute{},
	}
}

func TestGetProductByID_CacheMissPopulatesCache(t *testing.T) {
	repo := newFakeRepo()
	seedProduct(repo)
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	d, err := uc.GetProductByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "ABC-001", d.SKU)
	assert.Equal(t, 1, repo.loads)
	assert.Contains(t, store.entries, "product:p1")
}

func TestGetProductByID_CacheHitBypassesRepo(t *testing.T) {
	repo := newFakeRepo()
	seedProduct(repo)
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	first, err := uc.GetProductByID(context.Background(), "p1")
	require.NoError(t, err)

	second, err := uc.GetProductByID(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.loads, "second read must come from cache")
	assert.Equal(t, first, second, "hit and miss-then-store paths must agree")
}

func TestGetProductBySKU_NotFound(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	_, err := uc.GetProductBySKU(context.Background(), "GHOST")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, []apperr.FieldError{{Field: "SKU", Message: "Product not found"}}, apperr.FieldsOf(err))
}

func TestCreateProduct_ValidationFailures(t *testing.T) {
	repo := newFakeRepo()
	seedProduct(repo)
	repo.categories["c1"] = struct{}{}
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	t.Run("duplicate SKU", func(t *testing.T) {
		_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
			SKU:         "ABC-001",
			Name:        "Dup",
			BasePrice:   decimal.RequireFromString("5.00"),
			CategoryIDs: []string{"c1"},
		})
		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
		assert.Equal(t, "SKU", apperr.FieldsOf(err)[0].Field)
	})

	t.Run("price out of bounds", func(t *testing.T) {
		_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
			SKU:         "NEW-001",
			Name:        "Expensive",
			BasePrice:   decimal.NewFromInt(2_000_000),
			CategoryIDs: []string{"c1"},
		})
		require.Error(t, err)
		assert.True(t, apperr.IsValidation(err))
	})

	t.Run("unknown category", func(t *testing.T) {
		_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
			SKU:         "NEW-002",
			Name:        "Orphan",
			BasePrice:   decimal.RequireFromString("5.00"),
			CategoryIDs: []string{"ghost"},
		})
		require.Error(t, err)
		assert.Equal(t, "CategoryIds", apperr.FieldsOf(err)[0].Field)
	})

	t.Run("primary category outside selection", func(t *testing.T) {
		other := "c2"
		_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
			SKU:               "NEW-003",
			Name:              "Misprimed",
			BasePrice:         decimal.RequireFromString("5.00"),
			CategoryIDs:       []string{"c1"},
			PrimaryCategoryID: &other,
		})
		require.Error(t, err)
		assert.Equal(t, "PrimaryCategoryId", apperr.FieldsOf(err)[0].Field)
	})

	t.Run("two primary images", func(t *testing.T) {
		_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
			SKU:         "NEW-004",
			Name:        "Twofaced",
			BasePrice:   decimal.RequireFromString("5.00"),
			CategoryIDs: []string{"c1"},
			Images: []dto.ImageInput{
				{ImageURL: "http://img/1", IsPrimary: true},
				{ImageURL: "http://img/2", IsPrimary: true},
			},
		})
		require.Error(t, err)
		assert.Equal(t, "Images", apperr.FieldsOf(err)[0].Field)
	})

	t.Run("bad attribute value", func(t *testing.T) {
		repo.attrs["a1"] = model.Attribute{
			BaseModel: model.BaseModel{ID: "a1"},
			Name:      "Weight",
			DataType:  model.AttributeNumber,
		}
		_, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
			SKU:         "NEW-005",
			Name:        "Untyped",
			BasePrice:   decimal.RequireFromString("5.00"),
			CategoryIDs: []string{"c1"},
			Attributes:  []dto.AttributeValueInput{{AttributeID: "a1", Value: "not-a-number"}},
		})
		require.Error(t, err)
		assert.Equal(t, "Attributes", apperr.FieldsOf(err)[0].Field)
	})
}

func TestCreateProduct_PopulatesBothCacheKeys(t *testing.T) {
	repo := newFakeRepo()
	repo.categories["c1"] = struct{}{}
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	d, err := uc.CreateProduct(context.Background(), &dto.CreateProductInput{
		SKU:         "NEW-010",
		Name:        "Fresh",
		BasePrice:   decimal.RequireFromString("5.00"),
		CategoryIDs: []string{"c1"},
	})
	require.NoError(t, err)

	assert.Contains(t, store.entries, "product:"+d.ID)
	assert.Contains(t, store.entries, "product:sku:NEW-010")
}

func TestUpdateProduct_InvalidatesCacheKeys(t *testing.T) {
	repo := newFakeRepo()
	seedProduct(repo)
	repo.categories["c1"] = struct{}{}
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	_, err := uc.UpdateProduct(context.Background(), "p1", &dto.UpdateProductInput{
		Name:        "Renamed",
		BasePrice:   decimal.RequireFromString("11.00"),
		IsActive:    true,
		CategoryIDs: []string{"c1"},
	})
	require.NoError(t, err)
	assert.True(t, repo.updated)

	assert.ElementsMatch(t, []string{
		"product:p1",
		"product:sku:ABC-001",
		"product:p1:variants",
	}, store.deleted)
}

func TestUpdateProduct_NotFound(t *testing.T) {
	repo := newFakeRepo()
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	_, err := uc.UpdateProduct(context.Background(), "ghost", &dto.UpdateProductInput{
		Name:        "Nothing",
		BasePrice:   decimal.RequireFromString("1.00"),
		CategoryIDs: []string{"c1"},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestDeleteProduct_InvalidatesCacheKeys(t *testing.T) {
	repo := newFakeRepo()
	seedProduct(repo)
	store := newFakeCache()
	uc := NewProductUseCase(repo, store, logger.NewNop(), Config{})

	ok, err := uc.DeleteProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, store.deleted, "product:p1")
	assert.Contains(t, store.deleted, "product:sku:ABC-001")
}
