package product

import (
	"context"

	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/internal/product/dto"
)

type Repository interface {
	// Create persists the product row and its initial child collections in
	// one transaction.
	Create(ctx context.Context, p *model.Product, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error

	// Update replaces all child collections (delete then insert) and updates
	// the scalar fields guarded by the loaded version, in one transaction.
	// Returns a Concurrency error when the version check fails.
	Update(ctx context.Context, p *model.Product, links []model.ProductCategory, attrs []model.ProductAttribute, images []model.ProductImage) error

	// Delete cascades to owned children, never to category or attribute
	// master records.
	Delete(ctx context.Context, id string) error

	FindByID(ctx context.Context, id string) (*model.Product, error)
	LoadAggregateByID(ctx context.Context, id string) (*model.ProductAggregate, error)
	LoadAggregateBySKU(ctx context.Context, sku string) (*model.ProductAggregate, error)

	FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.ProductSummary, int, error)

	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)

	// Referential checks used by the write-path validation.
	MissingCategoryIDs(ctx context.Context, ids []string) ([]string, error)
	AttributesByIDs(ctx context.Context, ids []string) (map[string]model.Attribute, error)
}
