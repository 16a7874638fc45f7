package variant

import (
	"context"

	"github.com/fekuna/catalog-service/internal/model"
)

type Repository interface {
	// ProductRef returns the parent product row, nil when absent.
	ProductRef(ctx context.Context, productID string) (*model.Product, error)

	FindByID(ctx context.Context, productID, variantID string) (*model.ProductVariant, error)
	LoadAggregate(ctx context.Context, productID, variantID string) (*model.VariantAggregate, error)
	ListAggregates(ctx context.Context, productID string) ([]model.VariantAggregate, error)

	Create(ctx context.Context, v *model.ProductVariant, attrs []model.VariantAttribute) error

	// Update replaces all variant attributes and updates the scalar fields
	// guarded by the loaded version, in one transaction.
	Update(ctx context.Context, v *model.ProductVariant, attrs []model.VariantAttribute) error

	Delete(ctx context.Context, productID, variantID string) error

	// AdjustStock runs the read-check-write sequence inside a serializable
	// transaction. It returns NotFound, InsufficientStock or Concurrency from
	// the taxonomy; no retry is performed on conflict.
	AdjustStock(ctx context.Context, productID, variantID string, delta int) error

	IsSKUUnique(ctx context.Context, sku, excludeID string) (bool, error)
	AttributesByIDs(ctx context.Context, ids []string) (map[string]model.Attribute, error)
}
