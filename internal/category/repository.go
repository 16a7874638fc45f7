package category

import (
	"context"

	"github.com/fekuna/catalog-service/internal/model"
)

type Repository interface {
	// FindAll returns categories ordered by name with their direct child
	// count; isActive nil returns all.
	FindAll(ctx context.Context, isActive *bool) ([]model.CategoryWithChildCount, error)

	// FindByID returns nil, nil when the category does not exist.
	FindByID(ctx context.Context, id string) (*model.Category, error)

	Create(ctx context.Context, c *model.Category) error

	// Update walks the new parent chain and writes the row in one
	// serializable transaction: a parent assignment that would close a cycle
	// fails with a Validation error, and a conflicting concurrent write (the
	// version guard or a serialization failure) fails with Concurrency.
	Update(ctx context.Context, c *model.Category) error
}
