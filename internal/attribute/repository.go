package attribute

import (
	"context"

	"github.com/fekuna/catalog-service/internal/model"
)

type Repository interface {
	// FindAll returns all attribute definitions ordered by name.
	FindAll(ctx context.Context) ([]model.Attribute, error)

	// FindByID returns nil, nil when the attribute does not exist.
	FindByID(ctx context.Context, id string) (*model.Attribute, error)
}
