package attribute

import (
	"context"

	"github.com/fekuna/catalog-service/internal/attribute/dto"
)

// UseCase serves the attribute schema definitions. Attributes are immutable
// reference data, so the API is read-only.
type UseCase interface {
	ListAttributes(ctx context.Context) ([]dto.AttributeListDTO, error)
	GetAttributeByID(ctx context.Context, id string) (*dto.AttributeDTO, error)
}
