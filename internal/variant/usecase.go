package variant

import (
	"context"

	productdto "github.com/fekuna/catalog-service/internal/product/dto"
	"github.com/fekuna/catalog-service/internal/variant/dto"
)

type UseCase interface {
	ListVariants(ctx context.Context, productID string) ([]productdto.ProductVariantDTO, error)
	CreateVariant(ctx context.Context, productID string, input *dto.CreateVariantInput) (*productdto.ProductVariantDTO, error)
	UpdateVariant(ctx context.Context, productID, variantID string, input *dto.UpdateVariantInput) (*productdto.ProductVariantDTO, error)
	DeleteVariant(ctx context.Context, productID, variantID string) (bool, error)

	// AdjustStock applies a signed delta to a variant's stock with
	// at-most-once-per-call semantics and returns a fresh post-commit
	// snapshot of the variant.
	AdjustStock(ctx context.Context, productID, variantID string, delta int) (*productdto.ProductVariantDTO, error)
}
