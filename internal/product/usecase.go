package product

import (
	"context"

	"github.com/fekuna/catalog-service/internal/product/dto"
)

type UseCase interface {
	ListProducts(ctx context.Context, f *dto.ProductFilters) ([]dto.ProductSummaryDTO, int, error)
	GetProductByID(ctx context.Context, id string) (*dto.ProductDTO, error)
	GetProductBySKU(ctx context.Context, sku string) (*dto.ProductDTO, error)
	CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*dto.ProductDTO, error)
	UpdateProduct(ctx context.Context, id string, input *dto.UpdateProductInput) (*dto.ProductDTO, error)
	DeleteProduct(ctx context.Context, id string) (bool, error)
}
