package category

import (
	"context"

	"github.com/fekuna/catalog-service/internal/category/dto"
)

type UseCase interface {
	ListCategories(ctx context.Context, isActive *bool) ([]dto.CategoryListDTO, error)
	GetCategoryByID(ctx context.Context, id string) (*dto.CategoryDTO, error)
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*dto.CategoryDTO, error)
	UpdateCategory(ctx context.Context, id string, input *dto.UpdateCategoryInput) (*dto.CategoryDTO, error)
}
