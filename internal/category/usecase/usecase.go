package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/category"
	"github.com/fekuna/catalog-service/internal/category/dto"
	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/pkg/cache"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type Config struct {
	ReferenceTTL time.Duration
}

type categoryUseCase struct {
	repo   category.Repository
	cache  cache.Store
	logger logger.ZapLogger
	cfg    Config
}

func NewCategoryUseCase(repo category.Repository, store cache.Store, log logger.ZapLogger, cfg Config) category.UseCase {
	if cfg.ReferenceTTL == 0 {
		cfg.ReferenceTTL = time.Hour
	}
	return &categoryUseCase{
		repo:   repo,
		cache:  store,
		logger: log,
		cfg:    cfg,
	}
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, isActive *bool) ([]dto.CategoryListDTO, error) {
	cacheKey := listCacheKey(isActive)

	var cached []dto.CategoryListDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	categories, err := uc.repo.FindAll(ctx, isActive)
	if err != nil {
		return nil, err
	}

	out := make([]dto.CategoryListDTO, 0, len(categories))
	for _, c := range categories {
		out = append(out, dto.CategoryListDTO{
			ID:                 c.ID,
			Name:               c.Name,
			Description:        c.Description,
			IsActive:           c.IsActive,
			ParentCategoryID:   c.ParentID,
			SubCategoriesCount: c.SubCategoriesCount,
		})
	}

	if err := uc.cache.Set(ctx, cacheKey, out, uc.cfg.ReferenceTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return out, nil
}

func (uc *categoryUseCase) GetCategoryByID(ctx context.Context, id string) (*dto.CategoryDTO, error) {
	cacheKey := fmt.Sprintf("category:%s", id)

	var cached dto.CategoryDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, apperr.NotFound("CategoryId", "Category not found")
	}

	d, err := uc.toDTO(ctx, c)
	if err != nil {
		return nil, err
	}

	if err := uc.cache.Set(ctx, cacheKey, d, uc.cfg.ReferenceTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return d, nil
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*dto.CategoryDTO, error) {
	if input.ParentCategoryID != nil {
		parent, err := uc.repo.FindByID(ctx, *input.ParentCategoryID)
		if err != nil {
			return nil, err
		}
		if parent == nil {
			return nil, apperr.Validation("ParentCategoryId", "Parent category not found")
		}
	}

	now := time.Now().UTC()
	c := &model.Category{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now, Version: 1},
		Name:        input.Name,
		Description: input.Description,
		ParentID:    input.ParentCategoryID,
		SortOrder:   input.DisplayOrder,
		IsActive:    input.IsActive,
	}

	if err := uc.repo.Create(ctx, c); err != nil {
		return nil, err
	}

	uc.invalidateLists(ctx)

	return uc.toDTO(ctx, c)
}

func (uc *categoryUseCase) UpdateCategory(ctx context.Context, id string, input *dto.UpdateCategoryInput) (*dto.CategoryDTO, error) {
	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, apperr.NotFound("CategoryId", "Category not found")
	}

	if input.ParentCategoryID != nil {
		if err := uc.checkParent(ctx, id, *input.ParentCategoryID); err != nil {
			return nil, err
		}
	}

	updated := *existing
	updated.Name = input.Name
	updated.Description = input.Description
	updated.ParentID = input.ParentCategoryID
	updated.SortOrder = input.DisplayOrder
	updated.IsActive = input.IsActive
	updated.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	keys := []string{fmt.Sprintf("category:%s", id)}
	if err := uc.cache.Delete(ctx, keys...); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.Strings("keys", keys), zap.Error(err))
	}
	uc.invalidateLists(ctx)

	updated.Version++
	return uc.toDTO(ctx, &updated)
}

// checkParent fast-fails the obvious rejections. The acyclicity walk itself
// runs inside the repository's update transaction, against the same snapshot
// as the write, so concurrent reparents cannot jointly close a cycle.
func (uc *categoryUseCase) checkParent(ctx context.Context, id, parentID string) error {
	if parentID == id {
		return apperr.Validation("ParentCategoryId", "A category cannot be its own parent")
	}

	parent, err := uc.repo.FindByID(ctx, parentID)
	if err != nil {
		return err
	}
	if parent == nil {
		return apperr.Validation("ParentCategoryId", "Parent category not found")
	}
	return nil
}

func (uc *categoryUseCase) toDTO(ctx context.Context, c *model.Category) (*dto.CategoryDTO, error) {
	var parentName *string
	if c.ParentID != nil {
		parent, err := uc.repo.FindByID(ctx, *c.ParentID)
		if err != nil {
			return nil, err
		}
		if parent != nil {
			parentName = &parent.Name
		}
	}

	return &dto.CategoryDTO{
		ID:                 c.ID,
		Name:               c.Name,
		Description:        c.Description,
		IsActive:           c.IsActive,
		ParentCategoryID:   c.ParentID,
		ParentCategoryName: parentName,
		DisplayOrder:       c.SortOrder,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}, nil
}

func (uc *categoryUseCase) invalidateLists(ctx context.Context) {
	if err := uc.cache.DeleteByPattern(ctx, "categories:all:*"); err != nil {
		uc.logger.Warn("cache invalidation failed", zap.String("pattern", "categories:all:*"), zap.Error(err))
	}
}

func listCacheKey(isActive *bool) string {
	state := "null"
	if isActive != nil {
		state = strconv.FormatBool(*isActive)
	}
	return fmt.Sprintf("categories:all:%s", state)
}
