package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/attribute"
	"github.com/fekuna/catalog-service/internal/attribute/dto"
	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/pkg/cache"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type Config struct {
	ReferenceTTL time.Duration
}

type attributeUseCase struct {
	repo   attribute.Repository
	cache  cache.Store
	logger logger.ZapLogger
	cfg    Config
}

func NewAttributeUseCase(repo attribute.Repository, store cache.Store, log logger.ZapLogger, cfg Config) attribute.UseCase {
	if cfg.ReferenceTTL == 0 {
		cfg.ReferenceTTL = time.Hour
	}
	return &attributeUseCase{
		repo:   repo,
		cache:  store,
		logger: log,
		cfg:    cfg,
	}
}

func (uc *attributeUseCase) ListAttributes(ctx context.Context) ([]dto.AttributeListDTO, error) {
	const cacheKey = "attributes:all"

	var cached []dto.AttributeListDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return cached, nil
	}

	attributes, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]dto.AttributeListDTO, 0, len(attributes))
	for _, a := range attributes {
		out = append(out, dto.AttributeListDTO{
			ID:         a.ID,
			Name:       a.Name,
			DataType:   string(a.DataType),
			IsRequired: a.IsRequired,
		})
	}

	if err := uc.cache.Set(ctx, cacheKey, out, uc.cfg.ReferenceTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return out, nil
}

func (uc *attributeUseCase) GetAttributeByID(ctx context.Context, id string) (*dto.AttributeDTO, error) {
	cacheKey := fmt.Sprintf("attribute:%s", id)

	var cached dto.AttributeDTO
	if hit, err := uc.cache.Get(ctx, cacheKey, &cached); err != nil {
		uc.logger.Warn("cache get failed", zap.String("key", cacheKey), zap.Error(err))
	} else if hit {
		return &cached, nil
	}

	a, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, apperr.NotFound("AttributeId", "Attribute not found")
	}

	d := toDTO(a)
	if err := uc.cache.Set(ctx, cacheKey, d, uc.cfg.ReferenceTTL); err != nil {
		uc.logger.Warn("cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return d, nil
}

func toDTO(a *model.Attribute) *dto.AttributeDTO {
	return &dto.AttributeDTO{
		ID:         a.ID,
		Name:       a.Name,
		DataType:   string(a.DataType),
		IsRequired: a.IsRequired,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}
