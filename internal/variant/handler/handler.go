package handler

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/internal/api"
	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/variant"
	"github.com/fekuna/catalog-service/internal/variant/dto"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type VariantHandler struct {
	uc     variant.UseCase
	logger logger.ZapLogger
}

func NewVariantHandler(uc variant.UseCase, log logger.ZapLogger) *VariantHandler {
	return &VariantHandler{uc: uc, logger: log}
}

func (h *VariantHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/products/:id/variants", h.ListVariants)
	g.POST("/products/:id/variants", h.CreateVariant)
	g.PUT("/products/:id/variants/:variantId", h.UpdateVariant)
	g.DELETE("/products/:id/variants/:variantId", h.DeleteVariant)
	g.PATCH("/products/:id/variants/:variantId/stock", h.AdjustStock)
}

func (h *VariantHandler) ListVariants(c echo.Context) error {
	items, err := h.uc.ListVariants(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, items)
}

func (h *VariantHandler) CreateVariant(c echo.Context) error {
	var input dto.CreateVariantInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}
	if err := c.Validate(&input); err != nil {
		return api.Fail(c, err)
	}

	productID := c.Param("id")
	d, err := h.uc.CreateVariant(c.Request().Context(), productID, &input)
	if err != nil {
		return api.Fail(c, err)
	}

	location := fmt.Sprintf("/api/v1/products/%s/variants/%s", productID, d.ID)
	return api.Created(c, location, d)
}

func (h *VariantHandler) UpdateVariant(c echo.Context) error {
	var input dto.UpdateVariantInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}
	if err := c.Validate(&input); err != nil {
		return api.Fail(c, err)
	}

	d, err := h.uc.UpdateVariant(c.Request().Context(), c.Param("id"), c.Param("variantId"), &input)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}

func (h *VariantHandler) DeleteVariant(c echo.Context) error {
	ok, err := h.uc.DeleteVariant(c.Request().Context(), c.Param("id"), c.Param("variantId"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, ok)
}

func (h *VariantHandler) AdjustStock(c echo.Context) error {
	var input dto.AdjustStockInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}

	d, err := h.uc.AdjustStock(c.Request().Context(), c.Param("id"), c.Param("variantId"), input.Quantity)
	if err != nil {
		h.logger.Warn("stock adjustment rejected",
			zap.String("variantId", c.Param("variantId")),
			zap.Int("quantity", input.Quantity),
			zap.Error(err))
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}
