package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/fekuna/catalog-service/internal/api"
	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/product"
	"github.com/fekuna/catalog-service/internal/product/dto"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: log}
}

func (h *ProductHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/products", h.ListProducts)
	g.GET("/products/:id", h.GetProductByID)
	g.GET("/products/sku/:sku", h.GetProductBySKU)
	g.POST("/products", h.CreateProduct)
	g.PUT("/products/:id", h.UpdateProduct)
	g.DELETE("/products/:id", h.DeleteProduct)
}

func (h *ProductHandler) ListProducts(c echo.Context) error {
	f := parseFilters(c)

	items, count, err := h.uc.ListProducts(c.Request().Context(), f)
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		return api.Fail(c, err)
	}

	return api.Paged(c, items, api.NewPaginationMetadata(f.Page, f.PageSize, count))
}

func (h *ProductHandler) GetProductByID(c echo.Context) error {
	d, err := h.uc.GetProductByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}

func (h *ProductHandler) GetProductBySKU(c echo.Context) error {
	d, err := h.uc.GetProductBySKU(c.Request().Context(), c.Param("sku"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var input dto.CreateProductInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}
	if err := c.Validate(&input); err != nil {
		return api.Fail(c, err)
	}

	d, err := h.uc.CreateProduct(c.Request().Context(), &input)
	if err != nil {
		return api.Fail(c, err)
	}

	location := fmt.Sprintf("/api/v1/products/%s", d.ID)
	return api.Created(c, location, d)
}

func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	var input dto.UpdateProductInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}
	if err := c.Validate(&input); err != nil {
		return api.Fail(c, err)
	}

	d, err := h.uc.UpdateProduct(c.Request().Context(), c.Param("id"), &input)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	ok, err := h.uc.DeleteProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, ok)
}

func parseFilters(c echo.Context) *dto.ProductFilters {
	f := &dto.ProductFilters{
		SearchTerm:     c.QueryParam("searchTerm"),
		CategoryID:     c.QueryParam("categoryId"),
		SortBy:         c.QueryParam("sortBy"),
		SortDescending: true,
	}

	if v := c.QueryParam("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			f.Page = p
		}
	}
	if v := c.QueryParam("pageSize"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil {
			f.PageSize = ps
		}
	}
	if v := c.QueryParam("isActive"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.IsActive = &b
		}
	}
	if v := c.QueryParam("minPrice"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MinPrice = &d
		}
	}
	if v := c.QueryParam("maxPrice"); v != "" {
		if d, err := decimal.NewFromString(v); err == nil {
			f.MaxPrice = &d
		}
	}
	if v := c.QueryParam("sortDescending"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			f.SortDescending = b
		}
	}

	f.Normalize()
	return f
}
