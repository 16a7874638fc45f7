package handler

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/catalog-service/internal/api"
	"github.com/fekuna/catalog-service/internal/apperr"
	"github.com/fekuna/catalog-service/internal/category"
	"github.com/fekuna/catalog-service/internal/category/dto"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{uc: uc, logger: log}
}

func (h *CategoryHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/categories", h.ListCategories)
	g.GET("/categories/:id", h.GetCategoryByID)
	g.POST("/categories", h.CreateCategory)
	g.PUT("/categories/:id", h.UpdateCategory)
}

func (h *CategoryHandler) ListCategories(c echo.Context) error {
	var isActive *bool
	if v := c.QueryParam("isActive"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			isActive = &b
		}
	}

	items, err := h.uc.ListCategories(c.Request().Context(), isActive)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, items)
}

func (h *CategoryHandler) GetCategoryByID(c echo.Context) error {
	d, err := h.uc.GetCategoryByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}

func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var input dto.CreateCategoryInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}
	if err := c.Validate(&input); err != nil {
		return api.Fail(c, err)
	}

	d, err := h.uc.CreateCategory(c.Request().Context(), &input)
	if err != nil {
		return api.Fail(c, err)
	}

	location := fmt.Sprintf("/api/v1/categories/%s", d.ID)
	return api.Created(c, location, d)
}

func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	var input dto.UpdateCategoryInput
	if err := c.Bind(&input); err != nil {
		return api.Fail(c, apperr.Validation("Body", "Invalid request payload"))
	}
	if err := c.Validate(&input); err != nil {
		return api.Fail(c, err)
	}

	d, err := h.uc.UpdateCategory(c.Request().Context(), c.Param("id"), &input)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}
