package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/fekuna/catalog-service/internal/api"
	"github.com/fekuna/catalog-service/internal/attribute"
	"github.com/fekuna/catalog-service/pkg/logger"
)

type AttributeHandler struct {
	uc     attribute.UseCase
	logger logger.ZapLogger
}

func NewAttributeHandler(uc attribute.UseCase, log logger.ZapLogger) *AttributeHandler {
	return &AttributeHandler{uc: uc, logger: log}
}

func (h *AttributeHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/attributes", h.ListAttributes)
	g.GET("/attributes/:id", h.GetAttributeByID)
}

func (h *AttributeHandler) ListAttributes(c echo.Context) error {
	items, err := h.uc.ListAttributes(c.Request().Context())
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, items)
}

func (h *AttributeHandler) GetAttributeByID(c echo.Context) error {
	d, err := h.uc.GetAttributeByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, d)
}
