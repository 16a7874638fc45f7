// Package api holds the HTTP envelope shared by every endpoint: the
// success/errors wrapper, pagination metadata and the error-to-status mapping.
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/fekuna/catalog-service/internal/apperr"
)

type Response struct {
	Success   bool                `json:"success"`
	Data      interface{}         `json:"data,omitempty"`
	Errors    []apperr.FieldError `json:"errors,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type PaginationMetadata struct {
	Page        int  `json:"page"`
	PageSize    int  `json:"pageSize"`
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

type PagedResponse struct {
	Success   bool               `json:"success"`
	Data      interface{}        `json:"data"`
	Metadata  PaginationMetadata `json:"metadata"`
	Timestamp time.Time          `json:"timestamp"`
}

func NewPaginationMetadata(page, pageSize, totalCount int) PaginationMetadata {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (totalCount + pageSize - 1) / pageSize
	}
	return PaginationMetadata{
		Page:        page,
		PageSize:    pageSize,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		HasPrevious: page > 1,
		HasNext:     page < totalPages,
	}
}

func OK(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Timestamp: time.Now().UTC()})
}

func Created(c echo.Context, location string, data interface{}) error {
	if location != "" {
		c.Response().Header().Set(echo.HeaderLocation, location)
	}
	return c.JSON(http.StatusCreated, Response{Success: true, Data: data, Timestamp: time.Now().UTC()})
}

func Paged(c echo.Context, data interface{}, meta PaginationMetadata) error {
	return c.JSON(http.StatusOK, PagedResponse{Success: true, Data: data, Metadata: meta, Timestamp: time.Now().UTC()})
}

// Fail maps the error taxonomy onto HTTP statuses: NotFound 404, validation
// and insufficient stock 400, concurrency conflicts 409, everything else 500.
func Fail(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	fields := apperr.FieldsOf(err)

	switch apperr.KindOf(err) {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation, apperr.KindInsufficientStock:
		status = http.StatusBadRequest
	case apperr.KindConcurrency:
		status = http.StatusConflict
	default:
		fields = []apperr.FieldError{{Field: "Internal", Message: "An unexpected error occurred"}}
	}

	return c.JSON(status, Response{Success: false, Errors: fields, Timestamp: time.Now().UTC()})
}
