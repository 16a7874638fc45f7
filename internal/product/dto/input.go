package dto

import (
	"strings"

	"github.com/shopspring/decimal"
)

type AttributeValueInput struct {
	AttributeID string `json:"attributeId" validate:"required,uuid4"`
	Value       string `json:"value" validate:"required"`
}

type ImageInput struct {
	ImageURL     string `json:"imageUrl" validate:"required,url"`
	AltText      string `json:"altText" validate:"max=200"`
	DisplayOrder int    `json:"displayOrder" validate:"min=0"`
	IsPrimary    bool   `json:"isPrimary"`
}

type CreateProductInput struct {
	SKU               string                `json:"sku" validate:"required,min=3,max=50,sku"`
	Name              string                `json:"name" validate:"required,min=3,max=200"`
	Description       string                `json:"description" validate:"max=2000"`
	BasePrice         decimal.Decimal       `json:"basePrice" validate:"required"`
	IsActive          bool                  `json:"isActive"`
	CategoryIDs       []string              `json:"categoryIds" validate:"required,min=1,dive,uuid4"`
	PrimaryCategoryID *string               `json:"primaryCategoryId" validate:"omitempty,uuid4"`
	Attributes        []AttributeValueInput `json:"attributes" validate:"dive"`
	Images            []ImageInput          `json:"images" validate:"dive"`
}

// UpdateProductInput is a full replace of mutable scalar fields plus the
// replace-all child collections. SKU is immutable after creation and is
// therefore absent.
type UpdateProductInput struct {
	Name              string                `json:"name" validate:"required,min=3,max=200"`
	Description       string                `json:"description" validate:"max=2000"`
	BasePrice         decimal.Decimal       `json:"basePrice" validate:"required"`
	IsActive          bool                  `json:"isActive"`
	CategoryIDs       []string              `json:"categoryIds" validate:"required,min=1,dive,uuid4"`
	PrimaryCategoryID *string               `json:"primaryCategoryId" validate:"omitempty,uuid4"`
	Attributes        []AttributeValueInput `json:"attributes" validate:"dive"`
	Images            []ImageInput          `json:"images" validate:"dive"`
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ProductFilters are AND-combined list predicates plus sorting and offset
// pagination. List results are never cached.
type ProductFilters struct {
	SearchTerm     string
	CategoryID     string
	IsActive       *bool
	MinPrice       *decimal.Decimal
	MaxPrice       *decimal.Decimal
	SortBy         string // name, price, sku, createdAt
	SortDescending bool
	Page           int
	PageSize       int
}

// Normalize clamps pagination to page >= 1 and pageSize in [1, 100] and
// canonicalizes the sort key, falling back to createdAt for unknown keys.
func (f *ProductFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = defaultPageSize
	}
	if f.PageSize > maxPageSize {
		f.PageSize = maxPageSize
	}
	switch strings.ToLower(f.SortBy) {
	case "name":
		f.SortBy = "name"
	case "price":
		f.SortBy = "price"
	case "sku":
		f.SortBy = "sku"
	default:
		f.SortBy = "createdAt"
	}
}
