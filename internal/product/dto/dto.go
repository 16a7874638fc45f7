package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductDTO is the denormalized read model of a product aggregate.
type ProductDTO struct {
	ID          string                `json:"id"`
	SKU         string                `json:"sku"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	BasePrice   decimal.Decimal       `json:"basePrice"`
	IsActive    bool                  `json:"isActive"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
	Categories  []CategoryRefDTO      `json:"categories"`
	Attributes  []ProductAttributeDTO `json:"attributes"`
	Images      []ProductImageDTO     `json:"images"`
	Variants    []ProductVariantDTO   `json:"variants"`
}

type CategoryRefDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPrimary   bool   `json:"isPrimary"`
}

type ProductAttributeDTO struct {
	AttributeID   string `json:"attributeId"`
	AttributeName string `json:"attributeName"`
	Value         string `json:"value"`
	DataType      string `json:"dataType"`
}

type ProductImageDTO struct {
	ID           string `json:"id"`
	ImageURL     string `json:"imageUrl"`
	AltText      string `json:"altText"`
	DisplayOrder int    `json:"displayOrder"`
	IsPrimary    bool   `json:"isPrimary"`
}

// ProductVariantDTO carries the variant's effective price: the override when
// present, otherwise the parent product's base price.
type ProductVariantDTO struct {
	ID            string                `json:"id"`
	SKU           string                `json:"sku"`
	Name          string                `json:"name"`
	Price         decimal.Decimal       `json:"price"`
	StockQuantity int                   `json:"stockQuantity"`
	IsActive      bool                  `json:"isActive"`
	Attributes    []VariantAttributeDTO `json:"attributes"`
}

type VariantAttributeDTO struct {
	AttributeID   string `json:"attributeId"`
	AttributeName string `json:"attributeName"`
	Value         string `json:"value"`
}

// ProductSummaryDTO is the list-view projection.
type ProductSummaryDTO struct {
	ID                  string          `json:"id"`
	SKU                 string          `json:"sku"`
	Name                string          `json:"name"`
	BasePrice           decimal.Decimal `json:"basePrice"`
	IsActive            bool            `json:"isActive"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	PrimaryImageURL     *string         `json:"primaryImageUrl"`
	PrimaryCategoryName *string         `json:"primaryCategoryName"`
}
