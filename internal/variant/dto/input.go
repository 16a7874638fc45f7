package dto

import (
	"github.com/shopspring/decimal"

	productdto "github.com/fekuna/catalog-service/internal/product/dto"
)

type CreateVariantInput struct {
	SKU           string                           `json:"sku" validate:"required,min=3,max=50,sku"`
	Name          string                           `json:"name" validate:"required,min=1,max=200"`
	Price         *decimal.Decimal                 `json:"price"`
	StockQuantity int                              `json:"stockQuantity" validate:"min=0"`
	IsActive      bool                             `json:"isActive"`
	Attributes    []productdto.AttributeValueInput `json:"attributes" validate:"dive"`
}

// UpdateVariantInput carries no SKU: variant SKUs are immutable post-create.
type UpdateVariantInput struct {
	Name          string                           `json:"name" validate:"required,min=1,max=200"`
	Price         *decimal.Decimal                 `json:"price"`
	StockQuantity int                              `json:"stockQuantity" validate:"min=0"`
	IsActive      bool                             `json:"isActive"`
	Attributes    []productdto.AttributeValueInput `json:"attributes" validate:"dive"`
}

// AdjustStockInput is a signed delta: positive restocks, negative consumes.
type AdjustStockInput struct {
	Quantity int `json:"quantity"`
}
