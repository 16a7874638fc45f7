package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	SKU         string          `db:"sku" json:"sku"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	BasePrice   decimal.Decimal `db:"base_price" json:"basePrice"`
	IsActive    bool            `db:"is_active" json:"isActive"`
}

// ProductCategory links a product to a category. At most one link per product
// may be primary; the write path enforces this, storage does not.
type ProductCategory struct {
	ProductID  string `db:"product_id" json:"productId"`
	CategoryID string `db:"category_id" json:"categoryId"`
	IsPrimary  bool   `db:"is_primary" json:"isPrimary"`
}

// ProductAttribute is an EAV value row. The raw string is only meaningful
// together with the referenced Attribute definition's data type.
type ProductAttribute struct {
	ID          string `db:"id" json:"id"`
	ProductID   string `db:"product_id" json:"productId"`
	AttributeID string `db:"attribute_id" json:"attributeId"`
	Value       string `db:"value" json:"value"`
}

type ProductImage struct {
	ID           string `db:"id" json:"id"`
	ProductID    string `db:"product_id" json:"productId"`
	ImageURL     string `db:"image_url" json:"imageUrl"`
	AltText      string `db:"alt_text" json:"altText"`
	DisplayOrder int    `db:"display_order" json:"displayOrder"`
	IsPrimary    bool   `db:"is_primary" json:"isPrimary"`
}

type ProductVariant struct {
	BaseModel
	ProductID string `db:"product_id" json:"productId"`
	SKU       string `db:"sku" json:"sku"`
	Name      string `db:"name" json:"name"`
	// Price overrides the parent product's base price when set. Nil means
	// the effective price falls back to the base price at read time.
	Price         *decimal.Decimal `db:"price" json:"price"`
	StockQuantity int              `db:"stock_quantity" json:"stockQuantity"`
	IsActive      bool             `db:"is_active" json:"isActive"`
}

type VariantAttribute struct {
	ID          string `db:"id" json:"id"`
	VariantID   string `db:"variant_id" json:"variantId"`
	AttributeID string `db:"attribute_id" json:"attributeId"`
	Value       string `db:"value" json:"value"`
}
