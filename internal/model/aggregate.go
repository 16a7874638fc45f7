package model

import "github.com/shopspring/decimal"

// CategoryLink pairs a category row with its link flag for one product.
type CategoryLink struct {
	Category  Category
	IsPrimary bool
}

// ProductAggregate is the denormalized load of one product and everything it
// owns, plus the attribute definitions referenced by its EAV values. It is
// the sole input of the aggregate mapper.
type ProductAggregate struct {
	Product           Product
	Categories        []CategoryLink
	Attributes        []ProductAttribute
	Images            []ProductImage
	Variants          []ProductVariant
	VariantAttributes map[string][]VariantAttribute // keyed by variant id
	AttributeDefs     map[string]Attribute          // keyed by attribute id
}

// VariantAggregate is one variant with the context needed to resolve its
// effective price and attribute names.
type VariantAggregate struct {
	Variant       ProductVariant
	ProductSKU    string
	BasePrice     decimal.Decimal
	Attributes    []VariantAttribute
	AttributeDefs map[string]Attribute
}

// ProductSummary is the list-view load: the product row plus the children
// needed for the summary projection.
type ProductSummary struct {
	Product    Product
	Images     []ProductImage
	Categories []CategoryLink
}
