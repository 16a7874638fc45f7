// Package mapper builds denormalized product DTOs from normalized aggregate
// loads. All functions are pure; storage access happens in the repositories.
package mapper

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/fekuna/catalog-service/internal/model"
	"github.com/fekuna/catalog-service/internal/product/dto"
)

// ToProductDTO denormalizes one aggregate. EAV values are resolved against
// the attribute definitions carried by the aggregate; a value whose
// definition is missing signals broken referential integrity and fails the
// mapping.
func ToProductDTO(agg *model.ProductAggregate) (*dto.ProductDTO, error) {
	p := agg.Product

	categories := make([]dto.CategoryRefDTO, 0, len(agg.Categories))
	for _, link := range agg.Categories {
		categories = append(categories, dto.CategoryRefDTO{
			ID:          link.Category.ID,
			Name:        link.Category.Name,
			Description: link.Category.Description,
			IsPrimary:   link.IsPrimary,
		})
	}

	attributes, err := resolveProductAttributes(agg.Attributes, agg.AttributeDefs)
	if err != nil {
		return nil, err
	}

	images := make([]dto.ProductImageDTO, 0, len(agg.Images))
	for _, img := range sortImages(agg.Images) {
		images = append(images, dto.ProductImageDTO{
			ID:           img.ID,
			ImageURL:     img.ImageURL,
			AltText:      img.AltText,
			DisplayOrder: img.DisplayOrder,
			IsPrimary:    img.IsPrimary,
		})
	}

	variants := make([]dto.ProductVariantDTO, 0, len(agg.Variants))
	for _, v := range agg.Variants {
		vd, err := ToVariantDTO(v, p.BasePrice, agg.VariantAttributes[v.ID], agg.AttributeDefs)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *vd)
	}

	return &dto.ProductDTO{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		BasePrice:   p.BasePrice,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Categories:  categories,
		Attributes:  attributes,
		Images:      images,
		Variants:    variants,
	}, nil
}

// ToVariantDTO resolves the effective price (override or parent base price)
// and the variant's attribute names.
func ToVariantDTO(v model.ProductVariant, basePrice decimal.Decimal, attrs []model.VariantAttribute, defs map[string]model.Attribute) (*dto.ProductVariantDTO, error) {
	price := basePrice
	if v.Price != nil {
		price = *v.Price
	}

	resolved := make([]dto.VariantAttributeDTO, 0, len(attrs))
	for _, va := range attrs {
		def, ok := defs[va.AttributeID]
		if !ok {
			return nil, fmt.Errorf("variant %s references unknown attribute %s", v.ID, va.AttributeID)
		}
		resolved = append(resolved, dto.VariantAttributeDTO{
			AttributeID:   def.ID,
			AttributeName: def.Name,
			Value:         va.Value,
		})
	}

	return &dto.ProductVariantDTO{
		ID:            v.ID,
		SKU:           v.SKU,
		Name:          v.Name,
		Price:         price,
		StockQuantity: v.StockQuantity,
		IsActive:      v.IsActive,
		Attributes:    resolved,
	}, nil
}

// ToSummaryDTO projects a product for list views. Primary image is the
// flagged one, else the lowest display order, else none; primary category
// name follows the same flagged-else-first precedence.
func ToSummaryDTO(s model.ProductSummary) dto.ProductSummaryDTO {
	out := dto.ProductSummaryDTO{
		ID:        s.Product.ID,
		SKU:       s.Product.SKU,
		Name:      s.Product.Name,
		BasePrice: s.Product.BasePrice,
		IsActive:  s.Product.IsActive,
		CreatedAt: s.Product.CreatedAt,
		UpdatedAt: s.Product.UpdatedAt,
	}

	if img := primaryImage(s.Images); img != nil {
		url := img.ImageURL
		out.PrimaryImageURL = &url
	}

	if link := primaryCategory(s.Categories); link != nil {
		name := link.Category.Name
		out.PrimaryCategoryName = &name
	}

	return out
}

func resolveProductAttributes(values []model.ProductAttribute, defs map[string]model.Attribute) ([]dto.ProductAttributeDTO, error) {
	out := make([]dto.ProductAttributeDTO, 0, len(values))
	for _, pa := range values {
		def, ok := defs[pa.AttributeID]
		if !ok {
			return nil, fmt.Errorf("product %s references unknown attribute %s", pa.ProductID, pa.AttributeID)
		}
		out = append(out, dto.ProductAttributeDTO{
			AttributeID:   def.ID,
			AttributeName: def.Name,
			Value:         pa.Value,
			DataType:      string(def.DataType),
		})
	}
	return out, nil
}

func sortImages(images []model.ProductImage) []model.ProductImage {
	sorted := make([]model.ProductImage, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})
	return sorted
}

func primaryImage(images []model.ProductImage) *model.ProductImage {
	for i := range images {
		if images[i].IsPrimary {
			return &images[i]
		}
	}
	if len(images) == 0 {
		return nil
	}
	sorted := sortImages(images)
	return &sorted[0]
}

func primaryCategory(links []model.CategoryLink) *model.CategoryLink {
	for i := range links {
		if links[i].IsPrimary {
			return &links[i]
		}
	}
	if len(links) == 0 {
		return nil
	}
	return &links[0]
}
