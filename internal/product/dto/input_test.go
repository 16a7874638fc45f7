package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductFiltersNormalize(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := &ProductFilters{}
		f.Normalize()
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, 20, f.PageSize)
		assert.Equal(t, "createdAt", f.SortBy)
	})

	t.Run("clamps page size to 100", func(t *testing.T) {
		f := &ProductFilters{Page: 3, PageSize: 500}
		f.Normalize()
		assert.Equal(t, 3, f.Page)
		assert.Equal(t, 100, f.PageSize)
	})

	t.Run("negative page becomes 1", func(t *testing.T) {
		f := &ProductFilters{Page: -4, PageSize: 10}
		f.Normalize()
		assert.Equal(t, 1, f.Page)
		assert.Equal(t, 10, f.PageSize)
	})

	t.Run("sort key whitelist", func(t *testing.T) {
		for _, key := range []string{"name", "price", "sku"} {
			f := &ProductFilters{SortBy: key}
			f.Normalize()
			assert.Equal(t, key, f.SortBy)
		}
	})

	t.Run("sort key is case insensitive", func(t *testing.T) {
		f := &ProductFilters{SortBy: "PRICE"}
		f.Normalize()
		assert.Equal(t, "price", f.SortBy)
	})

	t.Run("unknown sort key falls back to createdAt", func(t *testing.T) {
		f := &ProductFilters{SortBy: "version; DROP TABLE products"}
		f.Normalize()
		assert.Equal(t, "createdAt", f.SortBy)
	})
}
