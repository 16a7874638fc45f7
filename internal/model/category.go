package model

type Category struct {
	BaseModel
	Name        string  `db:"name" json:"name"`
	Description string  `db:"description" json:"description"`
	ParentID    *string `db:"parent_id" json:"parentCategoryId"`
	SortOrder   int     `db:"sort_order" json:"sortOrder"`
	IsActive    bool    `db:"is_active" json:"isActive"`
}

// CategoryWithChildCount is the list-view projection.
type CategoryWithChildCount struct {
	Category
	SubCategoriesCount int `db:"sub_categories_count" json:"subCategoriesCount"`
}
