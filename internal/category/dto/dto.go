package dto

import "time"

type CategoryDTO struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	IsActive           bool      `json:"isActive"`
	ParentCategoryID   *string   `json:"parentCategoryId"`
	ParentCategoryName *string   `json:"parentCategoryName"`
	DisplayOrder       int       `json:"displayOrder"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

type CategoryListDTO struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	IsActive           bool    `json:"isActive"`
	ParentCategoryID   *string `json:"parentCategoryId"`
	SubCategoriesCount int     `json:"subCategoriesCount"`
}
