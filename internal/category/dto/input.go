package dto

type CreateCategoryInput struct {
	Name             string  `json:"name" validate:"required,min=1,max=200"`
	Description      string  `json:"description" validate:"max=2000"`
	ParentCategoryID *string `json:"parentCategoryId" validate:"omitempty,uuid4"`
	DisplayOrder     int     `json:"displayOrder" validate:"min=0"`
	IsActive         bool    `json:"isActive"`
}

type UpdateCategoryInput struct {
	Name             string  `json:"name" validate:"required,min=1,max=200"`
	Description      string  `json:"description" validate:"max=2000"`
	ParentCategoryID *string `json:"parentCategoryId" validate:"omitempty,uuid4"`
	DisplayOrder     int     `json:"displayOrder" validate:"min=0"`
	IsActive         bool    `json:"isActive"`
}
