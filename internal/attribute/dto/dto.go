package dto

import "time"

type AttributeDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	DataType   string    `json:"dataType"`
	IsRequired bool      `json:"isRequired"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type AttributeListDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	DataType   string `json:"dataType"`
	IsRequired bool   `json:"isRequired"`
}
