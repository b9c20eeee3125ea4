package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
)

// CategoryDTO is the category payload returned to clients.
type CategoryDTO struct {
	ID                 uuid.UUID     `json:"id"`
	Nombre             string        `json:"nombre"`
	Slug               string        `json:"slug"`
	Descripcion        *string       `json:"descripcion,omitempty"`
	ImagenURL          *string       `json:"imagenUrl,omitempty"`
	ParentID           *uuid.UUID    `json:"parentId,omitempty"`
	IsActive           bool          `json:"isActive"`
	SubcategoriesCount int           `json:"subcategoriesCount"`
	ProductsCount      int64         `json:"productsCount"`
	Subcategories      []CategoryDTO `json:"subcategories,omitempty"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// CategoryDetailDTO adds the category's products to the base payload.
type CategoryDetailDTO struct {
	CategoryDTO
	Products []CategoryProductDTO `json:"products"`
}

// CategoryProductDTO is the trimmed product summary embedded in a category
// detail response.
type CategoryProductDTO struct {
	ID        uuid.UUID `json:"id"`
	Nombre    string    `json:"nombre"`
	Slug      string    `json:"slug"`
	Precio    string    `json:"precio"`
	ImagenURL *string   `json:"imagenUrl,omitempty"`
	IsActive  bool      `json:"isActive"`
}

// NewCategoryDTO builds a DTO from the persisted model. Product counts are
// resolved separately and passed in.
func NewCategoryDTO(category *models.Category, productCounts map[uuid.UUID]int64) CategoryDTO {
	dto := CategoryDTO{
		ID:                 category.ID,
		Nombre:             category.Nombre,
		Slug:               category.Slug,
		Descripcion:        category.Descripcion,
		ImagenURL:          category.ImagenURL,
		ParentID:           category.ParentID,
		IsActive:           category.IsActive,
		SubcategoriesCount: len(category.Children),
		CreatedAt:          category.CreatedAt,
		UpdatedAt:          category.UpdatedAt,
	}
	if productCounts != nil {
		dto.ProductsCount = productCounts[category.ID]
	}
	for i := range category.Children {
		child := category.Children[i]
		dto.Subcategories = append(dto.Subcategories, NewCategoryDTO(&child, productCounts))
	}
	return dto
}

// NewCategoryDetailDTO builds the detail payload with embedded products.
func NewCategoryDetailDTO(category *models.Category, productCounts map[uuid.UUID]int64) *CategoryDetailDTO {
	detail := &CategoryDetailDTO{
		CategoryDTO: NewCategoryDTO(category, productCounts),
		Products:    []CategoryProductDTO{},
	}
	for i := range category.Products {
		p := category.Products[i]
		detail.Products = append(detail.Products, CategoryProductDTO{
			ID:        p.ID,
			Nombre:    p.Nombre,
			Slug:      p.Slug,
			Precio:    p.Precio.StringFixed(2),
			ImagenURL: p.ImagenURL,
			IsActive:  p.IsActive,
		})
	}
	return detail
}
