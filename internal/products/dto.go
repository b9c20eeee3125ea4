package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID    `json:"id"`
	Nombre      string       `json:"nombre"`
	Slug        string       `json:"slug"`
	Descripcion *string      `json:"descripcion,omitempty"`
	CategoryID  uuid.UUID    `json:"categoryId"`
	Precio      string       `json:"precio"`
	ImagenURL   *string      `json:"imagenUrl,omitempty"`
	IsActive    bool         `json:"isActive"`
	Variants    []VariantDTO `json:"variants"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// VariantDTO is a purchasable configuration. Precio is the effective price:
// the variant override when present, the product base price otherwise.
type VariantDTO struct {
	ID       uuid.UUID `json:"id"`
	Etiqueta string    `json:"etiqueta"`
	Precio   string    `json:"precio"`
	Stock    int       `json:"stock"`
	Position int       `json:"position"`
}

// ProductListResult pages through the catalog.
type ProductListResult struct {
	Products []ProductDTO `json:"products"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PerPage  int          `json:"perPage"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          product.ID,
		Nombre:      product.Nombre,
		Slug:        product.Slug,
		Descripcion: product.Descripcion,
		CategoryID:  product.CategoryID,
		Precio:      product.Precio.StringFixed(2),
		ImagenURL:   product.ImagenURL,
		IsActive:    product.IsActive,
		Variants:    []VariantDTO{},
		CreatedAt:   product.CreatedAt,
		UpdatedAt:   product.UpdatedAt,
	}
	for i := range product.Variants {
		v := product.Variants[i]
		precio := product.Precio
		if v.Precio != nil {
			precio = *v.Precio
		}
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:       v.ID,
			Etiqueta: v.Etiqueta,
			Precio:   precio.StringFixed(2),
			Stock:    v.Stock,
			Position: v.Position,
		})
	}
	return dto
}
