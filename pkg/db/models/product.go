package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a storefront listing. Purchasable configurations live on
// ProductVariant; the product-level Precio is the base price variants may
// override.
type Product struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Nombre      string           `gorm:"column:nombre;not null"`
	Slug        string           `gorm:"column:slug;not null;uniqueIndex:idx_products_slug"`
	Descripcion *string          `gorm:"column:descripcion"`
	CategoryID  uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Precio      decimal.Decimal  `gorm:"column:precio;type:numeric(12,2);not null"`
	ImagenURL   *string          `gorm:"column:imagen_url"`
	IsActive    bool             `gorm:"column:is_active;not null;default:true"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// ProductVariant is a purchasable configuration (a size) with its own stock.
type ProductVariant struct {
	ID        uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID uuid.UUID        `gorm:"column:product_id;type:uuid;not null;index"`
	Etiqueta  string           `gorm:"column:etiqueta;not null"`
	Precio    *decimal.Decimal `gorm:"column:precio;type:numeric(12,2)"`
	Stock     int              `gorm:"column:stock;not null;default:0"`
	Position  int              `gorm:"column:position;not null;default:0"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
