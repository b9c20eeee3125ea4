package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a catalog grouping. Categories nest one level at a time through
// ParentID; a nil parent marks a root category.
type Category struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Nombre      string     `gorm:"column:nombre;not null"`
	Slug        string     `gorm:"column:slug;not null;uniqueIndex:idx_categories_slug"`
	Descripcion *string    `gorm:"column:descripcion"`
	ImagenURL   *string    `gorm:"column:imagen_url"`
	ParentID    *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	Children    []Category `gorm:"foreignKey:ParentID"`
	Products    []Product  `gorm:"foreignKey:CategoryID"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default pluralization.
func (Category) TableName() string {
	return "categories"
}
