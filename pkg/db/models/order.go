package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/patitas-pets/patitas-backend/pkg/enums"
)

// Order records a checkout handed off to WhatsApp. Line items snapshot
// product data at checkout time so later catalog edits do not rewrite history.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerNombre  string            `gorm:"column:customer_nombre;not null"`
	CustomerPhone   string            `gorm:"column:customer_phone;not null"`
	CustomerAddress string            `gorm:"column:customer_address;not null"`
	Notas           *string           `gorm:"column:notas"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pendiente'"`
	Subtotal        decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Envio           decimal.Decimal   `gorm:"column:envio;type:numeric(12,2);not null"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem is a checkout line item keyed by the purchased variant.
type OrderItem struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID  uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID  uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	Nombre     string          `gorm:"column:nombre;not null"`
	Etiqueta   string          `gorm:"column:etiqueta;not null"`
	UnitPrecio decimal.Decimal `gorm:"column:unit_precio;type:numeric(12,2);not null"`
	Cantidad   int             `gorm:"column:cantidad;not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
