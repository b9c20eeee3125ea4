package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
)

// OrderDTO is the admin-facing shape of an order.
type OrderDTO struct {
	ID              uuid.UUID      `json:"id"`
	CustomerNombre  string         `json:"customerNombre"`
	CustomerPhone   string         `json:"customerPhone"`
	CustomerAddress string         `json:"customerAddress"`
	Notas           *string        `json:"notas"`
	Status          string         `json:"status"`
	Subtotal        string         `json:"subtotal"`
	Envio           string         `json:"envio"`
	Total           string         `json:"total"`
	Items           []OrderItemDTO `json:"items"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

// OrderItemDTO is one snapshotted line of an order.
type OrderItemDTO struct {
	ID         uuid.UUID `json:"id"`
	ProductID  uuid.UUID `json:"productId"`
	VariantID  uuid.UUID `json:"variantId"`
	Nombre     string    `json:"nombre"`
	Etiqueta   string    `json:"etiqueta"`
	UnitPrecio string    `json:"precioUnitario"`
	Cantidad   int       `json:"cantidad"`
}

// OrderListResult pages the admin listing.
type OrderListResult struct {
	Orders  []OrderDTO `json:"orders"`
	Total   int64      `json:"total"`
	Page    int        `json:"page"`
	PerPage int        `json:"perPage"`
}

// NewOrderDTO maps a persisted order onto its wire shape.
func NewOrderDTO(order *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ID:         item.ID,
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Nombre:     item.Nombre,
			Etiqueta:   item.Etiqueta,
			UnitPrecio: item.UnitPrecio.StringFixed(2),
			Cantidad:   item.Cantidad,
		})
	}
	return OrderDTO{
		ID:              order.ID,
		CustomerNombre:  order.CustomerNombre,
		CustomerPhone:   order.CustomerPhone,
		CustomerAddress: order.CustomerAddress,
		Notas:           order.Notas,
		Status:          order.Status.String(),
		Subtotal:        order.Subtotal.StringFixed(2),
		Envio:           order.Envio.StringFixed(2),
		Total:           order.Total.StringFixed(2),
		Items:           items,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}
