package enums

import "fmt"

// OrderStatus tracks the lifecycle of a WhatsApp checkout order.
type OrderStatus string

const (
	OrderStatusPendiente  OrderStatus = "pendiente"
	OrderStatusConfirmado OrderStatus = "confirmado"
	OrderStatusEntregado  OrderStatus = "entregado"
	OrderStatusCancelado  OrderStatus = "cancelado"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPendiente,
	OrderStatusConfirmado,
	OrderStatusEntregado,
	OrderStatusCancelado,
}

// Transitions out of terminal states are rejected by CanTransitionTo.
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendiente:  {OrderStatusConfirmado, OrderStatusCancelado},
	OrderStatusConfirmado: {OrderStatusEntregado, OrderStatusCancelado},
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known OrderStatus.
func (s OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether moving to target is a legal status change.
func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	for _, candidate := range orderStatusTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
