package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/internal/cart"
	"github.com/patitas-pets/patitas-backend/internal/orders"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

type cartStore interface {
	Get(ctx context.Context, token string) (*cart.Snapshot, error)
	Clear(ctx context.Context, token string) error
}

type inventory interface {
	FindVariant(ctx context.Context, productID, variantID uuid.UUID) (*models.ProductVariant, error)
	AdjustVariantStock(ctx context.Context, variantID uuid.UUID, delta int) error
}

type orderWriter interface {
	Create(ctx context.Context, order *models.Order) error
}

// CheckoutInput is the customer data collected before the WhatsApp handoff.
type CheckoutInput struct {
	Nombre  string
	Phone   string
	Address string
	Notas   string
}

// CheckoutResult carries the persisted order plus the link the storefront
// redirects the shopper to.
type CheckoutResult struct {
	Order       orders.OrderDTO `json:"order"`
	WhatsAppURL string          `json:"whatsappUrl"`
}

// Service turns a cart into a pending order and a WhatsApp deep link.
type Service interface {
	Checkout(ctx context.Context, token string, input CheckoutInput) (*CheckoutResult, error)
}

type service struct {
	carts     cartStore
	inventory inventory
	orders    orderWriter
	store     config.StoreConfig
	logg      *logger.Logger
}

// ServiceParams wires the checkout service.
type ServiceParams struct {
	Carts     cartStore
	Inventory inventory
	Orders    orderWriter
	Store     config.StoreConfig
	Logger    *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order writer required")
	}
	if params.Store.WhatsAppPhone == "" {
		return nil, fmt.Errorf("store whatsapp phone required")
	}
	return &service{
		carts:     params.Carts,
		inventory: params.Inventory,
		orders:    params.Orders,
		store:     params.Store,
		logg:      params.Logger,
	}, nil
}

// Checkout validates the customer data and the cart, re-checks stock
// against the catalog, persists the order, decrements stock, clears the
// cart, and returns the wa.me link.
func (s *service) Checkout(ctx context.Context, token string, input CheckoutInput) (*CheckoutResult, error) {
	input.Nombre = strings.TrimSpace(input.Nombre)
	input.Phone = strings.TrimSpace(input.Phone)
	input.Address = strings.TrimSpace(input.Address)
	if input.Nombre == "" || input.Phone == "" || input.Address == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nombre, teléfono y dirección son obligatorios")
	}

	snap, err := s.carts.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(snap.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el carrito está vacío")
	}

	if err := s.validateStock(ctx, snap); err != nil {
		return nil, err
	}

	order := buildOrder(snap, input)
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
	}

	for _, item := range snap.Items {
		if err := s.inventory.AdjustVariantStock(ctx, item.VariantID, -item.Cantidad); err != nil {
			s.warn(ctx, "checkout.stock_adjust_failed", map[string]any{
				"order_id":   order.ID.String(),
				"variant_id": item.VariantID.String(),
				"error":      err.Error(),
			})
		}
	}

	if err := s.carts.Clear(ctx, token); err != nil {
		s.warn(ctx, "checkout.cart_clear_failed", map[string]any{
			"order_id": order.ID.String(),
			"error":    err.Error(),
		})
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{
			"order_id": order.ID.String(),
			"total":    order.Total.StringFixed(2),
			"items":    len(order.Items),
		}), "checkout.order_created")
	}

	return &CheckoutResult{
		Order:       orders.NewOrderDTO(order),
		WhatsAppURL: BuildWhatsAppLink(s.store.WhatsAppPhone, s.store.Name, snap, input),
	}, nil
}

// validateStock re-reads every variant so a cart assembled days ago cannot
// oversell. All failing lines are reported together.
func (s *service) validateStock(ctx context.Context, snap *cart.Snapshot) error {
	var issues error
	for _, item := range snap.Items {
		variant, err := s.inventory.FindVariant(ctx, item.ProductID, item.VariantID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				issues = multierr.Append(issues, fmt.Errorf("%s (%s) ya no está disponible", item.Nombre, item.Etiqueta))
				continue
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check stock")
		}
		if variant.Stock < item.Cantidad {
			issues = multierr.Append(issues, fmt.Errorf("%s (%s): quedan %d unidades", item.Nombre, item.Etiqueta, variant.Stock))
		}
	}
	if issues == nil {
		return nil
	}

	details := make([]string, 0)
	for _, issue := range multierr.Errors(issues) {
		details = append(details, issue.Error())
	}
	return pkgerrors.New(pkgerrors.CodeBusinessRule, "algunos artículos no tienen stock suficiente").
		WithDetails(map[string]any{"articulos": details})
}

func buildOrder(snap *cart.Snapshot, input CheckoutInput) *models.Order {
	items := make([]models.OrderItem, 0, len(snap.Items))
	for _, item := range snap.Items {
		items = append(items, models.OrderItem{
			ProductID:  item.ProductID,
			VariantID:  item.VariantID,
			Nombre:     item.Nombre,
			Etiqueta:   item.Etiqueta,
			UnitPrecio: item.UnitPrecio,
			Cantidad:   item.Cantidad,
		})
	}

	order := &models.Order{
		CustomerNombre:  input.Nombre,
		CustomerPhone:   input.Phone,
		CustomerAddress: input.Address,
		Status:          enums.OrderStatusPendiente,
		Subtotal:        snap.Subtotal,
		Envio:           snap.Envio,
		Total:           snap.Total,
		Items:           items,
	}
	if notas := orderNotes(snap, input); notas != "" {
		order.Notas = &notas
	}
	return order
}

func (s *service) warn(ctx context.Context, msg string, fields map[string]any) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

func decimalFromInt(value int) decimal.Decimal {
	return decimal.NewFromInt(int64(value))
}
