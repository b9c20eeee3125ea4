package checkout

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/internal/cart"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
)

type stubCartStore struct {
	snapshot *cart.Snapshot
	cleared  []string
}

func (s *stubCartStore) Get(_ context.Context, _ string) (*cart.Snapshot, error) {
	return s.snapshot, nil
}

func (s *stubCartStore) Clear(_ context.Context, token string) error {
	s.cleared = append(s.cleared, token)
	return nil
}

type stubInventory struct {
	variants    map[uuid.UUID]*models.ProductVariant
	adjustments map[uuid.UUID]int
}

func (s *stubInventory) FindVariant(_ context.Context, _, variantID uuid.UUID) (*models.ProductVariant, error) {
	variant, ok := s.variants[variantID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return variant, nil
}

func (s *stubInventory) AdjustVariantStock(_ context.Context, variantID uuid.UUID, delta int) error {
	if s.adjustments == nil {
		s.adjustments = make(map[uuid.UUID]int)
	}
	s.adjustments[variantID] += delta
	return nil
}

type stubOrderWriter struct {
	created []*models.Order
}

func (s *stubOrderWriter) Create(_ context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.created = append(s.created, order)
	return nil
}

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{Name: "Patitas Pet Shop", WhatsAppPhone: "+51 999 888 777"}
}

func testSnapshot(variantID uuid.UUID) *cart.Snapshot {
	subtotal := decimal.RequireFromString("45000")
	envio := decimal.RequireFromString("8000")
	return &cart.Snapshot{
		Items: []cart.Item{
			{
				ProductID:  uuid.New(),
				VariantID:  variantID,
				Nombre:     "Croquetas Premium",
				Etiqueta:   "1 kg",
				UnitPrecio: subtotal,
				Cantidad:   1,
				MaxStock:   3,
			},
		},
		Subtotal: subtotal,
		Envio:    envio,
		Total:    subtotal.Add(envio),
	}
}

func validInput() CheckoutInput {
	return CheckoutInput{
		Nombre:  "Lucía Herrera",
		Phone:   "+51988777666",
		Address: "Av. Arequipa 1234, Lima",
	}
}

func newCheckoutService(t *testing.T, carts *stubCartStore, inv *stubInventory, writer *stubOrderWriter) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Carts:     carts,
		Inventory: inv,
		Orders:    writer,
		Store:     testStoreConfig(),
	})
	require.NoError(t, err)
	return svc
}

func TestCheckoutCreatesOrderAndBuildsLink(t *testing.T) {
	variantID := uuid.New()
	carts := &stubCartStore{snapshot: testSnapshot(variantID)}
	inv := &stubInventory{variants: map[uuid.UUID]*models.ProductVariant{
		variantID: {ID: variantID, Stock: 3},
	}}
	writer := &stubOrderWriter{}
	svc := newCheckoutService(t, carts, inv, writer)

	result, err := svc.Checkout(context.Background(), "token-1", validInput())
	require.NoError(t, err)

	require.Len(t, writer.created, 1)
	order := writer.created[0]
	assert.Equal(t, "pendiente", order.Status.String())
	assert.Equal(t, "45000.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "53000.00", order.Total.StringFixed(2))
	require.Len(t, order.Items, 1)
	assert.Equal(t, 1, order.Items[0].Cantidad)

	assert.Equal(t, -1, inv.adjustments[variantID])
	assert.Equal(t, []string{"token-1"}, carts.cleared)

	assert.True(t, strings.HasPrefix(result.WhatsAppURL, "https://wa.me/51999888777?text="), result.WhatsAppURL)
	parsed, err := url.Parse(result.WhatsAppURL)
	require.NoError(t, err)
	text := parsed.Query().Get("text")
	assert.Contains(t, text, "Croquetas Premium (1 kg)")
	assert.Contains(t, text, "Total: S/ 53000.00")
	assert.Contains(t, text, "Lucía Herrera")
}

func TestCheckoutRejectsMissingCustomerData(t *testing.T) {
	variantID := uuid.New()
	svc := newCheckoutService(t, &stubCartStore{snapshot: testSnapshot(variantID)}, &stubInventory{}, &stubOrderWriter{})

	input := validInput()
	input.Address = "   "
	_, err := svc.Checkout(context.Background(), "token-1", input)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCheckoutRejectsEmptyCart(t *testing.T) {
	carts := &stubCartStore{snapshot: &cart.Snapshot{Items: []cart.Item{}}}
	svc := newCheckoutService(t, carts, &stubInventory{}, &stubOrderWriter{})

	_, err := svc.Checkout(context.Background(), "token-1", validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCheckoutReportsEveryStockShortage(t *testing.T) {
	firstID := uuid.New()
	secondID := uuid.New()
	snap := testSnapshot(firstID)
	snap.Items = append(snap.Items, cart.Item{
		ProductID:  uuid.New(),
		VariantID:  secondID,
		Nombre:     "Arena Aglomerante",
		Etiqueta:   "10 kg",
		UnitPrecio: decimal.RequireFromString("30000"),
		Cantidad:   4,
	})
	inv := &stubInventory{variants: map[uuid.UUID]*models.ProductVariant{
		firstID:  {ID: firstID, Stock: 0},
		secondID: {ID: secondID, Stock: 2},
	}}
	writer := &stubOrderWriter{}
	svc := newCheckoutService(t, &stubCartStore{snapshot: snap}, inv, writer)

	_, err := svc.Checkout(context.Background(), "token-1", validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())

	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	issues, ok := details["articulos"].([]string)
	require.True(t, ok)
	assert.Len(t, issues, 2)
	assert.Empty(t, writer.created)
}

func TestCheckoutRejectsVanishedVariant(t *testing.T) {
	variantID := uuid.New()
	svc := newCheckoutService(t, &stubCartStore{snapshot: testSnapshot(variantID)}, &stubInventory{}, &stubOrderWriter{})

	_, err := svc.Checkout(context.Background(), "token-1", validInput())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())
}

func TestCheckoutUsesCartNotasWhenInputOmitsThem(t *testing.T) {
	variantID := uuid.New()
	snap := testSnapshot(variantID)
	snap.Notas = "timbre roto, tocar la puerta"
	inv := &stubInventory{variants: map[uuid.UUID]*models.ProductVariant{
		variantID: {ID: variantID, Stock: 3},
	}}
	writer := &stubOrderWriter{}
	svc := newCheckoutService(t, &stubCartStore{snapshot: snap}, inv, writer)

	_, err := svc.Checkout(context.Background(), "token-1", validInput())
	require.NoError(t, err)
	require.Len(t, writer.created, 1)
	require.NotNil(t, writer.created[0].Notas)
	assert.Equal(t, "timbre roto, tocar la puerta", *writer.created[0].Notas)
}

func TestBuildWhatsAppLinkEscapesText(t *testing.T) {
	snap := testSnapshot(uuid.New())
	link := BuildWhatsAppLink("+51 999-888-777", "Patitas Pet Shop", snap, validInput())

	assert.True(t, strings.HasPrefix(link, "https://wa.me/51999888777?text="))
	assert.NotContains(t, link[len("https://wa.me/51999888777?text="):], " ")
}
