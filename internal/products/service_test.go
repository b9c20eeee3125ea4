package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
)

func newProductsTestService(t *testing.T) (Service, *Repository, uuid.UUID) {
	t.Helper()
	conn := setupProductsTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	cat := mustCreateTestCategory(t, conn, "Alimentos", "alimentos")
	return svc, repo, cat.ID
}

func TestCreateProductGeneratesSlugAndVariants(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)

	override := decimal.RequireFromString("95.50")
	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Nombre:     "Croquetas Premium",
		CategoryID: categoryID,
		Precio:     decimal.RequireFromString("85.00"),
		Variants: []VariantInput{
			{Etiqueta: "1 kg", Stock: 10},
			{Etiqueta: "3 kg", Precio: &override, Stock: 4},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "croquetas-premium", created.Slug)
	require.Len(t, created.Variants, 2)
	assert.Equal(t, "85.00", created.Variants[0].Precio) // base price
	assert.Equal(t, "95.50", created.Variants[1].Precio) // override
}

func TestCreateProductAppendsSuffixOnDuplicateName(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)
	ctx := context.Background()

	input := CreateProductInput{
		Nombre:     "Croquetas",
		CategoryID: categoryID,
		Precio:     decimal.RequireFromString("50.00"),
	}
	first, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)
	second, err := svc.CreateProduct(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, "croquetas", first.Slug)
	assert.Equal(t, "croquetas-1", second.Slug)
}

func TestCreateProductRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newProductsTestService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Nombre:     "Croquetas",
		CategoryID: uuid.New(),
		Precio:     decimal.RequireFromString("50.00"),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestCreateProductRejectsDuplicateVariantEtiquetas(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)

	_, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Nombre:     "Croquetas",
		CategoryID: categoryID,
		Precio:     decimal.RequireFromString("50.00"),
		Variants: []VariantInput{
			{Etiqueta: "1 kg"},
			{Etiqueta: "1 KG"},
		},
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestGetProductBySlug(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Nombre:     "Croquetas Premium",
		CategoryID: categoryID,
		Precio:     decimal.RequireFromString("85.00"),
		Variants:   []VariantInput{{Etiqueta: "1 kg", Stock: 5}},
	})
	require.NoError(t, err)

	found, err := svc.GetProductBySlug(ctx, "croquetas-premium")
	require.NoError(t, err)
	assert.Equal(t, "Croquetas Premium", found.Nombre)
	require.Len(t, found.Variants, 1)
	assert.Equal(t, 5, found.Variants[0].Stock)

	_, err = svc.GetProductBySlug(ctx, "no-existe")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestListProductsFiltersInactive(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductInput{
		Nombre: "Visible", CategoryID: categoryID, Precio: decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)
	inactive := false
	_, err = svc.CreateProduct(ctx, CreateProductInput{
		Nombre: "Oculto", CategoryID: categoryID, Precio: decimal.RequireFromString("10.00"), IsActive: &inactive,
	})
	require.NoError(t, err)

	storefront, err := svc.ListProducts(ctx, ListProductsInput{})
	require.NoError(t, err)
	require.Len(t, storefront.Products, 1)
	assert.Equal(t, "visible", storefront.Products[0].Slug)
	assert.Equal(t, int64(1), storefront.Total)

	admin, err := svc.ListProducts(ctx, ListProductsInput{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, admin.Products, 2)
}

func TestUpdateProductReplacesVariants(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Nombre:     "Croquetas",
		CategoryID: categoryID,
		Precio:     decimal.RequireFromString("50.00"),
		Variants:   []VariantInput{{Etiqueta: "1 kg", Stock: 3}},
	})
	require.NoError(t, err)

	variants := []VariantInput{
		{Etiqueta: "500 g", Stock: 8},
		{Etiqueta: "2 kg", Stock: 2},
	}
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Variants: &variants})
	require.NoError(t, err)
	require.Len(t, updated.Variants, 2)
	assert.Equal(t, "500 g", updated.Variants[0].Etiqueta)
}

func TestUpdateProductRenameRegeneratesSlug(t *testing.T) {
	svc, _, categoryID := newProductsTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Nombre: "Croquetas", CategoryID: categoryID, Precio: decimal.RequireFromString("50.00"),
	})
	require.NoError(t, err)

	nombre := "Croquetas de Salmón"
	updated, err := svc.UpdateProduct(ctx, created.ID, UpdateProductInput{Nombre: &nombre})
	require.NoError(t, err)
	assert.Equal(t, "croquetas-de-salmon", updated.Slug)
}

func TestDeleteProductBlockedByOrderReferences(t *testing.T) {
	conn := setupProductsTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(repo)
	require.NoError(t, err)
	cat := mustCreateTestCategory(t, conn, "Alimentos", "alimentos")
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Nombre:     "Croquetas",
		CategoryID: cat.ID,
		Precio:     decimal.RequireFromString("50.00"),
		Variants:   []VariantInput{{Etiqueta: "1 kg", Stock: 3}},
	})
	require.NoError(t, err)

	item := &models.OrderItem{
		ID:         uuid.New(),
		OrderID:    uuid.New(),
		ProductID:  created.ID,
		VariantID:  created.Variants[0].ID,
		Nombre:     created.Nombre,
		Etiqueta:   "1 kg",
		UnitPrecio: decimal.RequireFromString("50.00"),
		Cantidad:   1,
	}
	require.NoError(t, conn.Create(item).Error)

	err = svc.DeleteProduct(ctx, created.ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeBusinessRule, typed.Code())

	_, err = svc.GetProductBySlug(ctx, "croquetas")
	require.NoError(t, err)
}

func TestDeleteProductRemovesVariants(t *testing.T) {
	svc, repo, categoryID := newProductsTestService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{
		Nombre:     "Croquetas",
		CategoryID: categoryID,
		Precio:     decimal.RequireFromString("50.00"),
		Variants:   []VariantInput{{Etiqueta: "1 kg", Stock: 3}},
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(ctx, created.ID))

	_, err = svc.GetProductBySlug(ctx, "croquetas")
	require.Error(t, err)

	_, err = repo.FindVariant(ctx, created.ID, created.Variants[0].ID)
	require.Error(t, err)
}
