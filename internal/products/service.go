package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/pkg/db"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/slug"
)

const slugRetries = 3

// Service exposes storefront reads and admin catalog management.
type Service interface {
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
}

// ListProductsInput narrows and pages the catalog listing.
type ListProductsInput struct {
	CategoryID      *uuid.UUID
	IncludeInactive bool
	Page            int
	PerPage         int
}

// VariantInput defines one purchasable configuration.
type VariantInput struct {
	Etiqueta string
	Precio   *decimal.Decimal
	Stock    int
	Position int
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Nombre      string
	Descripcion *string
	CategoryID  uuid.UUID
	Precio      decimal.Decimal
	ImagenURL   *string
	IsActive    *bool
	Variants    []VariantInput
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Nombre      *string
	Descripcion *string
	CategoryID  *uuid.UUID
	Precio      *decimal.Decimal
	ImagenURL   *string
	IsActive    *bool
	Variants    *[]VariantInput
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// ListProducts pages through the catalog newest first. Storefront callers get
// active products only; the admin panel includes inactive ones.
func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	page := input.Page
	if page < 1 {
		page = 1
	}
	perPage := input.PerPage
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	prods, total, err := s.repo.List(ctx, ListFilter{
		CategoryID: input.CategoryID,
		OnlyActive: !input.IncludeInactive,
		Page:       page,
		PerPage:    perPage,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}

	result := &ProductListResult{
		Products: make([]ProductDTO, 0, len(prods)),
		Total:    total,
		Page:     page,
		PerPage:  perPage,
	}
	for i := range prods {
		result.Products = append(result.Products, NewProductDTO(&prods[i]))
	}
	return result, nil
}

// GetProductBySlug returns one active product with its variants.
func (s *service) GetProductBySlug(ctx context.Context, slugValue string) (*ProductDTO, error) {
	slugValue = strings.TrimSpace(slugValue)
	if slugValue == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug de producto requerido")
	}

	product, err := s.repo.FindBySlug(ctx, slugValue)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	dto := NewProductDTO(product)
	return &dto, nil
}

// CreateProduct creates the product with slug dedup and its variants.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	nombre := strings.TrimSpace(input.Nombre)
	if nombre == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el nombre es obligatorio")
	}
	if input.Precio.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el precio no puede ser negativo")
	}
	if err := s.ensureCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	if err := validateVariants(input.Variants); err != nil {
		return nil, err
	}

	product := &models.Product{
		Nombre:      nombre,
		Descripcion: input.Descripcion,
		CategoryID:  input.CategoryID,
		Precio:      input.Precio,
		ImagenURL:   input.ImagenURL,
		IsActive:    true,
		Variants:    buildVariants(input.Variants),
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.insertWithUniqueSlug(ctx, product, slug.Make(nombre)); err != nil {
		return nil, err
	}

	dto := NewProductDTO(product)
	return &dto, nil
}

// UpdateProduct applies the provided fields. Renaming regenerates the slug;
// providing variants replaces the whole set.
func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}

	renamed := false
	if input.Nombre != nil {
		nombre := strings.TrimSpace(*input.Nombre)
		if nombre == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "el nombre es obligatorio")
		}
		if nombre != product.Nombre {
			product.Nombre = nombre
			renamed = true
		}
	}
	if input.Descripcion != nil {
		product.Descripcion = input.Descripcion
	}
	if input.CategoryID != nil {
		if err := s.ensureCategory(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *input.CategoryID
	}
	if input.Precio != nil {
		if input.Precio.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "el precio no puede ser negativo")
		}
		product.Precio = *input.Precio
	}
	if input.ImagenURL != nil {
		product.ImagenURL = input.ImagenURL
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if input.Variants != nil {
		if err := validateVariants(*input.Variants); err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceVariants(ctx, productID, buildVariants(*input.Variants)); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replace variants")
		}
	}

	if renamed {
		if err := s.saveWithUniqueSlug(ctx, product, slug.Make(product.Nombre)); err != nil {
			return nil, err
		}
	} else if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update product")
	}

	fresh, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "reload product")
	}
	dto := NewProductDTO(fresh)
	return &dto, nil
}

// DeleteProduct removes the product and its variants.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	references, err := s.repo.CountOrderReferences(ctx, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count order references")
	}
	if references > 0 {
		return pkgerrors.New(pkgerrors.CodeBusinessRule, "no se puede eliminar un producto con pedidos asociados").
			WithDetails(map[string]any{"pedidos": references})
	}
	if err := s.repo.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) ensureCategory(ctx context.Context, categoryID uuid.UUID) error {
	if categoryID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "la categoría es obligatoria")
	}
	exists, err := s.repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check category")
	}
	if !exists {
		return pkgerrors.New(pkgerrors.CodeValidation, "la categoría no existe")
	}
	return nil
}

func validateVariants(variants []VariantInput) error {
	seen := map[string]struct{}{}
	for _, v := range variants {
		etiqueta := strings.TrimSpace(v.Etiqueta)
		if etiqueta == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "cada variante necesita una etiqueta")
		}
		key := strings.ToLower(etiqueta)
		if _, dup := seen[key]; dup {
			return pkgerrors.New(pkgerrors.CodeValidation, "etiquetas de variante duplicadas").
				WithDetails(map[string]any{"etiqueta": etiqueta})
		}
		seen[key] = struct{}{}
		if v.Precio != nil && v.Precio.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "el precio de la variante no puede ser negativo")
		}
		if v.Stock < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "el stock no puede ser negativo")
		}
	}
	return nil
}

func buildVariants(inputs []VariantInput) []models.ProductVariant {
	variants := make([]models.ProductVariant, 0, len(inputs))
	for i, v := range inputs {
		position := v.Position
		if position == 0 {
			position = i
		}
		variants = append(variants, models.ProductVariant{
			Etiqueta: strings.TrimSpace(v.Etiqueta),
			Precio:   v.Precio,
			Stock:    v.Stock,
			Position: position,
		})
	}
	return variants
}

func (s *service) insertWithUniqueSlug(ctx context.Context, product *models.Product, base string) error {
	return s.persistWithUniqueSlug(ctx, product, base, s.repo.Create)
}

func (s *service) saveWithUniqueSlug(ctx context.Context, product *models.Product, base string) error {
	return s.persistWithUniqueSlug(ctx, product, base, s.repo.Save)
}

func (s *service) persistWithUniqueSlug(ctx context.Context, product *models.Product, base string, persist func(context.Context, *models.Product) error) error {
	// Only the slug the row held before this call may be reclaimed; a failed
	// candidate from an earlier attempt belongs to the writer that won it.
	original := product.Slug
	for attempt := 0; attempt < slugRetries; attempt++ {
		existing, err := s.repo.ListSlugsLike(ctx, base)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list slugs")
		}

		taken := slug.TakenSet(existing)
		if original != "" {
			delete(taken, original)
		}
		product.Slug = slug.Unique(base, taken)

		err = persist(ctx, product)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "idx_products_slug") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist product")
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "no se pudo asignar un slug único, intenta de nuevo")
}
