package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/patitas-pets/patitas-backend/api/responses"
	"github.com/patitas-pets/patitas-backend/api/validators"
	"github.com/patitas-pets/patitas-backend/internal/categories"
	"github.com/patitas-pets/patitas-backend/internal/products"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

type variantRequest struct {
	Etiqueta string  `json:"etiqueta" validate:"required,min=1,max=50"`
	Precio   *string `json:"precio"`
	Stock    int     `json:"stock" validate:"gte=0"`
	Position int     `json:"position" validate:"gte=0"`
}

type createProductRequest struct {
	Nombre      string           `json:"nombre" validate:"required,min=2,max=150"`
	Descripcion *string          `json:"descripcion" validate:"omitempty,max=1000"`
	CategoryID  string           `json:"categoryId" validate:"required,uuid"`
	Precio      string           `json:"precio" validate:"required"`
	ImagenURL   *string          `json:"imagenUrl" validate:"omitempty,url"`
	IsActive    *bool            `json:"isActive"`
	Variants    []variantRequest `json:"variants" validate:"omitempty,dive"`
}

type updateProductRequest struct {
	Nombre      *string           `json:"nombre" validate:"omitempty,min=2,max=150"`
	Descripcion *string           `json:"descripcion" validate:"omitempty,max=1000"`
	CategoryID  *string           `json:"categoryId" validate:"omitempty,uuid"`
	Precio      *string           `json:"precio"`
	ImagenURL   *string           `json:"imagenUrl" validate:"omitempty,url"`
	IsActive    *bool             `json:"isActive"`
	Variants    *[]variantRequest `json:"variants" validate:"omitempty,dive"`
}

// ListProducts serves the storefront catalog. The categoria query filters
// by category slug; admin callers opt into inactive products.
func ListProducts(svc products.Service, cats categories.Service, includeInactive bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, err := validators.ParseQueryInt(r, "page", 1, 1, 10000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		perPage, err := validators.ParseQueryInt(r, "perPage", 20, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := products.ListProductsInput{
			IncludeInactive: includeInactive,
			Page:            page,
			PerPage:         perPage,
		}
		if slugValue := r.URL.Query().Get("categoria"); slugValue != "" {
			detail, err := cats.GetCategory(r.Context(), slugValue)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.CategoryID = &detail.ID
		}

		result, err := svc.ListProducts(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, result)
	}
}

// GetProduct serves one product with its variants, addressed by slug.
func GetProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		product, err := svc.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{"product": product})
	}
}

// CreateProduct handles the admin create form.
func CreateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildCreateProductInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.CreateProduct(r.Context(), *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSONStatus(w, http.StatusCreated, map[string]any{
			"message": "Producto creado",
			"product": created,
		})
	}
}

// UpdateProduct applies a partial patch; a variants array replaces the
// whole set.
func UpdateProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "identificador de producto inválido"))
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := buildUpdateProductInput(body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.UpdateProduct(r.Context(), productID, *input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{
			"message": "Producto actualizado",
			"product": updated,
		})
	}
}

// DeleteProduct removes a product unless order history references it.
func DeleteProduct(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "identificador de producto inválido"))
			return
		}

		if err := svc.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{"message": "Producto eliminado"})
	}
}

func buildCreateProductInput(body createProductRequest) (*products.CreateProductInput, error) {
	categoryID, err := uuid.Parse(body.CategoryID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría inválido")
	}
	precio, err := parsePrecio(body.Precio)
	if err != nil {
		return nil, err
	}
	variants, err := buildVariantInputs(body.Variants)
	if err != nil {
		return nil, err
	}
	return &products.CreateProductInput{
		Nombre:      body.Nombre,
		Descripcion: body.Descripcion,
		CategoryID:  categoryID,
		Precio:      precio,
		ImagenURL:   body.ImagenURL,
		IsActive:    body.IsActive,
		Variants:    variants,
	}, nil
}

func buildUpdateProductInput(body updateProductRequest) (*products.UpdateProductInput, error) {
	input := &products.UpdateProductInput{
		Nombre:      body.Nombre,
		Descripcion: body.Descripcion,
		ImagenURL:   body.ImagenURL,
		IsActive:    body.IsActive,
	}
	if body.CategoryID != nil {
		categoryID, err := uuid.Parse(*body.CategoryID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría inválido")
		}
		input.CategoryID = &categoryID
	}
	if body.Precio != nil {
		precio, err := parsePrecio(*body.Precio)
		if err != nil {
			return nil, err
		}
		input.Precio = &precio
	}
	if body.Variants != nil {
		variants, err := buildVariantInputs(*body.Variants)
		if err != nil {
			return nil, err
		}
		input.Variants = &variants
	}
	return input, nil
}

func buildVariantInputs(bodies []variantRequest) ([]products.VariantInput, error) {
	variants := make([]products.VariantInput, 0, len(bodies))
	for _, body := range bodies {
		variant := products.VariantInput{
			Etiqueta: body.Etiqueta,
			Stock:    body.Stock,
			Position: body.Position,
		}
		if body.Precio != nil {
			precio, err := parsePrecio(*body.Precio)
			if err != nil {
				return nil, err
			}
			variant.Precio = &precio
		}
		variants = append(variants, variant)
	}
	return variants, nil
}

func parsePrecio(raw string) (decimal.Decimal, error) {
	precio, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "el precio es inválido")
	}
	return precio, nil
}
