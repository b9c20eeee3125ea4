package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/patitas-pets/patitas-backend/api/responses"
	"github.com/patitas-pets/patitas-backend/api/validators"
	"github.com/patitas-pets/patitas-backend/internal/categories"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

type createCategoryRequest struct {
	Nombre      string  `json:"nombre" validate:"required,min=2,max=100"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
	ImagenURL   *string `json:"imagenUrl" validate:"omitempty,url"`
	ParentID    *string `json:"parentId" validate:"omitempty,uuid"`
	IsActive    *bool   `json:"isActive"`
}

type updateCategoryRequest struct {
	Nombre      *string `json:"nombre" validate:"omitempty,min=2,max=100"`
	Descripcion *string `json:"descripcion" validate:"omitempty,max=500"`
	ImagenURL   *string `json:"imagenUrl" validate:"omitempty,url"`
	ParentID    *string `json:"parentId" validate:"omitempty,uuid"`
	ClearParent bool    `json:"clearParent"`
	IsActive    *bool   `json:"isActive"`
}

// ListCategories serves the public category tree with product counts.
func ListCategories(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{"categories": result})
	}
}

// GetCategory serves one category, addressable by id or slug.
func GetCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		detail, err := svc.GetCategory(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{"category": detail})
	}
}

// CreateCategory handles the admin create form.
func CreateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := categories.CreateCategoryInput{
			Nombre:      body.Nombre,
			Descripcion: body.Descripcion,
			ImagenURL:   body.ImagenURL,
			IsActive:    body.IsActive,
		}
		if body.ParentID != nil {
			parentID, err := uuid.Parse(*body.ParentID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría padre inválido"))
				return
			}
			input.ParentID = &parentID
		}

		created, err := svc.CreateCategory(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSONStatus(w, http.StatusCreated, map[string]any{
			"message":  "Categoría creada",
			"category": created,
		})
	}
}

// UpdateCategory applies a partial patch to one category.
func UpdateCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría inválido"))
			return
		}

		var body updateCategoryRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := categories.UpdateCategoryInput{
			Nombre:      body.Nombre,
			Descripcion: body.Descripcion,
			ImagenURL:   body.ImagenURL,
			ClearParent: body.ClearParent,
			IsActive:    body.IsActive,
		}
		if body.ParentID != nil {
			parentID, err := uuid.Parse(*body.ParentID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría padre inválido"))
				return
			}
			input.ParentID = &parentID
		}

		updated, err := svc.UpdateCategory(r.Context(), categoryID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{
			"message":  "Categoría actualizada",
			"category": updated,
		})
	}
}

// DeleteCategory removes an empty category. The id travels as a route
// param or, for older clients, as the id query parameter.
func DeleteCategory(svc categories.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "id")
		if raw == "" {
			raw = r.URL.Query().Get("id")
		}
		if raw == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría requerido"))
			return
		}
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría inválido"))
			return
		}

		deleted, err := svc.DeleteCategory(r.Context(), categoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSON(w, map[string]any{
			"message":         "Categoría eliminada",
			"deletedCategory": deleted,
		})
	}
}
