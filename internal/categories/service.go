package categories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/pkg/db"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
	"github.com/patitas-pets/patitas-backend/pkg/slug"
)

// slugRetries bounds the insert retry loop when concurrent creates race for
// the same slug.
const slugRetries = 3

// Service exposes catalog category management.
type Service interface {
	ListCategories(ctx context.Context) ([]CategoryDTO, error)
	GetCategory(ctx context.Context, idOrSlug string) (*CategoryDetailDTO, error)
	CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, categoryID uuid.UUID) (*CategoryDTO, error)
}

// CreateCategoryInput holds the validated payload to create a category.
type CreateCategoryInput struct {
	Nombre      string
	Descripcion *string
	ImagenURL   *string
	ParentID    *uuid.UUID
	IsActive    *bool
}

// UpdateCategoryInput holds optional mutation values for a category.
type UpdateCategoryInput struct {
	Nombre      *string
	Descripcion *string
	ImagenURL   *string
	ParentID    *uuid.UUID
	ClearParent bool
	IsActive    *bool
}

type imageCleaner interface {
	DeleteByURL(ctx context.Context, publicURL string) error
}

type service struct {
	repo   *Repository
	images imageCleaner
	logg   *logger.Logger
}

// NewService constructs a category service instance. The image cleaner is
// optional; without it delete leaves uploaded images behind.
func NewService(repo *Repository, images imageCleaner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	return &service{repo: repo, images: images, logg: logg}, nil
}

// ListCategories returns root categories newest first, each with its
// subcategories and product counts.
func (s *service) ListCategories(ctx context.Context) ([]CategoryDTO, error) {
	roots, err := s.repo.ListRoots(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list categories")
	}

	ids := make([]uuid.UUID, 0, len(roots))
	for i := range roots {
		ids = append(ids, roots[i].ID)
		for j := range roots[i].Children {
			ids = append(ids, roots[i].Children[j].ID)
		}
	}
	counts, err := s.repo.ProductCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}

	dtos := make([]CategoryDTO, 0, len(roots))
	for i := range roots {
		dtos = append(dtos, NewCategoryDTO(&roots[i], counts))
	}
	return dtos, nil
}

// GetCategory looks up a category by UUID or slug and returns it with its
// products.
func (s *service) GetCategory(ctx context.Context, idOrSlug string) (*CategoryDetailDTO, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identificador de categoría requerido")
	}

	var cat *models.Category
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		cat, err = s.repo.FindByID(ctx, id)
	} else {
		cat, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "categoría no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	ids := []uuid.UUID{cat.ID}
	for i := range cat.Children {
		ids = append(ids, cat.Children[i].ID)
	}
	counts, err := s.repo.ProductCounts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}

	return NewCategoryDetailDTO(cat, counts), nil
}

// CreateCategory creates the category with a slug derived from the name. When
// a sibling already claims the slug, a numeric suffix is appended.
func (s *service) CreateCategory(ctx context.Context, input CreateCategoryInput) (*CategoryDTO, error) {
	nombre := strings.TrimSpace(input.Nombre)
	if nombre == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el nombre es obligatorio")
	}

	if input.ParentID != nil {
		if err := s.ensureValidParent(ctx, *input.ParentID, nil); err != nil {
			return nil, err
		}
	}

	cat := &models.Category{
		Nombre:      nombre,
		Descripcion: input.Descripcion,
		ImagenURL:   input.ImagenURL,
		ParentID:    input.ParentID,
		IsActive:    true,
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}

	if err := s.insertWithUniqueSlug(ctx, cat, slug.Make(nombre)); err != nil {
		return nil, err
	}

	return s.toDTO(ctx, cat)
}

// UpdateCategory applies the provided fields. Renaming regenerates the slug.
func (s *service) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input UpdateCategoryInput) (*CategoryDTO, error) {
	cat, err := s.repo.findBare(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "categoría no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	renamed := false
	if input.Nombre != nil {
		nombre := strings.TrimSpace(*input.Nombre)
		if nombre == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "el nombre es obligatorio")
		}
		if nombre != cat.Nombre {
			cat.Nombre = nombre
			renamed = true
		}
	}
	if input.Descripcion != nil {
		cat.Descripcion = input.Descripcion
	}
	if input.ImagenURL != nil {
		cat.ImagenURL = input.ImagenURL
	}
	if input.IsActive != nil {
		cat.IsActive = *input.IsActive
	}

	switch {
	case input.ClearParent:
		cat.ParentID = nil
	case input.ParentID != nil:
		if err := s.ensureValidParent(ctx, *input.ParentID, &categoryID); err != nil {
			return nil, err
		}
		cat.ParentID = input.ParentID
	}

	if renamed {
		if err := s.saveWithUniqueSlug(ctx, cat, slug.Make(cat.Nombre)); err != nil {
			return nil, err
		}
	} else if err := s.repo.Save(ctx, cat); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update category")
	}

	return s.toDTO(ctx, cat)
}

// DeleteCategory removes an empty category. Categories still holding
// subcategories or products are protected.
func (s *service) DeleteCategory(ctx context.Context, categoryID uuid.UUID) (*CategoryDTO, error) {
	cat, err := s.repo.findBare(ctx, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "categoría no encontrada")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load category")
	}

	children, err := s.repo.CountChildren(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count subcategories")
	}
	if children > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "no se puede eliminar una categoría con subcategorías").
			WithDetails(map[string]any{"subcategories": children})
	}

	products, err := s.repo.CountProducts(ctx, categoryID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	if products > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "no se puede eliminar una categoría con productos").
			WithDetails(map[string]any{"products": products})
	}

	if err := s.repo.Delete(ctx, categoryID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete category")
	}

	// Image cleanup is best effort: the category row is already gone and an
	// orphaned object is cheaper than a failed delete.
	if s.images != nil && cat.ImagenURL != nil && *cat.ImagenURL != "" {
		if err := s.images.DeleteByURL(ctx, *cat.ImagenURL); err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{"category_id": categoryID.String(), "imagen_url": *cat.ImagenURL})
			s.logg.Warn(logCtx, "category.image_cleanup_failed")
		}
	}

	deleted := NewCategoryDTO(cat, nil)
	return &deleted, nil
}

// ensureValidParent checks that the proposed parent exists and that adopting
// it does not create a cycle. selfID is nil on create.
func (s *service) ensureValidParent(ctx context.Context, parentID uuid.UUID, selfID *uuid.UUID) error {
	if selfID != nil && parentID == *selfID {
		return pkgerrors.New(pkgerrors.CodeValidation, "una categoría no puede ser su propio padre")
	}

	parent, err := s.repo.findBare(ctx, parentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, "la categoría padre no existe")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load parent category")
	}

	if selfID == nil {
		return nil
	}

	// Walk the ancestor chain; finding self means the proposed parent is a
	// descendant.
	seen := map[uuid.UUID]struct{}{parentID: {}}
	current := parent
	for current.ParentID != nil {
		ancestorID := *current.ParentID
		if ancestorID == *selfID {
			return pkgerrors.New(pkgerrors.CodeValidation, "la categoría padre no puede ser una subcategoría de esta categoría")
		}
		if _, ok := seen[ancestorID]; ok {
			break
		}
		seen[ancestorID] = struct{}{}

		current, err = s.repo.findBare(ctx, ancestorID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				break
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "walk category ancestors")
		}
	}
	return nil
}

// insertWithUniqueSlug picks an unclaimed slug for base and inserts. A unique
// violation means another writer won the slug between the lookup and the
// insert, so the candidate set is refreshed and the insert retried.
func (s *service) insertWithUniqueSlug(ctx context.Context, cat *models.Category, base string) error {
	return s.persistWithUniqueSlug(ctx, cat, base, s.repo.Create)
}

func (s *service) saveWithUniqueSlug(ctx context.Context, cat *models.Category, base string) error {
	return s.persistWithUniqueSlug(ctx, cat, base, s.repo.Save)
}

func (s *service) persistWithUniqueSlug(ctx context.Context, cat *models.Category, base string, persist func(context.Context, *models.Category) error) error {
	// Only the slug the row held before this call may be reclaimed; a failed
	// candidate from an earlier attempt belongs to the writer that won it.
	original := cat.Slug
	for attempt := 0; attempt < slugRetries; attempt++ {
		existing, err := s.repo.ListSlugsLike(ctx, base)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list slugs")
		}

		taken := slug.TakenSet(existing)
		if original != "" {
			delete(taken, original) // renaming back to the current slug is fine
		}
		cat.Slug = slug.Unique(base, taken)

		err = persist(ctx, cat)
		if err == nil {
			return nil
		}
		if !db.IsUniqueViolation(err, "idx_categories_slug") {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist category")
		}
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "no se pudo asignar un slug único, intenta de nuevo")
}

func (s *service) toDTO(ctx context.Context, cat *models.Category) (*CategoryDTO, error) {
	counts, err := s.repo.ProductCounts(ctx, []uuid.UUID{cat.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count products")
	}
	dto := NewCategoryDTO(cat, counts)
	return &dto, nil
}
