package categories

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
)

// Repository wires together category persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ListRoots loads active root categories newest first with their active
// subcategories. Deactivated categories stay reachable by id or slug but
// never appear in the storefront listing.
func (r *Repository) ListRoots(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Where("is_active = ?", true).Order("created_at DESC")
		}).
		Where("parent_id IS NULL AND is_active = ?", true).
		Order("created_at DESC").
		Find(&cats).Error
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// FindByID loads the category with its subcategories and products.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&cat, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// FindBySlug loads the category with its subcategories and products.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	err := r.db.WithContext(ctx).
		Preload("Children", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		Preload("Products", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&cat, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &cat, nil
}

// findBare loads the category without associations.
func (r *Repository) findBare(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	if err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cat, nil
}

// ListSlugsLike returns every slug equal to base or starting with base plus a
// hyphen, the candidates a numeric suffix may collide with.
func (r *Repository) ListSlugsLike(ctx context.Context, base string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("slug = ? OR slug LIKE ?", base, base+"-%").
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

// Create inserts the category, assigning an id when the caller left it zero.
func (r *Repository) Create(ctx context.Context, cat *models.Category) error {
	if cat.ID == uuid.Nil {
		cat.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(cat).Error
}

// Save persists every field of the category.
func (r *Repository) Save(ctx context.Context, cat *models.Category) error {
	return r.db.WithContext(ctx).Save(cat).Error
}

// Delete removes the category row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Category{}, "id = ?", id).Error
}

// CountChildren returns the number of direct subcategories.
func (r *Repository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Where("parent_id = ?", id).
		Count(&count).Error
	return count, err
}

// CountProducts returns the number of products assigned to the category.
func (r *Repository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

// ProductCounts returns product totals keyed by category id.
func (r *Repository) ProductCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	type row struct {
		CategoryID uuid.UUID
		Total      int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, rw := range rows {
		counts[rw.CategoryID] = rw.Total
	}
	return counts, nil
}
