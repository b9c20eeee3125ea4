package categories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
)

func setupCategoriesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory database keeps the schema visible across pooled
	// connections while isolating each test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  nombre TEXT NOT NULL,
  slug TEXT NOT NULL,
  descripcion TEXT,
  imagen_url TEXT,
  parent_id TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	slugIndex := `CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_slug ON categories (slug);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  nombre TEXT NOT NULL,
  slug TEXT NOT NULL,
  descripcion TEXT,
  category_id TEXT NOT NULL,
  precio NUMERIC NOT NULL DEFAULT 0,
  imagen_url TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`

	for _, stmt := range []string{categories, slugIndex, products} {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func mustCreateCategory(t *testing.T, conn *gorm.DB, nombre, slugValue string, parentID *uuid.UUID, createdAt time.Time) *models.Category {
	t.Helper()
	cat := &models.Category{
		ID:        uuid.New(),
		Nombre:    nombre,
		Slug:      slugValue,
		ParentID:  parentID,
		IsActive:  true,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, conn.Create(cat).Error)
	return cat
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, nombre, slugValue string, categoryID uuid.UUID) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Nombre:     nombre,
		Slug:       slugValue,
		CategoryID: categoryID,
		IsActive:   true,
	}
	require.NoError(t, conn.Create(product).Error)
	return product
}
