package orders

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	"github.com/patitas-pets/patitas-backend/pkg/enums"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// A named in-memory DB keeps the schema visible across pooled
	// connections while isolating each test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  customer_nombre TEXT NOT NULL,
  customer_phone TEXT NOT NULL,
  customer_address TEXT NOT NULL,
  notas TEXT,
  status TEXT NOT NULL DEFAULT 'pendiente',
  subtotal NUMERIC NOT NULL DEFAULT 0,
  envio NUMERIC NOT NULL DEFAULT 0,
  total NUMERIC NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  nombre TEXT NOT NULL,
  etiqueta TEXT NOT NULL,
  unit_precio NUMERIC NOT NULL DEFAULT 0,
  cantidad INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func mustCreateOrder(t *testing.T, repo *Repository, status enums.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		CustomerNombre:  "Lucía Herrera",
		CustomerPhone:   "+51999888777",
		CustomerAddress: "Av. Arequipa 1234, Lima",
		Status:          status,
		Subtotal:        decimal.RequireFromString("45000"),
		Envio:           decimal.RequireFromString("8000"),
		Total:           decimal.RequireFromString("53000"),
		Items: []models.OrderItem{
			{
				ProductID:  uuid.New(),
				VariantID:  uuid.New(),
				Nombre:     "Croquetas Premium",
				Etiqueta:   "1 kg",
				UnitPrecio: decimal.RequireFromString("45000"),
				Cantidad:   1,
			},
		},
	}
	require.NoError(t, repo.Create(context.Background(), order))
	return order
}
