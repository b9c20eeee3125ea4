package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/api/controllers"
	"github.com/patitas-pets/patitas-backend/internal/auth"
	"github.com/patitas-pets/patitas-backend/internal/cart"
	checkoutsvc "github.com/patitas-pets/patitas-backend/internal/checkout"
	"github.com/patitas-pets/patitas-backend/internal/categories"
	"github.com/patitas-pets/patitas-backend/internal/media"
	"github.com/patitas-pets/patitas-backend/internal/orders"
	"github.com/patitas-pets/patitas-backend/internal/products"
	pkgauth "github.com/patitas-pets/patitas-backend/pkg/auth"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
	"github.com/patitas-pets/patitas-backend/pkg/security"
)

const testSchema = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL,
  password_hash TEXT NOT NULL,
  nombre TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'admin',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email);
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
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_categories_slug ON categories (slug);
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
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_products_slug ON products (slug);
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  etiqueta TEXT NOT NULL,
  precio NUMERIC,
  stock INTEGER NOT NULL DEFAULT 0,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS orders (
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
);
CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  nombre TEXT NOT NULL,
  etiqueta TEXT NOT NULL,
  unit_precio NUMERIC NOT NULL DEFAULT 0,
  cantidad INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);
`

type memorySessions struct {
	mu   sync.Mutex
	live map[string]bool
}

func newMemorySessions() *memorySessions {
	return &memorySessions{live: make(map[string]bool)}
}

func (m *memorySessions) Establish(_ context.Context, sessionID string, _ uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.live[sessionID] = true
	return nil
}

func (m *memorySessions) Revoke(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.live, sessionID)
	return nil
}

func (m *memorySessions) HasSession(_ context.Context, sessionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.live[sessionID], nil
}

type memoryObjectStore struct{}

func (memoryObjectStore) Upload(_ context.Context, key, _ string, _ io.Reader) (string, error) {
	return "https://storage.googleapis.com/patitas-test/" + key, nil
}

func (memoryObjectStore) Delete(_ context.Context, _ string) error { return nil }

func (memoryObjectStore) Bucket() string { return "patitas-test" }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test"},
		Session: config.SessionConfig{
			Secret:            "router-test-secret",
			Issuer:            "patitas",
			ExpirationMinutes: 60,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Media: config.MediaConfig{MaxUploadMB: 5},
		Cart: config.CartConfig{
			FreeShippingThreshold: "100000",
			FlatShippingFee:       "8000",
			TTL:                   12 * time.Hour,
		},
		Store: config.StoreConfig{Name: "Patitas Pet Shop", WhatsAppPhone: "+51999888777"},
	}
}

type testEnv struct {
	router   http.Handler
	conn     *gorm.DB
	cfg      *config.Config
	products products.Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, conn.Exec(stmt).Error)
	}

	cfg := testConfig()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	sessions := newMemorySessions()

	authSvc, err := auth.NewService(auth.ServiceParams{
		UserRepo:       auth.NewRepository(conn),
		SessionManager: sessions,
		SessionConfig:  cfg.Session,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	require.NoError(t, err)

	categorySvc, err := categories.NewService(categories.NewRepository(conn), nil, logg)
	require.NoError(t, err)

	productRepo := products.NewRepository(conn)
	productSvc, err := products.NewService(productRepo)
	require.NoError(t, err)

	mediaSvc, err := media.NewService(memoryObjectStore{}, cfg.Media, logg)
	require.NoError(t, err)

	cartStore, err := cart.NewStore(cfg.Cart, productRepo, nil, logg)
	require.NoError(t, err)

	orderRepo := orders.NewRepository(conn)
	orderSvc, err := orders.NewService(orderRepo, logg)
	require.NoError(t, err)

	checkoutSvc, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		Carts:     cartStore,
		Inventory: productRepo,
		Orders:    orderRepo,
		Store:     cfg.Store,
		Logger:    logg,
	})
	require.NoError(t, err)

	router := NewRouter(RouterParams{
		Config:          cfg,
		Logger:          logg,
		Registry:        prometheus.NewRegistry(),
		Sessions:        sessions,
		AuthService:     authSvc,
		CategoryService: categorySvc,
		MediaService:    mediaSvc,
		ProductService:  productSvc,
		CartStore:       cartStore,
		CheckoutService: checkoutSvc,
		OrderService:    orderSvc,
		Pingers:         map[string]controllers.Pinger{},
	})

	return &testEnv{router: router, conn: conn, cfg: cfg, products: productSvc}
}

func (e *testEnv) seedAdmin(t *testing.T) {
	t.Helper()
	hash, err := security.HashPassword("secreto-123", e.cfg.Password)
	require.NoError(t, err)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "admin@patitas.pe",
		PasswordHash: hash,
		Nombre:       "Admin",
		Role:         "admin",
		IsActive:     true,
	}
	require.NoError(t, e.conn.Create(user).Error)
}

func (e *testEnv) login(t *testing.T) *http.Cookie {
	t.Helper()
	body := `{"email":"admin@patitas.pe","password":"secreto-123"}`
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == pkgauth.SessionCookieName && cookie.Value != "" {
			return cookie
		}
	}
	t.Fatal("login did not set the session cookie")
	return nil
}

func (e *testEnv) doJSON(t *testing.T, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	return payload
}

func TestCreateCategoryEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	cookie := env.login(t)

	rec := env.doJSON(t, http.MethodPost, "/api/categories", `{"nombre":"Alimentos"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payload := decodeBody(t, rec)
	category := payload["category"].(map[string]any)
	assert.Equal(t, "alimentos", category["slug"])

	rec = env.doJSON(t, http.MethodPost, "/api/categories", `{"nombre":"Alimentos"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payload = decodeBody(t, rec)
	category = payload["category"].(map[string]any)
	assert.Equal(t, "alimentos-1", category["slug"])
}

func TestCategoryMutationsRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodPost, "/api/categories", `{"nombre":"Alimentos"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicCategoryListing(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	cookie := env.login(t)

	rec := env.doJSON(t, http.MethodPost, "/api/categories", `{"nombre":"Juguetes"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.doJSON(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payload := decodeBody(t, rec)
	list := payload["categories"].([]any)
	require.Len(t, list, 1)
}

func TestAdminGateRedirectsAnonymousVisitors(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/admin/dashboard", "", nil)
	require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/admin?returnUrl=%2Fadmin%2Fdashboard", rec.Header().Get("Location"))
}

func TestAdminLoginPageStaysOpen(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/admin", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "patitas-admin")
}

func TestCartAndCheckoutEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.seedAdmin(t)
	cookie := env.login(t)

	rec := env.doJSON(t, http.MethodPost, "/api/categories", `{"nombre":"Alimentos"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code)
	categoryID := decodeBody(t, rec)["category"].(map[string]any)["id"].(string)

	created, err := env.products.CreateProduct(context.Background(), products.CreateProductInput{
		Nombre:     "Croquetas Premium",
		CategoryID: uuid.MustParse(categoryID),
		Precio:     decimal.RequireFromString("45000"),
		Variants:   []products.VariantInput{{Etiqueta: "1 kg", Stock: 3}},
	})
	require.NoError(t, err)

	addBody := fmt.Sprintf(`{"productId":%q,"variantId":%q,"cantidad":2}`,
		created.ID, created.Variants[0].ID)
	rec = env.doJSON(t, http.MethodPost, "/api/cart/items", addBody, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	cartToken := rec.Header().Get("X-Cart-Token")
	require.NotEmpty(t, cartToken)

	cartPayload := decodeBody(t, rec)["cart"].(map[string]any)
	items := cartPayload["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), items[0].(map[string]any)["cantidad"])
	assert.Equal(t, "90000.00", cartPayload["subtotal"])
	assert.Equal(t, "8000.00", cartPayload["envio"])

	checkoutBody := `{"nombre":"Lucía Herrera","phone":"+51988777666","address":"Av. Arequipa 1234, Lima"}`
	req := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(checkoutBody))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Cart-Token", cartToken)
	checkoutRec := httptest.NewRecorder()
	env.router.ServeHTTP(checkoutRec, req)
	require.Equal(t, http.StatusCreated, checkoutRec.Code, checkoutRec.Body.String())

	payload := decodeBody(t, checkoutRec)
	assert.True(t, strings.HasPrefix(payload["whatsappUrl"].(string), "https://wa.me/51999888777?text="))

	variant, err := products.NewRepository(env.conn).FindVariant(context.Background(), created.ID, created.Variants[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, variant.Stock)
}

func TestMetricsEndpointExposed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.doJSON(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
