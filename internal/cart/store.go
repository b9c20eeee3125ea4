package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/patitas-pets/patitas-backend/pkg/config"
	"github.com/patitas-pets/patitas-backend/pkg/db/models"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

// Item is one cart line, keyed by variant so two sizes of the same
// product stay separate.
type Item struct {
	ProductID  uuid.UUID       `json:"productId"`
	VariantID  uuid.UUID       `json:"variantId"`
	Nombre     string          `json:"nombre"`
	Slug       string          `json:"slug"`
	Etiqueta   string          `json:"etiqueta"`
	UnitPrecio decimal.Decimal `json:"precioUnitario"`
	Cantidad   int             `json:"cantidad"`
	MaxStock   int             `json:"maxStock"`
	ImagenURL  *string         `json:"imagenUrl"`
}

// Snapshot is an immutable read of a cart with its derived totals.
type Snapshot struct {
	Items       []Item
	Notas       string
	Subtotal    decimal.Decimal
	Envio       decimal.Decimal
	Total       decimal.Decimal
	EnvioGratis bool
}

// document is the persisted shape; totals are derived on read, never stored.
type document struct {
	Items     []Item    `json:"items"`
	Notas     string    `json:"notas"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type catalog interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type mirror interface {
	CartKey(token string) string
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Store holds cart documents keyed by cart token. Mutations are serialized
// by a store-wide mutex and mirrored to Redis best-effort so carts survive
// process restarts; a mirror failure never loses the in-memory mutation.
type Store struct {
	mu    sync.Mutex
	carts map[string]*document

	catalog catalog
	mirror  mirror
	logg    *logger.Logger

	freeShippingAt decimal.Decimal
	flatFee        decimal.Decimal
	ttl            time.Duration
	now            func() time.Time
}

// NewStore builds a cart store backed by the product catalog and an
// optional Redis mirror.
func NewStore(cfg config.CartConfig, cat catalog, mir mirror, logg *logger.Logger) (*Store, error) {
	if cat == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	threshold, err := decimal.NewFromString(cfg.FreeShippingThreshold)
	if err != nil {
		return nil, fmt.Errorf("parsing free shipping threshold %q: %w", cfg.FreeShippingThreshold, err)
	}
	fee, err := decimal.NewFromString(cfg.FlatShippingFee)
	if err != nil {
		return nil, fmt.Errorf("parsing flat shipping fee %q: %w", cfg.FlatShippingFee, err)
	}
	return &Store{
		carts:          make(map[string]*document),
		catalog:        cat,
		mirror:         mir,
		logg:           logg,
		freeShippingAt: threshold,
		flatFee:        fee,
		ttl:            cfg.TTL,
		now:            time.Now,
	}, nil
}

// NewToken mints an opaque cart token for a fresh visitor.
func NewToken() string {
	return uuid.NewString()
}

// Get returns the current snapshot for the token. Unknown tokens yield an
// empty cart rather than an error.
func (s *Store) Get(ctx context.Context, token string) (*Snapshot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token de carrito requerido")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.loadLocked(ctx, token)
	return s.snapshotLocked(doc), nil
}

// AddItem merges a product variant into the cart, clamping the resulting
// quantity to the variant's available stock. Line data (price, stock, name)
// is refreshed from the catalog on every add.
func (s *Store) AddItem(ctx context.Context, token string, productID, variantID uuid.UUID, cantidad int) (*Snapshot, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token de carrito requerido")
	}
	if cantidad < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser al menos 1")
	}

	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "el producto no está disponible")
	}
	variant := findVariant(product, variantID)
	if variant == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "variante no encontrada")
	}
	if variant.Stock < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeBusinessRule, "la variante no tiene stock disponible")
	}

	precio := product.Precio
	if variant.Precio != nil {
		precio = *variant.Precio
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.loadLocked(ctx, token)

	merged := false
	for i := range doc.Items {
		if doc.Items[i].VariantID != variantID {
			continue
		}
		line := &doc.Items[i]
		line.Cantidad = clampQuantity(line.Cantidad+cantidad, variant.Stock)
		line.Nombre = product.Nombre
		line.Slug = product.Slug
		line.Etiqueta = variant.Etiqueta
		line.UnitPrecio = precio
		line.MaxStock = variant.Stock
		line.ImagenURL = product.ImagenURL
		merged = true
		break
	}
	if !merged {
		doc.Items = append(doc.Items, Item{
			ProductID:  product.ID,
			VariantID:  variant.ID,
			Nombre:     product.Nombre,
			Slug:       product.Slug,
			Etiqueta:   variant.Etiqueta,
			UnitPrecio: precio,
			Cantidad:   clampQuantity(cantidad, variant.Stock),
			MaxStock:   variant.Stock,
			ImagenURL:  product.ImagenURL,
		})
	}

	s.persistLocked(ctx, token, doc)
	return s.snapshotLocked(doc), nil
}

// SetQuantity sets the quantity of an existing line, clamped to
// [1, max stock].
func (s *Store) SetQuantity(ctx context.Context, token string, variantID uuid.UUID, cantidad int) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.loadLocked(ctx, token)
	for i := range doc.Items {
		if doc.Items[i].VariantID != variantID {
			continue
		}
		doc.Items[i].Cantidad = clampQuantity(cantidad, doc.Items[i].MaxStock)
		s.persistLocked(ctx, token, doc)
		return s.snapshotLocked(doc), nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "el artículo no está en el carrito")
}

// RemoveItem drops a line by variant id. Removing an absent line is a no-op.
func (s *Store) RemoveItem(ctx context.Context, token string, variantID uuid.UUID) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.loadLocked(ctx, token)
	for i := range doc.Items {
		if doc.Items[i].VariantID == variantID {
			doc.Items = append(doc.Items[:i], doc.Items[i+1:]...)
			break
		}
	}
	s.persistLocked(ctx, token, doc)
	return s.snapshotLocked(doc), nil
}

// SetNotas stores the free-text order notes attached to the cart.
func (s *Store) SetNotas(ctx context.Context, token, notas string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.loadLocked(ctx, token)
	doc.Notas = strings.TrimSpace(notas)
	s.persistLocked(ctx, token, doc)
	return s.snapshotLocked(doc), nil
}

// Clear removes the cart entirely, in memory and from the mirror.
func (s *Store) Clear(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, token)
	if s.mirror == nil {
		return nil
	}
	if err := s.mirror.Del(ctx, s.mirror.CartKey(token)); err != nil {
		s.warn(ctx, token, "cart.mirror_clear_failed", err)
	}
	return nil
}

func (s *Store) loadLocked(ctx context.Context, token string) *document {
	if doc, ok := s.carts[token]; ok {
		return doc
	}
	doc := &document{}
	if s.mirror != nil {
		raw, err := s.mirror.Get(ctx, s.mirror.CartKey(token))
		switch {
		case err == nil:
			if unmarshalErr := json.Unmarshal([]byte(raw), doc); unmarshalErr != nil {
				s.warn(ctx, token, "cart.mirror_corrupt", unmarshalErr)
				doc = &document{}
			}
		case errors.Is(err, redislib.Nil):
			// first sight of this token
		default:
			s.warn(ctx, token, "cart.mirror_read_failed", err)
		}
	}
	if doc.Items == nil {
		doc.Items = []Item{}
	}
	s.carts[token] = doc
	return doc
}

func (s *Store) persistLocked(ctx context.Context, token string, doc *document) {
	doc.UpdatedAt = s.now().UTC()
	if s.mirror == nil {
		return
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		s.warn(ctx, token, "cart.mirror_encode_failed", err)
		return
	}
	if err := s.mirror.Set(ctx, s.mirror.CartKey(token), string(payload), s.ttl); err != nil {
		s.warn(ctx, token, "cart.mirror_write_failed", err)
	}
}

func (s *Store) snapshotLocked(doc *document) *Snapshot {
	items := make([]Item, len(doc.Items))
	copy(items, doc.Items)

	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.UnitPrecio.Mul(decimal.NewFromInt(int64(item.Cantidad))))
	}
	// Shipping is free only once the subtotal passes the threshold; landing
	// exactly on it still pays the flat fee.
	envio := decimal.Zero
	gratis := true
	if len(items) > 0 && !subtotal.GreaterThan(s.freeShippingAt) {
		envio = s.flatFee
		gratis = false
	}
	return &Snapshot{
		Items:       items,
		Notas:       doc.Notas,
		Subtotal:    subtotal,
		Envio:       envio,
		Total:       subtotal.Add(envio),
		EnvioGratis: gratis,
	}
}

func (s *Store) warn(ctx context.Context, token, msg string, err error) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithCartToken(ctx, token)
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func findVariant(product *models.Product, variantID uuid.UUID) *models.ProductVariant {
	for i := range product.Variants {
		if product.Variants[i].ID == variantID {
			return &product.Variants[i]
		}
	}
	return nil
}

func clampQuantity(cantidad, maxStock int) int {
	if maxStock > 0 && cantidad > maxStock {
		cantidad = maxStock
	}
	if cantidad < 1 {
		cantidad = 1
	}
	return cantidad
}
