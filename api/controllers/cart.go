package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/patitas-pets/patitas-backend/api/responses"
	"github.com/patitas-pets/patitas-backend/api/validators"
	"github.com/patitas-pets/patitas-backend/internal/cart"
	"github.com/patitas-pets/patitas-backend/pkg/config"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

// CartCookieName stores the opaque cart token between visits.
const CartCookieName = "cart-token"

// CartTokenHeader lets API clients carry the token without cookies.
const CartTokenHeader = "X-Cart-Token"

type addCartItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	VariantID string `json:"variantId" validate:"required,uuid"`
	Cantidad  int    `json:"cantidad" validate:"required,gte=1"`
}

type setCartQuantityRequest struct {
	VariantID string `json:"variantId" validate:"required,uuid"`
	Cantidad  int    `json:"cantidad" validate:"required"`
}

type setCartNotasRequest struct {
	Notas string `json:"notas" validate:"max=500"`
}

type removeCartItemRequest struct {
	VariantID string `json:"variantId" validate:"required,uuid"`
}

// CartController groups the cart endpoints around the shared token plumbing.
type CartController struct {
	store *cart.Store
	cfg   config.CartConfig
	logg  *logger.Logger
}

func NewCartController(store *cart.Store, cfg config.CartConfig, logg *logger.Logger) *CartController {
	return &CartController{store: store, cfg: cfg, logg: logg}
}

// token resolves the cart token from the header or cookie, minting a new
// one when the visitor has none. The token always travels back on both.
func (c *CartController) token(w http.ResponseWriter, r *http.Request) string {
	token := r.Header.Get(CartTokenHeader)
	if token == "" {
		if cookie, err := r.Cookie(CartCookieName); err == nil {
			token = cookie.Value
		}
	}
	if token == "" {
		token = cart.NewToken()
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CartCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.cfg.TTL / time.Second),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.Header().Set(CartTokenHeader, token)
	return token
}

// Get serves the current cart with derived totals.
func (c *CartController) Get(w http.ResponseWriter, r *http.Request) {
	token := c.token(w, r)
	snap, err := c.store.Get(r.Context(), token)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteJSON(w, map[string]any{"cart": cart.NewCartDTO(snap)})
}

// AddItem merges a variant into the cart.
func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	token := c.token(w, r)

	var body addCartItemRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	productID, variantID, err := parseCartIDs(body.ProductID, body.VariantID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	snap, err := c.store.AddItem(r.Context(), token, productID, variantID, body.Cantidad)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteJSON(w, map[string]any{"cart": cart.NewCartDTO(snap)})
}

// SetQuantity sets a line's quantity, clamped to the variant's stock.
func (c *CartController) SetQuantity(w http.ResponseWriter, r *http.Request) {
	token := c.token(w, r)

	var body setCartQuantityRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	variantID, err := uuid.Parse(body.VariantID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "identificador de variante inválido"))
		return
	}

	snap, err := c.store.SetQuantity(r.Context(), token, variantID, body.Cantidad)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteJSON(w, map[string]any{"cart": cart.NewCartDTO(snap)})
}

// SetNotas stores the free-text order notes.
func (c *CartController) SetNotas(w http.ResponseWriter, r *http.Request) {
	token := c.token(w, r)

	var body setCartNotasRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	snap, err := c.store.SetNotas(r.Context(), token, body.Notas)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteJSON(w, map[string]any{"cart": cart.NewCartDTO(snap)})
}

// RemoveItem drops a line from the cart.
func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	token := c.token(w, r)

	var body removeCartItemRequest
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	variantID, err := uuid.Parse(body.VariantID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "identificador de variante inválido"))
		return
	}

	snap, err := c.store.RemoveItem(r.Context(), token, variantID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteJSON(w, map[string]any{"cart": cart.NewCartDTO(snap)})
}

// Clear empties the cart.
func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	token := c.token(w, r)
	if err := c.store.Clear(r.Context(), token); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteJSON(w, map[string]any{"message": "Carrito vaciado"})
}

func parseCartIDs(rawProduct, rawVariant string) (uuid.UUID, uuid.UUID, error) {
	productID, err := uuid.Parse(rawProduct)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identificador de producto inválido")
	}
	variantID, err := uuid.Parse(rawVariant)
	if err != nil {
		return uuid.Nil, uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identificador de variante inválido")
	}
	return productID, variantID, nil
}
