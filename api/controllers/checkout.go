package controllers

import (
	"net/http"

	"github.com/patitas-pets/patitas-backend/api/responses"
	"github.com/patitas-pets/patitas-backend/api/validators"
	"github.com/patitas-pets/patitas-backend/internal/checkout"
	pkgerrors "github.com/patitas-pets/patitas-backend/pkg/errors"
	"github.com/patitas-pets/patitas-backend/pkg/logger"
)

type checkoutRequest struct {
	Nombre  string `json:"nombre" validate:"required,min=2,max=100"`
	Phone   string `json:"phone" validate:"required,min=6,max=20"`
	Address string `json:"address" validate:"required,min=5,max=250"`
	Notas   string `json:"notas" validate:"max=500"`
}

// Checkout turns the visitor's cart into a pending order and answers with
// the WhatsApp deep link the storefront redirects to.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(CartTokenHeader)
		if token == "" {
			if cookie, err := r.Cookie(CartCookieName); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "el carrito está vacío"))
			return
		}

		var body checkoutRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Checkout(r.Context(), token, checkout.CheckoutInput{
			Nombre:  body.Nombre,
			Phone:   body.Phone,
			Address: body.Address,
			Notas:   body.Notas,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteJSONStatus(w, http.StatusCreated, map[string]any{
			"message":     "Pedido creado",
			"order":       result.Order,
			"whatsappUrl": result.WhatsAppURL,
		})
	}
}
