package checkout

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/patitas-pets/patitas-backend/internal/cart"
)

// BuildWhatsAppLink renders a wa.me deep link whose text parameter carries
// the full order summary. The phone keeps digits only, as wa.me requires.
func BuildWhatsAppLink(phone, storeName string, snap *cart.Snapshot, input CheckoutInput) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)

	var b strings.Builder
	fmt.Fprintf(&b, "¡Hola %s! Quiero hacer un pedido:\n\n", storeName)
	for _, item := range snap.Items {
		fmt.Fprintf(&b, "• %dx %s (%s) — S/ %s\n",
			item.Cantidad, item.Nombre, item.Etiqueta,
			item.UnitPrecio.Mul(decimalFromInt(item.Cantidad)).StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: S/ %s\n", snap.Subtotal.StringFixed(2))
	if snap.EnvioGratis {
		b.WriteString("Envío: gratis\n")
	} else {
		fmt.Fprintf(&b, "Envío: S/ %s\n", snap.Envio.StringFixed(2))
	}
	fmt.Fprintf(&b, "Total: S/ %s\n\n", snap.Total.StringFixed(2))
	fmt.Fprintf(&b, "Nombre: %s\n", input.Nombre)
	fmt.Fprintf(&b, "Teléfono: %s\n", input.Phone)
	fmt.Fprintf(&b, "Dirección: %s\n", input.Address)
	if notas := orderNotes(snap, input); notas != "" {
		fmt.Fprintf(&b, "Notas: %s\n", notas)
	}

	return "https://wa.me/" + digits + "?text=" + url.QueryEscape(b.String())
}

// orderNotes prefers the explicit checkout notes over the ones stored on
// the cart.
func orderNotes(snap *cart.Snapshot, input CheckoutInput) string {
	if notas := strings.TrimSpace(input.Notas); notas != "" {
		return notas
	}
	return strings.TrimSpace(snap.Notas)
}
