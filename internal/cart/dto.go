package cart

// CartDTO is the wire shape of a cart snapshot; money fields are fixed to
// two decimals.
type CartDTO struct {
	Items       []Item `json:"items"`
	Notas       string `json:"notas"`
	Subtotal    string `json:"subtotal"`
	Envio       string `json:"envio"`
	Total       string `json:"total"`
	EnvioGratis bool   `json:"envioGratis"`
}

// NewCartDTO renders a snapshot for the HTTP surface.
func NewCartDTO(snap *Snapshot) CartDTO {
	items := snap.Items
	if items == nil {
		items = []Item{}
	}
	return CartDTO{
		Items:       items,
		Notas:       snap.Notas,
		Subtotal:    snap.Subtotal.StringFixed(2),
		Envio:       snap.Envio.StringFixed(2),
		Total:       snap.Total.StringFixed(2),
		EnvioGratis: snap.EnvioGratis,
	}
}
