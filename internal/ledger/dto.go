package ledger

import (
	"strconv"
	"strings"

	"github.com/balcao-pos/balcao/internal/money"
)

// LineForm carries one line as typed at the register: quantities and prices
// arrive as text and are decoded server-side with the money codec.
type LineForm struct {
	ProductID     int64  `json:"product_id" validate:"min=0"`
	Name          string `json:"name" validate:"required_if=ProductID 0"`
	EAN           string `json:"ean" validate:"omitempty,max=14"`
	Quantity      string `json:"quantity" validate:"required,intstring"`
	PriceSale     string `json:"price_sale" validate:"omitempty,decimalcomma"`
	PricePurchase string `json:"price_purchase" validate:"omitempty,decimalcomma"`
}

// PostBatchForm is the request body for posting one purchase or sale.
type PostBatchForm struct {
	Lines []LineForm `json:"lines" validate:"required,min=1,dive"`
}

// ToLines decodes the form into engine inputs.
func (f PostBatchForm) ToLines() []LineInput {
	lines := make([]LineInput, 0, len(f.Lines))
	for _, lf := range f.Lines {
		qty, _ := strconv.ParseInt(lf.Quantity, 10, 32)
		line := LineInput{
			ProductID:     lf.ProductID,
			Name:          strings.TrimSpace(lf.Name),
			Quantity:      qty,
			PriceSale:     money.Decode(lf.PriceSale),
			PricePurchase: money.Decode(lf.PricePurchase),
		}
		if ean := strings.TrimSpace(lf.EAN); ean != "" {
			line.EAN = &ean
		}
		lines = append(lines, line)
	}
	return lines
}

// HeaderView augments a Header with the formatted total.
type HeaderView struct {
	Header
	TotalDisplay string `json:"total_display"`
}

// NewHeaderView formats the header total for the UI.
func NewHeaderView(h Header) HeaderView {
	return HeaderView{Header: h, TotalDisplay: money.Format(h.Total)}
}
