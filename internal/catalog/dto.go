package catalog

import (
	"strconv"
	"strings"

	"github.com/balcao-pos/balcao/internal/money"
)

// ProductForm carries the raw text the register UI collects. Money fields use
// a comma decimal separator and are decoded to minor units server-side.
type ProductForm struct {
	Name          string `json:"name" validate:"required"`
	EAN           string `json:"ean" validate:"omitempty,max=14"`
	PriceSale     string `json:"price_sale" validate:"required,decimalcomma"`
	PricePurchase string `json:"price_purchase" validate:"required,decimalcomma"`
	Quantity      string `json:"quantity" validate:"required,intstring"`
}

// ToProduct decodes the form into a Product value.
func (f ProductForm) ToProduct() Product {
	product := Product{
		Name:          strings.TrimSpace(f.Name),
		PriceSale:     money.Decode(f.PriceSale),
		PricePurchase: money.Decode(f.PricePurchase),
	}
	if ean := strings.TrimSpace(f.EAN); ean != "" {
		product.EAN = &ean
	}
	qty, _ := strconv.ParseInt(f.Quantity, 10, 32)
	product.Quantity = qty
	return product
}

// ProductView augments a Product with display-formatted prices.
type ProductView struct {
	Product
	PriceSaleDisplay     string `json:"price_sale_display"`
	PricePurchaseDisplay string `json:"price_purchase_display"`
}

// NewProductView formats the price fields for the UI.
func NewProductView(p Product) ProductView {
	return ProductView{
		Product:              p,
		PriceSaleDisplay:     money.Format(p.PriceSale),
		PricePurchaseDisplay: money.Format(p.PricePurchase),
	}
}
