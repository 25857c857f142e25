package catalog

import (
	"errors"
	"time"
)

// Product represents a stocked item. ID 0 means the product has not been
// persisted yet; it receives a real id when the ledger posting inserts it.
type Product struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	EAN           *string    `json:"ean,omitempty"`
	PriceSale     int64      `json:"price_sale"`
	PricePurchase int64      `json:"price_purchase"`
	Quantity      int64      `json:"quantity"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// ErrProductNotFound indicates a missing product row. Absence is a valid
// outcome for lookups; callers decide whether it is terminal.
var ErrProductNotFound = errors.New("catalog: product not found")
