package ledger

import (
	"errors"
	"fmt"
	"time"
)

// Kind enumerates the two posting directions.
type Kind string

const (
	// KindPurchase increases stock and values lines at the purchase price.
	KindPurchase Kind = "PURCHASE"
	// KindSale decreases stock and values lines at the sale price.
	KindSale Kind = "SALE"
)

// LineInput is one requested line of a posting batch. ProductID 0 means the
// operator typed a product the store does not know yet.
type LineInput struct {
	ProductID     int64
	Name          string
	EAN           *string
	Quantity      int64
	PriceSale     int64
	PricePurchase int64
}

// UnitPrice returns the price field that values this line for the given kind.
func (l LineInput) UnitPrice(kind Kind) int64 {
	if kind == KindSale {
		return l.PriceSale
	}
	return l.PricePurchase
}

// Header is the summary row of one posting: a purchase or sale record whose
// total is fixed at creation time and never recomputed.
type Header struct {
	ID        int64      `json:"id"`
	Kind      Kind       `json:"kind"`
	Total     int64      `json:"total"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Line joins a product to a header, snapshotting price and quantity at the
// time of the transaction.
type Line struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	HeaderID  int64     `json:"header_id"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// NotFoundError reports a referenced product id that does not exist. The
// whole batch fails; nothing is committed.
type NotFoundError struct {
	ProductID int64
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("ledger: product %d not found", e.ProductID)
}

// InsufficientStockError reports a sale line that would drive the product's
// quantity negative. The whole batch fails; nothing is committed.
type InsufficientStockError struct {
	ProductID int64
}

func (e InsufficientStockError) Error() string {
	return fmt.Sprintf("ledger: insufficient stock for product %d", e.ProductID)
}

var (
	// ErrEmptyBatch indicates a posting without lines.
	ErrEmptyBatch = errors.New("ledger: batch requires at least one line")
	// ErrInvalidQuantity indicates a non-positive line quantity.
	ErrInvalidQuantity = errors.New("ledger: quantity must be > 0")
	// ErrInvalidPrice indicates a negative price field.
	ErrInvalidPrice = errors.New("ledger: prices must be >= 0")
	// ErrUnknownProduct rejects a sale line for a product that does not exist
	// yet; stock cannot be sold before it has been purchased.
	ErrUnknownProduct = errors.New("ledger: cannot sell an unregistered product")
	// ErrInvalidKind indicates an unsupported posting kind.
	ErrInvalidKind = errors.New("ledger: kind must be PURCHASE or SALE")
	// ErrHeaderNotFound indicates a missing posting header.
	ErrHeaderNotFound = errors.New("ledger: posting not found")
)
