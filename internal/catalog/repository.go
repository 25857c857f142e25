package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so the same queries run standalone or inside a ledger posting transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists products in PostgreSQL.
type Store struct {
	q Querier
}

// NewStore constructs a Store over a pool or an open transaction.
func NewStore(q Querier) *Store {
	return &Store{q: q}
}

const productColumns = `id, name, price_sale, price_purchase, quantity, ean, created_at, updated_at`

// Insert creates the product row and returns its id.
func (s *Store) Insert(ctx context.Context, product Product) (int64, error) {
	createdAt := product.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	var id int64
	err := s.q.QueryRow(ctx, `
		INSERT INTO product (name, name_folded, price_sale, price_purchase, quantity, ean, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		product.Name, foldTerm(product.Name), product.PriceSale, product.PricePurchase, product.Quantity, product.EAN, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update rewrites the product row and stamps a fresh updated_at.
func (s *Store) Update(ctx context.Context, product Product) error {
	_, err := s.q.Exec(ctx, `
		UPDATE product
		SET name = $1, name_folded = $2, price_sale = $3, price_purchase = $4, quantity = $5, ean = $6, updated_at = $7
		WHERE id = $8`,
		product.Name, foldTerm(product.Name), product.PriceSale, product.PricePurchase, product.Quantity, product.EAN, time.Now().UTC(), product.ID,
	)
	return err
}

// FindByID returns the product or ErrProductNotFound.
func (s *Store) FindByID(ctx context.Context, id int64) (Product, error) {
	row := s.q.QueryRow(ctx, `SELECT `+productColumns+` FROM product WHERE id = $1`, id)
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return product, nil
}

// List pages through the catalog ordered by name.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM product
		ORDER BY name
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// SearchByName matches a substring against in-stock products. The match runs
// on the folded name column, so it is both case- and accent-insensitive.
func (s *Store) SearchByName(ctx context.Context, name string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM product
		WHERE quantity > 0 AND name_folded LIKE '%' || $1 || '%'
		ORDER BY name
		LIMIT $2`,
		foldTerm(name), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// SearchByEAN matches the barcode exactly.
func (s *Store) SearchByEAN(ctx context.Context, ean string, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.q.Query(ctx, `
		SELECT `+productColumns+`
		FROM product
		WHERE ean = $1
		LIMIT $2`,
		ean, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.PriceSale, &p.PricePurchase, &p.Quantity, &p.EAN, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
