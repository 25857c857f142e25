package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balcao-pos/balcao/internal/catalog"
	"github.com/balcao-pos/balcao/internal/platform/db"
)

// TxRepository exposes the operations a posting performs inside one atomic
// unit of work. Product operations run on the same transaction so later lines
// observe earlier lines' stock effects.
type TxRepository interface {
	InsertHeader(ctx context.Context, kind Kind, total int64, at time.Time) (int64, error)
	InsertLine(ctx context.Context, kind Kind, line Line) error
	InsertProduct(ctx context.Context, product catalog.Product) (int64, error)
	FindProduct(ctx context.Context, id int64) (catalog.Product, error)
	UpdateProduct(ctx context.Context, product catalog.Product) error
}

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction. The
// callback either commits as a whole or leaves no visible effect.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, products: catalog.NewStore(tx)})
	})
}

type txRepo struct {
	tx       pgx.Tx
	products *catalog.Store
}

func headerTable(kind Kind) string {
	if kind == KindSale {
		return "sale"
	}
	return "purchase"
}

func lineTable(kind Kind) (table, headerColumn string) {
	if kind == KindSale {
		return "product_sale", "sale_id"
	}
	return "product_purchase", "purchase_id"
}

func (r *txRepo) InsertHeader(ctx context.Context, kind Kind, total int64, at time.Time) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO `+headerTable(kind)+` (total, created_at) VALUES ($1, $2) RETURNING id`,
		total, at,
	).Scan(&id)
	return id, err
}

func (r *txRepo) InsertLine(ctx context.Context, kind Kind, line Line) error {
	table, headerColumn := lineTable(kind)
	_, err := r.tx.Exec(ctx,
		`INSERT INTO `+table+` (product_id, `+headerColumn+`, price, quantity, total, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		line.ProductID, line.HeaderID, line.Price, line.Quantity, line.Total, line.CreatedAt,
	)
	return err
}

func (r *txRepo) InsertProduct(ctx context.Context, product catalog.Product) (int64, error) {
	return r.products.Insert(ctx, product)
}

func (r *txRepo) FindProduct(ctx context.Context, id int64) (catalog.Product, error) {
	return r.products.FindByID(ctx, id)
}

func (r *txRepo) UpdateProduct(ctx context.Context, product catalog.Product) error {
	return r.products.Update(ctx, product)
}

// ListHeaders returns the most recent headers of one kind.
func (r *Repository) ListHeaders(ctx context.Context, kind Kind, limit int) ([]Header, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx,
		`SELECT id, total, created_at, updated_at FROM `+headerTable(kind)+` ORDER BY id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var headers []Header
	for rows.Next() {
		h := Header{Kind: kind}
		if err := rows.Scan(&h.ID, &h.Total, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, err
		}
		headers = append(headers, h)
	}
	return headers, rows.Err()
}

// FindHeader returns one stored header row or ErrHeaderNotFound.
func (r *Repository) FindHeader(ctx context.Context, kind Kind, headerID int64) (Header, error) {
	h := Header{Kind: kind}
	err := r.pool.QueryRow(ctx,
		`SELECT id, total, created_at, updated_at FROM `+headerTable(kind)+` WHERE id = $1`,
		headerID,
	).Scan(&h.ID, &h.Total, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Header{}, ErrHeaderNotFound
		}
		return Header{}, err
	}
	return h, nil
}

// HeaderLines returns all lines of one header, in insertion order.
func (r *Repository) HeaderLines(ctx context.Context, kind Kind, headerID int64) ([]Line, error) {
	table, headerColumn := lineTable(kind)
	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, `+headerColumn+`, price, quantity, total, created_at
		 FROM `+table+` WHERE `+headerColumn+` = $1 ORDER BY id`,
		headerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var l Line
		if err := rows.Scan(&l.ID, &l.ProductID, &l.HeaderID, &l.Price, &l.Quantity, &l.Total, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
