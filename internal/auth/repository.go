package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/balcao-pos/balcao/internal/shared"
)

// Operator is a person allowed to use the register.
type Operator struct {
	ID           int64
	Name         string
	Login        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}

// Repository loads operators from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByLogin returns the operator for a login name.
func (r *Repository) FindByLogin(ctx context.Context, login string) (*Operator, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, login, password_hash, is_active, created_at FROM operator WHERE login = $1`,
		login,
	)
	var op Operator
	if err := row.Scan(&op.ID, &op.Name, &op.Login, &op.PasswordHash, &op.IsActive, &op.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &op, nil
}
