package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/balcao-pos/balcao/internal/shared"
)

// RepositoryPort abstracts operator lookup for the service.
type RepositoryPort interface {
	FindByLogin(ctx context.Context, login string) (*Operator, error)
}

// Service wraps authentication business rules.
type Service struct {
	repo RepositoryPort
}

// NewService constructs a new Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Authenticate validates login/password credentials.
func (s *Service) Authenticate(ctx context.Context, login, password string) (*Operator, error) {
	operator, err := s.repo.FindByLogin(ctx, login)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !operator.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(operator.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return operator, nil
}
