package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/balcao-pos/balcao/internal/shared"
)

// StorePort abstracts product persistence for the service.
type StorePort interface {
	Insert(ctx context.Context, product Product) (int64, error)
	Update(ctx context.Context, product Product) error
	FindByID(ctx context.Context, id int64) (Product, error)
	List(ctx context.Context, limit, offset int) ([]Product, error)
	SearchByName(ctx context.Context, name string, limit int) ([]Product, error)
	SearchByEAN(ctx context.Context, ean string, limit int) ([]Product, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates catalog operations.
type Service struct {
	store  StorePort
	cache  *SearchCache
	audit  AuditPort
	flight singleflight.Group
}

// NewService builds Service. cache and audit may be nil.
func NewService(store StorePort, cache *SearchCache, audit AuditPort) *Service {
	return &Service{store: store, cache: cache, audit: audit}
}

// Get returns one product by id.
func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, ErrProductNotFound
	}
	return s.store.FindByID(ctx, id)
}

// List returns a page of the catalog ordered by name.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.List(ctx, limit, offset)
}

// Create registers a product directly, outside any posting.
func (s *Service) Create(ctx context.Context, product Product) (Product, error) {
	if err := validateProduct(product); err != nil {
		return Product{}, err
	}
	id, err := s.store.Insert(ctx, product)
	if err != nil {
		return Product{}, fmt.Errorf("catalog: insert product: %w", err)
	}
	product.ID = id
	s.recordAudit(ctx, "catalog:create", product)
	s.invalidateSearches(ctx)
	return product, nil
}

// Update rewrites an existing product.
func (s *Service) Update(ctx context.Context, product Product) error {
	if product.ID <= 0 {
		return ErrProductNotFound
	}
	if err := validateProduct(product); err != nil {
		return err
	}
	if _, err := s.store.FindByID(ctx, product.ID); err != nil {
		return err
	}
	if err := s.store.Update(ctx, product); err != nil {
		return fmt.Errorf("catalog: update product: %w", err)
	}
	s.recordAudit(ctx, "catalog:update", product)
	s.invalidateSearches(ctx)
	return nil
}

// SearchByName finds in-stock products by substring. Results are cached
// briefly and concurrent identical searches are collapsed.
func (s *Service) SearchByName(ctx context.Context, name string, limit int) ([]Product, error) {
	if limit <= 0 || limit > 10 {
		limit = 10
	}
	key := searchKey("name", foldTerm(name), limit)
	if products, ok := s.cache.Get(ctx, key); ok {
		return products, nil
	}
	result, err, _ := s.flight.Do(key, func() (any, error) {
		products, err := s.store.SearchByName(ctx, name, limit)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Product), nil
}

// SearchByEAN finds products by exact barcode.
func (s *Service) SearchByEAN(ctx context.Context, ean string, limit int) ([]Product, error) {
	if limit <= 0 || limit > 10 {
		limit = 10
	}
	key := searchKey("ean", strings.TrimSpace(ean), limit)
	if products, ok := s.cache.Get(ctx, key); ok {
		return products, nil
	}
	result, err, _ := s.flight.Do(key, func() (any, error) {
		products, err := s.store.SearchByEAN(ctx, ean, limit)
		if err != nil {
			return nil, err
		}
		s.cache.Set(ctx, key, products)
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Product), nil
}

// InvalidateSearches drops cached search results after stock changes.
func (s *Service) InvalidateSearches(ctx context.Context) {
	s.invalidateSearches(ctx)
}

func (s *Service) invalidateSearches(ctx context.Context) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx)
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, product Product) {
	if s.audit == nil {
		return
	}
	sess := shared.SessionFromContext(ctx)
	var actor int64
	if sess != nil {
		actor = sess.OperatorID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor,
		Action:   action,
		Entity:   "product",
		EntityID: strconv.FormatInt(product.ID, 10),
		Meta: map[string]any{
			"name":     product.Name,
			"quantity": product.Quantity,
		},
	})
}

func validateProduct(p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("catalog: product name is required")
	}
	if p.PriceSale < 0 || p.PricePurchase < 0 {
		return errors.New("catalog: prices must be >= 0")
	}
	if p.Quantity < 0 {
		return errors.New("catalog: quantity must be >= 0")
	}
	return nil
}

func searchKey(field, term string, limit int) string {
	return "balcao:catalog:search:" + field + ":" + term + ":" + strconv.Itoa(limit)
}
