package catalog

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	products    map[int64]Product
	nextID      int64
	nameQueries int
	eanQueries  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{products: make(map[int64]Product), nextID: 1}
}

func (s *fakeStore) Insert(ctx context.Context, product Product) (int64, error) {
	product.ID = s.nextID
	s.nextID++
	s.products[product.ID] = product
	return product.ID, nil
}

func (s *fakeStore) Update(ctx context.Context, product Product) error {
	if _, ok := s.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	s.products[product.ID] = product
	return nil
}

func (s *fakeStore) FindByID(ctx context.Context, id int64) (Product, error) {
	p, ok := s.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (s *fakeStore) List(ctx context.Context, limit, offset int) ([]Product, error) {
	var out []Product
	for _, p := range s.products {
		out = append(out, p)
	}
	return out, nil
}

func (s *fakeStore) SearchByName(ctx context.Context, name string, limit int) ([]Product, error) {
	s.nameQueries++
	var out []Product
	for _, p := range s.products {
		if p.Quantity > 0 && strings.Contains(foldTerm(p.Name), foldTerm(name)) {
			out = append(out, p)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) SearchByEAN(ctx context.Context, ean string, limit int) ([]Product, error) {
	s.eanQueries++
	var out []Product
	for _, p := range s.products {
		if p.Quantity > 0 && p.EAN != nil && *p.EAN == ean {
			out = append(out, p)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := newFakeStore()
	return NewService(store, NewSearchCache(client, time.Minute), nil), store
}

func TestCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, Product{Name: "Café torrado", PriceSale: 1890, PricePurchase: 1250, Quantity: 10})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Café torrado", got.Name)
	require.Equal(t, int64(1890), got.PriceSale)
}

func TestCreateRejectsInvalidProduct(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "   ", PriceSale: 100})
	require.Error(t, err)

	_, err = svc.Create(ctx, Product{Name: "Leite", PriceSale: -1})
	require.Error(t, err)

	_, err = svc.Create(ctx, Product{Name: "Leite", Quantity: -5})
	require.Error(t, err)
}

func TestUpdateUnknownProduct(t *testing.T) {
	svc, _ := newTestService(t)
	err := svc.Update(context.Background(), Product{ID: 999, Name: "Fantasma", PriceSale: 100})
	require.ErrorIs(t, err, ErrProductNotFound)
}

func TestSearchByNameCachesResults(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "Café torrado", PriceSale: 1890, Quantity: 10})
	require.NoError(t, err)
	store.nameQueries = 0

	first, err := svc.SearchByName(ctx, "café", 10)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, store.nameQueries)

	// Accent and case variants of the same term resolve to the same entry.
	second, err := svc.SearchByName(ctx, "CAFE", 10)
	require.NoError(t, err)
	require.Len(t, second, 1)
	require.Equal(t, 1, store.nameQueries)
}

func TestSearchResultsIndependentOfCacheState(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "Café torrado", PriceSale: 1890, Quantity: 10})
	require.NoError(t, err)

	// Warm the cache with the accented spelling, then hit it with the plain one.
	warm, err := svc.SearchByName(ctx, "café", 10)
	require.NoError(t, err)
	hit, err := svc.SearchByName(ctx, "cafe", 10)
	require.NoError(t, err)

	// A service over the same store with an empty cache must agree.
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	cold := NewService(store, NewSearchCache(client, time.Minute), nil)
	miss, err := cold.SearchByName(ctx, "cafe", 10)
	require.NoError(t, err)

	require.Len(t, warm, 1)
	require.Equal(t, len(hit), len(miss))
	require.Len(t, miss, 1)
}

func TestInvalidateSearchesDropsCache(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, Product{Name: "Arroz branco", PriceSale: 2790, Quantity: 5})
	require.NoError(t, err)
	store.nameQueries = 0

	_, err = svc.SearchByName(ctx, "arroz", 10)
	require.NoError(t, err)
	require.Equal(t, 1, store.nameQueries)

	svc.InvalidateSearches(ctx)

	_, err = svc.SearchByName(ctx, "arroz", 10)
	require.NoError(t, err)
	require.Equal(t, 2, store.nameQueries)
}

func TestSearchByEAN(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ean := "7891000100103"
	_, err := svc.Create(ctx, Product{Name: "Café torrado", EAN: &ean, PriceSale: 1890, Quantity: 10})
	require.NoError(t, err)

	found, err := svc.SearchByEAN(ctx, ean, 10)
	require.NoError(t, err)
	require.Len(t, found, 1)

	none, err := svc.SearchByEAN(ctx, "0000000000000", 10)
	require.NoError(t, err)
	require.Empty(t, none)
}
