package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/balcao-pos/balcao/internal/catalog"
)

type memoryState struct {
	products map[int64]catalog.Product
	headers  map[Kind][]Header
	lines    map[Kind][]Line
	nextID   int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		products: make(map[int64]catalog.Product),
		headers:  make(map[Kind][]Header),
		lines:    make(map[Kind][]Line),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	c.nextID = s.nextID
	for id, p := range s.products {
		c.products[id] = p
	}
	for kind, hs := range s.headers {
		c.headers[kind] = append([]Header(nil), hs...)
	}
	for kind, ls := range s.lines {
		c.lines[kind] = append([]Line(nil), ls...)
	}
	return c
}

// memoryRepo mimics the store's commit/rollback contract: the callback runs
// against a copy of the state that only replaces the original on success.
type memoryRepo struct {
	state *memoryState
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{state: newMemoryState()}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	working := r.state.clone()
	if err := fn(ctx, &memoryTx{state: working}); err != nil {
		return err
	}
	r.state = working
	return nil
}

func (r *memoryRepo) ListHeaders(ctx context.Context, kind Kind, limit int) ([]Header, error) {
	return append([]Header(nil), r.state.headers[kind]...), nil
}

func (r *memoryRepo) FindHeader(ctx context.Context, kind Kind, headerID int64) (Header, error) {
	for _, h := range r.state.headers[kind] {
		if h.ID == headerID {
			return h, nil
		}
	}
	return Header{}, ErrHeaderNotFound
}

func (r *memoryRepo) HeaderLines(ctx context.Context, kind Kind, headerID int64) ([]Line, error) {
	var lines []Line
	for _, l := range r.state.lines[kind] {
		if l.HeaderID == headerID {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

func (r *memoryRepo) seedProduct(p catalog.Product) int64 {
	r.state.nextID++
	p.ID = r.state.nextID
	r.state.products[p.ID] = p
	return p.ID
}

func (r *memoryRepo) product(t *testing.T, id int64) catalog.Product {
	t.Helper()
	p, ok := r.state.products[id]
	require.True(t, ok, "product %d missing", id)
	return p
}

type memoryTx struct {
	state *memoryState
}

func (tx *memoryTx) InsertHeader(ctx context.Context, kind Kind, total int64, at time.Time) (int64, error) {
	tx.state.nextID++
	tx.state.headers[kind] = append(tx.state.headers[kind], Header{ID: tx.state.nextID, Kind: kind, Total: total, CreatedAt: at})
	return tx.state.nextID, nil
}

func (tx *memoryTx) InsertLine(ctx context.Context, kind Kind, line Line) error {
	tx.state.nextID++
	line.ID = tx.state.nextID
	tx.state.lines[kind] = append(tx.state.lines[kind], line)
	return nil
}

func (tx *memoryTx) InsertProduct(ctx context.Context, product catalog.Product) (int64, error) {
	tx.state.nextID++
	product.ID = tx.state.nextID
	tx.state.products[product.ID] = product
	return product.ID, nil
}

func (tx *memoryTx) FindProduct(ctx context.Context, id int64) (catalog.Product, error) {
	if p, ok := tx.state.products[id]; ok {
		return p, nil
	}
	return catalog.Product{}, catalog.ErrProductNotFound
}

func (tx *memoryTx) UpdateProduct(ctx context.Context, product catalog.Product) error {
	tx.state.products[product.ID] = product
	return nil
}

func TestPostPurchaseExistingProduct(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "Feijão", Quantity: 10, PricePurchase: 500, PriceSale: 800})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	headerID, err := svc.Post(ctx, KindPurchase, []LineInput{
		{ProductID: id, Quantity: 5, PricePurchase: 600, PriceSale: 800},
	})
	require.NoError(t, err)

	headers, err := repo.ListHeaders(ctx, KindPurchase, 10)
	require.NoError(t, err)
	require.Len(t, headers, 1)
	require.Equal(t, int64(3000), headers[0].Total)

	product := repo.product(t, id)
	require.Equal(t, int64(15), product.Quantity)
	require.Equal(t, int64(600), product.PricePurchase)
	require.Equal(t, int64(800), product.PriceSale)

	lines, err := repo.HeaderLines(ctx, KindPurchase, headerID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	require.Equal(t, int64(600), lines[0].Price)
	require.Equal(t, int64(5), lines[0].Quantity)
	require.Equal(t, int64(3000), lines[0].Total)
}

func TestPostPurchaseNewProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	headerID, err := svc.Post(context.Background(), KindPurchase, []LineInput{
		{ProductID: 0, Name: "Café", Quantity: 12, PricePurchase: 1100, PriceSale: 1790},
	})
	require.NoError(t, err)

	lines, err := repo.HeaderLines(context.Background(), KindPurchase, headerID)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	product := repo.product(t, lines[0].ProductID)
	require.Equal(t, "Café", product.Name)
	require.Equal(t, int64(12), product.Quantity)
	require.Equal(t, int64(1100), product.PricePurchase)
}

func TestPostSaleInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "Arroz", Quantity: 2, PriceSale: 700})
	svc := NewService(repo, nil, nil)

	_, err := svc.Post(context.Background(), KindSale, []LineInput{
		{ProductID: id, Quantity: 3, PriceSale: 700},
	})
	require.ErrorAs(t, err, &InsufficientStockError{})
	require.Equal(t, InsufficientStockError{ProductID: id}, err)

	// Nothing committed: quantity untouched, no header.
	require.Equal(t, int64(2), repo.product(t, id).Quantity)
	headers, err := repo.ListHeaders(context.Background(), KindSale, 10)
	require.NoError(t, err)
	require.Empty(t, headers)
}

func TestPostSaleAtomicRollback(t *testing.T) {
	repo := newMemoryRepo()
	a := repo.seedProduct(catalog.Product{Name: "A", Quantity: 10, PriceSale: 100})
	b := repo.seedProduct(catalog.Product{Name: "B", Quantity: 1, PriceSale: 200})
	c := repo.seedProduct(catalog.Product{Name: "C", Quantity: 10, PriceSale: 300})
	svc := NewService(repo, nil, nil)

	_, err := svc.Post(context.Background(), KindSale, []LineInput{
		{ProductID: a, Quantity: 2, PriceSale: 100},
		{ProductID: b, Quantity: 5, PriceSale: 200},
		{ProductID: c, Quantity: 1, PriceSale: 300},
	})
	require.ErrorAs(t, err, &InsufficientStockError{})

	// Line 1 already executed inside the unit of work; its effect must not
	// be visible after rollback, and no header or line rows may exist.
	require.Equal(t, int64(10), repo.product(t, a).Quantity)
	require.Equal(t, int64(1), repo.product(t, b).Quantity)
	require.Equal(t, int64(10), repo.product(t, c).Quantity)
	headers, err := repo.ListHeaders(context.Background(), KindSale, 10)
	require.NoError(t, err)
	require.Empty(t, headers)
	require.Empty(t, repo.state.lines[KindSale])
}

func TestPostNotFoundRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	a := repo.seedProduct(catalog.Product{Name: "A", Quantity: 4, PricePurchase: 100})
	svc := NewService(repo, nil, nil)

	_, err := svc.Post(context.Background(), KindPurchase, []LineInput{
		{ProductID: a, Quantity: 1, PricePurchase: 100},
		{ProductID: 9999, Quantity: 1, PricePurchase: 100},
	})
	require.ErrorAs(t, err, &NotFoundError{})
	require.Equal(t, NotFoundError{ProductID: 9999}, err)
	require.Equal(t, int64(4), repo.product(t, a).Quantity)
	headers, err := repo.ListHeaders(context.Background(), KindPurchase, 10)
	require.NoError(t, err)
	require.Empty(t, headers)
}

func TestPostingTwiceIsNotDeduplicated(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "A", Quantity: 0, PricePurchase: 100})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	batch := []LineInput{{ProductID: id, Quantity: 5, PricePurchase: 100}}
	_, err := svc.Post(ctx, KindPurchase, batch)
	require.NoError(t, err)
	_, err = svc.Post(ctx, KindPurchase, batch)
	require.NoError(t, err)

	require.Equal(t, int64(10), repo.product(t, id).Quantity)
	headers, err := repo.ListHeaders(ctx, KindPurchase, 10)
	require.NoError(t, err)
	require.Len(t, headers, 2)
}

func TestDuplicateProductLinesCompoundInOrder(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "A", Quantity: 5, PriceSale: 100})
	svc := NewService(repo, nil, nil)

	// 5 - 3 - 2 = 0: legal only because each line sees the previous effect.
	_, err := svc.Post(context.Background(), KindSale, []LineInput{
		{ProductID: id, Quantity: 3, PriceSale: 100},
		{ProductID: id, Quantity: 2, PriceSale: 100},
	})
	require.NoError(t, err)
	require.Equal(t, int64(0), repo.product(t, id).Quantity)

	// One more unit is rejected in full.
	_, err = svc.Post(context.Background(), KindSale, []LineInput{
		{ProductID: id, Quantity: 1, PriceSale: 100},
	})
	require.ErrorAs(t, err, &InsufficientStockError{})
	require.Equal(t, int64(0), repo.product(t, id).Quantity)
}

func TestSaleOfUnregisteredProductRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	_, err := svc.Post(context.Background(), KindSale, []LineInput{
		{ProductID: 0, Name: "Fantasma", Quantity: 1, PriceSale: 100},
	})
	require.ErrorIs(t, err, ErrUnknownProduct)

	headers, err := repo.ListHeaders(context.Background(), KindSale, 10)
	require.NoError(t, err)
	require.Empty(t, headers)
}

func TestSaleUpdatesOnlySalePrice(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "A", Quantity: 10, PriceSale: 800, PricePurchase: 500})
	svc := NewService(repo, nil, nil)

	_, err := svc.Post(context.Background(), KindSale, []LineInput{
		{ProductID: id, Quantity: 1, PriceSale: 900, PricePurchase: 0},
	})
	require.NoError(t, err)

	product := repo.product(t, id)
	require.Equal(t, int64(900), product.PriceSale)
	require.Equal(t, int64(500), product.PricePurchase)
}

func TestHeaderReturnsStoredRow(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "Café", Quantity: 10, PricePurchase: 500})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	headerID, err := svc.Post(ctx, KindPurchase, []LineInput{
		{ProductID: id, Quantity: 5, PricePurchase: 600},
	})
	require.NoError(t, err)

	header, lines, err := svc.Header(ctx, KindPurchase, headerID)
	require.NoError(t, err)
	require.Equal(t, int64(3000), header.Total)
	require.False(t, header.CreatedAt.IsZero())
	require.Len(t, lines, 1)

	_, _, err = svc.Header(ctx, KindPurchase, headerID+100)
	require.ErrorIs(t, err, ErrHeaderNotFound)
}

func TestBatchValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Post(ctx, KindPurchase, nil)
	require.ErrorIs(t, err, ErrEmptyBatch)

	_, err = svc.Post(ctx, KindPurchase, []LineInput{{ProductID: 1, Quantity: 0, PricePurchase: 100}})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.Post(ctx, KindPurchase, []LineInput{{ProductID: 1, Quantity: 1, PricePurchase: -1}})
	require.ErrorIs(t, err, ErrInvalidPrice)

	_, err = svc.Post(ctx, Kind("REFUND"), []LineInput{{ProductID: 1, Quantity: 1}})
	require.ErrorIs(t, err, ErrInvalidKind)
}

func TestStockNeverNegativeAcrossSequence(t *testing.T) {
	repo := newMemoryRepo()
	id := repo.seedProduct(catalog.Product{Name: "A", Quantity: 0, PriceSale: 100, PricePurchase: 80})
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	steps := []struct {
		kind Kind
		qty  int64
		ok   bool
	}{
		{KindPurchase, 5, true},
		{KindSale, 3, true},
		{KindSale, 3, false},
		{KindPurchase, 1, true},
		{KindSale, 3, true},
		{KindSale, 1, false},
	}
	for i, step := range steps {
		_, err := svc.Post(ctx, step.kind, []LineInput{{ProductID: id, Quantity: step.qty, PriceSale: 100, PricePurchase: 80}})
		if step.ok {
			require.NoError(t, err, "step %d", i)
		} else {
			require.Error(t, err, "step %d", i)
		}
		require.GreaterOrEqual(t, repo.product(t, id).Quantity, int64(0), "step %d", i)
	}
}
