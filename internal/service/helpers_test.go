package service

import (
	"context"
	"testing"
	"time"

	"stockledger/internal/dto"
	"stockledger/internal/infra"
	"stockledger/internal/repository"
	"stockledger/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// testClock hands out increasing timestamps so ledger order is deterministic.
type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }
func (c *testClock) Set(t time.Time) { c.t = t }

type env struct {
	store    *memory.Store
	products *productService
	sales    *saleService
	reports  *reportService
	clock    *testClock
	owner    uuid.UUID
}

func newEnv(t *testing.T) *env {
	return newEnvWith(t, memory.New(), nil, time.UTC)
}

func newEnvWith(t *testing.T, store *memory.Store, cache *infra.ReportCache, loc *time.Location) *env {
	t.Helper()
	clock := &testClock{t: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}

	products := NewProductService(store).(*productService)
	products.now = clock.Now
	sales := NewSaleService(store, 5*time.Second).(*saleService)
	sales.now = clock.Now
	reports := NewReportService(store, cache, nil, loc).(*reportService)

	return &env{
		store:    store,
		products: products,
		sales:    sales,
		reports:  reports,
		clock:    clock,
		owner:    uuid.New(),
	}
}

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (e *env) createProduct(t *testing.T, name, cost string, stock int) uuid.UUID {
	t.Helper()
	resp, err := e.products.Create(context.Background(), e.owner, dto.CreateProductRequest{
		Name:      name,
		CostPrice: dec(cost),
		Stock:     intPtr(stock),
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (e *env) sell(t *testing.T, productID uuid.UUID, qty int, total string) *dto.RecordSaleResponse {
	t.Helper()
	resp, err := e.sales.RecordSale(context.Background(), e.owner, dto.RecordSaleRequest{
		ProductID:         productID.String(),
		Quantity:          qty,
		TotalSellingPrice: dec(total),
	})
	require.NoError(t, err)
	return resp
}

func (e *env) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	p, err := e.store.Products().FindByID(context.Background(), e.owner, productID)
	require.NoError(t, err)
	return p.StockUnits
}

func (e *env) saleCount(t *testing.T) int {
	t.Helper()
	sales, err := e.store.Sales().ListRecent(context.Background(), e.owner, 500)
	require.NoError(t, err)
	return len(sales)
}

// ── store decorators used to force races ─────────────────────────────────────

// racingStore simulates a competing writer that takes all remaining stock
// between the locked read and the conditional decrement.
type racingStore struct{ repository.Store }

func (r racingStore) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return r.Store.WithTx(ctx, func(tx repository.Store) error {
		return fn(racingTx{tx})
	})
}

type racingTx struct{ repository.Store }

func (r racingTx) Products() repository.ProductRepository {
	return racingProducts{r.Store.Products()}
}

type racingProducts struct{ repository.ProductRepository }

func (p racingProducts) DecrementStock(ctx context.Context, ownerID, id uuid.UUID, qty int) (bool, error) {
	cur, err := p.FindByID(ctx, ownerID, id)
	if err != nil {
		return false, err
	}
	if _, err := p.AdjustStock(ctx, ownerID, id, -cur.StockUnits); err != nil {
		return false, err
	}
	return p.ProductRepository.DecrementStock(ctx, ownerID, id, qty)
}

type fakeQueue struct {
	payloads []map[string]interface{}
	err      error
}

func (q *fakeQueue) EnqueueReportEmail(_ context.Context, payload map[string]interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}
