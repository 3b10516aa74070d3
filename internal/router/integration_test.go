//go:build integration

package router

// Integration tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./internal/router/... -v

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"stockledger/internal/config"
	"stockledger/internal/dto"
	"stockledger/internal/infra"
	"stockledger/internal/repository"
	"stockledger/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"gorm.io/gorm"
)

type pgEnv struct {
	*api
	db *gorm.DB
}

func setupPostgres(t *testing.T) *pgEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		tcPostgres.WithDatabase("stockledger_test"),
		tcPostgres.WithUsername("stockledger"),
		tcPostgres.WithPassword("stockledger"),
		testcontainers.WithWaitStrategy(tcPostgres.BasicWaitStrategies()...),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })
	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })
	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Env:                   "test",
		JWTSecret:             secret,
		JWTExpirationHours:    1,
		DatabaseURL:           pgURL,
		RedisURL:              rdURL,
		TxTimeoutSeconds:      10,
		ReportCacheTTLSeconds: 300,
		ReportTimezone:        "UTC",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)
	require.NoError(t, infra.RunMigrations(db), "schema must be re-runnable")
	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	cache := infra.NewReportCache(rdb, cfg.ReportCacheTTL())
	svcs := NewServices(cfg, repository.NewStore(db), cache, worker.NewDispatcher(rdb))

	return &pgEnv{
		api: &api{t: t, engine: New(cfg, svcs, db, rdb, nil, nil)},
		db:  db,
	}
}

// ownerToken registers a fresh owner (products reference owners by FK) and
// logs in through the API.
func (e *pgEnv) ownerToken(t *testing.T) string {
	t.Helper()
	email := uuid.NewString() + "@example.com"
	w := e.do(http.MethodPost, "/v1/auth/register", "", dto.RegisterRequest{Email: email, Name: "Shop", Password: "integration-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = e.do(http.MethodPost, "/v1/auth/login", "", dto.LoginRequest{Email: email, Password: "integration-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[dto.LoginResponse](t, w).AccessToken
}

func TestIntegration_SaleCycle(t *testing.T) {
	env := setupPostgres(t)
	tok := env.ownerToken(t)

	w := env.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/v1/products", tok, map[string]interface{}{
		"name": "Widget", "cost_price": "100.00", "selling_price": "150.00", "stock": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[dto.CreateProductResponse](t, w).ID

	// Prime the report cache, then sell: the next read must see the sale.
	w = env.do(http.MethodGet, "/v1/reports/daily", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = env.do(http.MethodPost, "/v1/sales", tok, map[string]interface{}{
		"product_id": id, "quantity": 3, "total_selling_price": "450.00",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.True(t, decode[dto.RecordSaleResponse](t, w).ProfitLoss.Equal(decimal.RequireFromString("150")))

	w = env.do(http.MethodGet, "/v1/reports/daily", tok, nil)
	totals := decode[[]dto.DailyTotal](t, w)
	require.Len(t, totals, 1)
	assert.True(t, totals[0].TotalSales.Equal(decimal.RequireFromString("450")))

	w = env.do(http.MethodPost, "/v1/sales", tok, map[string]interface{}{
		"product_id": id, "quantity": 8, "total_selling_price": "1200.00",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Deleting the product keeps the ledger and its snapshot name.
	require.Equal(t, http.StatusNoContent, env.do(http.MethodDelete, "/v1/products/"+id, tok, nil).Code)
	w = env.do(http.MethodGet, "/v1/reports/daily/"+time.Now().UTC().Format("2006-01-02"), tok, nil)
	rows := decode[[]dto.SaleRow](t, w)
	require.Len(t, rows, 1)
	assert.Equal(t, "Widget", rows[0].ProductName)
}

func TestIntegration_ConcurrentSalesNeverOversell(t *testing.T) {
	env := setupPostgres(t)
	tok := env.ownerToken(t)

	w := env.do(http.MethodPost, "/v1/products", tok, map[string]interface{}{"name": "Hot item", "cost_price": "1", "stock": 5})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[dto.CreateProductResponse](t, w).ID

	const buyers = 25
	codes := make([]int, buyers)
	var wg sync.WaitGroup
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			codes[i] = env.do(http.MethodPost, "/v1/sales", tok, map[string]interface{}{
				"product_id": id, "quantity": 1, "total_selling_price": "2",
			}).Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, c := range codes {
		switch c {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", c)
		}
	}
	assert.Equal(t, 5, created)

	w = env.do(http.MethodGet, "/v1/products/"+id, tok, nil)
	assert.Equal(t, 0, decode[dto.ProductResponse](t, w).Stock)

	var count int64
	require.NoError(t, env.db.Table("sales").Where("product_id = ?", id).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestIntegration_StockCheckConstraint(t *testing.T) {
	env := setupPostgres(t)
	tok := env.ownerToken(t)

	w := env.do(http.MethodPost, "/v1/products", tok, map[string]interface{}{"name": "Widget", "stock": 1})
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[dto.CreateProductResponse](t, w).ID

	err := env.db.Exec("UPDATE products SET stock_units = -1 WHERE id = ?", id).Error
	assert.Error(t, err)
}

func TestIntegration_ValuesBeyondColumnRangeAreUnprocessable(t *testing.T) {
	env := setupPostgres(t)
	tok := env.ownerToken(t)

	w := env.do(http.MethodPost, "/v1/products", tok, map[string]interface{}{
		"name": "Warehouse", "cost_price": "1.00", "stock": int64(1) << 40,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = env.do(http.MethodPost, "/v1/products", tok, map[string]interface{}{
		"name": "Ingot", "cost_price": "9999999999.99", "stock": 5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode[dto.CreateProductResponse](t, w).ID

	w = env.do(http.MethodPost, "/v1/sales", tok, map[string]interface{}{
		"product_id": id, "quantity": 2, "total_selling_price": "1.00",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w = env.do(http.MethodGet, "/v1/products/"+id, tok, nil)
	assert.Equal(t, 5, decode[dto.ProductResponse](t, w).Stock)
}
