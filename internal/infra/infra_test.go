package infra

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"stockledger/internal/dto"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	cases := map[string]string{
		"0":          "0.00",
		"150":        "150.00",
		"12345.5":    "12,345.50",
		"-300.25":    "-300.25",
		"-0.5":       "-0.50",
		"1234567.89": "1,234,567.89",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatAmount(decimal.RequireFromString(in)), in)
	}
}

func TestRenderDailyReportPDF(t *testing.T) {
	report := &dto.DailyReport{
		OwnerName: "Corner Shop",
		Date:      "2024-03-10",
		Rows: []dto.SaleRow{{
			ID:                uuid.NewString(),
			ProductName:       "Widget",
			Quantity:          3,
			TotalSellingPrice: decimal.NewFromInt(450),
			ProfitLoss:        decimal.NewFromInt(150),
			CreatedAt:         time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
		}},
		TotalSales:      decimal.NewFromInt(450),
		TotalProfitLoss: decimal.NewFromInt(150),
	}

	out, err := RenderDailyReportPDF(report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	path, err := SaveReportPDF(out, t.TempDir(), "owner", report.Date)
	require.NoError(t, err)
	assert.Contains(t, path, "report_2024-03-10_owner.pdf")
}

func TestRenderDailyReportPDF_NoRows(t *testing.T) {
	out, err := RenderDailyReportPDF(&dto.DailyReport{Date: "2024-03-11"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRelayBreaker_ParksAndRecovers(t *testing.T) {
	b := newRelayBreaker(2, 2, time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	down := errors.New("smtp down")
	assert.ErrorIs(t, b.do(func() error { return down }), down)
	assert.Equal(t, "closed", b.state())
	assert.ErrorIs(t, b.do(func() error { return down }), down)
	assert.Equal(t, "open", b.state())

	dialed := false
	assert.ErrorIs(t, b.do(func() error { dialed = true; return nil }), ErrRelayUnavailable)
	assert.False(t, dialed)

	// A failed trial starts a new cooldown.
	now = now.Add(time.Minute)
	assert.Equal(t, "half-open", b.state())
	assert.ErrorIs(t, b.do(func() error { return down }), down)
	assert.Equal(t, "open", b.state())

	now = now.Add(time.Minute)
	require.NoError(t, b.do(func() error { return nil }))
	assert.Equal(t, "half-open", b.state())
	require.NoError(t, b.do(func() error { return nil }))
	assert.Equal(t, "closed", b.state())
}

func TestRelayBreaker_SuccessResetsFailureRun(t *testing.T) {
	b := newRelayBreaker(2, 1, time.Minute)
	down := errors.New("smtp down")

	assert.Error(t, b.do(func() error { return down }))
	require.NoError(t, b.do(func() error { return nil }))
	assert.Error(t, b.do(func() error { return down }))
	assert.Equal(t, "closed", b.state())
}

func TestReportCache_StampSeparatesEntries(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewReportCache(rdb, time.Minute)
	ctx := context.Background()
	owner := uuid.New()

	key := cache.Key("daily", owner, "2024", "n1.t100")
	assert.Equal(t, "report:daily:"+owner.String()+":2024:n1.t100", key)
	require.NoError(t, cache.Set(ctx, key, []string{"cached"}))
	assert.Equal(t, time.Minute, mr.TTL(key))

	var got []string
	found, err := cache.Get(ctx, key, &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"cached"}, got)

	next := cache.Key("daily", owner, "2024", "n2.t200")
	assert.NotEqual(t, key, next)
	found, err = cache.Get(ctx, next, &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReportCache_DisabledWithoutClient(t *testing.T) {
	cache := NewReportCache(nil, time.Minute)
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	require.NoError(t, cache.Set(ctx, "k", 1))
	var v int
	found, err := cache.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}
