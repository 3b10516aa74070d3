package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProduct(t *testing.T, s *Store, owner uuid.UUID, name string, stock int) *model.Product {
	t.Helper()
	p := &model.Product{
		OwnerID:    owner,
		Name:       name,
		CostPrice:  decimal.NewFromInt(100),
		StockUnits: stock,
	}
	require.NoError(t, s.Products().Create(context.Background(), p))
	return p
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	s := New()
	owner := uuid.New()
	p := seedProduct(t, s, owner, "Widget", 5)

	boom := errors.New("boom")
	err := s.WithTx(context.Background(), func(tx repository.Store) error {
		ok, err := tx.Products().DecrementStock(context.Background(), owner, p.ID, 2)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, tx.Sales().Create(context.Background(), &model.Sale{OwnerID: owner, ProductID: p.ID, Quantity: 2}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Products().FindByID(context.Background(), owner, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.StockUnits)

	sales, err := s.Sales().ListRecent(context.Background(), owner, 10)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	s := New()
	owner := uuid.New()
	p := seedProduct(t, s, owner, "Widget", 5)

	err := s.WithTx(context.Background(), func(tx repository.Store) error {
		_, err := tx.Products().DecrementStock(context.Background(), owner, p.ID, 2)
		return err
	})
	require.NoError(t, err)

	got, _ := s.Products().FindByID(context.Background(), owner, p.ID)
	assert.Equal(t, 3, got.StockUnits)
}

func TestWithTx_CancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(tx repository.Store) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, apierror.ErrPersistence)
	assert.False(t, called)
}

func TestDecrementStock_NeverGoesNegative(t *testing.T) {
	s := New()
	owner := uuid.New()
	p := seedProduct(t, s, owner, "Widget", 3)

	ok, err := s.Products().DecrementStock(context.Background(), owner, p.ID, 4)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.Products().DecrementStock(context.Background(), owner, p.ID, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	got, _ := s.Products().FindByID(context.Background(), owner, p.ID)
	assert.Equal(t, 0, got.StockUnits)
}

func TestOwnerScoping(t *testing.T) {
	s := New()
	alice, bob := uuid.New(), uuid.New()
	p := seedProduct(t, s, alice, "Widget", 3)

	_, err := s.Products().FindByID(context.Background(), bob, p.ID)
	assert.ErrorIs(t, err, apierror.ErrNotFound)

	assert.ErrorIs(t, s.Products().Delete(context.Background(), bob, p.ID), apierror.ErrNotFound)

	ok, err := s.Products().AdjustStock(context.Background(), bob, p.ID, 10)
	require.NoError(t, err)
	assert.False(t, ok)

	list, err := s.Products().List(context.Background(), bob)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestList_SortedByName(t *testing.T) {
	s := New()
	owner := uuid.New()
	seedProduct(t, s, owner, "Tomato", 1)
	seedProduct(t, s, owner, "Apple", 1)
	seedProduct(t, s, owner, "Milk", 1)

	list, err := s.Products().List(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []string{"Apple", "Milk", "Tomato"}, []string{list[0].Name, list[1].Name, list[2].Name})
}

func TestListBetween_UsesLiveNameAndFallsBackToSnapshot(t *testing.T) {
	s := New()
	owner := uuid.New()
	kept := seedProduct(t, s, owner, "Old name", 5)
	gone := seedProduct(t, s, owner, "Removed", 5)
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Sales().Create(context.Background(), &model.Sale{OwnerID: owner, ProductID: kept.ID, ProductName: "Old name", Quantity: 1, CreatedAt: at}))
	require.NoError(t, s.Sales().Create(context.Background(), &model.Sale{OwnerID: owner, ProductID: gone.ID, ProductName: "Removed", Quantity: 1, CreatedAt: at.Add(time.Minute)}))

	kept.Name = "New name"
	require.NoError(t, s.Products().Update(context.Background(), kept))
	require.NoError(t, s.Products().Delete(context.Background(), owner, gone.ID))

	sales, err := s.Sales().ListBetween(context.Background(), owner, at, at.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, "New name", sales[0].ProductName)
	assert.Equal(t, "Removed", sales[1].ProductName)

	// upper bound is exclusive
	sales, err = s.Sales().ListBetween(context.Background(), owner, at, at.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, sales, 1)
}

func TestWatermark_ChangesWithEveryInsert(t *testing.T) {
	s := New()
	owner := uuid.New()
	p := seedProduct(t, s, owner, "Widget", 5)
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	from, to := at.Add(-time.Hour), at.Add(time.Hour)

	empty, err := s.Sales().Watermark(context.Background(), owner, from, to)
	require.NoError(t, err)
	assert.Equal(t, "n0.t0", empty.String())

	require.NoError(t, s.Sales().Create(context.Background(), &model.Sale{OwnerID: owner, ProductID: p.ID, ProductName: "Widget", Quantity: 1, CreatedAt: at}))
	first, err := s.Sales().Watermark(context.Background(), owner, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.Count)
	assert.True(t, first.Latest.Equal(at))

	// Same timestamp still moves the count.
	require.NoError(t, s.Sales().Create(context.Background(), &model.Sale{OwnerID: owner, ProductID: p.ID, ProductName: "Widget", Quantity: 1, CreatedAt: at}))
	second, err := s.Sales().Watermark(context.Background(), owner, from, to)
	require.NoError(t, err)
	assert.NotEqual(t, first.String(), second.String())

	other, err := s.Sales().Watermark(context.Background(), uuid.New(), from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.Count)
}

func TestOwners_DuplicateEmail(t *testing.T) {
	s := New()
	require.NoError(t, s.Owners().Create(context.Background(), &model.Owner{Email: "Shop@Example.com", Name: "a", PasswordHash: "x"}))

	err := s.Owners().Create(context.Background(), &model.Owner{Email: "shop@example.com ", Name: "b", PasswordHash: "y"})
	assert.ErrorIs(t, err, apierror.ErrDuplicate)

	o, err := s.Owners().FindByEmail(context.Background(), " SHOP@example.com")
	require.NoError(t, err)
	assert.Equal(t, "a", o.Name)
}

func TestWithTx_NestedJoinsOuter(t *testing.T) {
	s := New()
	owner := uuid.New()
	p := seedProduct(t, s, owner, "Widget", 5)

	err := s.WithTx(context.Background(), func(tx repository.Store) error {
		return tx.WithTx(context.Background(), func(inner repository.Store) error {
			_, err := inner.Products().AdjustStock(context.Background(), owner, p.ID, 2)
			return err
		})
	})
	require.NoError(t, err)

	got, _ := s.Products().FindByID(context.Background(), owner, p.ID)
	assert.Equal(t, 7, got.StockUnits)
}
