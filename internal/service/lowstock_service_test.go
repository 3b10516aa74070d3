package service

import (
	"context"
	"testing"

	"stockledger/internal/stockalert"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLowStock_FlagsBelowThreshold(t *testing.T) {
	e := newEnv(t)
	e.createProduct(t, "Two", "1", 2)
	e.createProduct(t, "Three", "1", 3)
	e.createProduct(t, "Empty", "1", 0)

	svc := NewLowStockService(e.store, stockalert.DefaultThreshold)
	resp, err := svc.ForOwner(context.Background(), e.owner, 0)
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Threshold)
	assert.Equal(t, 2, resp.Count)
	assert.True(t, resp.Alert)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Empty", resp.Products[0].Name)
	assert.Equal(t, "Two", resp.Products[1].Name)
}

func TestLowStock_AlertOnlyWhenCountGrows(t *testing.T) {
	e := newEnv(t)
	p := e.createProduct(t, "Widget", "1", 4)
	svc := NewLowStockService(e.store, 0)

	resp, err := svc.ForOwner(context.Background(), e.owner, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.False(t, resp.Alert)

	e.sell(t, p, 2, "5")
	resp, err = svc.ForOwner(context.Background(), e.owner, resp.Count)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.True(t, resp.Alert)

	// Same set on the next poll: still low, but no new alert.
	resp, err = svc.ForOwner(context.Background(), e.owner, resp.Count)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Count)
	assert.False(t, resp.Alert)
}

func TestLowStock_ScopedToOwner(t *testing.T) {
	e := newEnv(t)
	e.createProduct(t, "Widget", "1", 0)

	resp, err := NewLowStockService(e.store, 3).ForOwner(context.Background(), uuid.New(), 0)
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Count)
	assert.NotNil(t, resp.Products)
}
