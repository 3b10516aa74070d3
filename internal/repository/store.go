package repository

import (
	"context"
	"fmt"
	"time"

	"stockledger/internal/model"

	"github.com/google/uuid"
)

// Store groups the repositories that must change together. Services depend
// on this interface, not on the concrete GORM implementation, so the same
// code runs against Postgres and the in-memory store used in tests.
type Store interface {
	Products() ProductRepository
	Sales() SaleRepository
	Audit() AuditRepository
	Owners() OwnerRepository

	// WithTx runs fn inside one transaction. Every write made through the
	// Store handed to fn is rolled back when fn returns an error, when the
	// commit fails, or when ctx expires first.
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

// ProductRepository is the data access contract for the catalog.
// Every method takes the owner id; a row owned by someone else is
// reported as apierror.ErrNotFound.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error)
	// FindByIDForUpdate additionally locks the row until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error)
	// List returns the owner's products ordered by name ascending.
	List(ctx context.Context, ownerID uuid.UUID) ([]model.Product, error)
	// Update persists the descriptive and price fields of p. Stock is only
	// changed through DecrementStock / AdjustStock.
	Update(ctx context.Context, p *model.Product) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// DecrementStock subtracts qty where stock_units >= qty, as one
	// conditional statement. It reports whether the row was updated.
	DecrementStock(ctx context.Context, ownerID, id uuid.UUID, qty int) (bool, error)
	// AdjustStock adds delta (possibly negative) unless the result would be
	// negative. It reports whether the row was updated.
	AdjustStock(ctx context.Context, ownerID, id uuid.UUID, delta int) (bool, error)
}

// SaleRepository is append-only: there is no update or delete.
type SaleRepository interface {
	Create(ctx context.Context, s *model.Sale) error
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Sale, error)
	ListRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.Sale, error)
	// ListBetween returns the owner's sales with from <= created_at < to,
	// ordered by created_at ascending. ProductName carries the live product
	// name when the product still exists, the stored snapshot otherwise.
	ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]model.Sale, error)
	// Watermark summarises the same range without loading it.
	Watermark(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (SaleWatermark, error)
}

// SaleWatermark identifies the state of a range of the ledger. Sales are never
// updated or deleted, so every insert into the range changes Count.
type SaleWatermark struct {
	Count  int64
	Latest time.Time
}

// String renders the watermark for use in cache keys.
func (w SaleWatermark) String() string {
	var latest int64
	if !w.Latest.IsZero() {
		latest = w.Latest.UnixNano()
	}
	return fmt.Sprintf("n%d.t%d", w.Count, latest)
}

// AuditRepository stores the append-only catalog history.
type AuditRepository interface {
	CreateMovement(ctx context.Context, m *model.StockMovement) error
	ListMovements(ctx context.Context, ownerID, productID uuid.UUID, limit int) ([]model.StockMovement, error)
	CreatePriceChange(ctx context.Context, pc *model.PriceChange) error
	ListPriceChanges(ctx context.Context, ownerID, productID uuid.UUID, limit int) ([]model.PriceChange, error)
}

type OwnerRepository interface {
	Create(ctx context.Context, o *model.Owner) error
	FindByEmail(ctx context.Context, email string) (*model.Owner, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Owner, error)
}

func clampLimit(limit, def, max int) int {
	if limit < 1 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
