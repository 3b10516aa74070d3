package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry owned by exactly one account.
// StockUnits is the single source of truth for availability and is never
// negative (enforced by the conditional decrement and a CHECK constraint).
type Product struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_products_owner_name,priority:1"`
	Name         string          `gorm:"not null;index:idx_products_owner_name,priority:2"`
	Category     string          `gorm:"not null;default:''"`
	CostPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"` // advisory only
	StockUnits   int             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Product) TableName() string { return "products" }
