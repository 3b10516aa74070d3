package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is an immutable ledger entry. ProfitLoss is frozen at creation from
// the product's cost price at that moment; ProductName and UnitCost are
// snapshots so that later catalog edits or deletions never rewrite history.
// There is no foreign key to products on purpose: deleting a product keeps
// its sales.
type Sale struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID           uuid.UUID       `gorm:"type:uuid;not null;index:idx_sales_owner_created,priority:1"`
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName       string          `gorm:"not null"`
	Quantity          int             `gorm:"not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalSellingPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ProfitLoss        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt         time.Time       `gorm:"not null;index:idx_sales_owner_created,priority:2"`
}

func (Sale) TableName() string { return "sales" }
