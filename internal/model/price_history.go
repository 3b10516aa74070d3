package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceChange records each change to a product's cost or selling price.
// Records are immutable. Together with Sale.UnitCost it documents why
// historical profit figures differ from the current catalog.
type PriceChange struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	CostBefore         decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CostAfter          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellingPriceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	SellingPriceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt          time.Time
}

func (PriceChange) TableName() string { return "price_changes" }
