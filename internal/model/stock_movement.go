package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement kinds.
const (
	MovementInitial    = "initial"
	MovementAdjustment = "adjustment"
)

// StockMovement records manual stock changes (initial load, restock,
// corrections). Sales are not duplicated here: the sales ledger already is
// their record. Append-only.
type StockMovement struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index"`
	Kind      string    `gorm:"type:varchar(20);not null"`
	Delta     int       `gorm:"not null"` // positive = in, negative = out
	Reason    string
	CreatedAt time.Time
}

func (StockMovement) TableName() string { return "stock_movements" }
