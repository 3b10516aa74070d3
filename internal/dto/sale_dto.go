package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type RecordSaleRequest struct {
	ProductID         string          `json:"product_id"          validate:"required,uuid"`
	Quantity          int             `json:"quantity"            validate:"required,min=1,max=1000000"`
	TotalSellingPrice decimal.Decimal `json:"total_selling_price" validate:"gt=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RecordSaleResponse struct {
	ID         string          `json:"id"`
	ProfitLoss decimal.Decimal `json:"profit_loss"`
}

type SaleResponse struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalSellingPrice decimal.Decimal `json:"total_selling_price"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	CreatedAt         string          `json:"created_at"`
}
