package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Name         string          `json:"name"          validate:"required,max=200"`
	Category     string          `json:"category"      validate:"max=100"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"min=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"min=0"`
	Stock        *int            `json:"stock"         validate:"required,min=0,max=2147483647"`
}

// UpdateProductRequest is a full replacement: omitted prices become 0 and an
// omitted category becomes empty. Stock is replaced too.
type UpdateProductRequest struct {
	Name         string          `json:"name"          validate:"required,max=200"`
	Category     string          `json:"category"      validate:"max=100"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"min=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"min=0"`
	Stock        *int            `json:"stock"         validate:"required,min=0,max=2147483647"`
}

// AdjustStockRequest adds Delta units (negative to remove).
type AdjustStockRequest struct {
	Delta  int    `json:"delta"  validate:"required,min=-2147483647,max=2147483647"`
	Reason string `json:"reason" validate:"max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Stock        int             `json:"stock"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

type CreateProductResponse struct {
	ID string `json:"id"`
}

type StockMovementResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
	CreatedAt string `json:"created_at"`
}

type PriceChangeResponse struct {
	ID                 string          `json:"id"`
	CostBefore         decimal.Decimal `json:"cost_before"`
	CostAfter          decimal.Decimal `json:"cost_after"`
	SellingPriceBefore decimal.Decimal `json:"selling_price_before"`
	SellingPriceAfter  decimal.Decimal `json:"selling_price_after"`
	CreatedAt          string          `json:"created_at"`
}

// LowStockResponse is returned by GET /v1/products/low-stock. Alert is true
// when Count is greater than the caller-supplied last_count.
type LowStockResponse struct {
	Threshold int               `json:"threshold"`
	Count     int               `json:"count"`
	Alert     bool              `json:"alert"`
	Products  []ProductResponse `json:"products"`
}
