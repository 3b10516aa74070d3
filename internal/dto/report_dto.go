package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// DailyTotal is one row of the per-year daily rollup. Date is YYYY-MM-DD in
// the report location.
type DailyTotal struct {
	Date            string          `json:"date"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
}

// SaleRow is the row shape consumed by report renderers. Renderers format
// these values but never change them.
type SaleRow struct {
	ID                string          `json:"id"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	TotalSellingPrice decimal.Decimal `json:"total_selling_price"`
	ProfitLoss        decimal.Decimal `json:"profit_loss"`
	CreatedAt         time.Time       `json:"created_at"`
}

type YearSummary struct {
	Year            int             `json:"year"`
	SaleCount       int             `json:"sale_count"`
	DaysWithSales   int             `json:"days_with_sales"`
	TotalSales      decimal.Decimal `json:"total_sales"`
	TotalProfitLoss decimal.Decimal `json:"total_profit_loss"`
}

// DailyReport bundles the rows of one date for the PDF renderer.
type DailyReport struct {
	OwnerName       string
	Date            string
	Rows            []SaleRow
	TotalSales      decimal.Decimal
	TotalProfitLoss decimal.Decimal
}

type EmailReportRequest struct {
	To string `json:"to" validate:"required,email"`
}

type EmailReportResponse struct {
	Queued bool   `json:"queued"`
	Date   string `json:"date"`
}
