package infra

// pdf.go: daily sales report rendered with go-pdf/fpdf.
// Layout: A4 portrait with
//   - owner name and report date header
//   - one row per sale (time, product, quantity, total, profit/loss)
//   - bold totals line
//
// Values come straight from dto.SaleRow; this file only formats them.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"stockledger/internal/dto"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.English)

// formatAmount renders 12345.5 as "12,345.50". The decimal is formatted from
// its fixed string, never through a float.
func formatAmount(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := false
	if s[0] == '-' {
		neg, s = true, s[1:]
	}
	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	n, _ := strconv.ParseInt(intPart, 10, 64)
	out := amountPrinter.Sprintf("%d", n) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// RenderDailyReportPDF writes the report for one date and returns the bytes.
func RenderDailyReportPDF(r *dto.DailyReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 24
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 8, tr("Daily sales report"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	if r.OwnerName != "" {
		pdf.CellFormat(contentW, 6, tr(r.OwnerName), "", 1, "L", false, 0, "")
	}
	pdf.CellFormat(contentW, 6, r.Date, "", 1, "L", false, 0, "")
	pdf.Ln(4)

	// ── Rows ─────────────────────────────────────────────────────────────────
	colTime := contentW * 0.12
	colName := contentW * 0.40
	colQty := contentW * 0.12
	colTotal := contentW * 0.18
	colPL := contentW * 0.18

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colTime, 6, "Time", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colName, 6, "Product", "B", 0, "L", false, 0, "")
	pdf.CellFormat(colQty, 6, "Qty", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colTotal, 6, "Total", "B", 0, "R", false, 0, "")
	pdf.CellFormat(colPL, 6, "Profit/Loss", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	if len(r.Rows) == 0 {
		pdf.CellFormat(contentW, 6, "No sales recorded", "", 1, "C", false, 0, "")
	}
	for _, row := range r.Rows {
		name := row.ProductName
		if len([]rune(name)) > 40 {
			name = string([]rune(name)[:39]) + "..."
		}
		pdf.CellFormat(colTime, 6, row.CreatedAt.Format("15:04"), "", 0, "L", false, 0, "")
		pdf.CellFormat(colName, 6, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6, fmt.Sprintf("%d", row.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(colTotal, 6, formatAmount(row.TotalSellingPrice), "", 0, "R", false, 0, "")
		pdf.CellFormat(colPL, 6, formatAmount(row.ProfitLoss), "", 1, "R", false, 0, "")
	}

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.Ln(1)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(colTime+colName+colQty, 7, "TOTAL", "T", 0, "L", false, 0, "")
	pdf.CellFormat(colTotal, 7, formatAmount(r.TotalSales), "T", 0, "R", false, 0, "")
	pdf.CellFormat(colPL, 7, formatAmount(r.TotalProfitLoss), "T", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveReportPDF writes content to storagePath/report_{date}_{owner}.pdf and
// returns the path. The directory is created if needed.
func SaveReportPDF(content []byte, storagePath, ownerID, date string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}
	path := filepath.Join(storagePath, fmt.Sprintf("report_%s_%s.pdf", date, ownerID))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return path, nil
}
