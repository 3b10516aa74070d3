package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/infra"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const dateLayout = "2006-01-02"

type ReportService interface {
	// DailyTotals groups the year's sales by calendar date, newest first.
	DailyTotals(ctx context.Context, ownerID uuid.UUID, year int) ([]dto.DailyTotal, error)
	// SalesOnDate lists one date's sales, oldest first.
	SalesOnDate(ctx context.Context, ownerID uuid.UUID, date string) ([]dto.SaleRow, error)
	YearSummary(ctx context.Context, ownerID uuid.UUID, year int) (*dto.YearSummary, error)
	DailyReportPDF(ctx context.Context, ownerID uuid.UUID, date string) ([]byte, error)
	EmailDailyReport(ctx context.Context, ownerID uuid.UUID, date string, req dto.EmailReportRequest) (*dto.EmailReportResponse, error)
}

// ReportMailQueue accepts report e-mail jobs. worker.Dispatcher implements it.
type ReportMailQueue interface {
	EnqueueReportEmail(ctx context.Context, payload map[string]interface{}) error
}

type reportService struct {
	store repository.Store
	cache *infra.ReportCache
	queue ReportMailQueue
	loc   *time.Location
	group singleflight.Group
}

// NewReportService builds the aggregator. Calendar dates are taken in loc
// (UTC when nil). cache and queue may be nil.
func NewReportService(store repository.Store, cache *infra.ReportCache, queue ReportMailQueue, loc *time.Location) ReportService {
	if loc == nil {
		loc = time.UTC
	}
	return &reportService{store: store, cache: cache, queue: queue, loc: loc}
}

// dayKey is the single bucketing rule shared by every report.
func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(dateLayout)
}

func (s *reportService) parseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(date), s.loc)
	if err != nil {
		return time.Time{}, apierror.Invalid("date", "must be YYYY-MM-DD")
	}
	return d, nil
}

func validYear(year int) error {
	if year < 1 || year > 9998 {
		return apierror.Invalid("year", "out of range")
	}
	return nil
}

// ── DailyTotals ──────────────────────────────────────────────────────────────

func (s *reportService) DailyTotals(ctx context.Context, ownerID uuid.UUID, year int) ([]dto.DailyTotal, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := validYear(year); err != nil {
		return nil, err
	}

	if !s.cache.Enabled() {
		return s.computeDailyTotals(ctx, ownerID, year)
	}
	// The key follows the ledger, so a sale committed after an entry was
	// stored is never answered from that entry.
	from, to := s.yearBounds(year)
	wm, err := s.store.Sales().Watermark(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	key := s.cache.Key("daily", ownerID, strconv.Itoa(year), wm.String())
	var cached []dto.DailyTotal
	if found, err := s.cache.Get(ctx, key, &cached); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("report cache read failed")
	} else if found {
		return cached, nil
	}

	// Shared by every waiter on key, so one caller's cancellation must not
	// fail the others.
	loadCtx := context.WithoutCancel(ctx)
	res := s.group.DoChan(key, func() (interface{}, error) {
		rows, err := s.computeDailyTotals(loadCtx, ownerID, year)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(loadCtx, key, rows); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("report cache write failed")
		}
		return rows, nil
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", apierror.ErrPersistence, ctx.Err())
	case r := <-res:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]dto.DailyTotal), nil
	}
}

func (s *reportService) yearBounds(year int) (time.Time, time.Time) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, s.loc)
	return from, from.AddDate(1, 0, 0)
}

func (s *reportService) computeDailyTotals(ctx context.Context, ownerID uuid.UUID, year int) ([]dto.DailyTotal, error) {
	from, to := s.yearBounds(year)
	sales, err := s.store.Sales().ListBetween(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]*dto.DailyTotal)
	for _, sale := range sales {
		k := dayKey(sale.CreatedAt, s.loc)
		t, ok := byDay[k]
		if !ok {
			t = &dto.DailyTotal{Date: k, TotalSales: decimal.Zero, TotalProfitLoss: decimal.Zero}
			byDay[k] = t
		}
		t.TotalSales = t.TotalSales.Add(sale.TotalSellingPrice)
		t.TotalProfitLoss = t.TotalProfitLoss.Add(sale.ProfitLoss)
	}

	out := make([]dto.DailyTotal, 0, len(byDay))
	for _, t := range byDay {
		out = append(out, *t)
	}
	// YYYY-MM-DD sorts lexically.
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// ── SalesOnDate ──────────────────────────────────────────────────────────────

func (s *reportService) SalesOnDate(ctx context.Context, ownerID uuid.UUID, date string) ([]dto.SaleRow, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	return s.salesOnDay(ctx, ownerID, day)
}

func (s *reportService) salesOnDay(ctx context.Context, ownerID uuid.UUID, day time.Time) ([]dto.SaleRow, error) {
	sales, err := s.store.Sales().ListBetween(ctx, ownerID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	want := day.Format(dateLayout)
	rows := make([]dto.SaleRow, 0, len(sales))
	for _, sale := range sales {
		if dayKey(sale.CreatedAt, s.loc) != want {
			continue
		}
		rows = append(rows, saleToRow(&sale, s.loc))
	}
	return rows, nil
}

func saleToRow(sale *model.Sale, loc *time.Location) dto.SaleRow {
	return dto.SaleRow{
		ID:                sale.ID.String(),
		ProductName:       sale.ProductName,
		Quantity:          sale.Quantity,
		TotalSellingPrice: sale.TotalSellingPrice,
		ProfitLoss:        sale.ProfitLoss,
		CreatedAt:         sale.CreatedAt.In(loc),
	}
}

// ── YearSummary ──────────────────────────────────────────────────────────────

func (s *reportService) YearSummary(ctx context.Context, ownerID uuid.UUID, year int) (*dto.YearSummary, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if err := validYear(year); err != nil {
		return nil, err
	}
	from, to := s.yearBounds(year)
	sales, err := s.store.Sales().ListBetween(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}

	sum := &dto.YearSummary{Year: year, TotalSales: decimal.Zero, TotalProfitLoss: decimal.Zero}
	days := make(map[string]struct{})
	for _, sale := range sales {
		days[dayKey(sale.CreatedAt, s.loc)] = struct{}{}
		sum.SaleCount++
		sum.TotalSales = sum.TotalSales.Add(sale.TotalSellingPrice)
		sum.TotalProfitLoss = sum.TotalProfitLoss.Add(sale.ProfitLoss)
	}
	sum.DaysWithSales = len(days)
	return sum, nil
}

// ── PDF / e-mail ─────────────────────────────────────────────────────────────

func (s *reportService) DailyReportPDF(ctx context.Context, ownerID uuid.UUID, date string) ([]byte, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	rows, err := s.salesOnDay(ctx, ownerID, day)
	if err != nil {
		return nil, err
	}

	report := &dto.DailyReport{
		Date:            day.Format(dateLayout),
		Rows:            rows,
		TotalSales:      decimal.Zero,
		TotalProfitLoss: decimal.Zero,
	}
	for _, r := range rows {
		report.TotalSales = report.TotalSales.Add(r.TotalSellingPrice)
		report.TotalProfitLoss = report.TotalProfitLoss.Add(r.ProfitLoss)
	}
	owner, err := s.store.Owners().FindByID(ctx, ownerID)
	switch {
	case err == nil:
		report.OwnerName = owner.Name
	case !errors.Is(err, apierror.ErrNotFound):
		return nil, err
	}
	return infra.RenderDailyReportPDF(report)
}

// EmailDailyReport validates the request and queues the mail job. The PDF is
// rendered by the worker, so the mail reflects the ledger at send time.
func (s *reportService) EmailDailyReport(ctx context.Context, ownerID uuid.UUID, date string, req dto.EmailReportRequest) (*dto.EmailReportResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	day, err := s.parseDate(date)
	if err != nil {
		return nil, err
	}
	req.To = strings.TrimSpace(req.To)
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if s.queue == nil {
		return nil, fmt.Errorf("%w: report mail queue not configured", apierror.ErrPersistence)
	}

	d := day.Format(dateLayout)
	err = s.queue.EnqueueReportEmail(ctx, map[string]interface{}{
		"owner_id": ownerID.String(),
		"date":     d,
		"to":       req.To,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: enqueue report mail: %w", apierror.ErrPersistence, err)
	}
	log.Info().Str("owner_id", ownerID.String()).Str("date", d).Msg("report mail queued")
	return &dto.EmailReportResponse{Queued: true, Date: d}, nil
}
