package service

import (
	"context"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type SaleService interface {
	RecordSale(ctx context.Context, ownerID uuid.UUID, req dto.RecordSaleRequest) (*dto.RecordSaleResponse, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*dto.SaleResponse, error)
	ListRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]dto.SaleResponse, error)
}

type saleService struct {
	store     repository.Store
	txTimeout time.Duration
	now       func() time.Time
}

// NewSaleService wires the ledger. txTimeout <= 0 leaves the caller's
// deadline alone.
func NewSaleService(store repository.Store, txTimeout time.Duration) SaleService {
	return &saleService{store: store, txTimeout: txTimeout, now: time.Now}
}

// ── RecordSale ────────────────────────────────────────────────────────────────
// One transaction:
//   1. Lock the product row (owner-scoped); missing → ErrNotFound
//   2. stock < quantity → ErrInsufficientStock, nothing written
//   3. profit/loss = total − cost × quantity, frozen on the record; a cost or
//      result the amount columns cannot hold is a validation error
//   4. Insert the sale
//   5. Conditional decrement; a miss aborts and rolls back step 4

func (s *saleService) RecordSale(ctx context.Context, ownerID uuid.UUID, req dto.RecordSaleRequest) (*dto.RecordSaleResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	fields := map[string]string{}
	checkAmount(fields, "total_selling_price", req.TotalSellingPrice)
	if err := merge(validateStruct(req), fields); err != nil {
		return nil, err
	}
	productID := uuid.MustParse(req.ProductID)

	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	var sale model.Sale
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		p, err := tx.Products().FindByIDForUpdate(ctx, ownerID, productID)
		if err != nil {
			return err
		}
		if p.StockUnits < req.Quantity {
			return &apierror.StockError{ProductID: productID.String(), Requested: req.Quantity, Available: p.StockUnits}
		}

		qty := decimal.NewFromInt(int64(req.Quantity))
		cost := p.CostPrice.Mul(qty)
		profit := req.TotalSellingPrice.Sub(cost)
		if cost.GreaterThan(maxAmount) || profit.Abs().GreaterThan(maxAmount) {
			return apierror.Invalid("quantity", "sale value out of range")
		}
		sale = model.Sale{
			ID:                uuid.New(),
			OwnerID:           ownerID,
			ProductID:         productID,
			ProductName:       p.Name,
			Quantity:          req.Quantity,
			UnitCost:          p.CostPrice,
			TotalSellingPrice: req.TotalSellingPrice,
			ProfitLoss:        profit,
			CreatedAt:         s.now().UTC(),
		}
		if err := tx.Sales().Create(ctx, &sale); err != nil {
			return err
		}

		applied, err := tx.Products().DecrementStock(ctx, ownerID, productID, req.Quantity)
		if err != nil {
			return err
		}
		if !applied {
			return &apierror.StockError{ProductID: productID.String(), Requested: req.Quantity, Available: -1}
		}
		return nil
	})
	if err != nil {
		log.Warn().Err(err).
			Str("owner_id", ownerID.String()).
			Str("product_id", productID.String()).
			Int("quantity", req.Quantity).
			Msg("sale rejected")
		return nil, err
	}

	log.Info().
		Str("owner_id", ownerID.String()).
		Str("sale_id", sale.ID.String()).
		Str("product_id", productID.String()).
		Int("quantity", sale.Quantity).
		Str("profit_loss", sale.ProfitLoss.StringFixed(2)).
		Msg("sale recorded")

	return &dto.RecordSaleResponse{ID: sale.ID.String(), ProfitLoss: sale.ProfitLoss}, nil
}

func (s *saleService) Get(ctx context.Context, ownerID, id uuid.UUID) (*dto.SaleResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	sale, err := s.store.Sales().FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := saleToResponse(sale)
	return &resp, nil
}

// ListRecent returns the newest sales first. limit is clamped by the store.
func (s *saleService) ListRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]dto.SaleResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	sales, err := s.store.Sales().ListRecent(ctx, ownerID, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.SaleResponse, len(sales))
	for i := range sales {
		resp[i] = saleToResponse(&sales[i])
	}
	return resp, nil
}

func saleToResponse(s *model.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID:                s.ID.String(),
		ProductID:         s.ProductID.String(),
		ProductName:       s.ProductName,
		Quantity:          s.Quantity,
		UnitCost:          s.UnitCost,
		TotalSellingPrice: s.TotalSellingPrice,
		ProfitLoss:        s.ProfitLoss,
		CreatedAt:         s.CreatedAt.UTC().Format(time.RFC3339),
	}
}
