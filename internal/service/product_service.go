package service

import (
	"context"
	"strings"
	"time"

	"stockledger/internal/apierror"
	"stockledger/internal/dto"
	"stockledger/internal/model"
	"stockledger/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ProductService interface {
	Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateProductRequest) (*dto.CreateProductResponse, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]dto.ProductResponse, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	AdjustStock(ctx context.Context, ownerID, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	ListMovements(ctx context.Context, ownerID, id uuid.UUID, limit int) ([]dto.StockMovementResponse, error)
	ListPriceChanges(ctx context.Context, ownerID, id uuid.UUID, limit int) ([]dto.PriceChangeResponse, error)
}

type productService struct {
	store repository.Store
	now   func() time.Time
}

func NewProductService(store repository.Store) ProductService {
	return &productService{store: store, now: time.Now}
}

func (s *productService) Create(ctx context.Context, ownerID uuid.UUID, req dto.CreateProductRequest) (*dto.CreateProductResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	fields := map[string]string{}
	checkAmount(fields, "cost_price", req.CostPrice)
	checkAmount(fields, "selling_price", req.SellingPrice)
	if err := merge(validateStruct(req), fields); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &model.Product{
		ID:           uuid.New(),
		OwnerID:      ownerID,
		Name:         req.Name,
		Category:     req.Category,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		StockUnits:   *req.Stock,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Products().Create(ctx, p); err != nil {
			return err
		}
		if p.StockUnits == 0 {
			return nil
		}
		return tx.Audit().CreateMovement(ctx, &model.StockMovement{
			OwnerID:   ownerID,
			ProductID: p.ID,
			Kind:      model.MovementInitial,
			Delta:     p.StockUnits,
			Reason:    "initial stock",
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("owner_id", ownerID.String()).Str("product_id", p.ID.String()).Msg("product created")
	return &dto.CreateProductResponse{ID: p.ID.String()}, nil
}

func (s *productService) Get(ctx context.Context, ownerID, id uuid.UUID) (*dto.ProductResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	p, err := s.store.Products().FindByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	resp := productToResponse(p)
	return &resp, nil
}

// List returns the owner's catalog ordered by name ascending.
func (s *productService) List(ctx context.Context, ownerID uuid.UUID) ([]dto.ProductResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	products, err := s.store.Products().List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return productsToResponse(products), nil
}

// Update replaces every editable field. Omitted prices arrive as zero and an
// omitted category as empty, and that is what gets stored. A stock change is
// applied as a locked delta and logged as an adjustment.
func (s *productService) Update(ctx context.Context, ownerID, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	fields := map[string]string{}
	checkAmount(fields, "cost_price", req.CostPrice)
	checkAmount(fields, "selling_price", req.SellingPrice)
	if err := merge(validateStruct(req), fields); err != nil {
		return nil, err
	}

	var updated model.Product
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		cur, err := tx.Products().FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		now := s.now().UTC()

		if !cur.CostPrice.Equal(req.CostPrice) || !cur.SellingPrice.Equal(req.SellingPrice) {
			if err := tx.Audit().CreatePriceChange(ctx, &model.PriceChange{
				OwnerID:            ownerID,
				ProductID:          id,
				CostBefore:         cur.CostPrice,
				CostAfter:          req.CostPrice,
				SellingPriceBefore: cur.SellingPrice,
				SellingPriceAfter:  req.SellingPrice,
				CreatedAt:          now,
			}); err != nil {
				return err
			}
		}

		updated = *cur
		updated.Name = req.Name
		updated.Category = req.Category
		updated.CostPrice = req.CostPrice
		updated.SellingPrice = req.SellingPrice
		updated.UpdatedAt = now
		if err := tx.Products().Update(ctx, &updated); err != nil {
			return err
		}

		delta := *req.Stock - cur.StockUnits
		if delta == 0 {
			return nil
		}
		applied, err := tx.Products().AdjustStock(ctx, ownerID, id, delta)
		if err != nil {
			return err
		}
		if !applied {
			// The row is locked, so this only happens if the lock was lost.
			return apierror.ErrConflict
		}
		updated.StockUnits = *req.Stock
		return tx.Audit().CreateMovement(ctx, &model.StockMovement{
			OwnerID:   ownerID,
			ProductID: id,
			Kind:      model.MovementAdjustment,
			Delta:     delta,
			Reason:    "product update",
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	resp := productToResponse(&updated)
	return &resp, nil
}

// Delete removes the product. Its sales stay in the ledger and keep the name
// captured when they were recorded.
func (s *productService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := requireOwner(ownerID); err != nil {
		return err
	}
	if err := s.store.Products().Delete(ctx, ownerID, id); err != nil {
		return err
	}
	log.Info().Str("owner_id", ownerID.String()).Str("product_id", id.String()).Msg("product deleted")
	return nil
}

// AdjustStock adds req.Delta units (negative removes). The result can never
// drop below zero; such a request fails with ErrInsufficientStock.
func (s *productService) AdjustStock(ctx context.Context, ownerID, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	var out model.Product
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		cur, err := tx.Products().FindByIDForUpdate(ctx, ownerID, id)
		if err != nil {
			return err
		}
		if cur.StockUnits+req.Delta < 0 {
			return &apierror.StockError{ProductID: id.String(), Requested: -req.Delta, Available: cur.StockUnits}
		}
		if cur.StockUnits+req.Delta > maxStockUnits {
			return apierror.Invalid("delta", "stock out of range")
		}
		applied, err := tx.Products().AdjustStock(ctx, ownerID, id, req.Delta)
		if err != nil {
			return err
		}
		if !applied {
			return &apierror.StockError{ProductID: id.String(), Requested: -req.Delta, Available: -1}
		}
		out = *cur
		out.StockUnits += req.Delta
		return tx.Audit().CreateMovement(ctx, &model.StockMovement{
			OwnerID:   ownerID,
			ProductID: id,
			Kind:      model.MovementAdjustment,
			Delta:     req.Delta,
			Reason:    req.Reason,
			CreatedAt: s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("owner_id", ownerID.String()).
		Str("product_id", id.String()).
		Int("delta", req.Delta).
		Int("stock", out.StockUnits).
		Msg("stock adjusted")
	resp := productToResponse(&out)
	return &resp, nil
}

func (s *productService) ListMovements(ctx context.Context, ownerID, id uuid.UUID, limit int) ([]dto.StockMovementResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := s.store.Products().FindByID(ctx, ownerID, id); err != nil {
		return nil, err
	}
	rows, err := s.store.Audit().ListMovements(ctx, ownerID, id, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StockMovementResponse, len(rows))
	for i, m := range rows {
		resp[i] = dto.StockMovementResponse{
			ID:        m.ID.String(),
			Kind:      m.Kind,
			Delta:     m.Delta,
			Reason:    m.Reason,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp, nil
}

func (s *productService) ListPriceChanges(ctx context.Context, ownerID, id uuid.UUID, limit int) ([]dto.PriceChangeResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	if _, err := s.store.Products().FindByID(ctx, ownerID, id); err != nil {
		return nil, err
	}
	rows, err := s.store.Audit().ListPriceChanges(ctx, ownerID, id, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.PriceChangeResponse, len(rows))
	for i, pc := range rows {
		resp[i] = dto.PriceChangeResponse{
			ID:                 pc.ID.String(),
			CostBefore:         pc.CostBefore,
			CostAfter:          pc.CostAfter,
			SellingPriceBefore: pc.SellingPriceBefore,
			SellingPriceAfter:  pc.SellingPriceAfter,
			CreatedAt:          pc.CreatedAt.UTC().Format(time.RFC3339),
		}
	}
	return resp, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func productToResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Category:     p.Category,
		CostPrice:    p.CostPrice,
		SellingPrice: p.SellingPrice,
		Stock:        p.StockUnits,
		CreatedAt:    p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func productsToResponse(products []model.Product) []dto.ProductResponse {
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = productToResponse(&products[i])
	}
	return resp
}
