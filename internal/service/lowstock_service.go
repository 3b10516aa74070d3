package service

import (
	"context"

	"stockledger/internal/dto"
	"stockledger/internal/repository"
	"stockledger/internal/stockalert"

	"github.com/google/uuid"
)

type LowStockService interface {
	// ForOwner evaluates the owner's catalog. lastCount is the caller's
	// previous observation; the response alerts only when the count grew.
	ForOwner(ctx context.Context, ownerID uuid.UUID, lastCount int) (*dto.LowStockResponse, error)
}

type lowStockService struct {
	store     repository.Store
	threshold int
}

func NewLowStockService(store repository.Store, threshold int) LowStockService {
	if threshold < 1 {
		threshold = stockalert.DefaultThreshold
	}
	return &lowStockService{store: store, threshold: threshold}
}

func (s *lowStockService) ForOwner(ctx context.Context, ownerID uuid.UUID, lastCount int) (*dto.LowStockResponse, error) {
	if err := requireOwner(ownerID); err != nil {
		return nil, err
	}
	products, err := s.store.Products().List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	low := stockalert.LowStock(products, s.threshold)
	return &dto.LowStockResponse{
		Threshold: s.threshold,
		Count:     len(low),
		Alert:     stockalert.ShouldAlert(lastCount, len(low)),
		Products:  productsToResponse(low),
	}, nil
}
