package repository

import (
	"context"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type auditRepo struct{ db *gorm.DB }

func NewAuditRepository(db *gorm.DB) AuditRepository { return &auditRepo{db: db} }

func (r *auditRepo) CreateMovement(ctx context.Context, m *model.StockMovement) error {
	return classify(r.db.WithContext(ctx).Create(m).Error)
}

// ListMovements returns the newest movements first.
func (r *auditRepo) ListMovements(ctx context.Context, ownerID, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	var rows []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Order("created_at DESC").
		Limit(clampLimit(limit, 50, 200)).
		Find(&rows).Error
	return rows, classify(err)
}

func (r *auditRepo) CreatePriceChange(ctx context.Context, pc *model.PriceChange) error {
	return classify(r.db.WithContext(ctx).Create(pc).Error)
}

func (r *auditRepo) ListPriceChanges(ctx context.Context, ownerID, productID uuid.UUID, limit int) ([]model.PriceChange, error) {
	var rows []model.PriceChange
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND product_id = ?", ownerID, productID).
		Order("created_at DESC").
		Limit(clampLimit(limit, 50, 200)).
		Find(&rows).Error
	return rows, classify(err)
}
