package repository

import (
	"context"
	"time"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) Create(ctx context.Context, s *model.Sale) error {
	return classify(r.db.WithContext(ctx).Create(s).Error)
}

func (r *saleRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&s).Error
	if err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *saleRepo) ListRecent(ctx context.Context, ownerID uuid.UUID, limit int) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Limit(clampLimit(limit, 50, 500)).
		Find(&sales).Error
	return sales, classify(err)
}

func (r *saleRepo) ListBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Table("sales AS s").
		Select(`s.id, s.owner_id, s.product_id,
			COALESCE(p.name, s.product_name) AS product_name,
			s.quantity, s.unit_cost, s.total_selling_price, s.profit_loss, s.created_at`).
		Joins("LEFT JOIN products p ON p.id = s.product_id AND p.owner_id = s.owner_id").
		Where("s.owner_id = ? AND s.created_at >= ? AND s.created_at < ?", ownerID, from.UTC(), to.UTC()).
		Order("s.created_at ASC").Order("s.id ASC").
		Scan(&sales).Error
	return sales, classify(err)
}

func (r *saleRepo) Watermark(ctx context.Context, ownerID uuid.UUID, from, to time.Time) (SaleWatermark, error) {
	var row struct {
		Count  int64
		Latest *time.Time
	}
	err := r.db.WithContext(ctx).
		Model(&model.Sale{}).
		Select("count(*) AS count, max(created_at) AS latest").
		Where("owner_id = ? AND created_at >= ? AND created_at < ?", ownerID, from.UTC(), to.UTC()).
		Scan(&row).Error
	if err != nil {
		return SaleWatermark{}, classify(err)
	}
	wm := SaleWatermark{Count: row.Count}
	if row.Latest != nil {
		wm.Latest = row.Latest.UTC()
	}
	return wm, nil
}
