package repository

import (
	"context"

	"stockledger/internal/apierror"
	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type productRepo struct{ db *gorm.DB }

// NewProductRepository returns the GORM implementation bound to db, which may
// be the root handle or a transaction.
func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return classify(r.db.WithContext(ctx).Create(p).Error)
}

func (r *productRepo) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&p).Error
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (r *productRepo) FindByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&p).Error
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (r *productRepo) List(ctx context.Context, ownerID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC").Order("id ASC").
		Find(&products).Error
	return products, classify(err)
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND owner_id = ?", p.ID, p.OwnerID).
		Updates(map[string]interface{}{
			"name":          p.Name,
			"category":      p.Category,
			"cost_price":    p.CostPrice,
			"selling_price": p.SellingPrice,
			"updated_at":    p.UpdatedAt,
		})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apierror.ErrNotFound
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&model.Product{})
	if res.Error != nil {
		return classify(res.Error)
	}
	if res.RowsAffected == 0 {
		return apierror.ErrNotFound
	}
	return nil
}

func (r *productRepo) DecrementStock(ctx context.Context, ownerID, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND owner_id = ? AND stock_units >= ?", id, ownerID, qty).
		Update("stock_units", gorm.Expr("stock_units - ?", qty))
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) AdjustStock(ctx context.Context, ownerID, id uuid.UUID, delta int) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("id = ? AND owner_id = ? AND stock_units + ? >= 0", id, ownerID, delta).
		Update("stock_units", gorm.Expr("stock_units + ?", delta))
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}
