package repository

import (
	"context"
	"strings"

	"stockledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ownerRepo struct{ db *gorm.DB }

func NewOwnerRepository(db *gorm.DB) OwnerRepository { return &ownerRepo{db: db} }

func (r *ownerRepo) Create(ctx context.Context, o *model.Owner) error {
	return classify(r.db.WithContext(ctx).Create(o).Error)
}

func (r *ownerRepo) FindByEmail(ctx context.Context, email string) (*model.Owner, error) {
	var o model.Owner
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&o).Error
	if err != nil {
		return nil, classify(err)
	}
	return &o, nil
}

func (r *ownerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Owner, error) {
	var o model.Owner
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, classify(err)
	}
	return &o, nil
}
