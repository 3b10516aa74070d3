package repository

import (
	"context"
	"errors"
	"fmt"

	"stockledger/internal/apierror"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type gormStore struct{ db *gorm.DB }

// NewStore returns the Postgres-backed Store.
func NewStore(db *gorm.DB) Store { return &gormStore{db: db} }

func (s *gormStore) Products() ProductRepository { return &productRepo{db: s.db} }
func (s *gormStore) Sales() SaleRepository       { return &saleRepo{db: s.db} }
func (s *gormStore) Audit() AuditRepository      { return &auditRepo{db: s.db} }
func (s *gormStore) Owners() OwnerRepository     { return &ownerRepo{db: s.db} }

func (s *gormStore) WithTx(ctx context.Context, fn func(tx Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
	return classify(err)
}

// classify translates driver errors into the apierror taxonomy. Errors that
// already belong to it pass through untouched.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var verr *apierror.ValidationError
	switch {
	case errors.As(err, &verr),
		errors.Is(err, apierror.ErrNotFound),
		errors.Is(err, apierror.ErrInsufficientStock),
		errors.Is(err, apierror.ErrConflict),
		errors.Is(err, apierror.ErrPersistence),
		errors.Is(err, apierror.ErrDuplicate),
		errors.Is(err, apierror.ErrUnauthorized):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return fmt.Errorf("%w: %s", apierror.ErrConflict, pgErr.Message)
		case "23505": // unique_violation
			return fmt.Errorf("%w: %s", apierror.ErrDuplicate, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%w: %w", apierror.ErrPersistence, err)
}
