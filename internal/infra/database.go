package infra

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens a GORM connection backed by pgx and applies the schema.
// AutoMigrate is not used: the CHECK constraints that keep stock and sales
// sane cannot be expressed through struct tags, so the schema lives in
// applySchemaPatches as idempotent DDL.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}
	return db, nil
}

// applySchemaPatches creates tables, constraints and indexes. Every statement
// is guarded with IF NOT EXISTS so re-running on a migrated DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		`CREATE TABLE IF NOT EXISTS owners (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email         TEXT NOT NULL,
			name          TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT owners_email_key UNIQUE (email)
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id            UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id      UUID NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			name          TEXT NOT NULL,
			category      TEXT NOT NULL DEFAULT '',
			cost_price    DECIMAL(12,2) NOT NULL DEFAULT 0,
			selling_price DECIMAL(12,2) NOT NULL DEFAULT 0,
			stock_units   INT NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT products_stock_units_nonnegative CHECK (stock_units >= 0),
			CONSTRAINT products_prices_nonnegative CHECK (cost_price >= 0 AND selling_price >= 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_products_owner_name ON products (owner_id, name)`,
		// No FK to products: a deleted product keeps its sales.
		`CREATE TABLE IF NOT EXISTS sales (
			id                  UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id            UUID NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			product_id          UUID NOT NULL,
			product_name        TEXT NOT NULL,
			quantity            INT NOT NULL,
			unit_cost           DECIMAL(12,2) NOT NULL,
			total_selling_price DECIMAL(12,2) NOT NULL,
			profit_loss         DECIMAL(12,2) NOT NULL,
			created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT sales_quantity_positive CHECK (quantity > 0),
			CONSTRAINT sales_total_positive CHECK (total_selling_price > 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_owner_created ON sales (owner_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_sales_product ON sales (product_id)`,
		`CREATE TABLE IF NOT EXISTS stock_movements (
			id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id   UUID NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			product_id UUID NOT NULL,
			kind       VARCHAR(20) NOT NULL,
			delta      INT NOT NULL,
			reason     TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stock_movements_product ON stock_movements (owner_id, product_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS price_changes (
			id                   UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			owner_id             UUID NOT NULL REFERENCES owners(id) ON DELETE CASCADE,
			product_id           UUID NOT NULL,
			cost_before          DECIMAL(12,2) NOT NULL,
			cost_after           DECIMAL(12,2) NOT NULL,
			selling_price_before DECIMAL(12,2) NOT NULL,
			selling_price_after  DECIMAL(12,2) NOT NULL,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_changes_product ON price_changes (owner_id, product_id, created_at)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}

// RunMigrations applies the schema on an existing connection. Used by the
// integration tests, which open their own container-backed DB.
func RunMigrations(db *gorm.DB) error {
	return applySchemaPatches(db)
}
