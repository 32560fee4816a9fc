package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/PauloMartins337/tnp-finance/models"
)

// Migrate applies (idempotent) schema migrations:
// - AutoMigrate (tables/columns/indexes from model tags)
// - Money column types (NUMERIC(12,2))
// - CHECK constraints backing the ledger invariants
// The unique constraints on receipts.receipt_number and users.username
// come from the model tags and give the storage-level guarantee behind
// the in-transaction uniqueness check.
func Migrate() error {
	return DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&models.User{},
			&models.Receipt{},
			&models.Deduction{},
			&models.StatusChange{},
			&models.Message{},
		); err != nil {
			return fmt.Errorf("automigrate failed: %w", err)
		}

		// --- Enforce money columns as NUMERIC(12,2) (idempotent ALTERs) ---
		alters := []string{
			`ALTER TABLE receipts   ALTER COLUMN total_value TYPE numeric(12,2)`,
			`ALTER TABLE deductions ALTER COLUMN value       TYPE numeric(12,2)`,
		}
		for _, stmt := range alters {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("money type migration failed on: %s - %w", stmt, err)
			}
		}

		// --- CHECK constraints (positive amounts) ---
		checks := []string{
			`ALTER TABLE receipts DROP CONSTRAINT IF EXISTS chk_receipts_total_value_positive`,
			`ALTER TABLE receipts ADD CONSTRAINT chk_receipts_total_value_positive CHECK (total_value > 0)`,
			`ALTER TABLE deductions DROP CONSTRAINT IF EXISTS chk_deductions_value_positive`,
			`ALTER TABLE deductions ADD CONSTRAINT chk_deductions_value_positive CHECK (value > 0)`,
		}
		for _, stmt := range checks {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("check constraint migration failed on: %s - %w", stmt, err)
			}
		}

		return nil
	})
}
