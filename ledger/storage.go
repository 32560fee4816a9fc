package ledger

import (
	"context"
	"time"

	"github.com/PauloMartins337/tnp-finance/models"
)

// Storage is the relational capability set the ledger depends on.
// Implementations return ErrReceiptNotFound for missing receipts and
// may wrap their own failures; the Store translates anything else to
// ErrStorageUnavailable.
type Storage interface {
	InsertReceipt(ctx context.Context, r *models.Receipt) error
	ReceiptByID(ctx context.Context, id string) (*models.Receipt, error)
	ReceiptByNumber(ctx context.Context, number string) (*models.Receipt, error)
	// Receipts returns all receipts ordered by issue date descending.
	Receipts(ctx context.Context) ([]models.Receipt, error)

	InsertDeduction(ctx context.Context, d *models.Deduction) error
	// Deductions returns deductions in insertion order, filtered to one
	// receipt when receiptID is non-empty.
	Deductions(ctx context.Context, receiptID string) ([]models.Deduction, error)

	UpdateReceiptStatus(ctx context.Context, id string, status models.ReceiptStatus, at time.Time) error
	InsertStatusChange(ctx context.Context, sc *models.StatusChange) error
	StatusChangesFor(ctx context.Context, receiptID string) ([]models.StatusChange, error)

	// Transaction runs fn atomically; the balance and uniqueness
	// check-then-write sequences depend on it.
	Transaction(ctx context.Context, fn func(Storage) error) error
}
