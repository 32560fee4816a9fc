package ledger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/PauloMartins337/tnp-finance/models"
)

// GormStorage implements Storage on a GORM connection. All invariant
// checks run inside Transaction, so Postgres gives us the atomic
// check-then-write the balance and uniqueness rules need.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(db *gorm.DB) *GormStorage {
	return &GormStorage{db: db}
}

func (g *GormStorage) InsertReceipt(ctx context.Context, r *models.Receipt) error {
	return g.db.WithContext(ctx).Create(r).Error
}

func (g *GormStorage) ReceiptByID(ctx context.Context, id string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := g.db.WithContext(ctx).Where("id = ?", id).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

func (g *GormStorage) ReceiptByNumber(ctx context.Context, number string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := g.db.WithContext(ctx).Where("receipt_number = ?", number).First(&receipt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiptNotFound
		}
		return nil, err
	}
	return &receipt, nil
}

func (g *GormStorage) Receipts(ctx context.Context) ([]models.Receipt, error) {
	var receipts []models.Receipt
	err := g.db.WithContext(ctx).Order("date DESC, created_at DESC").Find(&receipts).Error
	return receipts, err
}

func (g *GormStorage) InsertDeduction(ctx context.Context, d *models.Deduction) error {
	return g.db.WithContext(ctx).Create(d).Error
}

func (g *GormStorage) Deductions(ctx context.Context, receiptID string) ([]models.Deduction, error) {
	var deductions []models.Deduction
	q := g.db.WithContext(ctx).Order("created_at ASC")
	if receiptID != "" {
		q = q.Where("receipt_id = ?", receiptID)
	}
	err := q.Find(&deductions).Error
	return deductions, err
}

func (g *GormStorage) UpdateReceiptStatus(ctx context.Context, id string, status models.ReceiptStatus, at time.Time) error {
	return g.db.WithContext(ctx).
		Model(&models.Receipt{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "updated_at": at}).Error
}

func (g *GormStorage) InsertStatusChange(ctx context.Context, sc *models.StatusChange) error {
	return g.db.WithContext(ctx).Create(sc).Error
}

func (g *GormStorage) StatusChangesFor(ctx context.Context, receiptID string) ([]models.StatusChange, error) {
	var changes []models.StatusChange
	err := g.db.WithContext(ctx).
		Where("receipt_id = ?", receiptID).
		Order("created_at ASC").
		Find(&changes).Error
	return changes, err
}

func (g *GormStorage) Transaction(ctx context.Context, fn func(Storage) error) error {
	return g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStorage{db: tx})
	})
}
