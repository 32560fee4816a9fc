package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/PauloMartins337/tnp-finance/models"
)

// MemoryStorage is an in-process Storage used by tests. Individual
// operations lock mu; Transaction additionally holds txMu for the whole
// callback, which serializes whole check-then-write sequences against
// each other (single-writer-per-receipt for this process).
type MemoryStorage struct {
	txMu sync.Mutex
	mu   sync.Mutex

	receipts   map[string]models.Receipt
	deductions []models.Deduction
	changes    []models.StatusChange
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{receipts: make(map[string]models.Receipt)}
}

func (m *MemoryStorage) InsertReceipt(_ context.Context, r *models.Receipt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[r.ID] = *r
	return nil
}

func (m *MemoryStorage) ReceiptByID(_ context.Context, id string) (*models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[id]
	if !ok {
		return nil, ErrReceiptNotFound
	}
	return &r, nil
}

func (m *MemoryStorage) ReceiptByNumber(_ context.Context, number string) (*models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.receipts {
		if r.ReceiptNumber == number {
			out := r
			return &out, nil
		}
	}
	return nil, ErrReceiptNotFound
}

func (m *MemoryStorage) Receipts(_ context.Context) ([]models.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Receipt, 0, len(m.receipts))
	for _, r := range m.receipts {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStorage) InsertDeduction(_ context.Context, d *models.Deduction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deductions = append(m.deductions, *d)
	return nil
}

func (m *MemoryStorage) Deductions(_ context.Context, receiptID string) ([]models.Deduction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Deduction
	for _, d := range m.deductions {
		if receiptID == "" || d.ReceiptID == receiptID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *MemoryStorage) UpdateReceiptStatus(_ context.Context, id string, status models.ReceiptStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.receipts[id]
	if !ok {
		return ErrReceiptNotFound
	}
	r.Status = status
	r.UpdatedAt = at
	m.receipts[id] = r
	return nil
}

func (m *MemoryStorage) InsertStatusChange(_ context.Context, sc *models.StatusChange) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sc.ID = uint(len(m.changes) + 1)
	m.changes = append(m.changes, *sc)
	return nil
}

func (m *MemoryStorage) StatusChangesFor(_ context.Context, receiptID string) ([]models.StatusChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.StatusChange
	for _, sc := range m.changes {
		if sc.ReceiptID == receiptID {
			out = append(out, sc)
		}
	}
	return out, nil
}

func (m *MemoryStorage) Transaction(ctx context.Context, fn func(Storage) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(m)
}
