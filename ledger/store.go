package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/PauloMartins337/tnp-finance/models"
	"github.com/PauloMartins337/tnp-finance/utils"
)

// Session identifies the authenticated caller of a write operation.
// It is produced by the auth middleware from the verified token and
// passed explicitly; the ledger never reads identity from globals.
type Session struct {
	UserID   string
	Username string
}

func (s Session) Authenticated() bool {
	return strings.TrimSpace(s.UserID) != ""
}

type CreateReceiptInput struct {
	Number      string
	Date        string
	Client      string
	TotalValue  float64
	Description string
}

type AddDeductionInput struct {
	ReceiptID   string
	Date        string
	Value       float64
	Description string
}

// Store owns receipts and their deductions: creation, stats rollup,
// append-only deductions under the balance invariant, and status
// transitions via NextStatus.
type Store struct {
	storage Storage
	now     func() time.Time
}

func NewStore(storage Storage) *Store {
	return &Store{storage: storage, now: time.Now}
}

// CreateReceipt persists a new OPEN receipt. The receipt number must be
// unique across receipts of any status; uniqueness is checked inside a
// transaction and additionally enforced by the DB constraint.
func (s *Store) CreateReceipt(ctx context.Context, session Session, in CreateReceiptInput) (*models.Receipt, error) {
	if !session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(in.Number) == "" {
		return nil, fmt.Errorf("%w: receipt_number", ErrMissingField)
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.TotalValue <= 0 {
		return nil, ErrInvalidAmount
	}

	client := strings.TrimSpace(in.Client)
	if client == "" {
		client = models.DefaultClient
	}

	now := s.now()
	receipt := &models.Receipt{
		ID:            uuid.NewString(),
		ReceiptNumber: strings.TrimSpace(in.Number),
		Date:          date,
		Client:        client,
		TotalValue:    utils.Round2(in.TotalValue),
		Description:   in.Description,
		Status:        models.StatusOpen,
		UserID:        session.UserID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.storage.Transaction(ctx, func(tx Storage) error {
		existing, err := tx.ReceiptByNumber(ctx, receipt.ReceiptNumber)
		if err != nil && !errors.Is(err, ErrReceiptNotFound) {
			return storageErr(err)
		}
		if existing != nil {
			return ErrDuplicateReceiptNumber
		}
		if err := tx.InsertReceipt(ctx, receipt); err != nil {
			return storageErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// ListReceiptsWithStats returns every receipt ordered by date
// descending, annotated with the deduction rollup computed from the
// deductions visible at query time. Stats are never persisted.
func (s *Store) ListReceiptsWithStats(ctx context.Context) ([]models.ReceiptWithStats, error) {
	receipts, err := s.storage.Receipts(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	deductions, err := s.storage.Deductions(ctx, "")
	if err != nil {
		return nil, storageErr(err)
	}

	deducted := make(map[string]float64, len(receipts))
	for _, d := range deductions {
		deducted[d.ReceiptID] += d.Value
	}

	out := make([]models.ReceiptWithStats, 0, len(receipts))
	for _, r := range receipts {
		total := utils.Round2(deducted[r.ID])
		out = append(out, models.ReceiptWithStats{
			Receipt:       r,
			TotalDeducted: total,
			Balance:       utils.Round2(r.TotalValue - total),
		})
	}
	return out, nil
}

// Overview is the dashboard rollup across every receipt.
type Overview struct {
	ReceiptCount  int     `json:"receipt_count"`
	TotalValue    float64 `json:"total_value"`
	TotalDeducted float64 `json:"total_deducted"`
	TotalBalance  float64 `json:"total_balance"`
}

// Overview aggregates the per-receipt stats into the overview figures:
// receipt count, total issued, total deducted, open balance.
func (s *Store) Overview(ctx context.Context) (*Overview, error) {
	receipts, err := s.ListReceiptsWithStats(ctx)
	if err != nil {
		return nil, err
	}
	o := &Overview{ReceiptCount: len(receipts)}
	for _, r := range receipts {
		o.TotalValue += r.TotalValue
		o.TotalDeducted += r.TotalDeducted
		o.TotalBalance += r.Balance
	}
	o.TotalValue = utils.Round2(o.TotalValue)
	o.TotalDeducted = utils.Round2(o.TotalDeducted)
	o.TotalBalance = utils.Round2(o.TotalBalance)
	return o, nil
}

// Receipt returns one receipt with its stats.
func (s *Store) Receipt(ctx context.Context, id string) (*models.ReceiptWithStats, error) {
	receipt, err := s.storage.ReceiptByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrReceiptNotFound) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	total, err := s.totalDeducted(ctx, s.storage, id)
	if err != nil {
		return nil, err
	}
	return &models.ReceiptWithStats{
		Receipt:       *receipt,
		TotalDeducted: total,
		Balance:       utils.Round2(receipt.TotalValue - total),
	}, nil
}

// Deductions lists deductions, filtered to one receipt when receiptID
// is non-empty, in insertion order.
func (s *Store) Deductions(ctx context.Context, receiptID string) ([]models.Deduction, error) {
	deductions, err := s.storage.Deductions(ctx, receiptID)
	if err != nil {
		return nil, storageErr(err)
	}
	return deductions, nil
}

// AddDeduction appends a deduction to an OPEN receipt. The value may
// not exceed the receipt's current balance; when the new deducted total
// reaches the receipt total (within PaidEpsilon) the receipt
// transitions to PAID. Exactly one deduction row is written and at most
// one status update happens.
func (s *Store) AddDeduction(ctx context.Context, session Session, in AddDeductionInput) (*models.Deduction, error) {
	if !session.Authenticated() {
		return nil, ErrUnauthenticated
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.Value <= 0 {
		return nil, ErrInvalidAmount
	}

	value := utils.Round2(in.Value)
	now := s.now()
	deduction := &models.Deduction{
		ID:          uuid.NewString(),
		ReceiptID:   in.ReceiptID,
		Date:        date,
		Value:       value,
		Description: in.Description,
		CreatedAt:   now,
	}

	err = s.storage.Transaction(ctx, func(tx Storage) error {
		receipt, err := tx.ReceiptByID(ctx, in.ReceiptID)
		if err != nil {
			if errors.Is(err, ErrReceiptNotFound) {
				return err
			}
			return storageErr(err)
		}
		if receipt.Status != models.StatusOpen {
			return ErrReceiptClosed
		}

		deducted, err := s.totalDeducted(ctx, tx, receipt.ID)
		if err != nil {
			return err
		}
		balance := utils.Round2(receipt.TotalValue - deducted)
		if value > balance {
			return fmt.Errorf("%w: value %.2f, balance %.2f", ErrExceedsBalance, value, balance)
		}

		if err := tx.InsertDeduction(ctx, deduction); err != nil {
			return storageErr(err)
		}

		newTotal := utils.Round2(deducted + value)
		if next := NextStatus(receipt.Status, receipt.TotalValue, newTotal); next != receipt.Status {
			if err := s.transition(ctx, tx, receipt, next, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deduction, nil
}

// CancelReceipt moves an OPEN receipt to CANCELLED. Deductions already
// recorded are kept as-is; cancellation does not reverse them. PAID and
// CANCELLED receipts cannot be cancelled.
func (s *Store) CancelReceipt(ctx context.Context, session Session, receiptID string) error {
	if !session.Authenticated() {
		return ErrUnauthenticated
	}
	return s.storage.Transaction(ctx, func(tx Storage) error {
		receipt, err := tx.ReceiptByID(ctx, receiptID)
		if err != nil {
			if errors.Is(err, ErrReceiptNotFound) {
				return err
			}
			return storageErr(err)
		}
		if receipt.Status != models.StatusOpen {
			return ErrReceiptClosed
		}
		return s.transition(ctx, tx, receipt, models.StatusCancelled, s.now())
	})
}

// StatusChanges returns the audit trail for one receipt.
func (s *Store) StatusChanges(ctx context.Context, receiptID string) ([]models.StatusChange, error) {
	if _, err := s.storage.ReceiptByID(ctx, receiptID); err != nil {
		if errors.Is(err, ErrReceiptNotFound) {
			return nil, err
		}
		return nil, storageErr(err)
	}
	changes, err := s.storage.StatusChangesFor(ctx, receiptID)
	if err != nil {
		return nil, storageErr(err)
	}
	return changes, nil
}

func (s *Store) totalDeducted(ctx context.Context, storage Storage, receiptID string) (float64, error) {
	deductions, err := storage.Deductions(ctx, receiptID)
	if err != nil {
		return 0, storageErr(err)
	}
	var total float64
	for _, d := range deductions {
		total += d.Value
	}
	return utils.Round2(total), nil
}

// transition updates the receipt status and records the audit row with
// a snapshot of the receipt as of the transition.
func (s *Store) transition(ctx context.Context, tx Storage, receipt *models.Receipt, next models.ReceiptStatus, at time.Time) error {
	from := receipt.Status
	receipt.Status = next
	receipt.UpdatedAt = at

	if err := tx.UpdateReceiptStatus(ctx, receipt.ID, next, at); err != nil {
		return storageErr(err)
	}

	snapshot, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("snapshot receipt %s: %w", receipt.ID, err)
	}
	change := &models.StatusChange{
		ReceiptID: receipt.ID,
		From:      from,
		To:        next,
		Snapshot:  datatypes.JSON(snapshot),
		CreatedAt: at,
	}
	if err := tx.InsertStatusChange(ctx, change); err != nil {
		return storageErr(err)
	}
	return nil
}

// parseDate enforces the YYYY-MM-DD form shared by receipt and
// deduction dates. Blank and malformed values are rejected here, before
// anything reaches storage.
func parseDate(raw string) (models.Date, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: date", ErrMissingField)
	}
	if _, err := time.Parse(models.DateLayout, s); err != nil {
		return "", fmt.Errorf("%w: date must be %s", ErrMissingField, models.DateLayout)
	}
	return models.Date(s), nil
}

func storageErr(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
