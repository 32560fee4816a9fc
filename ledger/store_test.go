package ledger

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/PauloMartins337/tnp-finance/models"
)

var testSession = Session{UserID: "user-1", Username: "paulo"}

func newTestStore() *Store {
	return NewStore(NewMemoryStorage())
}

func mustCreate(t *testing.T, s *Store, number string, totalValue float64) *models.Receipt {
	t.Helper()
	receipt, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
		Number:     number,
		Date:       "2024-01-10",
		Client:     "Acme",
		TotalValue: totalValue,
	})
	if err != nil {
		t.Fatalf("create receipt %s failed: %v", number, err)
	}
	return receipt
}

func mustDeduct(t *testing.T, s *Store, receiptID string, value float64) *models.Deduction {
	t.Helper()
	d, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
		ReceiptID: receiptID,
		Date:      "2024-02-01",
		Value:     value,
	})
	if err != nil {
		t.Fatalf("add deduction of %.2f failed: %v", value, err)
	}
	return d
}

func statsFor(t *testing.T, s *Store, receiptID string) models.ReceiptWithStats {
	t.Helper()
	receipt, err := s.Receipt(context.Background(), receiptID)
	if err != nil {
		t.Fatalf("get receipt failed: %v", err)
	}
	return *receipt
}

func TestCreateReceiptOpensWithFullBalance(t *testing.T) {
	s := newTestStore()

	receipt := mustCreate(t, s, "2023-001", 1000.00)
	if receipt.Status != models.StatusOpen {
		t.Fatalf("expected status OPEN, got %s", receipt.Status)
	}
	if receipt.Client != "Acme" {
		t.Fatalf("expected client Acme, got %q", receipt.Client)
	}

	stats := statsFor(t, s, receipt.ID)
	if stats.TotalDeducted != 0 || stats.Balance != 1000.00 {
		t.Fatalf("expected deducted 0 / balance 1000, got %.2f / %.2f", stats.TotalDeducted, stats.Balance)
	}
}

func TestCreateReceiptDefaultsClient(t *testing.T) {
	s := newTestStore()

	receipt, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
		Number:     "R-1",
		Date:       "2024-01-10",
		TotalValue: 100,
	})
	if err != nil {
		t.Fatalf("create receipt failed: %v", err)
	}
	if receipt.Client != models.DefaultClient {
		t.Fatalf("expected default client %q, got %q", models.DefaultClient, receipt.Client)
	}
}

func TestCreateReceiptRejectsNonPositiveTotal(t *testing.T) {
	s := newTestStore()

	for _, total := range []float64{0, -50} {
		_, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
			Number:     "R-1",
			Date:       "2024-01-10",
			TotalValue: total,
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("total %.2f: expected ErrInvalidAmount, got %v", total, err)
		}
	}

	receipts, err := s.ListReceiptsWithStats(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(receipts) != 0 {
		t.Fatalf("expected no receipts persisted, got %d", len(receipts))
	}
}

func TestCreateReceiptRejectsMissingFields(t *testing.T) {
	s := newTestStore()

	_, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
		Date:       "2024-01-10",
		TotalValue: 100,
	})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing number: expected ErrMissingField, got %v", err)
	}

	_, err = s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
		Number:     "R-1",
		TotalValue: 100,
	})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("missing date: expected ErrMissingField, got %v", err)
	}
}

func TestWritesRejectMalformedDates(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "R-1", 100)

	// Malformed dates fail validation up front, never at storage.
	for _, date := range []string{"10/01/2024", "2024-13-40", "jan 10", "2024-01-10T00:00:00Z"} {
		_, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
			Number:     "R-BAD",
			Date:       date,
			TotalValue: 100,
		})
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("create with date %q: expected ErrMissingField, got %v", date, err)
		}

		_, err = s.AddDeduction(context.Background(), testSession, AddDeductionInput{
			ReceiptID: receipt.ID,
			Date:      date,
			Value:     10,
		})
		if !errors.Is(err, ErrMissingField) {
			t.Fatalf("deduct with date %q: expected ErrMissingField, got %v", date, err)
		}
	}

	receipts, err := s.ListReceiptsWithStats(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(receipts) != 1 {
		t.Fatalf("expected only the valid receipt persisted, got %d", len(receipts))
	}
}

func TestCreateReceiptRejectsDuplicateNumber(t *testing.T) {
	s := newTestStore()
	mustCreate(t, s, "2023-001", 1000)

	_, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
		Number:     "2023-001",
		Date:       "2024-03-01",
		TotalValue: 500,
	})
	if !errors.Is(err, ErrDuplicateReceiptNumber) {
		t.Fatalf("expected ErrDuplicateReceiptNumber, got %v", err)
	}
}

func TestDuplicateCheckCoversCancelledReceipts(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000)
	if err := s.CancelReceipt(context.Background(), testSession, receipt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	// Uniqueness applies across receipts of any status.
	_, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
		Number:     "2023-001",
		Date:       "2024-03-01",
		TotalValue: 500,
	})
	if !errors.Is(err, ErrDuplicateReceiptNumber) {
		t.Fatalf("expected ErrDuplicateReceiptNumber, got %v", err)
	}
}

func TestWritesRequireSession(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "R-1", 100)

	if _, err := s.CreateReceipt(context.Background(), Session{}, CreateReceiptInput{
		Number: "R-2", Date: "2024-01-10", TotalValue: 100,
	}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("create: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := s.AddDeduction(context.Background(), Session{}, AddDeductionInput{
		ReceiptID: receipt.ID, Date: "2024-01-11", Value: 10,
	}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("deduct: expected ErrUnauthenticated, got %v", err)
	}
	if err := s.CancelReceipt(context.Background(), Session{}, receipt.ID); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("cancel: expected ErrUnauthenticated, got %v", err)
	}
}

func TestAddDeductionKeepsReceiptOpen(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000.00)

	mustDeduct(t, s, receipt.ID, 400.00)

	stats := statsFor(t, s, receipt.ID)
	if stats.TotalDeducted != 400.00 {
		t.Fatalf("expected deducted 400, got %.2f", stats.TotalDeducted)
	}
	if stats.Balance != 600.00 {
		t.Fatalf("expected balance 600, got %.2f", stats.Balance)
	}
	if stats.Status != models.StatusOpen {
		t.Fatalf("expected status OPEN, got %s", stats.Status)
	}
}

func TestAddDeductionPaysOffReceipt(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000.00)
	created := receipt.UpdatedAt

	s.now = func() time.Time { return created.Add(time.Hour) }
	mustDeduct(t, s, receipt.ID, 400.00)
	mustDeduct(t, s, receipt.ID, 600.00)

	stats := statsFor(t, s, receipt.ID)
	if stats.TotalDeducted != 1000.00 || stats.Balance != 0 {
		t.Fatalf("expected deducted 1000 / balance 0, got %.2f / %.2f", stats.TotalDeducted, stats.Balance)
	}
	if stats.Status != models.StatusPaid {
		t.Fatalf("expected status PAID, got %s", stats.Status)
	}
	if !stats.UpdatedAt.After(created) {
		t.Fatalf("expected updated_at to advance on transition")
	}

	changes, err := s.StatusChanges(context.Background(), receipt.ID)
	if err != nil {
		t.Fatalf("status changes failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("expected exactly one status change, got %d", len(changes))
	}
	if changes[0].From != models.StatusOpen || changes[0].To != models.StatusPaid {
		t.Fatalf("expected OPEN->PAID change, got %s->%s", changes[0].From, changes[0].To)
	}
	if len(changes[0].Snapshot) == 0 {
		t.Fatalf("expected a receipt snapshot on the status change")
	}
}

func TestAddDeductionOnPaidReceiptFails(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000.00)
	mustDeduct(t, s, receipt.ID, 1000.00)

	_, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
		ReceiptID: receipt.ID,
		Date:      "2024-02-02",
		Value:     50.00,
	})
	if !errors.Is(err, ErrReceiptClosed) {
		t.Fatalf("expected ErrReceiptClosed, got %v", err)
	}

	// State unchanged: still exactly one deduction, total 1000.
	stats := statsFor(t, s, receipt.ID)
	if stats.TotalDeducted != 1000.00 || stats.Status != models.StatusPaid {
		t.Fatalf("state changed after rejected deduction: deducted %.2f status %s", stats.TotalDeducted, stats.Status)
	}
}

func TestAddDeductionExactBalanceBoundary(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000.00)
	mustDeduct(t, s, receipt.ID, 400.00)

	// One cent over the balance is rejected.
	_, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
		ReceiptID: receipt.ID,
		Date:      "2024-02-02",
		Value:     600.01,
	})
	if !errors.Is(err, ErrExceedsBalance) {
		t.Fatalf("expected ErrExceedsBalance, got %v", err)
	}

	// Exactly the balance is accepted and pays the receipt off.
	mustDeduct(t, s, receipt.ID, 600.00)
	stats := statsFor(t, s, receipt.ID)
	if stats.Status != models.StatusPaid || stats.Balance != 0 {
		t.Fatalf("expected PAID with zero balance, got %s / %.2f", stats.Status, stats.Balance)
	}
}

func TestAddDeductionRejectsNonPositiveValue(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "R-1", 100)

	for _, value := range []float64{0, -10} {
		_, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
			ReceiptID: receipt.ID,
			Date:      "2024-02-01",
			Value:     value,
		})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("value %.2f: expected ErrInvalidAmount, got %v", value, err)
		}
	}
}

func TestAddDeductionUnknownReceipt(t *testing.T) {
	s := newTestStore()

	_, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
		ReceiptID: "nope",
		Date:      "2024-02-01",
		Value:     10,
	})
	if !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
}

func TestCancelReceiptKeepsDeductions(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000.00)
	mustDeduct(t, s, receipt.ID, 250.00)

	if err := s.CancelReceipt(context.Background(), testSession, receipt.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	stats := statsFor(t, s, receipt.ID)
	if stats.Status != models.StatusCancelled {
		t.Fatalf("expected status CANCELLED, got %s", stats.Status)
	}
	// Cancellation does not reverse recorded deductions.
	if stats.TotalDeducted != 250.00 {
		t.Fatalf("expected deductions kept (250), got %.2f", stats.TotalDeducted)
	}

	// Terminal: no further deductions.
	_, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
		ReceiptID: receipt.ID,
		Date:      "2024-02-02",
		Value:     10,
	})
	if !errors.Is(err, ErrReceiptClosed) {
		t.Fatalf("expected ErrReceiptClosed after cancel, got %v", err)
	}
}

func TestCancelIsAllowedFromOpenOnly(t *testing.T) {
	s := newTestStore()
	paid := mustCreate(t, s, "R-PAID", 100)
	mustDeduct(t, s, paid.ID, 100)

	if err := s.CancelReceipt(context.Background(), testSession, paid.ID); !errors.Is(err, ErrReceiptClosed) {
		t.Fatalf("cancel of PAID receipt: expected ErrReceiptClosed, got %v", err)
	}

	cancelled := mustCreate(t, s, "R-CANC", 100)
	if err := s.CancelReceipt(context.Background(), testSession, cancelled.ID); err != nil {
		t.Fatalf("first cancel failed: %v", err)
	}
	if err := s.CancelReceipt(context.Background(), testSession, cancelled.ID); !errors.Is(err, ErrReceiptClosed) {
		t.Fatalf("second cancel: expected ErrReceiptClosed, got %v", err)
	}

	if err := s.CancelReceipt(context.Background(), testSession, "nope"); !errors.Is(err, ErrReceiptNotFound) {
		t.Fatalf("expected ErrReceiptNotFound, got %v", err)
	}
}

func TestListReceiptsOrderedByDateDescending(t *testing.T) {
	s := newTestStore()
	for _, r := range []struct {
		number string
		date   string
	}{
		{"R-1", "2024-01-10"},
		{"R-3", "2024-03-05"},
		{"R-2", "2024-02-20"},
	} {
		if _, err := s.CreateReceipt(context.Background(), testSession, CreateReceiptInput{
			Number:     r.number,
			Date:       r.date,
			TotalValue: 100,
		}); err != nil {
			t.Fatalf("create %s failed: %v", r.number, err)
		}
	}

	receipts, err := s.ListReceiptsWithStats(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	var got []string
	for _, r := range receipts {
		got = append(got, r.ReceiptNumber)
	}
	want := []string{"R-3", "R-2", "R-1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestListReceiptsIsIdempotent(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 1000)
	mustDeduct(t, s, receipt.ID, 300)

	first, err := s.ListReceiptsWithStats(context.Background())
	if err != nil {
		t.Fatalf("first list failed: %v", err)
	}
	second, err := s.ListReceiptsWithStats(context.Background())
	if err != nil {
		t.Fatalf("second list failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("lists differ with no intervening writes:\n%v\n%v", first, second)
	}
}

func TestBalanceNeverGoesNegative(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 100.00)

	// Push deductions until the balance is exhausted; each successful
	// insert must leave the recomputed balance >= 0.
	for _, value := range []float64{33.33, 33.33, 33.33, 0.01, 5.00} {
		_, err := s.AddDeduction(context.Background(), testSession, AddDeductionInput{
			ReceiptID: receipt.ID,
			Date:      "2024-02-01",
			Value:     value,
		})
		if err != nil && !errors.Is(err, ErrExceedsBalance) && !errors.Is(err, ErrReceiptClosed) {
			t.Fatalf("unexpected error: %v", err)
		}
		stats := statsFor(t, s, receipt.ID)
		if stats.Balance < 0 {
			t.Fatalf("balance went negative: %.2f", stats.Balance)
		}
	}

	stats := statsFor(t, s, receipt.ID)
	if stats.Status != models.StatusPaid || stats.TotalDeducted != 100.00 {
		t.Fatalf("expected PAID at 100.00 deducted, got %s at %.2f", stats.Status, stats.TotalDeducted)
	}
}

func TestOverviewAggregatesAllReceipts(t *testing.T) {
	s := newTestStore()

	a := mustCreate(t, s, "R-A", 1000.00)
	mustDeduct(t, s, a.ID, 400.00)

	b := mustCreate(t, s, "R-B", 250.50)
	mustDeduct(t, s, b.ID, 250.50) // paid off

	c := mustCreate(t, s, "R-C", 99.99)
	if err := s.CancelReceipt(context.Background(), testSession, c.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	overview, err := s.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}

	// Cancelled receipts still count toward the issued totals; their
	// open balance simply stays in total_balance.
	if overview.ReceiptCount != 3 {
		t.Fatalf("expected 3 receipts, got %d", overview.ReceiptCount)
	}
	if overview.TotalValue != 1350.49 {
		t.Fatalf("expected total value 1350.49, got %.2f", overview.TotalValue)
	}
	if overview.TotalDeducted != 650.50 {
		t.Fatalf("expected total deducted 650.50, got %.2f", overview.TotalDeducted)
	}
	if overview.TotalBalance != 699.99 {
		t.Fatalf("expected total balance 699.99, got %.2f", overview.TotalBalance)
	}
}

func TestOverviewOnEmptyStore(t *testing.T) {
	s := newTestStore()

	overview, err := s.Overview(context.Background())
	if err != nil {
		t.Fatalf("overview failed: %v", err)
	}
	if overview.ReceiptCount != 0 || overview.TotalValue != 0 || overview.TotalDeducted != 0 || overview.TotalBalance != 0 {
		t.Fatalf("expected zero overview, got %+v", overview)
	}
}

func TestDeductionsFilterByReceipt(t *testing.T) {
	s := newTestStore()
	a := mustCreate(t, s, "R-A", 100)
	b := mustCreate(t, s, "R-B", 100)
	mustDeduct(t, s, a.ID, 10)
	mustDeduct(t, s, b.ID, 20)
	mustDeduct(t, s, a.ID, 30)

	all, err := s.Deductions(context.Background(), "")
	if err != nil {
		t.Fatalf("list all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 deductions, got %d", len(all))
	}

	forA, err := s.Deductions(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("list for receipt failed: %v", err)
	}
	if len(forA) != 2 {
		t.Fatalf("expected 2 deductions for receipt A, got %d", len(forA))
	}
	// Stable insertion order.
	if forA[0].Value != 10 || forA[1].Value != 30 {
		t.Fatalf("expected insertion order [10 30], got [%.2f %.2f]", forA[0].Value, forA[1].Value)
	}
}

func TestStatsMatchDeductionSum(t *testing.T) {
	s := newTestStore()
	receipt := mustCreate(t, s, "2023-001", 500.00)
	values := []float64{120.50, 79.50, 100.00}
	for _, v := range values {
		mustDeduct(t, s, receipt.ID, v)
	}

	deductions, err := s.Deductions(context.Background(), receipt.ID)
	if err != nil {
		t.Fatalf("list deductions failed: %v", err)
	}
	var sum float64
	for _, d := range deductions {
		sum += d.Value
	}

	stats := statsFor(t, s, receipt.ID)
	if stats.TotalDeducted != sum {
		t.Fatalf("totalDeducted %.2f != sum of deductions %.2f", stats.TotalDeducted, sum)
	}
	if stats.Balance != stats.TotalValue-stats.TotalDeducted {
		t.Fatalf("balance %.2f != totalValue - totalDeducted %.2f", stats.Balance, stats.TotalValue-stats.TotalDeducted)
	}
}
