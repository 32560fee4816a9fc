package ledger

import (
	"testing"

	"github.com/PauloMartins337/tnp-finance/models"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name          string
		current       models.ReceiptStatus
		totalValue    float64
		totalDeducted float64
		want          models.ReceiptStatus
	}{
		{"open with no deductions", models.StatusOpen, 1000, 0, models.StatusOpen},
		{"open with partial deductions", models.StatusOpen, 1000, 400, models.StatusOpen},
		{"paid at exact total", models.StatusOpen, 1000, 1000, models.StatusPaid},
		{"paid within epsilon below", models.StatusOpen, 1000, 999.995, models.StatusPaid},
		{"still open one cent short", models.StatusOpen, 1000, 999.99, models.StatusOpen},
		{"cancelled stays cancelled", models.StatusCancelled, 1000, 1000, models.StatusCancelled},
		{"cancelled with zero deducted", models.StatusCancelled, 1000, 0, models.StatusCancelled},
		{"paid stays paid on recompute", models.StatusPaid, 1000, 1000, models.StatusPaid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NextStatus(tc.current, tc.totalValue, tc.totalDeducted)
			if got != tc.want {
				t.Fatalf("NextStatus(%s, %.2f, %.2f) = %s, want %s",
					tc.current, tc.totalValue, tc.totalDeducted, got, tc.want)
			}
		})
	}
}
