package ledger

import (
	"math"

	"github.com/PauloMartins337/tnp-finance/models"
)

// PaidEpsilon is the tolerance used when deciding whether a receipt is
// fully deducted. Amounts are rounded to 2 decimal places on write, so
// anything closer than one cent counts as paid.
const PaidEpsilon = 0.01

// NextStatus derives a receipt's lifecycle state from its deduction
// rollup. CANCELLED is terminal; otherwise the receipt is PAID once the
// deducted total reaches the receipt total (within PaidEpsilon) and
// OPEN before that. This is the only place status transitions are
// decided.
func NextStatus(current models.ReceiptStatus, totalValue, totalDeducted float64) models.ReceiptStatus {
	if current == models.StatusCancelled {
		return models.StatusCancelled
	}
	if math.Abs(totalValue-totalDeducted) < PaidEpsilon {
		return models.StatusPaid
	}
	return models.StatusOpen
}
