package ledger

import "errors"

// Sentinel errors surfaced by the ledger. Handlers map these to HTTP
// status codes in one place; callers match with errors.Is.
var (
	ErrDuplicateReceiptNumber = errors.New("receipt number already exists")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrMissingField           = errors.New("required field missing")
	ErrReceiptNotFound        = errors.New("receipt not found")
	ErrReceiptClosed          = errors.New("receipt is paid or cancelled")
	ErrExceedsBalance         = errors.New("deduction exceeds remaining balance")
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrStorageUnavailable     = errors.New("storage unavailable")
)
