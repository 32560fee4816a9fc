package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// DateLayout is the wire and storage form of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date kept in YYYY-MM-DD form. Postgres date
// columns come back from the driver as time.Time; Scan folds that back
// to the plain form so a stored date reads back exactly as supplied.
type Date string

func (d *Date) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*d = ""
	case time.Time:
		*d = Date(v.Format(DateLayout))
	case string:
		*d = truncateDate(v)
	case []byte:
		*d = truncateDate(string(v))
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
	return nil
}

func (d Date) Value() (driver.Value, error) {
	return string(d), nil
}

// truncateDate drops any time-of-day suffix a driver may append.
func truncateDate(s string) Date {
	if len(s) > len(DateLayout) {
		return Date(s[:len(DateLayout)])
	}
	return Date(s)
}

// ReceiptStatus is the lifecycle stage of a receipt.
type ReceiptStatus string

const (
	StatusOpen      ReceiptStatus = "OPEN"
	StatusPaid      ReceiptStatus = "PAID"
	StatusCancelled ReceiptStatus = "CANCELLED"
)

// DefaultClient is used when a receipt is created without a client label.
const DefaultClient = "Consumidor Final"

// Receipt is a billable record tracked until fully deducted or cancelled.
// TotalValue is fixed at creation; the remaining balance is always
// recomputed from the deductions, never stored.
type Receipt struct {
	ID            string        `json:"id" gorm:"primaryKey"`
	ReceiptNumber string        `json:"receipt_number" gorm:"unique;not null"`
	Date          Date          `json:"date" gorm:"type:date;not null"`
	Client        string        `json:"client"`
	TotalValue    float64       `json:"total_value" gorm:"type:numeric(12,2)"`
	Description   string        `json:"description"`
	Status        ReceiptStatus `json:"status" gorm:"type:VARCHAR(20);index"`
	UserID        string        `json:"-" gorm:"index"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Deduction is a partial payment applied against a receipt. Append-only.
type Deduction struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ReceiptID   string    `json:"receipt_id" gorm:"not null;index"`
	Date        Date      `json:"date" gorm:"type:date;not null"`
	Value       float64   `json:"value" gorm:"type:numeric(12,2)"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReceiptWithStats annotates a receipt with its deduction rollup.
// Derived on read, never persisted.
type ReceiptWithStats struct {
	Receipt
	TotalDeducted float64 `json:"total_deducted"`
	Balance       float64 `json:"balance"`
}

// StatusChange is an immutable audit row written on every status
// transition, with a JSON snapshot of the receipt at transition time.
type StatusChange struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ReceiptID string         `json:"receipt_id" gorm:"not null;index"`
	From      ReceiptStatus  `json:"from" gorm:"column:from_status;type:VARCHAR(20)"`
	To        ReceiptStatus  `json:"to" gorm:"column:to_status;type:VARCHAR(20)"`
	Snapshot  datatypes.JSON `json:"snapshot" gorm:"type:jsonb"`
	CreatedAt time.Time      `json:"created_at"`
}
