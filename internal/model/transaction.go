package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "completed"
	TransactionVoided    TransactionStatus = "voided"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentEWallet  PaymentMethod = "ewallet"
	PaymentTransfer PaymentMethod = "transfer"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentEWallet, PaymentTransfer:
		return true
	}
	return false
}

// Transaction financial fields are immutable once committed; only Status and
// VoidedAt change, and only through a void.
type Transaction struct {
	ID                 int64             `db:"id" json:"id"`
	Code               string            `db:"transaction_code" json:"transaction_code"`
	UserID             int64             `db:"user_id" json:"user_id"`
	CashierName        string            `db:"cashier_name" json:"cashier_name"`
	IdempotencyKey     *string           `db:"idempotency_key" json:"idempotency_key,omitempty"`
	Subtotal           decimal.Decimal   `db:"subtotal" json:"subtotal"`
	DiscountType       string            `db:"discount_type" json:"discount_type"`
	DiscountRule       string            `db:"discount_rule" json:"discount_rule"`
	DiscountPercentage decimal.Decimal   `db:"discount_percentage" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal   `db:"discount_amount" json:"discount_amount"`
	TaxRate            decimal.Decimal   `db:"tax_rate" json:"tax_rate"`
	TaxAmount          decimal.Decimal   `db:"tax_amount" json:"tax_amount"`
	FinalAmount        decimal.Decimal   `db:"final_amount" json:"final_amount"`
	PaymentMethod      PaymentMethod     `db:"payment_method" json:"payment_method"`
	CashPaid           decimal.Decimal   `db:"cash_paid" json:"cash_paid"`
	ChangeAmount       decimal.Decimal   `db:"change_amount" json:"change_amount"`
	Status             TransactionStatus `db:"status" json:"status"`
	CreatedAt          time.Time         `db:"created_at" json:"created_at"`
	VoidedAt           *time.Time        `db:"voided_at" json:"voided_at,omitempty"`
	Items              []TransactionItem `db:"-" json:"items"`
}

// TaxableAmount is subtotal minus discount.
func (t *Transaction) TaxableAmount() decimal.Decimal {
	return t.Subtotal.Sub(t.DiscountAmount)
}

// TransactionItem copies price and cost at sale time so later product edits
// never alter history.
type TransactionItem struct {
	ID            int64           `db:"id" json:"id"`
	TransactionID int64           `db:"transaction_id" json:"transaction_id"`
	LineNo        int             `db:"line_no" json:"line_no"`
	ProductID     int64           `db:"product_id" json:"product_id"`
	ProductCode   string          `db:"product_code" json:"product_code"`
	ProductName   string          `db:"product_name" json:"product_name"`
	Quantity      int             `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	UnitCost      decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Discount      decimal.Decimal `db:"discount" json:"discount"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
}

type VoidRecord struct {
	ID                    int64     `db:"id" json:"id"`
	OriginalTransactionID int64     `db:"original_transaction_id" json:"original_transaction_id"`
	TransactionCode       string    `db:"transaction_code" json:"transaction_code"`
	VoidedBy              int64     `db:"voided_by" json:"voided_by"`
	VoidedByName          string    `db:"voided_by_name" json:"voided_by_name"`
	Reason                string    `db:"reason" json:"reason"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}
