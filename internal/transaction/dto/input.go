package dto

import (
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/shopspring/decimal"
)

type ItemInput struct {
	ProductCode string
	Quantity    int
}

type DiscountInput struct {
	Type         string
	Value        decimal.Decimal
	Rule         string
	ProductCodes []string
}

type CommitInput struct {
	Items         []ItemInput
	Discount      DiscountInput
	PaymentMethod model.PaymentMethod
	CashPaid      decimal.Decimal
	// IdempotencyKey makes a retried checkout return the first result.
	IdempotencyKey string
}
