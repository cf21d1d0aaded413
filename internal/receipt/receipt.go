// Package receipt turns a committed transaction into a printable document.
package receipt

import (
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/shopspring/decimal"
)

// Company is the shop header printed on every receipt.
type Company struct {
	Name    string
	Address string
	Phone   string
	Footer  string
}

type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	Subtotal  decimal.Decimal
}

// Document holds everything a renderer needs; it never reads live product data.
type Document struct {
	Company            Company
	Code               string
	Date               time.Time
	Cashier            string
	Lines              []Line
	Subtotal           decimal.Decimal
	DiscountAmount     decimal.Decimal
	DiscountPercentage decimal.Decimal
	TaxRate            decimal.Decimal
	TaxAmount          decimal.Decimal
	Total              decimal.Decimal
	PaymentMethod      model.PaymentMethod
	CashPaid           decimal.Decimal
	Change             decimal.Decimal
	Voided             bool
}

func Build(trx *model.Transaction, company Company) Document {
	lines := make([]Line, len(trx.Items))
	for i, it := range trx.Items {
		lines[i] = Line{
			Name:      it.ProductName,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Discount:  it.Discount,
			Subtotal:  it.Subtotal,
		}
	}

	return Document{
		Company:            company,
		Code:               trx.Code,
		Date:               trx.CreatedAt,
		Cashier:            trx.CashierName,
		Lines:              lines,
		Subtotal:           trx.Subtotal,
		DiscountAmount:     trx.DiscountAmount,
		DiscountPercentage: trx.DiscountPercentage,
		TaxRate:            trx.TaxRate,
		TaxAmount:          trx.TaxAmount,
		Total:              trx.FinalAmount,
		PaymentMethod:      trx.PaymentMethod,
		CashPaid:           trx.CashPaid,
		Change:             trx.ChangeAmount,
		Voided:             trx.Status == model.TransactionVoided,
	}
}
