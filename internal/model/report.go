package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type SalesSummary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	GrossSales       decimal.Decimal `db:"gross_sales" json:"gross_sales"`
	TransactionCount int             `db:"transaction_count" json:"transaction_count"`
	ItemsSold        int             `db:"items_sold" json:"items_sold"`
	AverageTicket    decimal.Decimal `json:"average_ticket"`
	Profit           decimal.Decimal `db:"profit" json:"profit"`
	VoidedCount      int             `db:"voided_count" json:"voided_count"`
	LowStockProducts int             `json:"low_stock_products"`
}

type DailySales struct {
	Day              time.Time       `db:"day" json:"day"`
	GrossSales       decimal.Decimal `db:"gross_sales" json:"gross_sales"`
	TransactionCount int             `db:"transaction_count" json:"transaction_count"`
}
