package model

import "github.com/shopspring/decimal"

// Product is never hard-deleted; IsActive=false hides it from sale.
type Product struct {
	BaseModel
	Code          string          `db:"code" json:"code"`
	Name          string          `db:"name" json:"name"`
	Category      string          `db:"category" json:"category"`
	PurchasePrice decimal.Decimal `db:"purchase_price" json:"purchase_price"`
	SellingPrice  decimal.Decimal `db:"selling_price" json:"selling_price"`
	Stock         int             `db:"stock" json:"stock"`
	MinStock      int             `db:"min_stock" json:"min_stock"`
	IsActive      bool            `db:"is_active" json:"is_active"`
}

func (p *Product) LowStock() bool {
	return p.Stock < p.MinStock
}
