package model

import "time"

type StockAction string

const (
	StockActionSale             StockAction = "sale"
	StockActionVoidRestock      StockAction = "void-restock"
	StockActionManualAdjustment StockAction = "manual-adjustment"
)

func (a StockAction) Valid() bool {
	switch a {
	case StockActionSale, StockActionVoidRestock, StockActionManualAdjustment:
		return true
	}
	return false
}

// InventoryLog is append-only.
type InventoryLog struct {
	ID             int64       `db:"id" json:"id"`
	ProductID      int64       `db:"product_id" json:"product_id"`
	ProductCode    string      `db:"product_code" json:"product_code"`
	UserID         int64       `db:"user_id" json:"user_id"`
	Action         StockAction `db:"action" json:"action"`
	QuantityChange int         `db:"quantity_change" json:"quantity_change"`
	PreviousStock  int         `db:"previous_stock" json:"previous_stock"`
	NewStock       int         `db:"new_stock" json:"new_stock"`
	Reference      string      `db:"reference" json:"reference"`
	Notes          string      `db:"notes" json:"notes"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}
