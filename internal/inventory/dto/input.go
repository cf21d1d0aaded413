package dto

import "github.com/fekuna/omnipos-cashier-service/internal/model"

type AdjustStockInput struct {
	ProductCode string
	Delta       int
	Action      model.StockAction
	// Reference ties the entry to its cause, e.g. a transaction code.
	Reference string
	Notes     string
}
