package model

// Category is derived from the category column of products; it has no table
// of its own. Counts cover active products only.
type Category struct {
	Name          string `db:"name" json:"name"`
	ProductCount  int    `db:"product_count" json:"product_count"`
	StockUnits    int    `db:"stock_units" json:"stock_units"`
	LowStockCount int    `db:"low_stock_count" json:"low_stock_count"`
}
