package dto

type CategoryFilters struct {
	// Query matches category names case-insensitively.
	Query        string
	LowStockOnly bool
}
