package dto

import "github.com/shopspring/decimal"

type CreateProductInput struct {
	Code          string
	Name          string
	Category      string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	// InitialStock is recorded as a manual adjustment, never written directly.
	InitialStock int
	MinStock     int
}

// UpdateProductInput changes only the non-nil fields. Stock is not editable here.
type UpdateProductInput struct {
	Code          string
	Name          *string
	Category      *string
	PurchasePrice *decimal.Decimal
	SellingPrice  *decimal.Decimal
	MinStock      *int
}
