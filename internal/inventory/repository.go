package inventory

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type Repository interface {
	// GetProductForUpdate row-locks the product whose stock is about to change.
	GetProductForUpdate(ctx context.Context, code string) (*model.Product, error)
	GetProduct(ctx context.Context, code string) (*model.Product, error)
	UpdateStock(ctx context.Context, productID int64, stock int) error

	// Append-only log
	InsertLog(ctx context.Context, entry *model.InventoryLog) error
	ListLogs(ctx context.Context, filters *dto.LogFilters) ([]model.InventoryLog, int, error)
	// SumLogs returns the signed total and the number of entries for a product.
	SumLogs(ctx context.Context, productID int64) (int, int, error)

	ListLowStock(ctx context.Context) ([]model.Product, error)
}
