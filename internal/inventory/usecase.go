package inventory

import (
	"context"
	"io"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

// Ledger applies one stock change and writes its log entry. Callers hold the
// product lock and, when combining it with other writes, an open transaction.
type Ledger interface {
	Apply(ctx context.Context, actor auth.Session, input *dto.AdjustStockInput) (*model.InventoryLog, error)
}

type UseCase interface {
	Ledger

	// AdjustStock is the standalone entry point: it locks the product and opens
	// its own transaction around Apply.
	AdjustStock(ctx context.Context, actor auth.Session, input *dto.AdjustStockInput) (*model.InventoryLog, error)
	ListLowStock(ctx context.Context, actor auth.Session) ([]model.Product, error)
	ListLogs(ctx context.Context, actor auth.Session, filters *dto.LogFilters) ([]model.InventoryLog, int, error)
	VerifyStock(ctx context.Context, actor auth.Session, productCode string) (*dto.StockVerification, error)
	ExportLogs(ctx context.Context, actor auth.Session, filters *dto.LogFilters, w io.Writer) error
}
