package usecase

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	tx     store.Transactor
	locker store.Locker
	logger logger.ZapLogger
	now    func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, tx store.Transactor, locker store.Locker, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		tx:     tx,
		locker: locker,
		logger: log,
		now:    time.Now,
	}
}

// permissionFor maps a stock action to the permission of the operation that causes it.
func permissionFor(action model.StockAction) (auth.Action, error) {
	switch action {
	case model.StockActionSale:
		return auth.ActionCreateSale, nil
	case model.StockActionVoidRestock:
		return auth.ActionVoid, nil
	case model.StockActionManualAdjustment:
		return auth.ActionAdjustStock, nil
	}
	return "", apperr.Invalid("unknown stock action %q", action)
}

func (uc *inventoryUseCase) Apply(ctx context.Context, actor auth.Session, input *dto.AdjustStockInput) (*model.InventoryLog, error) {
	perm, err := permissionFor(input.Action)
	if err != nil {
		return nil, err
	}
	if err := auth.Require(actor, perm); err != nil {
		return nil, err
	}

	switch {
	case input.Delta == 0:
		return nil, apperr.Invalid("stock change must not be zero")
	case input.Action == model.StockActionSale && input.Delta > 0:
		return nil, apperr.Invalid("a sale must decrease stock")
	case input.Action == model.StockActionVoidRestock && input.Delta < 0:
		return nil, apperr.Invalid("a void restock must increase stock")
	}

	var entry *model.InventoryLog
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		p, err := uc.repo.GetProductForUpdate(ctx, input.ProductCode)
		if err != nil {
			return err
		}

		newStock := p.Stock + input.Delta
		if newStock < 0 {
			return &apperr.NegativeStockError{ProductCode: p.Code, Current: p.Stock, Delta: input.Delta}
		}

		if err := uc.repo.UpdateStock(ctx, p.ID, newStock); err != nil {
			return err
		}

		entry = &model.InventoryLog{
			ProductID:      p.ID,
			ProductCode:    p.Code,
			UserID:         actor.UserID,
			Action:         input.Action,
			QuantityChange: input.Delta,
			PreviousStock:  p.Stock,
			NewStock:       newStock,
			Reference:      input.Reference,
			Notes:          input.Notes,
			CreatedAt:      uc.now(),
		}
		return uc.repo.InsertLog(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("stock adjusted",
		zap.String("product_code", entry.ProductCode),
		zap.String("action", string(entry.Action)),
		zap.Int("delta", entry.QuantityChange),
		zap.Int("new_stock", entry.NewStock),
	)
	return entry, nil
}

// AdjustStock only accepts manual adjustments; sale and void-restock entries are
// written by checkout and void.
func (uc *inventoryUseCase) AdjustStock(ctx context.Context, actor auth.Session, input *dto.AdjustStockInput) (*model.InventoryLog, error) {
	if input.Action == "" {
		input.Action = model.StockActionManualAdjustment
	}
	if input.Action != model.StockActionManualAdjustment {
		return nil, apperr.Invalid("%s entries cannot be created directly", input.Action)
	}
	input.ProductCode = strings.TrimSpace(input.ProductCode)
	if input.ProductCode == "" {
		return nil, apperr.Invalid("product code is required")
	}

	unlock, err := uc.locker.Lock(ctx, input.ProductCode)
	if err != nil {
		return nil, err
	}
	defer unlock()

	entry, err := uc.Apply(ctx, actor, input)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("manual stock adjustment",
		zap.String("product_code", entry.ProductCode),
		zap.Int("delta", entry.QuantityChange),
		zap.Int64("user_id", actor.UserID),
	)
	return entry, nil
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, actor auth.Session) ([]model.Product, error) {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return nil, err
	}
	return uc.repo.ListLowStock(ctx)
}

func (uc *inventoryUseCase) ListLogs(ctx context.Context, actor auth.Session, filters *dto.LogFilters) ([]model.InventoryLog, int, error) {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = &dto.LogFilters{}
	}
	filters.Normalize()
	return uc.repo.ListLogs(ctx, filters)
}

// VerifyStock replays the log: stock must equal the sum of every signed change.
func (uc *inventoryUseCase) VerifyStock(ctx context.Context, actor auth.Session, productCode string) (*dto.StockVerification, error) {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return nil, err
	}

	var v *dto.StockVerification
	err := uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		// Row lock so no adjustment lands between the two reads.
		p, err := uc.repo.GetProductForUpdate(ctx, productCode)
		if err != nil {
			return err
		}
		sum, n, err := uc.repo.SumLogs(ctx, p.ID)
		if err != nil {
			return err
		}
		v = &dto.StockVerification{
			ProductCode: p.Code,
			Stock:       p.Stock,
			LoggedTotal: sum,
			Entries:     n,
			Consistent:  p.Stock == sum,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !v.Consistent {
		uc.logger.Error("stock does not match inventory log",
			zap.String("product_code", v.ProductCode),
			zap.Int("stock", v.Stock),
			zap.Int("logged_total", v.LoggedTotal),
		)
	}
	return v, nil
}

var logSheetHeader = []interface{}{
	"ID", "Date", "Product", "Action", "Change", "Previous", "New", "User", "Reference", "Notes",
}

// ExportLogs writes every log entry matching filters as an xlsx workbook.
func (uc *inventoryUseCase) ExportLogs(ctx context.Context, actor auth.Session, filters *dto.LogFilters, w io.Writer) error {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return err
	}

	f := dto.LogFilters{}
	if filters != nil {
		f = *filters
	}
	f.Page, f.PageSize = 1, 0

	logs, _, err := uc.repo.ListLogs(ctx, &f)
	if err != nil {
		return err
	}

	book := excelize.NewFile()
	defer book.Close()

	const sheet = "Stock Logs"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("export logs: %w", err)
	}
	if err := book.SetSheetRow(sheet, "A1", &logSheetHeader); err != nil {
		return fmt.Errorf("export logs: %w", err)
	}

	for i, l := range logs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			l.ID,
			l.CreatedAt.Format("2006-01-02 15:04:05"),
			l.ProductCode,
			string(l.Action),
			l.QuantityChange,
			l.PreviousStock,
			l.NewStock,
			l.UserID,
			l.Reference,
			l.Notes,
		}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("export logs: %w", err)
		}
	}

	if err := book.Write(w); err != nil {
		return fmt.Errorf("export logs: %w", err)
	}

	uc.logger.Info("inventory log exported", zap.Int("rows", len(logs)), zap.Int64("user_id", actor.UserID))
	return nil
}
