package usecase

import (
	"bytes"
	"context"
	"testing"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/store/memory"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	admin   = auth.Session{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	manager = auth.Session{UserID: 2, Username: "sari", Role: model.RoleManager}
	cashier = auth.Session{UserID: 3, Username: "budi", Role: model.RoleCashier}
)

func setup(t *testing.T, stock map[string]int) (*inventoryUseCase, *memory.InventoryRepository) {
	t.Helper()
	db := memory.NewDB()
	products := memory.NewProductRepository(db)
	repo := memory.NewInventoryRepository(db)
	uc := NewInventoryUseCase(repo, db, store.NewLocalLocker(), logger.NewNop()).(*inventoryUseCase)

	for code, qty := range stock {
		require.NoError(t, products.Create(context.Background(), &model.Product{
			Code: code, Name: code, SellingPrice: decimal.NewFromInt(1000), MinStock: 5, IsActive: true,
		}))
		if qty > 0 {
			_, err := uc.AdjustStock(context.Background(), admin, &dto.AdjustStockInput{ProductCode: code, Delta: qty})
			require.NoError(t, err)
		}
	}
	return uc, repo
}

func TestApply(t *testing.T) {
	testCases := []struct {
		name      string
		actor     auth.Session
		input     dto.AdjustStockInput
		wantErr   error
		wantStock int
	}{
		{
			name:      "Sale decrements",
			actor:     cashier,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: -4, Action: model.StockActionSale},
			wantStock: 6,
		},
		{
			name:      "Sale to exactly zero",
			actor:     cashier,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: -10, Action: model.StockActionSale},
			wantStock: 0,
		},
		{
			name:      "Sale below zero",
			actor:     cashier,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: -11, Action: model.StockActionSale},
			wantErr:   apperr.ErrNegativeStock,
			wantStock: 10,
		},
		{
			name:      "Void restock needs void permission",
			actor:     cashier,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: 2, Action: model.StockActionVoidRestock},
			wantErr:   apperr.ErrPermissionDenied,
			wantStock: 10,
		},
		{
			name:      "Void restock by manager",
			actor:     manager,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: 2, Action: model.StockActionVoidRestock},
			wantStock: 12,
		},
		{
			name:      "Positive sale rejected",
			actor:     cashier,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: 2, Action: model.StockActionSale},
			wantErr:   apperr.ErrInvalidRequest,
			wantStock: 10,
		},
		{
			name:      "Zero delta rejected",
			actor:     admin,
			input:     dto.AdjustStockInput{ProductCode: "P1", Delta: 0, Action: model.StockActionManualAdjustment},
			wantErr:   apperr.ErrInvalidRequest,
			wantStock: 10,
		},
		{
			name:      "Unknown product",
			actor:     admin,
			input:     dto.AdjustStockInput{ProductCode: "NOPE", Delta: 1, Action: model.StockActionManualAdjustment},
			wantErr:   apperr.ErrNotFound,
			wantStock: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uc, repo := setup(t, map[string]int{"P1": 10})
			ctx := context.Background()

			input := tc.input
			entry, err := uc.Apply(ctx, tc.actor, &input)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, entry)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.input.Delta, entry.QuantityChange)
				assert.Equal(t, tc.wantStock, entry.NewStock)
				assert.Equal(t, tc.actor.UserID, entry.UserID)
			}

			p, err := repo.GetProduct(ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, tc.wantStock, p.Stock)
		})
	}
}

func TestAdjustStock_OnlyManual(t *testing.T) {
	uc, _ := setup(t, map[string]int{"P1": 10})

	_, err := uc.AdjustStock(context.Background(), admin, &dto.AdjustStockInput{
		ProductCode: "P1", Delta: -1, Action: model.StockActionSale,
	})
	assert.ErrorIs(t, err, apperr.ErrInvalidRequest)

	_, err = uc.AdjustStock(context.Background(), cashier, &dto.AdjustStockInput{ProductCode: "P1", Delta: 5})
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	entry, err := uc.AdjustStock(context.Background(), manager, &dto.AdjustStockInput{ProductCode: "P1", Delta: -3, Notes: "damaged"})
	require.NoError(t, err)
	assert.Equal(t, model.StockActionManualAdjustment, entry.Action)
	assert.Equal(t, 7, entry.NewStock)
}

// Stock must always equal the sum of logged deltas, whatever sequence of
// successful and failed adjustments ran.
func TestStockMatchesLog(t *testing.T) {
	uc, _ := setup(t, map[string]int{"P1": 20, "P2": 3})
	ctx := context.Background()

	steps := []struct {
		actor auth.Session
		code  string
		delta int
		act   model.StockAction
	}{
		{cashier, "P1", -5, model.StockActionSale},
		{cashier, "P2", -4, model.StockActionSale},
		{manager, "P1", 5, model.StockActionVoidRestock},
		{admin, "P2", 10, model.StockActionManualAdjustment},
		{cashier, "P2", -13, model.StockActionSale},
		{cashier, "P2", -1, model.StockActionSale},
		{cashier, "P1", -20, model.StockActionSale},
	}
	for _, s := range steps {
		_, _ = uc.Apply(ctx, s.actor, &dto.AdjustStockInput{ProductCode: s.code, Delta: s.delta, Action: s.act})
	}

	for _, code := range []string{"P1", "P2"} {
		v, err := uc.VerifyStock(ctx, manager, code)
		require.NoError(t, err)
		assert.True(t, v.Consistent, code)
		assert.Equal(t, v.Stock, v.LoggedTotal)
	}

	v, _ := uc.VerifyStock(ctx, manager, "P2")
	assert.Equal(t, 0, v.Stock)
	assert.Equal(t, 3, v.Entries)
}

func TestListLowStock(t *testing.T) {
	uc, _ := setup(t, map[string]int{"P1": 10, "P2": 2, "P3": 0})

	_, err := uc.ListLowStock(context.Background(), cashier)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	low, err := uc.ListLowStock(context.Background(), manager)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "P2", low[0].Code)
	assert.Equal(t, "P3", low[1].Code)
}

func TestListLogs_Filters(t *testing.T) {
	uc, _ := setup(t, map[string]int{"P1": 10, "P2": 5})
	ctx := context.Background()

	_, err := uc.Apply(ctx, cashier, &dto.AdjustStockInput{ProductCode: "P1", Delta: -1, Action: model.StockActionSale, Reference: "TRX1"})
	require.NoError(t, err)

	logs, total, err := uc.ListLogs(ctx, manager, &dto.LogFilters{ProductCode: "P1"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, model.StockActionSale, logs[0].Action)
	assert.Equal(t, "TRX1", logs[0].Reference)

	_, total, err = uc.ListLogs(ctx, manager, &dto.LogFilters{Action: model.StockActionManualAdjustment})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
}

func TestExportLogs(t *testing.T) {
	uc, _ := setup(t, map[string]int{"P1": 10, "P2": 5})

	var buf bytes.Buffer
	require.NoError(t, uc.ExportLogs(context.Background(), manager, nil, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()

	rows, err := book.GetRows("Stock Logs")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Product", rows[0][2])
	assert.Equal(t, string(model.StockActionManualAdjustment), rows[1][3])

	assert.ErrorIs(t, uc.ExportLogs(context.Background(), cashier, nil, &buf), apperr.ErrPermissionDenied)
}
