package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	invdto "github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	invusecase "github.com/fekuna/omnipos-cashier-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/pricing"
	"github.com/fekuna/omnipos-cashier-service/internal/report/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/store/memory"
	trxdto "github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
	trxusecase "github.com/fekuna/omnipos-cashier-service/internal/transaction/usecase"
	voiddto "github.com/fekuna/omnipos-cashier-service/internal/void/dto"
	voidusecase "github.com/fekuna/omnipos-cashier-service/internal/void/usecase"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	uc      *reportUseCase
	manager auth.Session
	cashier auth.Session
}

// setup records two completed sales and one voided sale.
func setup(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	db := memory.NewDB()
	locker := store.NewLocalLocker()

	users := memory.NewUserRepository(db)
	var sessions []auth.Session
	for _, u := range []model.User{
		{Username: "admin", FullName: "Admin", Role: model.RoleAdmin, IsActive: true},
		{Username: "sari", FullName: "Sari", Role: model.RoleManager, IsActive: true},
		{Username: "budi", FullName: "Budi", Role: model.RoleCashier, IsActive: true},
	} {
		u := u
		require.NoError(t, users.Create(ctx, &u))
		sessions = append(sessions, auth.NewSession(&u))
	}
	admin, manager, cashier := sessions[0], sessions[1], sessions[2]

	products := memory.NewProductRepository(db)
	inv := invusecase.NewInventoryUseCase(memory.NewInventoryRepository(db), db, locker, logger.NewNop())
	for _, p := range []model.Product{
		{Code: "A", Name: "Kopi", SellingPrice: decimal.NewFromInt(10000), PurchasePrice: decimal.NewFromInt(7000), MinStock: 1, IsActive: true},
		{Code: "B", Name: "Teh", SellingPrice: decimal.NewFromInt(5000), PurchasePrice: decimal.NewFromInt(3000), MinStock: 5, IsActive: true},
	} {
		p := p
		require.NoError(t, products.Create(ctx, &p))
	}
	for code, qty := range map[string]int{"A": 10, "B": 2} {
		_, err := inv.AdjustStock(ctx, admin, &invdto.AdjustStockInput{ProductCode: code, Delta: qty})
		require.NoError(t, err)
	}

	engine, err := pricing.NewEngine(pricing.DefaultTaxRate, pricing.DefaultScale)
	require.NoError(t, err)
	trxRepo := memory.NewTransactionRepository(db)
	sales := trxusecase.NewTransactionUseCase(trxRepo, products, inv, db, locker, engine, nil, logger.NewNop())
	voids := voidusecase.NewVoidUseCase(memory.NewVoidRepository(db), trxRepo, inv, db, locker, nil, logger.NewNop())

	sell := func(items ...trxdto.ItemInput) *model.Transaction {
		trx, err := sales.Commit(ctx, cashier, &trxdto.CommitInput{
			Items:         items,
			PaymentMethod: model.PaymentCash,
			CashPaid:      decimal.NewFromInt(100000),
		})
		require.NoError(t, err)
		return trx
	}
	sell(trxdto.ItemInput{ProductCode: "A", Quantity: 2})
	sell(trxdto.ItemInput{ProductCode: "A", Quantity: 1}, trxdto.ItemInput{ProductCode: "B", Quantity: 1})
	voided := sell(trxdto.ItemInput{ProductCode: "A", Quantity: 1})
	_, err = voids.VoidTransaction(ctx, manager, &voiddto.VoidInput{TransactionCode: voided.Code, Reason: "wrong item"})
	require.NoError(t, err)

	uc := NewReportUseCase(memory.NewReportRepository(db), logger.NewNop()).(*reportUseCase)
	return &fixture{uc: uc, manager: manager, cashier: cashier}
}

func around(now time.Time) dto.Period {
	return dto.Period{From: now.Add(-time.Hour), To: now.Add(time.Hour)}
}

func TestSalesSummary(t *testing.T) {
	f := setup(t)

	s, err := f.uc.SalesSummary(context.Background(), f.manager, around(time.Now()))
	require.NoError(t, err)

	assert.Equal(t, "38500", s.GrossSales.String())
	assert.Equal(t, 2, s.TransactionCount)
	assert.Equal(t, 4, s.ItemsSold)
	assert.Equal(t, "19250", s.AverageTicket.String())
	assert.Equal(t, "11000", s.Profit.String())
	assert.Equal(t, 1, s.VoidedCount)
	assert.Equal(t, 1, s.LowStockProducts)
}

func TestSalesSummary_EmptyPeriod(t *testing.T) {
	f := setup(t)

	s, err := f.uc.SalesSummary(context.Background(), f.manager, around(time.Now().AddDate(0, 0, -10)))
	require.NoError(t, err)
	assert.True(t, s.GrossSales.IsZero())
	assert.True(t, s.AverageTicket.IsZero())
	assert.Equal(t, 0, s.TransactionCount)
	assert.Equal(t, 1, s.LowStockProducts)
}

func TestSalesSummary_Rejects(t *testing.T) {
	f := setup(t)
	now := time.Now()

	tests := []struct {
		name   string
		actor  auth.Session
		period dto.Period
		target error
	}{
		{
			name:   "Cashier cannot view reports",
			actor:  f.cashier,
			period: around(now),
			target: apperr.ErrPermissionDenied,
		},
		{
			name:   "Reversed period",
			actor:  f.manager,
			period: dto.Period{From: now, To: now.Add(-time.Hour)},
			target: apperr.ErrInvalidRequest,
		},
		{
			name:   "Empty period",
			actor:  f.manager,
			period: dto.Period{From: now, To: now},
			target: apperr.ErrInvalidRequest,
		},
		{
			name:   "Longer than a year",
			actor:  f.manager,
			period: dto.Period{From: now.AddDate(-2, 0, 0), To: now},
			target: apperr.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.SalesSummary(context.Background(), tt.actor, tt.period)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestNormalize_Defaults(t *testing.T) {
	f := setup(t)
	f.uc.now = func() time.Time { return time.Date(2026, 10, 16, 9, 30, 0, 0, time.Local) }

	p, err := f.uc.normalize(dto.Period{})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 10, 16, 0, 0, 0, 0, time.Local), p.From)
	assert.Equal(t, time.Date(2026, 10, 17, 0, 0, 0, 0, time.Local), p.To)
}

func TestDailySales(t *testing.T) {
	f := setup(t)

	rows, err := f.uc.DailySales(context.Background(), f.manager, around(time.Now()))
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	total := decimal.Zero
	count := 0
	for _, r := range rows {
		total = total.Add(r.GrossSales)
		count += r.TransactionCount
	}
	assert.Equal(t, "38500", total.String())
	assert.Equal(t, 2, count)

	_, err = f.uc.DailySales(context.Background(), f.cashier, around(time.Now()))
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
}
