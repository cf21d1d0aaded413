package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	invusecase "github.com/fekuna/omnipos-cashier-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/pricing"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/store/memory"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction"
	trxdto "github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
	trxusecase "github.com/fekuna/omnipos-cashier-service/internal/transaction/usecase"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingLedger fails the nth Apply call.
type failingLedger struct {
	inventory.Ledger
	n     int
	calls int
}

func (l *failingLedger) Apply(ctx context.Context, actor auth.Session, in *invdto.AdjustStockInput) (*model.InventoryLog, error) {
	l.calls++
	if l.calls == l.n {
		return nil, errors.New("disk full")
	}
	return l.Ledger.Apply(ctx, actor, in)
}

type fixture struct {
	db       *memory.DB
	locker   store.Locker
	uc       *voidUseCase
	sales    transaction.UseCase
	trxRepo  *memory.TransactionRepository
	inv      inventory.UseCase
	products *memory.ProductRepository
	admin    auth.Session
	manager  auth.Session
	cashier  auth.Session
}

func setup(t *testing.T, stock map[string]int) *fixture {
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

	products := memory.NewProductRepository(db)
	inv := invusecase.NewInventoryUseCase(memory.NewInventoryRepository(db), db, locker, logger.NewNop())
	for code, qty := range stock {
		require.NoError(t, products.Create(ctx, &model.Product{
			Code: code, Name: code, SellingPrice: decimal.NewFromInt(10000), MinStock: 1, IsActive: true,
		}))
		_, err := inv.AdjustStock(ctx, sessions[0], &invdto.AdjustStockInput{ProductCode: code, Delta: qty})
		require.NoError(t, err)
	}

	engine, err := pricing.NewEngine(pricing.DefaultTaxRate, pricing.DefaultScale)
	require.NoError(t, err)
	trxRepo := memory.NewTransactionRepository(db)
	sales := trxusecase.NewTransactionUseCase(trxRepo, products, inv, db, locker, engine, nil, logger.NewNop())
	uc := NewVoidUseCase(memory.NewVoidRepository(db), trxRepo, inv, db, locker, nil, logger.NewNop()).(*voidUseCase)

	return &fixture{
		db: db, locker: locker, uc: uc, sales: sales, trxRepo: trxRepo, inv: inv, products: products,
		admin: sessions[0], manager: sessions[1], cashier: sessions[2],
	}
}

func (f *fixture) sell(t *testing.T, items ...trxdto.ItemInput) *model.Transaction {
	t.Helper()
	trx, err := f.sales.Commit(context.Background(), f.cashier, &trxdto.CommitInput{
		Items:         items,
		PaymentMethod: model.PaymentCash,
		CashPaid:      decimal.NewFromInt(1000000),
	})
	require.NoError(t, err)
	return trx
}

func (f *fixture) stock(t *testing.T, code string) int {
	t.Helper()
	p, err := f.products.FindByCode(context.Background(), code)
	require.NoError(t, err)
	return p.Stock
}

func TestVoidTransaction(t *testing.T) {
	f := setup(t, map[string]int{"A": 10, "B": 5})
	ctx := context.Background()

	trx := f.sell(t, trxdto.ItemInput{ProductCode: "A", Quantity: 3}, trxdto.ItemInput{ProductCode: "B", Quantity: 2})
	require.Equal(t, 7, f.stock(t, "A"))
	require.Equal(t, 3, f.stock(t, "B"))

	record, err := f.uc.VoidTransaction(ctx, f.manager, &dto.VoidInput{TransactionCode: trx.Code, Reason: "  customer returned goods "})
	require.NoError(t, err)
	assert.Equal(t, trx.ID, record.OriginalTransactionID)
	assert.Equal(t, f.manager.UserID, record.VoidedBy)
	assert.Equal(t, "customer returned goods", record.Reason)

	assert.Equal(t, 10, f.stock(t, "A"))
	assert.Equal(t, 5, f.stock(t, "B"))

	got, err := f.trxRepo.FindByCode(ctx, trx.Code)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionVoided, got.Status)
	assert.NotNil(t, got.VoidedAt)
	assert.True(t, got.FinalAmount.Equal(trx.FinalAmount))

	logs, _, err := f.inv.ListLogs(ctx, f.manager, &invdto.LogFilters{Action: model.StockActionVoidRestock})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	for _, l := range logs {
		assert.Equal(t, trx.Code, l.Reference)
		assert.Contains(t, l.Notes, "customer returned goods")
	}

	// Second void changes nothing.
	_, err = f.uc.VoidTransaction(ctx, f.admin, &dto.VoidInput{TransactionCode: trx.Code, Reason: "again"})
	var nv *apperr.TransactionNotVoidableError
	require.True(t, errors.As(err, &nv))
	assert.Equal(t, string(model.TransactionVoided), nv.Status)
	assert.Equal(t, 10, f.stock(t, "A"))

	records, total, err := f.uc.ListVoids(ctx, f.manager, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, trx.Code, records[0].TransactionCode)
	assert.Equal(t, "Sari", records[0].VoidedByName)

	for _, code := range []string{"A", "B"} {
		v, err := f.inv.VerifyStock(ctx, f.manager, code)
		require.NoError(t, err)
		assert.True(t, v.Consistent)
	}
}

func TestVoidTransaction_Rejections(t *testing.T) {
	testCases := []struct {
		name    string
		actor   func(f *fixture) auth.Session
		code    func(trx *model.Transaction) string
		reason  string
		wantErr error
	}{
		{
			name:    "Cashier denied",
			actor:   func(f *fixture) auth.Session { return f.cashier },
			code:    func(trx *model.Transaction) string { return trx.Code },
			reason:  "mistake",
			wantErr: apperr.ErrPermissionDenied,
		},
		{
			name:    "Blank reason",
			actor:   func(f *fixture) auth.Session { return f.manager },
			code:    func(trx *model.Transaction) string { return trx.Code },
			reason:  "   ",
			wantErr: apperr.ErrValidation,
		},
		{
			name:    "Unknown transaction",
			actor:   func(f *fixture) auth.Session { return f.manager },
			code:    func(*model.Transaction) string { return "TRX19990101-0001" },
			reason:  "mistake",
			wantErr: apperr.ErrTransactionNotVoidable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := setup(t, map[string]int{"A": 10})
			trx := f.sell(t, trxdto.ItemInput{ProductCode: "A", Quantity: 4})

			_, err := f.uc.VoidTransaction(context.Background(), tc.actor(f), &dto.VoidInput{
				TransactionCode: tc.code(trx),
				Reason:          tc.reason,
			})
			assert.ErrorIs(t, err, tc.wantErr)

			got, err := f.trxRepo.FindByCode(context.Background(), trx.Code)
			require.NoError(t, err)
			assert.Equal(t, model.TransactionCompleted, got.Status)
			assert.Equal(t, 6, f.stock(t, "A"))
		})
	}
}

func TestVoidTransaction_RollsBackOnFailure(t *testing.T) {
	f := setup(t, map[string]int{"A": 10, "B": 10})
	trx := f.sell(t, trxdto.ItemInput{ProductCode: "A", Quantity: 2}, trxdto.ItemInput{ProductCode: "B", Quantity: 2})

	f.uc.ledger = &failingLedger{Ledger: f.inv, n: 2}

	_, err := f.uc.VoidTransaction(context.Background(), f.manager, &dto.VoidInput{TransactionCode: trx.Code, Reason: "wrong item"})
	assert.EqualError(t, err, "disk full")

	assert.Equal(t, 8, f.stock(t, "A"))
	assert.Equal(t, 8, f.stock(t, "B"))
	got, err := f.trxRepo.FindByCode(context.Background(), trx.Code)
	require.NoError(t, err)
	assert.Equal(t, model.TransactionCompleted, got.Status)

	_, total, err := f.uc.ListVoids(context.Background(), f.manager, nil)
	require.NoError(t, err)
	assert.Zero(t, total)

	// The same void succeeds once the ledger recovers.
	f.uc.ledger = f.inv
	_, err = f.uc.VoidTransaction(context.Background(), f.manager, &dto.VoidInput{TransactionCode: trx.Code, Reason: "wrong item"})
	require.NoError(t, err)
	assert.Equal(t, 10, f.stock(t, "A"))
}

func TestVoidTransaction_ConcurrentVoidsOfSameSale(t *testing.T) {
	f := setup(t, map[string]int{"A": 10})
	trx := f.sell(t, trxdto.ItemInput{ProductCode: "A", Quantity: 4})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, fail int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.VoidTransaction(context.Background(), f.manager, &dto.VoidInput{TransactionCode: trx.Code, Reason: "dup"})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
				return
			}
			assert.ErrorIs(t, err, apperr.ErrTransactionNotVoidable)
			fail++
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, fail)
	assert.Equal(t, 10, f.stock(t, "A"))
}

func TestVoidTransaction_InterleavedWithSales(t *testing.T) {
	f := setup(t, map[string]int{"A": 50})
	var sold []*model.Transaction
	for i := 0; i < 10; i++ {
		sold = append(sold, f.sell(t, trxdto.ItemInput{ProductCode: "A", Quantity: 2}))
	}
	require.Equal(t, 30, f.stock(t, "A"))

	var wg sync.WaitGroup
	for _, trx := range sold[:5] {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			_, err := f.uc.VoidTransaction(context.Background(), f.manager, &dto.VoidInput{TransactionCode: code, Reason: "test"})
			assert.NoError(t, err)
		}(trx.Code)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sales.Commit(context.Background(), f.cashier, &trxdto.CommitInput{
				Items:    []trxdto.ItemInput{{ProductCode: "A", Quantity: 1}},
				CashPaid: decimal.NewFromInt(100000),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 30+10-5, f.stock(t, "A"))
	v, err := f.inv.VerifyStock(context.Background(), f.manager, "A")
	require.NoError(t, err)
	assert.True(t, v.Consistent)
}

func TestListVoids_RequiresReports(t *testing.T) {
	f := setup(t, map[string]int{"A": 1})
	_, _, err := f.uc.ListVoids(context.Background(), f.cashier, nil)
	assert.ErrorIs(t, err, apperr.ErrPermissionDenied)

	from := time.Now().Add(time.Hour)
	_, total, err := f.uc.ListVoids(context.Background(), f.manager, &dto.VoidFilters{StartDate: &from})
	require.NoError(t, err)
	assert.Zero(t, total)
}
