package handler

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/receipt"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeUseCase struct {
	input   *dto.CommitInput
	filters *dto.TransactionFilters
	trx     *model.Transaction
	err     error
}

func (f *fakeUseCase) Commit(ctx context.Context, actor auth.Session, input *dto.CommitInput) (*model.Transaction, error) {
	f.input = input
	return f.trx, f.err
}

func (f *fakeUseCase) GetTransaction(ctx context.Context, actor auth.Session, code string) (*model.Transaction, error) {
	return f.trx, f.err
}

func (f *fakeUseCase) ListTransactions(ctx context.Context, actor auth.Session, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	f.filters = filters
	if f.err != nil {
		return nil, 0, f.err
	}
	return []model.Transaction{*f.trx}, 1, nil
}

type fakePrinter struct {
	printed []string
}

func (p *fakePrinter) Company() receipt.Company { return receipt.Company{Name: "Toko"} }

func (p *fakePrinter) Text(doc receipt.Document) string { return "receipt " + doc.Code }

func (p *fakePrinter) Print(ctx context.Context, doc receipt.Document) (string, error) {
	p.printed = append(p.printed, doc.Code)
	return "/spool/" + doc.Code + ".txt", nil
}

var cashier = auth.Session{UserID: 3, Username: "budi", FullName: "Budi", Role: model.RoleCashier}

func request(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func sampleTransaction() *model.Transaction {
	return &model.Transaction{
		Code:               "TRX20261016-0001",
		UserID:             3,
		CashierName:        "Budi",
		Subtotal:           decimal.NewFromInt(20000),
		DiscountType:       "percentage",
		DiscountRule:       "member",
		DiscountPercentage: decimal.NewFromInt(10),
		DiscountAmount:     decimal.NewFromInt(2000),
		TaxRate:            decimal.RequireFromString("0.11"),
		TaxAmount:          decimal.NewFromInt(1980),
		FinalAmount:        decimal.NewFromInt(19980),
		PaymentMethod:      model.PaymentCash,
		CashPaid:           decimal.NewFromInt(20000),
		ChangeAmount:       decimal.NewFromInt(20),
		Status:             model.TransactionCompleted,
		CreatedAt:          time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC),
		Items: []model.TransactionItem{{
			LineNo:      1,
			ProductCode: "P1",
			ProductName: "Kopi",
			Quantity:    2,
			UnitPrice:   decimal.NewFromInt(10000),
			Discount:    decimal.Zero,
			Subtotal:    decimal.NewFromInt(20000),
		}},
	}
}

func TestCommit_MapsRequestAndResponse(t *testing.T) {
	uc := &fakeUseCase{trx: sampleTransaction()}
	printer := &fakePrinter{}
	h := NewTransactionHandler(uc, printer, logger.NewNop())
	ctx := auth.WithSession(context.Background(), cashier)

	resp, err := h.Commit(ctx, request(t, map[string]interface{}{
		"items": []interface{}{
			map[string]interface{}{"product_code": "P1", "quantity": 2},
			map[string]interface{}{"product_code": "P2", "quantity": "3"},
		},
		"discount": map[string]interface{}{
			"type":          "percentage",
			"value":         "10",
			"rule":          "member",
			"product_codes": []interface{}{"P1"},
		},
		"payment_method":  "cash",
		"cash_paid":       "20000",
		"idempotency_key": "k-1",
		"print_receipt":   true,
	}))
	require.NoError(t, err)

	require.Len(t, uc.input.Items, 2)
	assert.Equal(t, dto.ItemInput{ProductCode: "P1", Quantity: 2}, uc.input.Items[0])
	assert.Equal(t, dto.ItemInput{ProductCode: "P2", Quantity: 3}, uc.input.Items[1])
	assert.Equal(t, "percentage", uc.input.Discount.Type)
	assert.True(t, decimal.NewFromInt(10).Equal(uc.input.Discount.Value))
	assert.Equal(t, []string{"P1"}, uc.input.Discount.ProductCodes)
	assert.Equal(t, model.PaymentCash, uc.input.PaymentMethod)
	assert.True(t, decimal.NewFromInt(20000).Equal(uc.input.CashPaid))
	assert.Equal(t, "k-1", uc.input.IdempotencyKey)

	fields := resp.AsMap()
	assert.Equal(t, "TRX20261016-0001", fields["transaction_code"])
	assert.Equal(t, float64(3), fields["user_id"])
	assert.Equal(t, "20000", fields["subtotal"])
	assert.Equal(t, "18000", fields["taxable_amount"])
	assert.Equal(t, "19980", fields["final_amount"])
	assert.Equal(t, "20", fields["change_amount"])
	assert.Equal(t, "member", fields["discount_rule"])
	assert.Equal(t, "2026-10-16T09:30:00Z", fields["created_at"])
	assert.NotContains(t, fields, "voided_at")
	assert.Equal(t, "/spool/TRX20261016-0001.txt", fields["receipt_path"])
	assert.Equal(t, []string{"TRX20261016-0001"}, printer.printed)

	items := fields["items"].([]interface{})
	require.Len(t, items, 1)
	line := items[0].(map[string]interface{})
	assert.Equal(t, float64(2), line["quantity"])
	assert.Equal(t, "10000", line["unit_price"])
}

func TestCommit_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  map[string]interface{}
	}{
		{
			name: "Fractional quantity",
			req: map[string]interface{}{
				"items": []interface{}{map[string]interface{}{"product_code": "P1", "quantity": 2.9}},
			},
		},
		{
			name: "Quantity too large",
			req: map[string]interface{}{
				"items": []interface{}{map[string]interface{}{"product_code": "P1", "quantity": 1e20}},
			},
		},
		{
			name: "Bad cash amount",
			req:  map[string]interface{}{"cash_paid": "ten"},
		},
		{
			name: "Bad discount value",
			req:  map[string]interface{}{"discount": map[string]interface{}{"type": "fixed", "value": "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeUseCase{trx: sampleTransaction()}
			h := NewTransactionHandler(uc, &fakePrinter{}, logger.NewNop())
			ctx := auth.WithSession(context.Background(), cashier)

			_, err := h.Commit(ctx, request(t, tt.req))
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
			assert.Nil(t, uc.input, "use case must not be called")
		})
	}
}

func TestCommit_UseCaseErrors(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want codes.Code
	}{
		{name: "No session", ctx: context.Background(), want: codes.Unauthenticated},
		{
			name: "Insufficient stock",
			ctx:  auth.WithSession(context.Background(), cashier),
			err:  &apperr.InsufficientStockError{ProductCode: "P1", Requested: 2, Available: 1},
			want: codes.FailedPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewTransactionHandler(&fakeUseCase{err: tt.err}, &fakePrinter{}, logger.NewNop())
			_, err := h.Commit(tt.ctx, request(t, map[string]interface{}{
				"items": []interface{}{map[string]interface{}{"product_code": "P1", "quantity": 2}},
			}))
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestListTransactions_Filters(t *testing.T) {
	uc := &fakeUseCase{trx: sampleTransaction()}
	h := NewTransactionHandler(uc, &fakePrinter{}, logger.NewNop())
	ctx := auth.WithSession(context.Background(), cashier)

	resp, err := h.ListTransactions(ctx, request(t, map[string]interface{}{
		"user_id":    3,
		"status":     "completed",
		"start_date": "2026-10-01",
		"page":       2,
		"page_size":  10,
	}))
	require.NoError(t, err)
	assert.Equal(t, int64(3), uc.filters.UserID)
	assert.Equal(t, model.TransactionCompleted, uc.filters.Status)
	assert.Equal(t, 2, uc.filters.Page)
	assert.Equal(t, 10, uc.filters.PageSize)
	require.NotNil(t, uc.filters.StartDate)
	assert.Nil(t, uc.filters.EndDate)
	assert.Equal(t, float64(1), resp.AsMap()["total"])

	_, err = h.ListTransactions(ctx, request(t, map[string]interface{}{"page": 1.5}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestGetReceipt(t *testing.T) {
	h := NewTransactionHandler(&fakeUseCase{trx: sampleTransaction()}, &fakePrinter{}, logger.NewNop())
	ctx := auth.WithSession(context.Background(), cashier)

	resp, err := h.GetReceipt(ctx, request(t, map[string]interface{}{"transaction_code": "TRX20261016-0001"}))
	require.NoError(t, err)
	assert.Equal(t, "receipt TRX20261016-0001", resp.AsMap()["text"])
}
