package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/event"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/pricing"
	"github.com/fekuna/omnipos-cashier-service/internal/product"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxLines = 200

type transactionUseCase struct {
	repo      transaction.Repository
	products  product.Repository
	ledger    inventory.Ledger
	tx        store.Transactor
	locker    store.Locker
	engine    *pricing.Engine
	publisher event.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewTransactionUseCase wires the sales ledger. publisher may be nil.
func NewTransactionUseCase(
	repo transaction.Repository,
	products product.Repository,
	ledger inventory.Ledger,
	tx store.Transactor,
	locker store.Locker,
	engine *pricing.Engine,
	publisher event.Publisher,
	log logger.ZapLogger,
) transaction.UseCase {
	return &transactionUseCase{
		repo:      repo,
		products:  products,
		ledger:    ledger,
		tx:        tx,
		locker:    locker,
		engine:    engine,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

// Code renders the human-scannable transaction code for a business day.
func Code(day time.Time, seq int) string {
	return fmt.Sprintf("TRX%s-%04d", day.Format("20060102"), seq)
}

// aggregate merges repeated products into one line, keeping first-seen order.
func aggregate(items []dto.ItemInput) ([]dto.ItemInput, error) {
	if len(items) == 0 {
		return nil, apperr.Invalid("cart is empty")
	}
	if len(items) > maxLines {
		return nil, apperr.Invalid("cart has more than %d lines", maxLines)
	}

	index := make(map[string]int, len(items))
	out := make([]dto.ItemInput, 0, len(items))
	for _, it := range items {
		code := strings.TrimSpace(it.ProductCode)
		if code == "" {
			return nil, apperr.Invalid("line without product code")
		}
		if it.Quantity <= 0 {
			return nil, apperr.Invalid("quantity for %s must be positive", code)
		}
		if i, ok := index[code]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[code] = len(out)
		out = append(out, dto.ItemInput{ProductCode: code, Quantity: it.Quantity})
	}
	return out, nil
}

func policyFrom(in dto.DiscountInput) (pricing.Policy, error) {
	kind, err := pricing.ParseKind(in.Type)
	if err != nil {
		return pricing.Policy{}, err
	}
	return pricing.Policy{
		Kind:         kind,
		Value:        in.Value,
		Rule:         in.Rule,
		ProductCodes: in.ProductCodes,
	}, nil
}

// Commit prices the cart against current product data, records the sale and
// decrements stock for every line in one atomic unit.
func (uc *transactionUseCase) Commit(ctx context.Context, actor auth.Session, input *dto.CommitInput) (*model.Transaction, error) {
	if err := auth.Require(actor, auth.ActionCreateSale); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" {
		prev, err := uc.repo.FindByIdempotencyKey(ctx, key)
		if err == nil {
			return uc.replay(actor, prev, key)
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}

	items, err := aggregate(input.Items)
	if err != nil {
		return nil, err
	}
	policy, err := policyFrom(input.Discount)
	if err != nil {
		return nil, err
	}
	method := input.PaymentMethod
	if method == "" {
		method = model.PaymentCash
	}
	if !method.Valid() {
		return nil, apperr.Invalid("unknown payment method %q", method)
	}
	if input.CashPaid.IsNegative() {
		return nil, apperr.Invalid("cash paid must not be negative")
	}

	codes := make([]string, len(items))
	for i, it := range items {
		codes[i] = it.ProductCode
	}
	unlock, err := uc.locker.Lock(ctx, codes...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var trx *model.Transaction
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		lines := make([]pricing.Line, len(items))
		rows := make([]*model.Product, len(items))
		for i, it := range items {
			p, err := uc.products.FindByCodeForUpdate(ctx, it.ProductCode)
			if err != nil {
				return err
			}
			if !p.IsActive {
				return apperr.Invalid("product %s is inactive", p.Code)
			}
			if p.Stock < it.Quantity {
				return &apperr.InsufficientStockError{ProductCode: p.Code, Requested: it.Quantity, Available: p.Stock}
			}
			rows[i] = p
			lines[i] = pricing.Line{ProductCode: p.Code, UnitPrice: p.SellingPrice, Quantity: it.Quantity}
		}

		totals, err := uc.engine.Compute(lines, policy)
		if err != nil {
			return err
		}

		paid, change, err := settle(method, input.CashPaid, totals.FinalAmount)
		if err != nil {
			return err
		}

		now := uc.now()
		seq, err := uc.repo.NextSequence(ctx, now)
		if err != nil {
			return fmt.Errorf("reserve transaction code: %w", err)
		}

		trx = &model.Transaction{
			Code:               Code(now, seq),
			UserID:             actor.UserID,
			CashierName:        actor.FullName,
			Subtotal:           totals.Subtotal,
			DiscountType:       string(policy.Kind),
			DiscountRule:       policy.Rule,
			DiscountPercentage: totals.DiscountPercentage,
			DiscountAmount:     totals.DiscountAmount,
			TaxRate:            totals.TaxRate,
			TaxAmount:          totals.TaxAmount,
			FinalAmount:        totals.FinalAmount,
			PaymentMethod:      method,
			CashPaid:           paid,
			ChangeAmount:       change,
			Status:             model.TransactionCompleted,
			CreatedAt:          now,
			Items:              make([]model.TransactionItem, len(items)),
		}
		if key != "" {
			trx.IdempotencyKey = &key
		}
		for i, p := range rows {
			trx.Items[i] = model.TransactionItem{
				LineNo:      i + 1,
				ProductID:   p.ID,
				ProductCode: p.Code,
				ProductName: p.Name,
				Quantity:    lines[i].Quantity,
				UnitPrice:   p.SellingPrice,
				UnitCost:    p.PurchasePrice,
				Discount:    totals.LineDiscounts[i],
				Subtotal:    totals.LineSubtotal(lines, i),
			}
		}

		if err := uc.repo.Create(ctx, trx); err != nil {
			return err
		}

		for _, it := range trx.Items {
			_, err := uc.ledger.Apply(ctx, actor, &invdto.AdjustStockInput{
				ProductCode: it.ProductCode,
				Delta:       -it.Quantity,
				Action:      model.StockActionSale,
				Reference:   trx.Code,
				Notes:       "Sale " + trx.Code,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if key != "" && errors.Is(err, apperr.ErrDuplicateCode) {
			// A concurrent retry with the same key won the race.
			if prev, findErr := uc.repo.FindByIdempotencyKey(ctx, key); findErr == nil {
				return uc.replay(actor, prev, key)
			}
		}
		return nil, err
	}

	uc.logger.Info("transaction committed",
		zap.String("code", trx.Code),
		zap.Int64("user_id", actor.UserID),
		zap.String("final_amount", trx.FinalAmount.String()),
		zap.Int("lines", len(trx.Items)),
	)

	event.Emit(ctx, uc.publisher, uc.logger, trx.Code,
		event.NewTransactionEvent(event.TypeTransactionCommitted, trx, nil))
	return trx, nil
}

// settle returns the amount tendered and the change due. Non-cash payments
// are taken for the exact total.
func settle(method model.PaymentMethod, paid, total decimal.Decimal) (decimal.Decimal, decimal.Decimal, error) {
	if method != model.PaymentCash {
		if !paid.IsZero() && !paid.Equal(total) {
			return decimal.Zero, decimal.Zero, apperr.Invalid("%s payment must equal the total %s", method, total)
		}
		return total, decimal.Zero, nil
	}
	if paid.LessThan(total) {
		return decimal.Zero, decimal.Zero, apperr.Invalid("cash paid %s is less than the total %s", paid, total)
	}
	return paid, paid.Sub(total), nil
}

// GetTransaction lets cashiers read only their own sales.
// replay returns an earlier sale for a reused idempotency key. Another
// cashier's sale is only visible to roles that may view reports.
func (uc *transactionUseCase) replay(actor auth.Session, prev *model.Transaction, key string) (*model.Transaction, error) {
	if prev.UserID != actor.UserID {
		if err := auth.Require(actor, auth.ActionViewReports); err != nil {
			uc.logger.Warn("idempotency key reused by another user",
				zap.String("idempotency_key", key), zap.Int64("user_id", actor.UserID))
			return nil, err
		}
	}
	uc.logger.Info("replaying committed transaction",
		zap.String("code", prev.Code), zap.String("idempotency_key", key))
	return prev, nil
}

func (uc *transactionUseCase) GetTransaction(ctx context.Context, actor auth.Session, code string) (*model.Transaction, error) {
	trx, err := uc.repo.FindByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, err
	}
	if trx.UserID != actor.UserID {
		if err := auth.Require(actor, auth.ActionViewReports); err != nil {
			return nil, err
		}
	}
	return trx, nil
}

// ListTransactions scopes the listing to the actor unless they may view reports.
func (uc *transactionUseCase) ListTransactions(ctx context.Context, actor auth.Session, filters *dto.TransactionFilters) ([]model.Transaction, int, error) {
	if filters == nil {
		filters = &dto.TransactionFilters{}
	}
	filters.Normalize()

	if !auth.Authorize(actor, auth.ActionViewReports) {
		if filters.UserID != 0 && filters.UserID != actor.UserID {
			return nil, 0, auth.Require(actor, auth.ActionViewReports)
		}
		filters.UserID = actor.UserID
	}
	if filters.Status != "" && filters.Status != model.TransactionCompleted && filters.Status != model.TransactionVoided {
		return nil, 0, apperr.Invalid("unknown status %q", filters.Status)
	}
	if filters.StartDate != nil && filters.EndDate != nil && !filters.StartDate.Before(*filters.EndDate) {
		return nil, 0, apperr.Invalid("start date must be before end date")
	}

	return uc.repo.FindAll(ctx, filters)
}
