package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/event"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction"
	"github.com/fekuna/omnipos-cashier-service/internal/void"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
)

const maxReasonLength = 500

type voidUseCase struct {
	repo         void.Repository
	transactions transaction.Repository
	ledger       inventory.Ledger
	tx           store.Transactor
	locker       store.Locker
	publisher    event.Publisher
	logger       logger.ZapLogger
	now          func() time.Time
}

// NewVoidUseCase wires the reversal protocol. publisher may be nil.
func NewVoidUseCase(
	repo void.Repository,
	transactions transaction.Repository,
	ledger inventory.Ledger,
	tx store.Transactor,
	locker store.Locker,
	publisher event.Publisher,
	log logger.ZapLogger,
) void.UseCase {
	return &voidUseCase{
		repo:         repo,
		transactions: transactions,
		ledger:       ledger,
		tx:           tx,
		locker:       locker,
		publisher:    publisher,
		logger:       log,
		now:          time.Now,
	}
}

func notVoidable(code string, err error) error {
	if errors.Is(err, apperr.ErrNotFound) {
		return &apperr.TransactionNotVoidableError{Code: code}
	}
	return err
}

// VoidTransaction restores stock for every line, flips the transaction to
// voided and records who did it and why. All three happen or none do.
func (uc *voidUseCase) VoidTransaction(ctx context.Context, actor auth.Session, input *dto.VoidInput) (*model.VoidRecord, error) {
	if err := auth.Require(actor, auth.ActionVoid); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		return nil, apperr.Invalid("void reason is required")
	}
	if len(reason) > maxReasonLength {
		return nil, apperr.Invalid("void reason is longer than %d characters", maxReasonLength)
	}
	code := strings.TrimSpace(input.TransactionCode)

	// Read once unlocked to learn which products to lock.
	trx, err := uc.transactions.FindByCode(ctx, code)
	if err != nil {
		return nil, notVoidable(code, err)
	}
	if trx.Status != model.TransactionCompleted {
		return nil, &apperr.TransactionNotVoidableError{Code: trx.Code, Status: string(trx.Status)}
	}

	keys := make([]string, len(trx.Items))
	for i, it := range trx.Items {
		keys[i] = it.ProductCode
	}
	unlock, err := uc.locker.Lock(ctx, keys...)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var record *model.VoidRecord
	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		current, err := uc.transactions.FindByCodeForUpdate(ctx, code)
		if err != nil {
			return notVoidable(code, err)
		}
		if current.Status != model.TransactionCompleted {
			return &apperr.TransactionNotVoidableError{Code: current.Code, Status: string(current.Status)}
		}

		for _, it := range current.Items {
			_, err := uc.ledger.Apply(ctx, actor, &invdto.AdjustStockInput{
				ProductCode: it.ProductCode,
				Delta:       it.Quantity,
				Action:      model.StockActionVoidRestock,
				Reference:   current.Code,
				Notes:       "Void of " + current.Code + ": " + reason,
			})
			if err != nil {
				return err
			}
		}

		now := uc.now()
		flipped, err := uc.transactions.MarkVoided(ctx, current.ID, now)
		if err != nil {
			return err
		}
		if !flipped {
			return &apperr.TransactionNotVoidableError{Code: current.Code, Status: string(model.TransactionVoided)}
		}

		record = &model.VoidRecord{
			OriginalTransactionID: current.ID,
			TransactionCode:       current.Code,
			VoidedBy:              actor.UserID,
			VoidedByName:          actor.FullName,
			Reason:                reason,
			CreatedAt:             now,
		}
		if err := uc.repo.Create(ctx, record); err != nil {
			return err
		}

		current.Status = model.TransactionVoided
		current.VoidedAt = &now
		trx = current
		return nil
	})
	if err != nil {
		uc.logger.Warn("void rejected",
			zap.String("code", code),
			zap.Int64("user_id", actor.UserID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.logger.Info("transaction voided",
		zap.String("code", trx.Code),
		zap.Int64("voided_by", actor.UserID),
		zap.String("reason", reason),
	)

	event.Emit(ctx, uc.publisher, uc.logger, trx.Code,
		event.NewTransactionEvent(event.TypeTransactionVoided, trx, record))
	return record, nil
}

func (uc *voidUseCase) ListVoids(ctx context.Context, actor auth.Session, filters *dto.VoidFilters) ([]model.VoidRecord, int, error) {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return nil, 0, err
	}
	if filters == nil {
		filters = &dto.VoidFilters{}
	}
	filters.Normalize()
	return uc.repo.FindAll(ctx, filters)
}
