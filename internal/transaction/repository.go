package transaction

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
)

type Repository interface {
	// NextSequence atomically reserves the next number for the business day.
	NextSequence(ctx context.Context, day time.Time) (int, error)
	// Create inserts the transaction and its items, filling generated ids.
	Create(ctx context.Context, trx *model.Transaction) error
	FindByCode(ctx context.Context, code string) (*model.Transaction, error)
	FindByCodeForUpdate(ctx context.Context, code string) (*model.Transaction, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*model.Transaction, error)
	FindAll(ctx context.Context, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
	// MarkVoided flips a completed transaction; false means it was not completed.
	MarkVoided(ctx context.Context, id int64, at time.Time) (bool, error)
}
