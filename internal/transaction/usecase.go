package transaction

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
)

type UseCase interface {
	Commit(ctx context.Context, actor auth.Session, input *dto.CommitInput) (*model.Transaction, error)
	GetTransaction(ctx context.Context, actor auth.Session, code string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, actor auth.Session, filters *dto.TransactionFilters) ([]model.Transaction, int, error)
}
