package void

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
)

type UseCase interface {
	VoidTransaction(ctx context.Context, actor auth.Session, input *dto.VoidInput) (*model.VoidRecord, error)
	ListVoids(ctx context.Context, actor auth.Session, filters *dto.VoidFilters) ([]model.VoidRecord, int, error)
}
