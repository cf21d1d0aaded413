package void

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
)

type Repository interface {
	Create(ctx context.Context, record *model.VoidRecord) error
	FindAll(ctx context.Context, filters *dto.VoidFilters) ([]model.VoidRecord, int, error)
}
