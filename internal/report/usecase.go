package report

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/report/dto"
)

type UseCase interface {
	SalesSummary(ctx context.Context, actor auth.Session, period dto.Period) (*model.SalesSummary, error)
	DailySales(ctx context.Context, actor auth.Session, period dto.Period) ([]model.DailySales, error)
}
