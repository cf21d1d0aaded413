package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/pricing"
	"github.com/fekuna/omnipos-cashier-service/internal/report"
	"github.com/fekuna/omnipos-cashier-service/internal/report/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxPeriod = 366 * 24 * time.Hour

type reportUseCase struct {
	repo   report.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewReportUseCase(repo report.Repository, log logger.ZapLogger) report.UseCase {
	return &reportUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// normalize defaults an empty period to today and a missing end to one day
// after the start.
func (uc *reportUseCase) normalize(p dto.Period) (dto.Period, error) {
	if p.From.IsZero() {
		y, m, d := uc.now().Date()
		p.From = time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	}
	if p.To.IsZero() {
		p.To = p.From.AddDate(0, 0, 1)
	}
	if !p.From.Before(p.To) {
		return p, apperr.Invalid("period start must be before its end")
	}
	if p.To.Sub(p.From) > maxPeriod {
		return p, apperr.Invalid("period is longer than a year")
	}
	return p, nil
}

func (uc *reportUseCase) SalesSummary(ctx context.Context, actor auth.Session, period dto.Period) (*model.SalesSummary, error) {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return nil, err
	}
	period, err := uc.normalize(period)
	if err != nil {
		return nil, err
	}

	s, err := uc.repo.SalesSummary(ctx, period.From, period.To)
	if err != nil {
		return nil, err
	}
	s.AverageTicket = decimal.Zero
	if s.TransactionCount > 0 {
		s.AverageTicket = s.GrossSales.DivRound(decimal.NewFromInt(int64(s.TransactionCount)), pricing.DefaultScale)
	}

	low, err := uc.repo.CountLowStock(ctx)
	if err != nil {
		return nil, err
	}
	s.LowStockProducts = low

	uc.logger.Debug("sales summary",
		zap.Time("from", period.From),
		zap.Time("to", period.To),
		zap.Int("transactions", s.TransactionCount),
	)
	return s, nil
}

func (uc *reportUseCase) DailySales(ctx context.Context, actor auth.Session, period dto.Period) ([]model.DailySales, error) {
	if err := auth.Require(actor, auth.ActionViewReports); err != nil {
		return nil, err
	}
	period, err := uc.normalize(period)
	if err != nil {
		return nil, err
	}
	return uc.repo.DailySales(ctx, period.From, period.To)
}
