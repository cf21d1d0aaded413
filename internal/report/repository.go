package report

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type Repository interface {
	// SalesSummary aggregates transactions created in [from, to).
	SalesSummary(ctx context.Context, from, to time.Time) (*model.SalesSummary, error)
	DailySales(ctx context.Context, from, to time.Time) ([]model.DailySales, error)
	CountLowStock(ctx context.Context) (int, error)
}
