package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

type totalsRow struct {
	GrossSales       decimal.Decimal `db:"gross_sales"`
	Taxable          decimal.Decimal `db:"taxable"`
	TransactionCount int             `db:"transaction_count"`
	VoidedCount      int             `db:"voided_count"`
}

type itemsRow struct {
	ItemsSold int             `db:"items_sold"`
	Cost      decimal.Decimal `db:"cost"`
}

// SalesSummary counts completed sales only; voided ones are reported apart.
// Profit is the discounted pre-tax revenue minus the cost snapshot on each line.
func (r *PGRepository) SalesSummary(ctx context.Context, from, to time.Time) (*model.SalesSummary, error) {
	q := postgres.Querier(ctx, r.DB)

	var totals totalsRow
	err := sqlx.GetContext(ctx, q, &totals, `
        SELECT
            COALESCE(SUM(final_amount) FILTER (WHERE status = 'completed'), 0) AS gross_sales,
            COALESCE(SUM(subtotal - discount_amount) FILTER (WHERE status = 'completed'), 0) AS taxable,
            COUNT(*) FILTER (WHERE status = 'completed') AS transaction_count,
            COUNT(*) FILTER (WHERE status = 'voided') AS voided_count
        FROM transactions
        WHERE created_at >= $1 AND created_at < $2`, from, to)
	if err != nil {
		return nil, err
	}

	var items itemsRow
	err = sqlx.GetContext(ctx, q, &items, `
        SELECT
            COALESCE(SUM(d.quantity), 0) AS items_sold,
            COALESCE(SUM(d.quantity * d.unit_cost), 0) AS cost
        FROM transaction_details d
        JOIN transactions t ON t.id = d.transaction_id
        WHERE t.status = 'completed' AND t.created_at >= $1 AND t.created_at < $2`, from, to)
	if err != nil {
		return nil, err
	}

	return &model.SalesSummary{
		From:             from,
		To:               to,
		GrossSales:       totals.GrossSales,
		TransactionCount: totals.TransactionCount,
		ItemsSold:        items.ItemsSold,
		Profit:           totals.Taxable.Sub(items.Cost),
		VoidedCount:      totals.VoidedCount,
	}, nil
}

func (r *PGRepository) DailySales(ctx context.Context, from, to time.Time) ([]model.DailySales, error) {
	rows := []model.DailySales{}
	err := sqlx.SelectContext(ctx, postgres.Querier(ctx, r.DB), &rows, `
        SELECT
            date_trunc('day', created_at) AS day,
            SUM(final_amount) AS gross_sales,
            COUNT(*) AS transaction_count
        FROM transactions
        WHERE status = 'completed' AND created_at >= $1 AND created_at < $2
        GROUP BY 1
        ORDER BY 1`, from, to)
	return rows, err
}

func (r *PGRepository) CountLowStock(ctx context.Context) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &n,
		`SELECT COUNT(*) FROM products WHERE is_active AND stock < min_stock`)
	return n, err
}
