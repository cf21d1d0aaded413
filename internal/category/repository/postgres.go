package repository

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, error) {
	conditions := []string{"is_active"}
	args := map[string]interface{}{}

	if f.Query != "" {
		conditions = append(conditions, "category ILIKE :query")
		args["query"] = "%" + f.Query + "%"
	}

	having := ""
	if f.LowStockOnly {
		having = " HAVING COUNT(*) FILTER (WHERE stock < min_stock) > 0"
	}

	query := `
        SELECT
            category AS name,
            COUNT(*) AS product_count,
            COALESCE(SUM(stock), 0) AS stock_units,
            COUNT(*) FILTER (WHERE stock < min_stock) AS low_stock_count
        FROM products
        WHERE ` + strings.Join(conditions, " AND ") + `
        GROUP BY category` + having + `
        ORDER BY category`

	q := postgres.Querier(ctx, r.DB)
	bound, bargs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, err
	}

	categories := []model.Category{}
	if err := sqlx.SelectContext(ctx, q, &categories, bound, bargs...); err != nil {
		return nil, err
	}
	return categories, nil
}
