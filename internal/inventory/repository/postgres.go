package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
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

const productColumns = `id, code, name, category, purchase_price, selling_price, stock, min_stock, is_active, created_at, updated_at`

func (r *PGRepository) getProduct(ctx context.Context, code, suffix string) (*model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &p,
		`SELECT `+productColumns+` FROM products WHERE code = $1`+suffix, code)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("product", code)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) GetProduct(ctx context.Context, code string) (*model.Product, error) {
	return r.getProduct(ctx, code, "")
}

func (r *PGRepository) GetProductForUpdate(ctx context.Context, code string) (*model.Product, error) {
	return r.getProduct(ctx, code, " FOR UPDATE")
}

func (r *PGRepository) UpdateStock(ctx context.Context, productID int64, stock int) error {
	res, err := postgres.Querier(ctx, r.DB).ExecContext(ctx,
		`UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, productID, stock)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("product", fmt.Sprint(productID))
	}
	return nil
}

func (r *PGRepository) InsertLog(ctx context.Context, l *model.InventoryLog) error {
	query := `
        INSERT INTO inventory_logs (
            product_id, user_id, action, quantity_change,
            previous_stock, new_stock, reference, notes, created_at
        )
        VALUES (
            :product_id, :user_id, :action, :quantity_change,
            :previous_stock, :new_stock, :reference, :notes, :created_at
        )
        RETURNING id`

	q := postgres.Querier(ctx, r.DB)
	bound, args, err := q.BindNamed(query, l)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, q, &l.ID, bound, args...)
}

func (r *PGRepository) ListLogs(ctx context.Context, f *dto.LogFilters) ([]model.InventoryLog, int, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductCode != "" {
		conditions = append(conditions, "p.code = :product_code")
		args["product_code"] = f.ProductCode
	}
	if f.Action != "" {
		conditions = append(conditions, "l.action = :action")
		args["action"] = f.Action
	}
	if f.StartDate != nil {
		conditions = append(conditions, "l.created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "l.created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}
	from := " FROM inventory_logs l JOIN products p ON p.id = l.product_id"

	q := postgres.Querier(ctx, r.DB)

	countQuery, countArgs, err := q.BindNamed("SELECT COUNT(*)"+from+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := `SELECT l.id, l.product_id, p.code AS product_code, l.user_id, l.action,
        l.quantity_change, l.previous_stock, l.new_stock, l.reference, l.notes, l.created_at` +
		from + whereClause + " ORDER BY l.id DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	bound, bargs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	logs := []model.InventoryLog{}
	err = sqlx.SelectContext(ctx, q, &logs, bound, bargs...)
	return logs, count, err
}

func (r *PGRepository) SumLogs(ctx context.Context, productID int64) (int, int, error) {
	var row struct {
		Total int `db:"total"`
		N     int `db:"n"`
	}
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &row,
		`SELECT COALESCE(SUM(quantity_change), 0) AS total, COUNT(*) AS n
         FROM inventory_logs WHERE product_id = $1`, productID)
	return row.Total, row.N, err
}

func (r *PGRepository) ListLowStock(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	err := sqlx.SelectContext(ctx, postgres.Querier(ctx, r.DB), &products,
		`SELECT `+productColumns+` FROM products WHERE is_active AND stock < min_stock ORDER BY code`)
	return products, err
}
