package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const selectTransaction = `
        SELECT t.id, t.transaction_code, t.user_id, u.full_name AS cashier_name, t.idempotency_key,
            t.subtotal, t.discount_type, t.discount_rule, t.discount_percentage, t.discount_amount,
            t.tax_rate, t.tax_amount, t.final_amount, t.payment_method, t.cash_paid, t.change_amount,
            t.status, t.created_at, t.voided_at
        FROM transactions t
        JOIN users u ON u.id = t.user_id`

// NextSequence upserts the per-day counter; the row lock it takes serializes
// concurrent commits until their transactions end.
func (r *PGRepository) NextSequence(ctx context.Context, day time.Time) (int, error) {
	query := `
        INSERT INTO transaction_counters (business_date, last_value)
        VALUES ($1, 1)
        ON CONFLICT (business_date) DO UPDATE SET last_value = transaction_counters.last_value + 1
        RETURNING last_value`

	var next int
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &next, query, day.Format("2006-01-02"))
	return next, err
}

func (r *PGRepository) Create(ctx context.Context, trx *model.Transaction) error {
	query := `
        INSERT INTO transactions (
            transaction_code, user_id, idempotency_key, subtotal, discount_type, discount_rule,
            discount_percentage, discount_amount, tax_rate, tax_amount, final_amount,
            payment_method, cash_paid, change_amount, status, created_at
        )
        VALUES (
            :transaction_code, :user_id, :idempotency_key, :subtotal, :discount_type, :discount_rule,
            :discount_percentage, :discount_amount, :tax_rate, :tax_amount, :final_amount,
            :payment_method, :cash_paid, :change_amount, :status, :created_at
        )
        RETURNING id`

	q := postgres.Querier(ctx, r.DB)
	bound, args, err := q.BindNamed(query, trx)
	if err != nil {
		return err
	}
	err = sqlx.GetContext(ctx, q, &trx.ID, bound, args...)
	if constraint, ok := postgres.UniqueViolation(err); ok {
		if strings.Contains(constraint, "idempotency") {
			return fmt.Errorf("idempotency key: %w", apperr.ErrDuplicateCode)
		}
		return fmt.Errorf("transaction code %q: %w", trx.Code, apperr.ErrDuplicateCode)
	}
	if err != nil {
		return err
	}

	itemQuery := `
        INSERT INTO transaction_details (
            transaction_id, line_no, product_id, product_code, product_name,
            quantity, unit_price, unit_cost, discount, subtotal
        )
        VALUES (
            :transaction_id, :line_no, :product_id, :product_code, :product_name,
            :quantity, :unit_price, :unit_cost, :discount, :subtotal
        )
        RETURNING id`

	for i := range trx.Items {
		it := &trx.Items[i]
		it.TransactionID = trx.ID
		bound, args, err := q.BindNamed(itemQuery, it)
		if err != nil {
			return err
		}
		if err := sqlx.GetContext(ctx, q, &it.ID, bound, args...); err != nil {
			return fmt.Errorf("insert line %d: %w", it.LineNo, err)
		}
	}
	return nil
}

func (r *PGRepository) findOne(ctx context.Context, where, suffix, key string, arg interface{}) (*model.Transaction, error) {
	q := postgres.Querier(ctx, r.DB)
	var trx model.Transaction
	err := sqlx.GetContext(ctx, q, &trx, selectTransaction+" WHERE "+where+suffix, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transaction", key)
	}
	if err != nil {
		return nil, err
	}

	list := []model.Transaction{trx}
	if err := r.attachItems(ctx, q, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (r *PGRepository) FindByCode(ctx context.Context, code string) (*model.Transaction, error) {
	return r.findOne(ctx, "t.transaction_code = $1", "", code, code)
}

// FindByCodeForUpdate row-locks the transaction header only.
func (r *PGRepository) FindByCodeForUpdate(ctx context.Context, code string) (*model.Transaction, error) {
	return r.findOne(ctx, "t.transaction_code = $1", " FOR UPDATE OF t", code, code)
}

func (r *PGRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.Transaction, error) {
	return r.findOne(ctx, "t.idempotency_key = $1", "", key, key)
}

func (r *PGRepository) attachItems(ctx context.Context, q sqlx.ExtContext, list []model.Transaction) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]int64, len(list))
	pos := make(map[int64]int, len(list))
	for i, t := range list {
		ids[i] = t.ID
		pos[t.ID] = i
		list[i].Items = []model.TransactionItem{}
	}

	query, args, err := sqlx.In(`
        SELECT id, transaction_id, line_no, product_id, product_code, product_name,
            quantity, unit_price, unit_cost, discount, subtotal
        FROM transaction_details
        WHERE transaction_id IN (?)
        ORDER BY transaction_id, line_no`, ids)
	if err != nil {
		return err
	}

	items := []model.TransactionItem{}
	if err := sqlx.SelectContext(ctx, q, &items, q.Rebind(query), args...); err != nil {
		return err
	}
	for _, it := range items {
		i := pos[it.TransactionID]
		list[i].Items = append(list[i].Items, it)
	}
	return nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransactionFilters) ([]model.Transaction, int, error) {
	if f == nil {
		f = &dto.TransactionFilters{}
	}
	conditions := []string{}
	args := map[string]interface{}{}

	if f.UserID != 0 {
		conditions = append(conditions, "t.user_id = :user_id")
		args["user_id"] = f.UserID
	}
	if f.Status != "" {
		conditions = append(conditions, "t.status = :status")
		args["status"] = f.Status
	}
	if f.StartDate != nil {
		conditions = append(conditions, "t.created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "t.created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := postgres.Querier(ctx, r.DB)

	countQuery, countArgs, err := q.BindNamed("SELECT COUNT(*) FROM transactions t"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := selectTransaction + whereClause + " ORDER BY t.id DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	bound, bargs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, 0, err
	}
	list := []model.Transaction{}
	if err := sqlx.SelectContext(ctx, q, &list, bound, bargs...); err != nil {
		return nil, 0, err
	}
	if err := r.attachItems(ctx, q, list); err != nil {
		return nil, 0, err
	}
	return list, count, nil
}

// MarkVoided only touches completed rows, so a concurrent second void sees false.
func (r *PGRepository) MarkVoided(ctx context.Context, id int64, at time.Time) (bool, error) {
	res, err := postgres.Querier(ctx, r.DB).ExecContext(ctx,
		`UPDATE transactions SET status = 'voided', voided_at = $2 WHERE id = $1 AND status = 'completed'`, id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
