package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, v *model.VoidRecord) error {
	query := `
        INSERT INTO void_transactions (original_transaction_id, voided_by, reason, created_at)
        VALUES (:original_transaction_id, :voided_by, :reason, :created_at)
        RETURNING id`

	q := postgres.Querier(ctx, r.DB)
	bound, args, err := q.BindNamed(query, v)
	if err != nil {
		return err
	}
	err = sqlx.GetContext(ctx, q, &v.ID, bound, args...)
	if _, ok := postgres.UniqueViolation(err); ok {
		return fmt.Errorf("void of transaction %d: %w", v.OriginalTransactionID, apperr.ErrDuplicateCode)
	}
	return err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.VoidFilters) ([]model.VoidRecord, int, error) {
	if f == nil {
		f = &dto.VoidFilters{}
	}
	conditions := []string{}
	args := map[string]interface{}{}

	if f.StartDate != nil {
		conditions = append(conditions, "v.created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "v.created_at < :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := postgres.Querier(ctx, r.DB)

	countQuery, countArgs, err := q.BindNamed("SELECT COUNT(*) FROM void_transactions v"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT v.id, v.original_transaction_id, t.transaction_code, v.voided_by,
            u.full_name AS voided_by_name, v.reason, v.created_at
        FROM void_transactions v
        JOIN transactions t ON t.id = v.original_transaction_id
        JOIN users u ON u.id = v.voided_by` + whereClause + ` ORDER BY v.id DESC`
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
	records := []model.VoidRecord{}
	if err := sqlx.SelectContext(ctx, q, &records, bound, bargs...); err != nil {
		return nil, 0, err
	}
	return records, count, nil
}
