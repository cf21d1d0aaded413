package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/product/dto"
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

// Create inserts the product. Stock starts at zero; initial stock goes
// through the inventory ledger so it is logged.
func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            code, name, category, purchase_price, selling_price,
            stock, min_stock, is_active, created_at, updated_at
        )
        VALUES (
            :code, :name, :category, :purchase_price, :selling_price,
            0, :min_stock, :is_active, :created_at, :updated_at
        )
        RETURNING id`

	q := postgres.Querier(ctx, r.DB)
	bound, args, err := q.BindNamed(query, p)
	if err != nil {
		return err
	}
	err = sqlx.GetContext(ctx, q, &p.ID, bound, args...)
	if _, ok := postgres.UniqueViolation(err); ok {
		return fmt.Errorf("product code %q: %w", p.Code, apperr.ErrDuplicateCode)
	}
	return err
}

func (r *PGRepository) findByCode(ctx context.Context, code, suffix string) (*model.Product, error) {
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

func (r *PGRepository) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	return r.findByCode(ctx, code, "")
}

func (r *PGRepository) FindByCodeForUpdate(ctx context.Context, code string) (*model.Product, error) {
	return r.findByCode(ctx, code, " FOR UPDATE")
}

// FindByCodes returns the products in the order of codes; unknown codes are skipped.
func (r *PGRepository) FindByCodes(ctx context.Context, codes []string) ([]model.Product, error) {
	if len(codes) == 0 {
		return []model.Product{}, nil
	}
	q := postgres.Querier(ctx, r.DB)
	query, args, err := sqlx.In(`SELECT `+productColumns+` FROM products WHERE code IN (?)`, codes)
	if err != nil {
		return nil, err
	}

	found := []model.Product{}
	if err := sqlx.SelectContext(ctx, q, &found, q.Rebind(query), args...); err != nil {
		return nil, err
	}

	byCode := make(map[string]model.Product, len(found))
	for _, p := range found {
		byCode[p.Code] = p
	}
	out := make([]model.Product, 0, len(found))
	for _, c := range codes {
		if p, ok := byCode[c]; ok {
			out = append(out, p)
			delete(byCode, c)
		}
	}
	return out, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	if f == nil {
		f = &dto.ProductFilters{}
	}
	conditions := []string{}
	args := map[string]interface{}{}

	if !f.IncludeInactive {
		conditions = append(conditions, "is_active")
	}
	if f.Category != "" {
		conditions = append(conditions, "LOWER(category) = LOWER(:category)")
		args["category"] = f.Category
	}
	if f.LowStockOnly {
		conditions = append(conditions, "stock < min_stock")
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		conditions = append(conditions, "(name ILIKE :search OR code ILIKE :search)")
		args["search"] = "%" + q + "%"
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	q := postgres.Querier(ctx, r.DB)

	countQuery, countArgs, err := q.BindNamed("SELECT COUNT(*) FROM products"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := sqlx.GetContext(ctx, q, &count, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + productColumns + ` FROM products` + whereClause + ` ORDER BY code`
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
	products := []model.Product{}
	if err := sqlx.SelectContext(ctx, q, &products, bound, bargs...); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// Update writes the catalog fields. Stock is owned by the inventory ledger
// and never written here.
func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products SET
            name = :name,
            category = :category,
            purchase_price = :purchase_price,
            selling_price = :selling_price,
            min_stock = :min_stock,
            updated_at = :updated_at
        WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, postgres.Querier(ctx, r.DB), query, p)
	if err != nil {
		return err
	}
	return requireRow(res, p.Code)
}

func (r *PGRepository) SetActive(ctx context.Context, code string, active bool) error {
	res, err := postgres.Querier(ctx, r.DB).ExecContext(ctx,
		`UPDATE products SET is_active = $2, updated_at = NOW() WHERE code = $1`, code, active)
	if err != nil {
		return err
	}
	return requireRow(res, code)
}

func requireRow(res sql.Result, code string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("product", code)
	}
	return nil
}
