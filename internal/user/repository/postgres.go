package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/user/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/database/postgres"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const userColumns = `id, username, password_hash, full_name, role, is_active, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, u *model.User) error {
	q := postgres.Querier(ctx, r.DB)
	query := `
        INSERT INTO users (username, password_hash, full_name, role, is_active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id`
	err := sqlx.GetContext(ctx, q, &u.ID, query,
		u.Username, u.PasswordHash, u.FullName, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if _, ok := postgres.UniqueViolation(err); ok {
		return fmt.Errorf("username %q: %w", u.Username, apperr.ErrDuplicateCode)
	}
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &u,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", fmt.Sprint(id))
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &u,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", username)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.UserFilters) ([]model.User, error) {
	conditions := []string{}
	args := map[string]interface{}{}

	if !f.IncludeInactive {
		conditions = append(conditions, "is_active")
	}
	if f.Role != "" {
		conditions = append(conditions, "role = :role")
		args["role"] = f.Role
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY username"

	q := postgres.Querier(ctx, r.DB)
	bound, bargs, err := q.BindNamed(query, args)
	if err != nil {
		return nil, err
	}

	users := []model.User{}
	err = sqlx.SelectContext(ctx, q, &users, bound, bargs...)
	return users, err
}

func (r *PGRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := postgres.Querier(ctx, r.DB).ExecContext(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *PGRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := postgres.Querier(ctx, r.DB).ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func (r *PGRepository) CountActiveByRole(ctx context.Context, role model.Role) (int, error) {
	var n int
	err := sqlx.GetContext(ctx, postgres.Querier(ctx, r.DB), &n,
		`SELECT COUNT(*) FROM users WHERE role = $1 AND is_active`, role)
	return n, err
}

func requireRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("user", fmt.Sprint(id))
	}
	return nil
}
