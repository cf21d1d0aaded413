package repository

import (
	"context"
	"database/sql/driver"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPGRepository_FindAll(t *testing.T) {
	columns := []string{"name", "product_count", "stock_units", "low_stock_count"}

	tests := []struct {
		name    string
		filters *dto.CategoryFilters
		query   string
		args    []interface{}
	}{
		{
			name:    "All active categories",
			filters: &dto.CategoryFilters{},
			query:   `FROM products\s+WHERE is_active\s+GROUP BY category\s+ORDER BY category`,
		},
		{
			name:    "Name filter binds a positional argument",
			filters: &dto.CategoryFilters{Query: "min"},
			query:   `WHERE is_active AND category ILIKE \$1\s+GROUP BY category\s+ORDER BY category`,
			args:    []interface{}{"%min%"},
		},
		{
			name:    "Low stock only adds a HAVING clause",
			filters: &dto.CategoryFilters{LowStockOnly: true},
			query:   `GROUP BY category HAVING COUNT\(\*\) FILTER \(WHERE stock < min_stock\) > 0\s+ORDER BY category`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMock(t)

			expect := mock.ExpectQuery(tt.query)
			if tt.args != nil {
				args := make([]driver.Value, len(tt.args))
				for i, a := range tt.args {
					args[i] = a
				}
				expect = expect.WithArgs(args...)
			}
			expect.WillReturnRows(sqlmock.NewRows(columns).
				AddRow("Minuman", 4, 37, 1).
				AddRow("Makanan", 2, 10, 0))

			got, err := repo.FindAll(context.Background(), tt.filters)
			require.NoError(t, err)
			assert.Equal(t, []model.Category{
				{Name: "Minuman", ProductCount: 4, StockUnits: 37, LowStockCount: 1},
				{Name: "Makanan", ProductCount: 2, StockUnits: 10, LowStockCount: 0},
			}, got)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPGRepository_FindAll_Empty(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(`FROM products`).
		WillReturnRows(sqlmock.NewRows([]string{"name", "product_count", "stock_units", "low_stock_count"}))

	got, err := repo.FindAll(context.Background(), &dto.CategoryFilters{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}
