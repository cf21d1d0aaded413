package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	from = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	to   = from.AddDate(0, 0, 1)
)

func newMock(t *testing.T) (*PGRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPGRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestPGRepository_SalesSummary(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM transactions\s+WHERE created_at >= \$1 AND created_at < \$2`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"gross_sales", "taxable", "transaction_count", "voided_count"}).
			AddRow("55500.00", "50000.00", 3, 1))
	mock.ExpectQuery(`FROM transaction_details d\s+JOIN transactions t ON t.id = d.transaction_id\s+WHERE t.status = 'completed'`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"items_sold", "cost"}).
			AddRow(7, "32000.00"))

	got, err := repo.SalesSummary(context.Background(), from, to)
	require.NoError(t, err)
	assert.Equal(t, from, got.From)
	assert.Equal(t, to, got.To)
	assert.True(t, decimal.RequireFromString("55500").Equal(got.GrossSales))
	assert.Equal(t, 3, got.TransactionCount)
	assert.Equal(t, 7, got.ItemsSold)
	assert.Equal(t, 1, got.VoidedCount)
	assert.True(t, decimal.RequireFromString("18000").Equal(got.Profit), "profit is taxable revenue minus cost, got %s", got.Profit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_SalesSummary_QueryError(t *testing.T) {
	repo, mock := newMock(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`FROM transactions`).WithArgs(from, to).WillReturnError(boom)

	_, err := repo.SalesSummary(context.Background(), from, to)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_DailySales(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`date_trunc\('day', created_at\) AS day.*GROUP BY 1\s+ORDER BY 1`).
		WithArgs(from, to).
		WillReturnRows(sqlmock.NewRows([]string{"day", "gross_sales", "transaction_count"}).
			AddRow(from, "12000.50", 2))

	got, err := repo.DailySales(context.Background(), from, to)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, from, got[0].Day)
	assert.True(t, decimal.RequireFromString("12000.50").Equal(got[0].GrossSales))
	assert.Equal(t, 2, got[0].TransactionCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepository_CountLowStock(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM products WHERE is_active AND stock < min_stock`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountLowStock(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
