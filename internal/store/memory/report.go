package memory

import (
	"context"
	"sort"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/shopspring/decimal"
)

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func inPeriod(at, from, to time.Time) bool {
	return !at.Before(from) && at.Before(to)
}

func (r *ReportRepository) SalesSummary(ctx context.Context, from, to time.Time) (*model.SalesSummary, error) {
	s := &model.SalesSummary{
		From:       from,
		To:         to,
		GrossSales: decimal.Zero,
		Profit:     decimal.Zero,
	}
	err := r.db.read(func(t *tables) error {
		for _, trx := range t.transactions {
			if !inPeriod(trx.CreatedAt, from, to) {
				continue
			}
			if trx.Status == model.TransactionVoided {
				s.VoidedCount++
				continue
			}
			s.TransactionCount++
			s.GrossSales = s.GrossSales.Add(trx.FinalAmount)
			cost := decimal.Zero
			for _, it := range trx.Items {
				s.ItemsSold += it.Quantity
				cost = cost.Add(it.UnitCost.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			s.Profit = s.Profit.Add(trx.TaxableAmount().Sub(cost))
		}
		return nil
	})
	return s, err
}

func (r *ReportRepository) DailySales(ctx context.Context, from, to time.Time) ([]model.DailySales, error) {
	byDay := make(map[time.Time]*model.DailySales)
	err := r.db.read(func(t *tables) error {
		for _, trx := range t.transactions {
			if trx.Status != model.TransactionCompleted || !inPeriod(trx.CreatedAt, from, to) {
				continue
			}
			y, m, d := trx.CreatedAt.Date()
			day := time.Date(y, m, d, 0, 0, 0, 0, trx.CreatedAt.Location())
			row, ok := byDay[day]
			if !ok {
				row = &model.DailySales{Day: day, GrossSales: decimal.Zero}
				byDay[day] = row
			}
			row.GrossSales = row.GrossSales.Add(trx.FinalAmount)
			row.TransactionCount++
		}
		return nil
	})

	out := make([]model.DailySales, 0, len(byDay))
	for _, row := range byDay {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out, err
}

func (r *ReportRepository) CountLowStock(ctx context.Context) (int, error) {
	n := 0
	err := r.db.read(func(t *tables) error {
		for _, p := range t.products {
			if p.IsActive && p.LowStock() {
				n++
			}
		}
		return nil
	})
	return n, err
}
