package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type InventoryRepository struct {
	db *DB
}

func NewInventoryRepository(db *DB) *InventoryRepository {
	return &InventoryRepository{db: db}
}

func (r *InventoryRepository) GetProduct(ctx context.Context, code string) (*model.Product, error) {
	var out *model.Product
	err := r.db.read(func(t *tables) error {
		p, ok := findProduct(t, code)
		if !ok {
			return apperr.NotFound("product", code)
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *InventoryRepository) GetProductForUpdate(ctx context.Context, code string) (*model.Product, error) {
	return r.GetProduct(ctx, code)
}

func (r *InventoryRepository) UpdateStock(ctx context.Context, productID int64, stock int) error {
	return r.db.write(ctx, func(t *tables) error {
		p, ok := t.products[productID]
		if !ok {
			return apperr.NotFound("product", fmt.Sprint(productID))
		}
		if stock < 0 {
			return &apperr.NegativeStockError{ProductCode: p.Code, Current: p.Stock, Delta: stock - p.Stock}
		}
		p.Stock = stock
		t.products[productID] = p
		return nil
	})
}

func (r *InventoryRepository) InsertLog(ctx context.Context, entry *model.InventoryLog) error {
	return r.db.write(ctx, func(t *tables) error {
		p, ok := t.products[entry.ProductID]
		if !ok {
			return apperr.NotFound("product", fmt.Sprint(entry.ProductID))
		}
		t.logSeq++
		entry.ID = t.logSeq
		entry.ProductCode = p.Code
		t.logs = append(t.logs, *entry)
		return nil
	})
}

func (r *InventoryRepository) ListLogs(ctx context.Context, filters *dto.LogFilters) ([]model.InventoryLog, int, error) {
	f := dto.LogFilters{}
	if filters != nil {
		f = *filters
	}

	var all []model.InventoryLog
	_ = r.db.read(func(t *tables) error {
		for _, l := range t.logs {
			if f.ProductCode != "" && l.ProductCode != f.ProductCode {
				continue
			}
			if f.Action != "" && l.Action != f.Action {
				continue
			}
			if f.StartDate != nil && l.CreatedAt.Before(*f.StartDate) {
				continue
			}
			if f.EndDate != nil && !l.CreatedAt.Before(*f.EndDate) {
				continue
			}
			all = append(all, l)
		}
		return nil
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start, end := paginate(len(all), f.Page, f.PageSize)
	return all[start:end], len(all), nil
}

func (r *InventoryRepository) SumLogs(ctx context.Context, productID int64) (int, int, error) {
	sum, n := 0, 0
	err := r.db.read(func(t *tables) error {
		for _, l := range t.logs {
			if l.ProductID == productID {
				sum += l.QuantityChange
				n++
			}
		}
		return nil
	})
	return sum, n, err
}

func (r *InventoryRepository) ListLowStock(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	err := r.db.read(func(t *tables) error {
		for _, p := range t.products {
			if p.IsActive && p.LowStock() {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}
