package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type CategoryRepository struct {
	db *DB
}

func NewCategoryRepository(db *DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, error) {
	f := dto.CategoryFilters{}
	if filters != nil {
		f = *filters
	}
	q := strings.ToLower(f.Query)

	byName := make(map[string]*model.Category)
	err := r.db.read(func(t *tables) error {
		for _, p := range t.products {
			if !p.IsActive {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(p.Category), q) {
				continue
			}
			c, ok := byName[p.Category]
			if !ok {
				c = &model.Category{Name: p.Category}
				byName[p.Category] = c
			}
			c.ProductCount++
			c.StockUnits += p.Stock
			if p.LowStock() {
				c.LowStockCount++
			}
		}
		return nil
	})

	out := make([]model.Category, 0, len(byName))
	for _, c := range byName {
		if f.LowStockOnly && c.LowStockCount == 0 {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}
