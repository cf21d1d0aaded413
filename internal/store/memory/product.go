package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/product/dto"
)

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func findProduct(t *tables, code string) (model.Product, bool) {
	for _, p := range t.products {
		if p.Code == code {
			return p, true
		}
	}
	return model.Product{}, false
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	return r.db.write(ctx, func(t *tables) error {
		if _, ok := findProduct(t, p.Code); ok {
			return fmt.Errorf("product code %q: %w", p.Code, apperr.ErrDuplicateCode)
		}
		t.productSeq++
		p.ID = t.productSeq
		t.products[p.ID] = *p
		return nil
	})
}

func (r *ProductRepository) FindByCode(ctx context.Context, code string) (*model.Product, error) {
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

// FindByCodeForUpdate needs no row lock here: writers are already serialized.
func (r *ProductRepository) FindByCodeForUpdate(ctx context.Context, code string) (*model.Product, error) {
	return r.FindByCode(ctx, code)
}

func (r *ProductRepository) FindByCodes(ctx context.Context, codes []string) ([]model.Product, error) {
	want := make(map[string]int, len(codes))
	for i, c := range codes {
		want[c] = i
	}
	var out []model.Product
	err := r.db.read(func(t *tables) error {
		for _, p := range t.products {
			if _, ok := want[p.Code]; ok {
				out = append(out, p)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return want[out[i].Code] < want[out[j].Code] })
	return out, err
}

func (r *ProductRepository) FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	f := dto.ProductFilters{}
	if filters != nil {
		f = *filters
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))

	var all []model.Product
	_ = r.db.read(func(t *tables) error {
		for _, p := range t.products {
			if !f.IncludeInactive && !p.IsActive {
				continue
			}
			if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
				continue
			}
			if f.LowStockOnly && !p.LowStock() {
				continue
			}
			if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
				!strings.Contains(strings.ToLower(p.Code), q) {
				continue
			}
			all = append(all, p)
		}
		return nil
	})
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })

	start, end := paginate(len(all), f.Page, f.PageSize)
	return all[start:end], len(all), nil
}

func (r *ProductRepository) Update(ctx context.Context, p *model.Product) error {
	return r.db.write(ctx, func(t *tables) error {
		cur, ok := t.products[p.ID]
		if !ok {
			return apperr.NotFound("product", p.Code)
		}
		cur.Name = p.Name
		cur.Category = p.Category
		cur.PurchasePrice = p.PurchasePrice
		cur.SellingPrice = p.SellingPrice
		cur.MinStock = p.MinStock
		cur.UpdatedAt = p.UpdatedAt
		t.products[p.ID] = cur
		return nil
	})
}

func (r *ProductRepository) SetActive(ctx context.Context, code string, active bool) error {
	return r.db.write(ctx, func(t *tables) error {
		p, ok := findProduct(t, code)
		if !ok {
			return apperr.NotFound("product", code)
		}
		p.IsActive = active
		t.products[p.ID] = p
		return nil
	})
}
