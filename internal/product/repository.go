package product

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/product/dto"
)

type Repository interface {
	Create(ctx context.Context, product *model.Product) error
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	// FindByCodeForUpdate row-locks the product for the enclosing transaction.
	FindByCodeForUpdate(ctx context.Context, code string) (*model.Product, error)
	FindByCodes(ctx context.Context, codes []string) ([]model.Product, error)
	FindAll(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	Update(ctx context.Context, product *model.Product) error
	SetActive(ctx context.Context, code string, active bool) error
}
