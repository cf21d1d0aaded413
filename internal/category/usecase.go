package category

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type UseCase interface {
	GetCategory(ctx context.Context, name string) (*model.Category, error)
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, error)
}
