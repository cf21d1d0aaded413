package category

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
)

type Repository interface {
	// FindAll groups active products by category, ordered by name.
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, error)
}
