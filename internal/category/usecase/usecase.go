package usecase

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/category"
	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

// GetCategory matches name exactly, ignoring case. An empty name selects
// products with no category.
func (uc *categoryUseCase) GetCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	all, err := uc.repo.FindAll(ctx, &dto.CategoryFilters{})
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].Name, name) {
			return &all[i], nil
		}
	}
	return nil, apperr.NotFound("category", name)
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, error) {
	f := dto.CategoryFilters{}
	if filters != nil {
		f = *filters
	}
	f.Query = strings.TrimSpace(f.Query)
	return uc.repo.FindAll(ctx, &f)
}
