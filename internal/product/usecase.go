package product

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/product/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/search"
)

type UseCase interface {
	CreateProduct(ctx context.Context, actor auth.Session, input *dto.CreateProductInput) (*model.Product, error)
	UpdateProduct(ctx context.Context, actor auth.Session, input *dto.UpdateProductInput) (*model.Product, error)
	DeactivateProduct(ctx context.Context, actor auth.Session, code string) error
	GetProduct(ctx context.Context, code string) (*model.Product, error)
	ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error)
	SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error)

	// ResolveScan maps scanner text (a label payload or a raw code) to an active product.
	ResolveScan(ctx context.Context, payload string) (*model.Product, error)
}

// ListCache caches catalog listings; *cache.RedisClient implements it.
type ListCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePattern(ctx context.Context, pattern string) error
}

// SearchIndex is the full-text product index; *search.Client implements it.
type SearchIndex interface {
	CreateIndex(ctx context.Context, index, mapping string) error
	Index(ctx context.Context, index, id string, doc interface{}) error
	Delete(ctx context.Context, index, id string) error
	Search(ctx context.Context, index string, query map[string]interface{}) (*search.SearchResult, error)
}
