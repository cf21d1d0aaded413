package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	invdto "github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/label"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/product"
	"github.com/fekuna/omnipos-cashier-service/internal/product/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	indexName     = "products"
	listCacheTTL  = 30 * time.Second
	listKeyPrefix = "products:list:"
	sideEffectTTL = 5 * time.Second
)

const indexMapping = `{
	"mappings": {
		"properties": {
			"code": { "type": "keyword" },
			"name": { "type": "text" },
			"category": { "type": "keyword" },
			"selling_price": { "type": "keyword" },
			"is_active": { "type": "boolean" },
			"updated_at": { "type": "date" }
		}
	}
}`

type productUseCase struct {
	repo   product.Repository
	ledger inventory.Ledger
	tx     store.Transactor
	locker store.Locker
	cache  product.ListCache
	es     product.SearchIndex
	logger logger.ZapLogger
	now    func() time.Time
}

// NewProductUseCase wires the catalog. cache and es may be nil.
func NewProductUseCase(
	repo product.Repository,
	ledger inventory.Ledger,
	tx store.Transactor,
	locker store.Locker,
	cache product.ListCache,
	es product.SearchIndex,
	log logger.ZapLogger,
) product.UseCase {
	return &productUseCase{
		repo:   repo,
		ledger: ledger,
		tx:     tx,
		locker: locker,
		cache:  cache,
		es:     es,
		logger: log,
		now:    time.Now,
	}
}

func validCode(code string) error {
	if code == "" {
		return apperr.Invalid("product code is required")
	}
	if strings.ContainsAny(code, "| \t\r\n") {
		return apperr.Invalid("product code %q must not contain spaces or '|'", code)
	}
	if len(code) > 50 {
		return apperr.Invalid("product code %q is longer than 50 characters", code)
	}
	return nil
}

func validPrice(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return apperr.Invalid("%s must not be negative", field)
	}
	return nil
}

func (uc *productUseCase) CreateProduct(ctx context.Context, actor auth.Session, input *dto.CreateProductInput) (*model.Product, error) {
	if err := auth.Require(actor, auth.ActionManageProducts); err != nil {
		return nil, err
	}

	code := strings.TrimSpace(input.Code)
	if err := validCode(code); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperr.Invalid("product name is required")
	}
	if err := validPrice("purchase price", input.PurchasePrice); err != nil {
		return nil, err
	}
	if err := validPrice("selling price", input.SellingPrice); err != nil {
		return nil, err
	}
	if input.InitialStock < 0 || input.MinStock < 0 {
		return nil, apperr.Invalid("stock figures must not be negative")
	}

	now := uc.now()
	p := &model.Product{
		BaseModel:     model.BaseModel{CreatedAt: now, UpdatedAt: now},
		Code:          code,
		Name:          name,
		Category:      strings.TrimSpace(input.Category),
		PurchasePrice: input.PurchasePrice,
		SellingPrice:  input.SellingPrice,
		MinStock:      input.MinStock,
		IsActive:      true,
	}

	unlock, err := uc.locker.Lock(ctx, code)
	if err != nil {
		return nil, err
	}
	defer unlock()

	err = uc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, p); err != nil {
			return err
		}
		if input.InitialStock == 0 {
			return nil
		}
		entry, err := uc.ledger.Apply(ctx, actor, &invdto.AdjustStockInput{
			ProductCode: code,
			Delta:       input.InitialStock,
			Action:      model.StockActionManualAdjustment,
			Notes:       "Initial stock",
		})
		if err != nil {
			return err
		}
		p.Stock = entry.NewStock
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("product created",
		zap.String("code", p.Code),
		zap.Int("stock", p.Stock),
		zap.Int64("user_id", actor.UserID),
	)

	uc.invalidateListCache(ctx)
	uc.syncToElastic(ctx, p)
	return p, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, actor auth.Session, input *dto.UpdateProductInput) (*model.Product, error) {
	if err := auth.Require(actor, auth.ActionManageProducts); err != nil {
		return nil, err
	}

	p, err := uc.repo.FindByCode(ctx, strings.TrimSpace(input.Code))
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperr.Invalid("product name is required")
		}
		p.Name = name
	}
	if input.Category != nil {
		p.Category = strings.TrimSpace(*input.Category)
	}
	if input.PurchasePrice != nil {
		if err := validPrice("purchase price", *input.PurchasePrice); err != nil {
			return nil, err
		}
		p.PurchasePrice = *input.PurchasePrice
	}
	if input.SellingPrice != nil {
		if err := validPrice("selling price", *input.SellingPrice); err != nil {
			return nil, err
		}
		p.SellingPrice = *input.SellingPrice
	}
	if input.MinStock != nil {
		if *input.MinStock < 0 {
			return nil, apperr.Invalid("minimum stock must not be negative")
		}
		p.MinStock = *input.MinStock
	}

	p.UpdatedAt = uc.now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	uc.invalidateListCache(ctx)
	uc.syncToElastic(ctx, p)
	return p, nil
}

// DeactivateProduct hides the product from sale and search. History keeps
// referencing it.
func (uc *productUseCase) DeactivateProduct(ctx context.Context, actor auth.Session, code string) error {
	if err := auth.Require(actor, auth.ActionManageProducts); err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if err := uc.repo.SetActive(ctx, code, false); err != nil {
		return err
	}

	uc.logger.Info("product deactivated", zap.String("code", code), zap.Int64("user_id", actor.UserID))

	uc.invalidateListCache(ctx)
	if uc.es != nil {
		ctx, cancel := detached(ctx)
		defer cancel()
		if err := uc.es.Delete(ctx, indexName, code); err != nil {
			uc.logger.Error("failed to delete product from ES", zap.String("code", code), zap.Error(err))
		}
	}
	return nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, code string) (*model.Product, error) {
	return uc.repo.FindByCode(ctx, strings.TrimSpace(code))
}

type cachedList struct {
	Products []model.Product
	Count    int
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	if filters == nil {
		filters = &dto.ProductFilters{}
	}
	filters.Normalize()

	cacheKey := uc.cacheKey(filters)
	if uc.cache != nil && cacheKey != "" {
		val, ok, err := uc.cache.Get(ctx, cacheKey)
		if err != nil {
			uc.logger.Warn("product list cache read failed", zap.Error(err))
		}
		if ok {
			var hit cachedList
			if err := json.Unmarshal(val, &hit); err == nil {
				return hit.Products, hit.Count, nil
			}
		}
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		if data, err := json.Marshal(cachedList{Products: products, Count: count}); err == nil {
			if err := uc.cache.Set(ctx, cacheKey, data, listCacheTTL); err != nil {
				uc.logger.Warn("product list cache write failed", zap.Error(err))
			}
		}
	}
	return products, count, nil
}

func (uc *productUseCase) cacheKey(filters *dto.ProductFilters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%s%x", listKeyPrefix, md5.Sum(data))
}

func (uc *productUseCase) invalidateListCache(ctx context.Context) {
	if uc.cache == nil {
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()
	if err := uc.cache.DeletePattern(ctx, listKeyPrefix+"*"); err != nil {
		uc.logger.Warn("product list cache invalidation failed", zap.Error(err))
	}
}

type productDocument struct {
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	SellingPrice string    `json:"selling_price"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	ctx, cancel := detached(ctx)
	defer cancel()

	// Lazily create the index; a 400 for an existing index is not an error.
	if err := uc.es.CreateIndex(ctx, indexName, indexMapping); err != nil {
		uc.logger.Warn("failed to ensure product index", zap.Error(err))
	}

	doc := productDocument{
		Code:         p.Code,
		Name:         p.Name,
		Category:     p.Category,
		SellingPrice: p.SellingPrice.String(),
		IsActive:     p.IsActive,
		UpdatedAt:    p.UpdatedAt,
	}
	if err := uc.es.Index(ctx, indexName, p.Code, doc); err != nil {
		uc.logger.Error("failed to index product", zap.String("code", p.Code), zap.Error(err))
	}
}

// SearchProducts ranks active products by name through the search index and
// falls back to a substring match in the store when the index is unavailable.
// Results always carry the stored row, so stock and price are current.
func (uc *productUseCase) SearchProducts(ctx context.Context, query string, limit int) ([]model.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.Invalid("search query is required")
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	if uc.es != nil {
		products, err := uc.searchIndex(ctx, query, limit)
		if err == nil {
			return products, nil
		}
		uc.logger.Error("ES search failed, falling back to DB", zap.Error(err))
	}

	products, _, err := uc.repo.FindAll(ctx, &dto.ProductFilters{Query: query, Page: 1, PageSize: limit})
	return products, err
}

func (uc *productUseCase) searchIndex(ctx context.Context, query string, limit int) ([]model.Product, error) {
	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []map[string]interface{}{
					{
						"multi_match": map[string]interface{}{
							"query":     query,
							"fields":    []string{"name^3", "code", "category"},
							"fuzziness": "AUTO",
						},
					},
				},
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"is_active": true}},
				},
			},
		},
		"size": limit,
	}

	res, err := uc.es.Search(ctx, indexName, q)
	if err != nil {
		return nil, err
	}

	codes := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		var doc productDocument
		if err := json.Unmarshal(hit.Source, &doc); err != nil {
			continue
		}
		codes = append(codes, doc.Code)
	}
	if len(codes) == 0 {
		return []model.Product{}, nil
	}

	products, err := uc.repo.FindByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}
	out := products[:0]
	for _, p := range products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (uc *productUseCase) ResolveScan(ctx context.Context, payload string) (*model.Product, error) {
	decoded, err := label.ParsePayload(payload)
	if err != nil {
		return nil, err
	}
	p, err := uc.repo.FindByCode(ctx, decoded.Code)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, apperr.Invalid("product %s is inactive", p.Code)
	}
	return p, nil
}

// detached keeps best-effort side effects running after the caller's
// request context ends, bounded by a short timeout.
func detached(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), sideEffectTTL)
}
