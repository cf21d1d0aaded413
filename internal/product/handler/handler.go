package handler

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/label"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/product"
	"github.com/fekuna/omnipos-cashier-service/internal/product/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.ProductService"

type ProductServer interface {
	CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeactivateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SearchProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolveScan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GenerateLabels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProductServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[ProductServer](ServiceName, "CreateProduct", ProductServer.CreateProduct),
		grpcx.Unary[ProductServer](ServiceName, "UpdateProduct", ProductServer.UpdateProduct),
		grpcx.Unary[ProductServer](ServiceName, "DeactivateProduct", ProductServer.DeactivateProduct),
		grpcx.Unary[ProductServer](ServiceName, "GetProduct", ProductServer.GetProduct),
		grpcx.Unary[ProductServer](ServiceName, "ListProducts", ProductServer.ListProducts),
		grpcx.Unary[ProductServer](ServiceName, "SearchProducts", ProductServer.SearchProducts),
		grpcx.Unary[ProductServer](ServiceName, "ResolveScan", ProductServer.ResolveScan),
		grpcx.Unary[ProductServer](ServiceName, "GenerateLabels", ProductServer.GenerateLabels),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/product.proto",
}

// LabelGenerator is satisfied by *label.Service.
type LabelGenerator interface {
	GenerateBulk(ctx context.Context, products []model.Product, copies int) (*label.BulkResult, error)
}

type ProductHandler struct {
	uc     product.UseCase
	labels LabelGenerator
	logger logger.ZapLogger
}

func NewProductHandler(uc product.UseCase, labels LabelGenerator, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		labels: labels,
		logger: log,
	}
}

func (h *ProductHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *ProductHandler) CreateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	purchase, err := grpcx.Decimal(req, "purchase_price")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("purchase_price: %v", err))
	}
	selling, err := grpcx.Decimal(req, "selling_price")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("selling_price: %v", err))
	}

	minStock := int64(10)
	if grpcx.Has(req, "min_stock") {
		if minStock, err = grpcx.Int(req, "min_stock"); err != nil {
			return nil, apperr.ToStatus(apperr.Invalid("%v", err))
		}
	}
	initial, err := grpcx.Int(req, "initial_stock")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}

	p, err := h.uc.CreateProduct(ctx, actor, &dto.CreateProductInput{
		Code:          grpcx.String(req, "code"),
		Name:          grpcx.String(req, "name"),
		Category:      grpcx.String(req, "category"),
		PurchasePrice: purchase,
		SellingPrice:  selling,
		InitialStock:  int(initial),
		MinStock:      int(minStock),
	})
	if err != nil {
		h.logger.Debug("create product failed", zap.Error(err))
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapProduct(p))
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	input := &dto.UpdateProductInput{Code: grpcx.String(req, "code")}
	if grpcx.Has(req, "name") {
		v := grpcx.String(req, "name")
		input.Name = &v
	}
	if grpcx.Has(req, "category") {
		v := grpcx.String(req, "category")
		input.Category = &v
	}
	if grpcx.Has(req, "purchase_price") {
		v, err := grpcx.Decimal(req, "purchase_price")
		if err != nil {
			return nil, apperr.ToStatus(apperr.Invalid("purchase_price: %v", err))
		}
		input.PurchasePrice = &v
	}
	if grpcx.Has(req, "selling_price") {
		v, err := grpcx.Decimal(req, "selling_price")
		if err != nil {
			return nil, apperr.ToStatus(apperr.Invalid("selling_price: %v", err))
		}
		input.SellingPrice = &v
	}
	if grpcx.Has(req, "min_stock") {
		n, err := grpcx.Int(req, "min_stock")
		if err != nil {
			return nil, apperr.ToStatus(apperr.Invalid("%v", err))
		}
		v := int(n)
		input.MinStock = &v
	}

	p, err := h.uc.UpdateProduct(ctx, actor, input)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapProduct(p))
}

func (h *ProductHandler) DeactivateProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	if err := h.uc.DeactivateProduct(ctx, actor, grpcx.String(req, "code")); err != nil {
		return nil, apperr.ToStatus(err)
	}
	return &structpb.Struct{}, nil
}

func (h *ProductHandler) GetProduct(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := h.uc.GetProduct(ctx, grpcx.String(req, "code"))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapProduct(p))
}

func (h *ProductHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	page, pageSize, err := grpcx.Page(req)
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}

	products, total, err := h.uc.ListProducts(ctx, &dto.ProductFilters{
		Query:           grpcx.String(req, "query"),
		Category:        grpcx.String(req, "category"),
		IncludeInactive: grpcx.Bool(req, "include_inactive"),
		LowStockOnly:    grpcx.Bool(req, "low_stock_only"),
		Page:            page,
		PageSize:        pageSize,
	})
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"items": mapProducts(products),
		"total": total,
	})
}

func (h *ProductHandler) SearchProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	limit, err := grpcx.Int(req, "limit")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}

	products, err := h.uc.SearchProducts(ctx, grpcx.String(req, "query"), int(limit))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{"items": mapProducts(products)})
}

func (h *ProductHandler) ResolveScan(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := h.uc.ResolveScan(ctx, grpcx.String(req, "payload"))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapProduct(p))
}

func (h *ProductHandler) GenerateLabels(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	if err := auth.Require(actor, auth.ActionManageProducts); err != nil {
		return nil, apperr.ToStatus(err)
	}

	codes := grpcx.Strings(req, "codes")
	products := make([]model.Product, 0, len(codes))
	for _, code := range codes {
		p, err := h.uc.GetProduct(ctx, code)
		if err != nil {
			return nil, apperr.ToStatus(err)
		}
		products = append(products, *p)
	}

	copies := int64(1)
	if grpcx.Has(req, "copies") {
		if copies, err = grpcx.Int(req, "copies"); err != nil {
			return nil, apperr.ToStatus(apperr.Invalid("%v", err))
		}
	}

	res, err := h.labels.GenerateBulk(ctx, products, int(copies))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(res.Labels))
	for i, l := range res.Labels {
		items[i] = map[string]interface{}{
			"product_code": l.ProductCode,
			"product_name": l.ProductName,
			"path":         l.Path,
			"sequence":     l.Sequence,
		}
	}
	return structpb.NewStruct(map[string]interface{}{
		"labels":  items,
		"summary": res.SummaryPath,
	})
}

func mapProducts(products []model.Product) []interface{} {
	items := make([]interface{}, len(products))
	for i := range products {
		items[i] = mapProduct(&products[i])
	}
	return items
}

func mapProduct(p *model.Product) map[string]interface{} {
	return map[string]interface{}{
		"code":           p.Code,
		"name":           p.Name,
		"category":       p.Category,
		"purchase_price": p.PurchasePrice.String(),
		"selling_price":  p.SellingPrice.String(),
		"stock":          p.Stock,
		"min_stock":      p.MinStock,
		"low_stock":      p.LowStock(),
		"is_active":      p.IsActive,
		"label_payload":  label.Payload(p),
		"updated_at":     grpcx.Timestamp(p.UpdatedAt),
	}
}
