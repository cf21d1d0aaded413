package handler

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/category"
	"github.com/fekuna/omnipos-cashier-service/internal/category/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.CategoryService"

type CategoryServer interface {
	GetCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListCategories(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CategoryServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[CategoryServer](ServiceName, "GetCategory", CategoryServer.GetCategory),
		grpcx.Unary[CategoryServer](ServiceName, "ListCategories", CategoryServer.ListCategories),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/category.proto",
}

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *CategoryHandler) GetCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	c, err := h.uc.GetCategory(ctx, grpcx.String(req, "name"))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapCategory(c))
}

func (h *CategoryHandler) ListCategories(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	categories, err := h.uc.ListCategories(ctx, &dto.CategoryFilters{
		Query:        grpcx.String(req, "query"),
		LowStockOnly: grpcx.Bool(req, "low_stock_only"),
	})
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(categories))
	for i := range categories {
		items[i] = mapCategory(&categories[i])
	}
	return structpb.NewStruct(map[string]interface{}{"items": items})
}

func mapCategory(c *model.Category) map[string]interface{} {
	return map[string]interface{}{
		"name":            c.Name,
		"product_count":   c.ProductCount,
		"stock_units":     c.StockUnits,
		"low_stock_count": c.LowStockCount,
	}
}
