package handler

import (
	"bytes"
	"context"
	"encoding/base64"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.InventoryService"

type InventoryServer interface {
	AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListLowStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	VerifyStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ExportLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[InventoryServer](ServiceName, "AdjustStock", InventoryServer.AdjustStock),
		grpcx.Unary[InventoryServer](ServiceName, "ListLowStock", InventoryServer.ListLowStock),
		grpcx.Unary[InventoryServer](ServiceName, "ListLogs", InventoryServer.ListLogs),
		grpcx.Unary[InventoryServer](ServiceName, "VerifyStock", InventoryServer.VerifyStock),
		grpcx.Unary[InventoryServer](ServiceName, "ExportLogs", InventoryServer.ExportLogs),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/inventory.proto",
}

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *InventoryHandler) AdjustStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	delta, err := grpcx.Int(req, "quantity_change")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}

	entry, err := h.uc.AdjustStock(ctx, actor, &dto.AdjustStockInput{
		ProductCode: grpcx.String(req, "product_code"),
		Delta:       int(delta),
		Action:      model.StockActionManualAdjustment,
		Reference:   grpcx.String(req, "reference"),
		Notes:       grpcx.String(req, "notes"),
	})
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapLog(entry))
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	products, err := h.uc.ListLowStock(ctx, actor)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(products))
	for i, p := range products {
		items[i] = map[string]interface{}{
			"code":      p.Code,
			"name":      p.Name,
			"category":  p.Category,
			"stock":     p.Stock,
			"min_stock": p.MinStock,
		}
	}
	return structpb.NewStruct(map[string]interface{}{"items": items})
}

func (h *InventoryHandler) ListLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	filters, err := logFilters(req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	logs, total, err := h.uc.ListLogs(ctx, actor, filters)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(logs))
	for i := range logs {
		items[i] = mapLog(&logs[i])
	}
	return structpb.NewStruct(map[string]interface{}{"items": items, "total": total})
}

func (h *InventoryHandler) VerifyStock(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	v, err := h.uc.VerifyStock(ctx, actor, grpcx.String(req, "product_code"))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"product_code": v.ProductCode,
		"stock":        v.Stock,
		"logged_total": v.LoggedTotal,
		"entries":      v.Entries,
		"consistent":   v.Consistent,
	})
}

// ExportLogs returns the workbook inline, base64 encoded.
func (h *InventoryHandler) ExportLogs(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	filters, err := logFilters(req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	var buf bytes.Buffer
	if err := h.uc.ExportLogs(ctx, actor, filters, &buf); err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"filename":     "inventory-logs.xlsx",
		"content_type": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"data":         base64.StdEncoding.EncodeToString(buf.Bytes()),
	})
}

func logFilters(req *structpb.Struct) (*dto.LogFilters, error) {
	page, pageSize, err := grpcx.Page(req)
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	f := &dto.LogFilters{
		ProductCode: grpcx.String(req, "product_code"),
		Action:      model.StockAction(grpcx.String(req, "action")),
		Page:        page,
		PageSize:    pageSize,
	}
	if f.Action != "" && !f.Action.Valid() {
		return nil, apperr.Invalid("unknown stock action %q", f.Action)
	}

	start, err := grpcx.Time(req, "start_date")
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	if !start.IsZero() {
		f.StartDate = &start
	}
	end, err := grpcx.Time(req, "end_date")
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	if !end.IsZero() {
		f.EndDate = &end
	}
	return f, nil
}

func mapLog(l *model.InventoryLog) map[string]interface{} {
	return map[string]interface{}{
		"id":              l.ID,
		"product_code":    l.ProductCode,
		"user_id":         l.UserID,
		"action":          string(l.Action),
		"quantity_change": l.QuantityChange,
		"previous_stock":  l.PreviousStock,
		"new_stock":       l.NewStock,
		"reference":       l.Reference,
		"notes":           l.Notes,
		"created_at":      grpcx.Timestamp(l.CreatedAt),
	}
}
