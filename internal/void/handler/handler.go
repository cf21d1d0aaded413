package handler

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/void"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.VoidService"

type VoidServer interface {
	VoidTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListVoids(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*VoidServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[VoidServer](ServiceName, "VoidTransaction", VoidServer.VoidTransaction),
		grpcx.Unary[VoidServer](ServiceName, "ListVoids", VoidServer.ListVoids),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/void.proto",
}

type VoidHandler struct {
	uc     void.UseCase
	logger logger.ZapLogger
}

func NewVoidHandler(uc void.UseCase, log logger.ZapLogger) *VoidHandler {
	return &VoidHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *VoidHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func (h *VoidHandler) VoidTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	record, err := h.uc.VoidTransaction(ctx, actor, &dto.VoidInput{
		TransactionCode: grpcx.String(req, "transaction_code"),
		Reason:          grpcx.String(req, "reason"),
	})
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapVoid(record))
}

func (h *VoidHandler) ListVoids(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	page, pageSize, err := grpcx.Page(req)
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	filters := &dto.VoidFilters{
		Page:     page,
		PageSize: pageSize,
	}
	start, err := grpcx.Time(req, "start_date")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	if !start.IsZero() {
		filters.StartDate = &start
	}
	end, err := grpcx.Time(req, "end_date")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	if !end.IsZero() {
		filters.EndDate = &end
	}

	records, total, err := h.uc.ListVoids(ctx, actor, filters)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(records))
	for i := range records {
		items[i] = mapVoid(&records[i])
	}
	return structpb.NewStruct(map[string]interface{}{"items": items, "total": total})
}

func mapVoid(v *model.VoidRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":               v.ID,
		"transaction_code": v.TransactionCode,
		"voided_by":        v.VoidedBy,
		"voided_by_name":   v.VoidedByName,
		"reason":           v.Reason,
		"created_at":       grpcx.Timestamp(v.CreatedAt),
	}
}
