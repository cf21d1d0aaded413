package handler

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/report"
	"github.com/fekuna/omnipos-cashier-service/internal/report/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.ReportService"

type ReportServer interface {
	SalesSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DailySales(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ReportServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[ReportServer](ServiceName, "SalesSummary", ReportServer.SalesSummary),
		grpcx.Unary[ReportServer](ServiceName, "DailySales", ReportServer.DailySales),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/report.proto",
}

type ReportHandler struct {
	uc     report.UseCase
	logger logger.ZapLogger
}

func NewReportHandler(uc report.UseCase, log logger.ZapLogger) *ReportHandler {
	return &ReportHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *ReportHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func period(req *structpb.Struct) (dto.Period, error) {
	from, err := grpcx.Time(req, "from")
	if err != nil {
		return dto.Period{}, apperr.Invalid("%v", err)
	}
	to, err := grpcx.Time(req, "to")
	if err != nil {
		return dto.Period{}, apperr.Invalid("%v", err)
	}
	return dto.Period{From: from, To: to}, nil
}

func (h *ReportHandler) SalesSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	p, err := period(req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	s, err := h.uc.SalesSummary(ctx, actor, p)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"from":               grpcx.Timestamp(s.From),
		"to":                 grpcx.Timestamp(s.To),
		"gross_sales":        s.GrossSales.String(),
		"transaction_count":  s.TransactionCount,
		"items_sold":         s.ItemsSold,
		"average_ticket":     s.AverageTicket.String(),
		"profit":             s.Profit.String(),
		"voided_count":       s.VoidedCount,
		"low_stock_products": s.LowStockProducts,
	})
}

func (h *ReportHandler) DailySales(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	p, err := period(req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	rows, err := h.uc.DailySales(ctx, actor, p)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(rows))
	for i, r := range rows {
		items[i] = map[string]interface{}{
			"day":               r.Day.Format("2006-01-02"),
			"gross_sales":       r.GrossSales.String(),
			"transaction_count": r.TransactionCount,
		}
	}
	return structpb.NewStruct(map[string]interface{}{"items": items})
}
