package handler

import (
	"context"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/receipt"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction"
	"github.com/fekuna/omnipos-cashier-service/internal/transaction/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/grpcx"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "omnipos.cashier.v1.TransactionService"

type TransactionServer interface {
	Commit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	PrintReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TransactionServer)(nil),
	Methods: []grpc.MethodDesc{
		grpcx.Unary[TransactionServer](ServiceName, "Commit", TransactionServer.Commit),
		grpcx.Unary[TransactionServer](ServiceName, "GetTransaction", TransactionServer.GetTransaction),
		grpcx.Unary[TransactionServer](ServiceName, "ListTransactions", TransactionServer.ListTransactions),
		grpcx.Unary[TransactionServer](ServiceName, "GetReceipt", TransactionServer.GetReceipt),
		grpcx.Unary[TransactionServer](ServiceName, "PrintReceipt", TransactionServer.PrintReceipt),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/cashier/v1/transaction.proto",
}

// ReceiptPrinter is satisfied by *receipt.Printer.
type ReceiptPrinter interface {
	Company() receipt.Company
	Text(doc receipt.Document) string
	Print(ctx context.Context, doc receipt.Document) (string, error)
}

type TransactionHandler struct {
	uc       transaction.UseCase
	receipts ReceiptPrinter
	logger   logger.ZapLogger
}

func NewTransactionHandler(uc transaction.UseCase, receipts ReceiptPrinter, log logger.ZapLogger) *TransactionHandler {
	return &TransactionHandler{
		uc:       uc,
		receipts: receipts,
		logger:   log,
	}
}

func (h *TransactionHandler) Register(s grpc.ServiceRegistrar) {
	s.RegisterService(&ServiceDesc, h)
}

func commitInput(req *structpb.Struct) (*dto.CommitInput, error) {
	input := &dto.CommitInput{
		PaymentMethod:  model.PaymentMethod(grpcx.String(req, "payment_method")),
		IdempotencyKey: grpcx.String(req, "idempotency_key"),
	}

	cash, err := grpcx.Decimal(req, "cash_paid")
	if err != nil {
		return nil, apperr.Invalid("cash_paid: %v", err)
	}
	input.CashPaid = cash

	for _, it := range grpcx.Structs(req, "items") {
		qty, err := grpcx.Int(it, "quantity")
		if err != nil {
			return nil, apperr.Invalid("%v", err)
		}
		input.Items = append(input.Items, dto.ItemInput{
			ProductCode: grpcx.String(it, "product_code"),
			Quantity:    int(qty),
		})
	}

	if disc := req.GetFields()["discount"].GetStructValue(); disc != nil {
		value, err := grpcx.Decimal(disc, "value")
		if err != nil {
			return nil, apperr.Invalid("discount value: %v", err)
		}
		input.Discount = dto.DiscountInput{
			Type:         grpcx.String(disc, "type"),
			Value:        value,
			Rule:         grpcx.String(disc, "rule"),
			ProductCodes: grpcx.Strings(disc, "product_codes"),
		}
	}
	return input, nil
}

func (h *TransactionHandler) Commit(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	input, err := commitInput(req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	trx, err := h.uc.Commit(ctx, actor, input)
	if err != nil {
		h.logger.Debug("commit rejected", zap.Int64("user_id", actor.UserID), zap.Error(err))
		return nil, apperr.ToStatus(err)
	}

	res := mapTransaction(trx)
	if grpcx.Bool(req, "print_receipt") && h.receipts != nil {
		// The sale stands even when the printer fails.
		if path, err := h.receipts.Print(ctx, receipt.Build(trx, h.receipts.Company())); err == nil {
			res["receipt_path"] = path
		}
	}
	return structpb.NewStruct(res)
}

func (h *TransactionHandler) GetTransaction(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	trx, err := h.uc.GetTransaction(ctx, actor, grpcx.String(req, "transaction_code"))
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(mapTransaction(trx))
}

func (h *TransactionHandler) ListTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	userID, err := grpcx.Int(req, "user_id")
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	page, pageSize, err := grpcx.Page(req)
	if err != nil {
		return nil, apperr.ToStatus(apperr.Invalid("%v", err))
	}
	filters := &dto.TransactionFilters{
		UserID:   userID,
		Status:   model.TransactionStatus(grpcx.String(req, "status")),
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

	list, total, err := h.uc.ListTransactions(ctx, actor, filters)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}

	items := make([]interface{}, len(list))
	for i := range list {
		items[i] = mapTransaction(&list[i])
	}
	return structpb.NewStruct(map[string]interface{}{"items": items, "total": total})
}

func (h *TransactionHandler) receiptFor(ctx context.Context, req *structpb.Struct) (receipt.Document, error) {
	actor, err := auth.FromContext(ctx)
	if err != nil {
		return receipt.Document{}, err
	}
	trx, err := h.uc.GetTransaction(ctx, actor, grpcx.String(req, "transaction_code"))
	if err != nil {
		return receipt.Document{}, err
	}
	return receipt.Build(trx, h.receipts.Company()), nil
}

func (h *TransactionHandler) GetReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := h.receiptFor(ctx, req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"transaction_code": doc.Code,
		"text":             h.receipts.Text(doc),
	})
}

func (h *TransactionHandler) PrintReceipt(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	doc, err := h.receiptFor(ctx, req)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	path, err := h.receipts.Print(ctx, doc)
	if err != nil {
		return nil, apperr.ToStatus(err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"transaction_code": doc.Code,
		"path":             path,
	})
}

func mapTransaction(t *model.Transaction) map[string]interface{} {
	items := make([]interface{}, len(t.Items))
	for i, it := range t.Items {
		items[i] = map[string]interface{}{
			"line_no":      it.LineNo,
			"product_code": it.ProductCode,
			"product_name": it.ProductName,
			"quantity":     it.Quantity,
			"unit_price":   it.UnitPrice.String(),
			"discount":     it.Discount.String(),
			"subtotal":     it.Subtotal.String(),
		}
	}

	m := map[string]interface{}{
		"transaction_code":    t.Code,
		"user_id":             t.UserID,
		"cashier_name":        t.CashierName,
		"subtotal":            t.Subtotal.String(),
		"discount_type":       t.DiscountType,
		"discount_percentage": t.DiscountPercentage.String(),
		"discount_amount":     t.DiscountAmount.String(),
		"taxable_amount":      t.TaxableAmount().String(),
		"tax_rate":            t.TaxRate.String(),
		"tax_amount":          t.TaxAmount.String(),
		"final_amount":        t.FinalAmount.String(),
		"payment_method":      string(t.PaymentMethod),
		"cash_paid":           t.CashPaid.String(),
		"change_amount":       t.ChangeAmount.String(),
		"status":              string(t.Status),
		"created_at":          grpcx.Timestamp(t.CreatedAt),
		"items":               items,
	}
	if t.DiscountRule != "" {
		m["discount_rule"] = t.DiscountRule
	}
	if t.VoidedAt != nil {
		m["voided_at"] = grpcx.Timestamp(*t.VoidedAt)
	}
	return m
}
