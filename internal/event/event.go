// Package event carries ledger events to the message broker.
package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TypeTransactionCommitted = "TransactionCommitted"
	TypeTransactionVoided    = "TransactionVoided"
	TypeStockReceived        = "StockReceived"
)

// Publisher is satisfied by *broker.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key string, value []byte) error
}

type Envelope struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

type TransactionPayload struct {
	Code          string        `json:"transaction_code"`
	UserID        int64         `json:"user_id"`
	FinalAmount   string        `json:"final_amount"`
	PaymentMethod string        `json:"payment_method"`
	Status        string        `json:"status"`
	Items         []ItemPayload `json:"items"`
	Void          *VoidPayload  `json:"void,omitempty"`
}

type ItemPayload struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type VoidPayload struct {
	VoidedBy int64  `json:"voided_by"`
	Reason   string `json:"reason"`
}

func NewTransactionEvent(eventType string, trx *model.Transaction, v *model.VoidRecord) Envelope {
	items := make([]ItemPayload, len(trx.Items))
	for i, it := range trx.Items {
		items[i] = ItemPayload{
			ProductCode: it.ProductCode,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.String(),
		}
	}

	p := TransactionPayload{
		Code:          trx.Code,
		UserID:        trx.UserID,
		FinalAmount:   trx.FinalAmount.String(),
		PaymentMethod: string(trx.PaymentMethod),
		Status:        string(trx.Status),
		Items:         items,
	}
	if v != nil {
		p.Void = &VoidPayload{VoidedBy: v.VoidedBy, Reason: v.Reason}
	}

	return Envelope{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Payload:   p,
		Timestamp: time.Now().UTC(),
	}
}

const publishTimeout = 5 * time.Second

// Emit publishes best-effort: a nil publisher is a no-op and failures are only
// logged. The publish outlives a cancelled request context.
func Emit(ctx context.Context, pub Publisher, log logger.ZapLogger, key string, evt Envelope) {
	if pub == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	body, err := json.Marshal(evt)
	if err != nil {
		log.Error("failed to marshal event", zap.String("event_type", evt.EventType), zap.Error(err))
		return
	}
	if err := pub.Publish(ctx, key, body); err != nil {
		log.Warn("failed to publish event",
			zap.String("event_type", evt.EventType),
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
