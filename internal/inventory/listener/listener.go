package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/event"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageReader is satisfied by *broker.KafkaConsumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// RestockListener applies back-office goods-received events as manual stock
// adjustments, attributed to the receiving user when the event names one.
type RestockListener struct {
	consumer MessageReader
	uc       inventory.UseCase
	sessions auth.SessionResolver
	fallback auth.Session
	logger   logger.ZapLogger
}

func NewRestockListener(consumer MessageReader, uc inventory.UseCase, sessions auth.SessionResolver, fallback auth.Session, log logger.ZapLogger) *RestockListener {
	return &RestockListener{
		consumer: consumer,
		uc:       uc,
		sessions: sessions,
		fallback: fallback,
		logger:   log,
	}
}

func (l *RestockListener) Start(ctx context.Context) {
	l.logger.Info("Starting restock Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping restock Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockReceivedEvent struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Payload   StockReceivedPayload `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

type StockReceivedPayload struct {
	Reference  string              `json:"reference"`
	ReceivedBy int64               `json:"received_by"`
	Notes      string              `json:"notes"`
	Items      []StockReceivedItem `json:"items"`
}

type StockReceivedItem struct {
	ProductCode string `json:"product_code"`
	Quantity    int    `json:"quantity"`
}

func (l *RestockListener) processMessage(ctx context.Context, value []byte) {
	var evt StockReceivedEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}
	if evt.EventType != event.TypeStockReceived {
		return
	}

	notes := evt.Payload.Notes
	if notes == "" {
		notes = "Goods received"
	}

	// The receiver is credited when allowed to adjust stock; otherwise the
	// service account applies the goods and the receiver is kept in the notes.
	actor := l.fallback
	if evt.Payload.ReceivedBy != 0 {
		s, err := l.sessions.ResolveSession(ctx, evt.Payload.ReceivedBy)
		switch {
		case err != nil:
			l.logger.Warn("Unknown or inactive receiver, using service account",
				zap.Int64("received_by", evt.Payload.ReceivedBy), zap.Error(err))
		case auth.Authorize(s, auth.ActionAdjustStock):
			actor = s
		default:
			notes = fmt.Sprintf("%s (received by %s)", notes, s.Username)
		}
	}

	l.logger.Info("Processing StockReceived event",
		zap.String("event_id", evt.EventID),
		zap.String("reference", evt.Payload.Reference),
	)

	for _, item := range evt.Payload.Items {
		if item.Quantity <= 0 {
			l.logger.Warn("Skipping non-positive restock quantity",
				zap.String("product_code", item.ProductCode), zap.Int("quantity", item.Quantity))
			continue
		}
		_, err := l.uc.AdjustStock(ctx, actor, &dto.AdjustStockInput{
			ProductCode: item.ProductCode,
			Delta:       item.Quantity,
			Action:      model.StockActionManualAdjustment,
			Reference:   evt.Payload.Reference,
			Notes:       notes,
		})
		if err != nil {
			l.logger.Error("Failed to apply restock item",
				zap.String("event_id", evt.EventID),
				zap.String("product_code", item.ProductCode),
				zap.Error(err),
			)
		}
	}
}
