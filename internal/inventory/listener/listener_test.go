package listener

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/event"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-cashier-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/store"
	"github.com/fekuna/omnipos-cashier-service/internal/store/memory"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	msgs []kafka.Message
}

func (f *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(f.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

type fakeInventory struct {
	inventory.UseCase
	calls  []dto.AdjustStockInput
	actors []auth.Session
	onCall func()
}

func (f *fakeInventory) AdjustStock(ctx context.Context, actor auth.Session, input *dto.AdjustStockInput) (*model.InventoryLog, error) {
	f.calls = append(f.calls, *input)
	f.actors = append(f.actors, actor)
	if f.onCall != nil {
		f.onCall()
	}
	if input.ProductCode == "BROKEN" {
		return nil, errors.New("boom")
	}
	return &model.InventoryLog{}, nil
}

type fakeSessions map[int64]auth.Session

func (f fakeSessions) ResolveSession(ctx context.Context, id int64) (auth.Session, error) {
	s, ok := f[id]
	if !ok {
		return auth.Session{}, errors.New("inactive")
	}
	return s, nil
}

func message(t *testing.T, evt StockReceivedEvent) kafka.Message {
	t.Helper()
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return kafka.Message{Value: b}
}

func TestRestockListener(t *testing.T) {
	service := auth.Session{UserID: 1, Role: model.RoleAdmin}
	receiver := auth.Session{UserID: 7, Role: model.RoleManager}

	reader := &fakeReader{msgs: []kafka.Message{
		{Value: []byte("not json")},
		message(t, StockReceivedEvent{EventType: "Other"}),
		message(t, StockReceivedEvent{
			EventType: event.TypeStockReceived,
			Payload: StockReceivedPayload{
				Reference:  "GRN-1",
				ReceivedBy: 7,
				Items: []StockReceivedItem{
					{ProductCode: "P1", Quantity: 12},
					{ProductCode: "P2", Quantity: 0},
					{ProductCode: "BROKEN", Quantity: 1},
				},
			},
		}),
		message(t, StockReceivedEvent{
			EventType: event.TypeStockReceived,
			Payload: StockReceivedPayload{
				ReceivedBy: 99,
				Items:      []StockReceivedItem{{ProductCode: "P3", Quantity: 4}},
			},
		}),
	}}

	ctx, cancel := context.WithCancel(context.Background())
	inv := &fakeInventory{}
	inv.onCall = func() {
		if len(inv.calls) == 3 {
			cancel()
		}
	}

	l := NewRestockListener(reader, inv, fakeSessions{7: receiver}, service, logger.NewNop())
	l.Start(ctx)

	require.Len(t, inv.calls, 3)
	assert.Equal(t, "P1", inv.calls[0].ProductCode)
	assert.Equal(t, 12, inv.calls[0].Delta)
	assert.Equal(t, "GRN-1", inv.calls[0].Reference)
	assert.Equal(t, model.StockActionManualAdjustment, inv.calls[0].Action)
	assert.Equal(t, receiver, inv.actors[0])

	assert.Equal(t, "BROKEN", inv.calls[1].ProductCode)

	assert.Equal(t, "P3", inv.calls[2].ProductCode)
	assert.Equal(t, service, inv.actors[2])
}

func TestRestockListener_ReceiverWithoutAdjustPermission(t *testing.T) {
	ctx := context.Background()
	db := memory.NewDB()
	products := memory.NewProductRepository(db)
	require.NoError(t, products.Create(ctx, &model.Product{
		Code: "P1", Name: "Kopi", SellingPrice: decimal.NewFromInt(10000), MinStock: 1, IsActive: true,
	}))
	inv := usecase.NewInventoryUseCase(memory.NewInventoryRepository(db), db, store.NewLocalLocker(), logger.NewNop())

	service := auth.Session{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	cashier := auth.Session{UserID: 3, Username: "budi", Role: model.RoleCashier}
	manager := auth.Session{UserID: 2, Username: "sari", Role: model.RoleManager}

	l := NewRestockListener(&fakeReader{}, inv, fakeSessions{2: manager, 3: cashier}, service, logger.NewNop())

	l.processMessage(ctx, message(t, StockReceivedEvent{
		EventType: event.TypeStockReceived,
		Payload: StockReceivedPayload{
			Reference:  "GRN-9",
			ReceivedBy: 3,
			Items:      []StockReceivedItem{{ProductCode: "P1", Quantity: 5}},
		},
	}).Value)
	l.processMessage(ctx, message(t, StockReceivedEvent{
		EventType: event.TypeStockReceived,
		Payload: StockReceivedPayload{
			Reference:  "GRN-10",
			ReceivedBy: 2,
			Notes:      "Supplier A",
			Items:      []StockReceivedItem{{ProductCode: "P1", Quantity: 2}},
		},
	}).Value)

	p, err := products.FindByCode(ctx, "P1")
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	logs, _, err := inv.ListLogs(ctx, service, &dto.LogFilters{ProductCode: "P1"})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	byRef := map[string]model.InventoryLog{}
	for _, entry := range logs {
		byRef[entry.Reference] = entry
	}
	assert.Equal(t, service.UserID, byRef["GRN-9"].UserID)
	assert.Equal(t, "Goods received (received by budi)", byRef["GRN-9"].Notes)
	assert.Equal(t, manager.UserID, byRef["GRN-10"].UserID)
	assert.Equal(t, "Supplier A", byRef["GRN-10"].Notes)
}
