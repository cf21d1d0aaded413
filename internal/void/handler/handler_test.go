package handler

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/auth"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/internal/void/dto"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeUseCase struct {
	input   *dto.VoidInput
	filters *dto.VoidFilters
	err     error
}

func (f *fakeUseCase) VoidTransaction(ctx context.Context, actor auth.Session, input *dto.VoidInput) (*model.VoidRecord, error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	return &model.VoidRecord{
		ID:              1,
		TransactionCode: input.TransactionCode,
		VoidedBy:        actor.UserID,
		VoidedByName:    actor.FullName,
		Reason:          input.Reason,
		CreatedAt:       time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeUseCase) ListVoids(ctx context.Context, actor auth.Session, filters *dto.VoidFilters) ([]model.VoidRecord, int, error) {
	f.filters = filters
	return []model.VoidRecord{{ID: 1, TransactionCode: "TRX20261016-0001"}}, 1, f.err
}

var manager = auth.Session{UserID: 2, Username: "sari", FullName: "Sari", Role: model.RoleManager}

func request(t *testing.T, m map[string]interface{}) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestVoidTransaction(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewVoidHandler(uc, logger.NewNop())
	ctx := auth.WithSession(context.Background(), manager)

	resp, err := h.VoidTransaction(ctx, request(t, map[string]interface{}{
		"transaction_code": "TRX20261016-0001",
		"reason":           "wrong item",
	}))
	require.NoError(t, err)
	assert.Equal(t, "TRX20261016-0001", uc.input.TransactionCode)
	assert.Equal(t, "wrong item", uc.input.Reason)

	fields := resp.AsMap()
	assert.Equal(t, "Sari", fields["voided_by_name"])
	assert.Equal(t, float64(2), fields["voided_by"])
	assert.Equal(t, "2026-10-16T10:00:00Z", fields["created_at"])
}

func TestVoidTransaction_Errors(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want codes.Code
	}{
		{
			name: "No session",
			ctx:  context.Background(),
			want: codes.Unauthenticated,
		},
		{
			name: "Already voided",
			ctx:  auth.WithSession(context.Background(), manager),
			err:  &apperr.TransactionNotVoidableError{Code: "TRX20261016-0001", Status: "voided"},
			want: codes.FailedPrecondition,
		},
		{
			name: "Cashier",
			ctx:  auth.WithSession(context.Background(), manager),
			err:  &apperr.PermissionDeniedError{Role: "cashier", Action: "void"},
			want: codes.PermissionDenied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewVoidHandler(&fakeUseCase{err: tt.err}, logger.NewNop())
			_, err := h.VoidTransaction(tt.ctx, request(t, map[string]interface{}{"transaction_code": "TRX20261016-0001"}))
			assert.Equal(t, tt.want, status.Code(err))
		})
	}
}

func TestListVoids(t *testing.T) {
	uc := &fakeUseCase{}
	h := NewVoidHandler(uc, logger.NewNop())
	ctx := auth.WithSession(context.Background(), manager)

	resp, err := h.ListVoids(ctx, request(t, map[string]interface{}{
		"start_date": "2026-10-01",
		"page":       2,
	}))
	require.NoError(t, err)
	require.NotNil(t, uc.filters.StartDate)
	assert.Nil(t, uc.filters.EndDate)
	assert.Equal(t, 2, uc.filters.Page)
	assert.Equal(t, float64(1), resp.AsMap()["total"])

	_, err = h.ListVoids(ctx, request(t, map[string]interface{}{"end_date": "yesterday"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
