package scan

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver map[string]*model.Product

func (r fakeResolver) ResolveScan(ctx context.Context, payload string) (*model.Product, error) {
	code := payload
	if strings.HasPrefix(payload, "PRODUCT:") {
		code = strings.SplitN(strings.TrimPrefix(payload, "PRODUCT:"), "|", 2)[0]
	}
	if p, ok := r[code]; ok {
		return p, nil
	}
	return nil, apperr.NotFound("product", code)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("device unplugged") }

func TestLineSource(t *testing.T) {
	src := NewLineSource(strings.NewReader("P001\n\n  PRODUCT:P002|Teh|5000  \r\nP003"))
	ctx := context.Background()

	var got []string
	for {
		s, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, s)
	}
	assert.Equal(t, []string{"P001", "PRODUCT:P002|Teh|5000", "P003"}, got)

	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestLineSource_ReadError(t *testing.T) {
	src := NewLineSource(failingReader{})

	_, err := src.Next(context.Background())
	assert.EqualError(t, err, "device unplugged")
}

func TestLineSource_Cancel(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	src := NewLineSource(r)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := src.Next(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDispatcher_Run(t *testing.T) {
	resolver := fakeResolver{
		"P001": {Code: "P001", Name: "Kopi"},
		"P002": {Code: "P002", Name: "Teh"},
	}
	var got []string
	d := NewDispatcher(resolver, func(ctx context.Context, p *model.Product) {
		got = append(got, p.Code)
	}, logger.NewNop())

	src := NewLineSource(strings.NewReader("P001\nUNKNOWN\nPRODUCT:P002|Teh|5000\nP001\n"))
	require.NoError(t, d.Run(context.Background(), src))
	assert.Equal(t, []string{"P001", "P002", "P001"}, got)
}

func TestDispatcher_ReadError(t *testing.T) {
	d := NewDispatcher(fakeResolver{}, func(context.Context, *model.Product) {}, logger.NewNop())

	err := d.Run(context.Background(), NewLineSource(failingReader{}))
	assert.EqualError(t, err, "device unplugged")
}

func TestDispatcher_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	d := NewDispatcher(fakeResolver{}, func(context.Context, *model.Product) {}, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, d.Run(ctx, NewLineSource(r)))
}
