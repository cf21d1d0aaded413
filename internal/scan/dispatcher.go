package scan

import (
	"context"
	"errors"
	"io"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
)

// Resolver is satisfied by product.UseCase.
type Resolver interface {
	ResolveScan(ctx context.Context, payload string) (*model.Product, error)
}

// HandlerFunc receives every scan that resolved to an active product.
type HandlerFunc func(ctx context.Context, p *model.Product)

// Dispatcher resolves each scan from a Source into a product. Scans that fail
// to resolve are logged and skipped.
type Dispatcher struct {
	resolver Resolver
	handle   HandlerFunc
	logger   logger.ZapLogger
}

func NewDispatcher(resolver Resolver, handle HandlerFunc, log logger.ZapLogger) *Dispatcher {
	return &Dispatcher{
		resolver: resolver,
		handle:   handle,
		logger:   log,
	}
}

// Run consumes src until it is exhausted or ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	d.logger.Info("Starting scan dispatcher")
	for {
		payload, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				d.logger.Info("Scan source closed")
				return nil
			}
			if ctx.Err() != nil {
				d.logger.Info("Stopping scan dispatcher")
				return nil
			}
			return err
		}

		p, err := d.resolver.ResolveScan(ctx, payload)
		if err != nil {
			d.logger.Warn("Unresolved scan", zap.String("payload", payload), zap.Error(err))
			continue
		}
		d.logger.Debug("Scan resolved", zap.String("code", p.Code))
		d.handle(ctx, p)
	}
}
