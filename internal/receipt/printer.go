package receipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"go.uber.org/zap"
)

// PrintSink delivers rendered receipt text to a printer or spool.
type PrintSink interface {
	Print(ctx context.Context, name string, content []byte) (string, error)
}

// SpoolSink writes receipts into a directory watched by the print spooler.
type SpoolSink struct {
	dir string
}

func NewSpoolSink(dir string) *SpoolSink {
	return &SpoolSink{dir: dir}
}

func (s *SpoolSink) Print(ctx context.Context, name string, content []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("receipt spool: %w", err)
	}
	path := filepath.Join(s.dir, filepath.Base(name))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("receipt spool: %w", err)
	}
	return path, nil
}

// Printer renders and sends receipts. Printing never affects the ledger.
type Printer struct {
	company  Company
	renderer *Renderer
	sink     PrintSink
	logger   logger.ZapLogger
}

func NewPrinter(company Company, renderer *Renderer, sink PrintSink, log logger.ZapLogger) *Printer {
	return &Printer{company: company, renderer: renderer, sink: sink, logger: log}
}

func (p *Printer) Company() Company { return p.company }

// Text renders doc without printing it.
func (p *Printer) Text(doc Document) string {
	return p.renderer.Render(doc)
}

func (p *Printer) Print(ctx context.Context, doc Document) (string, error) {
	text := p.renderer.Render(doc)
	name := doc.Code + ".txt"
	if doc.Voided {
		name = doc.Code + "-void.txt"
	}

	path, err := p.sink.Print(ctx, name, []byte(text))
	if err != nil {
		p.logger.Error("failed to print receipt", zap.String("code", doc.Code), zap.Error(err))
		return "", err
	}
	p.logger.Info("receipt printed", zap.String("code", doc.Code), zap.String("path", path))
	return path, nil
}
