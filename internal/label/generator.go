package label

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Label is the input handed to a Generator.
type Label struct {
	Code     string
	Name     string
	Price    string
	Payload  string
	Sequence int
}

func newLabel(p *model.Product, seq int) Label {
	return Label{
		Code:     p.Code,
		Name:     p.Name,
		Price:    p.SellingPrice.String(),
		Payload:  Payload(p),
		Sequence: seq,
	}
}

// Generator renders one label (QR image, printer job) and returns where it went.
type Generator interface {
	Generate(ctx context.Context, l Label) (string, error)
}

// SpoolGenerator writes each label payload as a text file for an external
// QR renderer to pick up.
type SpoolGenerator struct {
	dir string
	now func() time.Time
}

func NewSpoolGenerator(dir string) *SpoolGenerator {
	return &SpoolGenerator{dir: dir, now: time.Now}
}

func (g *SpoolGenerator) Generate(ctx context.Context, l Label) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("label spool: %w", err)
	}
	name := fmt.Sprintf("%s_%s_%03d.txt", l.Code, g.now().Format("20060102_150405"), l.Sequence)
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, []byte(l.Payload+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("label spool: %w", err)
	}
	return path, nil
}

// Generated describes one produced label.
type Generated struct {
	ProductCode string
	ProductName string
	Path        string
	Sequence    int
}

type BulkResult struct {
	Labels      []Generated
	SummaryPath string
}

// Service generates labels in bulk and records a summary workbook.
type Service struct {
	gen    Generator
	dir    string
	now    func() time.Time
	logger logger.ZapLogger
}

func NewService(gen Generator, summaryDir string, log logger.ZapLogger) *Service {
	return &Service{gen: gen, dir: summaryDir, now: time.Now, logger: log}
}

var summaryHeader = []interface{}{"Product Code", "Product Name", "File", "Sequence"}

// GenerateBulk produces copies labels for every product and writes an xlsx
// summary next to them. A generator failure stops the run.
func (s *Service) GenerateBulk(ctx context.Context, products []model.Product, copies int) (*BulkResult, error) {
	if len(products) == 0 {
		return nil, apperr.Invalid("no products to label")
	}
	if copies < 1 || copies > 100 {
		return nil, apperr.Invalid("copies must be between 1 and 100, got %d", copies)
	}

	res := &BulkResult{}
	for i := range products {
		for seq := 1; seq <= copies; seq++ {
			path, err := s.gen.Generate(ctx, newLabel(&products[i], seq))
			if err != nil {
				return nil, fmt.Errorf("generate label %s #%d: %w", products[i].Code, seq, err)
			}
			res.Labels = append(res.Labels, Generated{
				ProductCode: products[i].Code,
				ProductName: products[i].Name,
				Path:        path,
				Sequence:    seq,
			})
		}
	}

	summary, err := s.writeSummary(res.Labels)
	if err != nil {
		return nil, err
	}
	res.SummaryPath = summary

	s.logger.Info("labels generated",
		zap.Int("products", len(products)),
		zap.Int("labels", len(res.Labels)),
		zap.String("summary", summary),
	)
	return res, nil
}

func (s *Service) writeSummary(labels []Generated) (string, error) {
	book := excelize.NewFile()
	defer book.Close()

	const sheet = "Labels"
	if err := book.SetSheetName("Sheet1", sheet); err != nil {
		return "", fmt.Errorf("label summary: %w", err)
	}
	if err := book.SetSheetRow(sheet, "A1", &summaryHeader); err != nil {
		return "", fmt.Errorf("label summary: %w", err)
	}
	for i, l := range labels {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return "", err
		}
		row := []interface{}{l.ProductCode, l.ProductName, l.Path, l.Sequence}
		if err := book.SetSheetRow(sheet, cell, &row); err != nil {
			return "", fmt.Errorf("label summary: %w", err)
		}
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("label summary: %w", err)
	}
	path := filepath.Join(s.dir, fmt.Sprintf("summary_%s.xlsx", s.now().Format("20060102_150405")))
	if err := book.SaveAs(path); err != nil {
		return "", fmt.Errorf("label summary: %w", err)
	}
	return path, nil
}
