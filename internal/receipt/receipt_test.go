package receipt

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/fekuna/omnipos-cashier-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTransaction() *model.Transaction {
	return &model.Transaction{
		Code:           "TRX20261016-0001",
		CashierName:    "Budi Santoso",
		Subtotal:       d("20000"),
		DiscountType:   "fixed",
		DiscountAmount: d("5000"),
		TaxRate:        d("10"),
		TaxAmount:      d("1500"),
		FinalAmount:    d("16500"),
		PaymentMethod:  model.PaymentCash,
		CashPaid:       d("20000"),
		ChangeAmount:   d("3500"),
		Status:         model.TransactionCompleted,
		CreatedAt:      time.Date(2026, 10, 16, 14, 30, 0, 0, time.UTC),
		Items: []model.TransactionItem{
			{LineNo: 1, ProductCode: "BRG001", ProductName: "Indomie Goreng", Quantity: 2,
				UnitPrice: d("10000"), Discount: decimal.Zero, Subtotal: d("20000")},
		},
	}
}

var company = Company{Name: "Toko Maju", Address: "Jl. Merdeka 1", Phone: "021-555", Footer: "Barang yang sudah dibeli tidak dapat ditukar"}

func TestBuild(t *testing.T) {
	trx := sampleTransaction()
	doc := Build(trx, company)

	assert.Equal(t, trx.Code, doc.Code)
	assert.Equal(t, "Budi Santoso", doc.Cashier)
	assert.True(t, doc.Total.Equal(d("16500")))
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "Indomie Goreng", doc.Lines[0].Name)
	assert.False(t, doc.Voided)

	trx.Status = model.TransactionVoided
	assert.True(t, Build(trx, company).Voided)
}

func TestMoney(t *testing.T) {
	testCases := []struct {
		lang  string
		value string
		want  string
	}{
		{"en", "20000", "Rp 20,000"},
		{"en", "1234567.5", "Rp 1,234,567.50"},
		{"en", "0", "Rp 0"},
		{"en", "-5000", "-Rp 5,000"},
		{"id", "20000", "Rp 20.000"},
		{"id", "1500.25", "Rp 1.500,25"},
	}

	for _, tc := range testCases {
		t.Run(tc.lang+" "+tc.value, func(t *testing.T) {
			r := NewRenderer(tc.lang, DefaultWidth)
			assert.Equal(t, tc.want, r.Money(d(tc.value)))
		})
	}
}

func TestRender(t *testing.T) {
	r := NewRenderer("en", 40)
	text := r.Render(Build(sampleTransaction(), company))

	for _, want := range []string{
		"Toko Maju",
		"TRX20261016-0001",
		"16/10/2026 14:30",
		"Budi Santoso",
		"Indomie Goreng",
		"2 x Rp 10,000",
		"Tax (10%)",
		"Rp 16,500",
		"Rp 3,500",
		"Thank you for shopping!",
	} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "VOIDED")

	for _, line := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), 40, line)
	}
}

func TestRender_LocalizedAndVoided(t *testing.T) {
	trx := sampleTransaction()
	trx.Status = model.TransactionVoided

	text := NewRenderer("id", 32).Render(Build(trx, company))
	assert.Contains(t, text, "*** DIBATALKAN ***")
	assert.Contains(t, text, "Kembalian")
	assert.Contains(t, text, "Pajak (10%)")
	assert.Contains(t, text, "Rp 16.500")
}

func TestRender_PromotionShownPerLine(t *testing.T) {
	trx := sampleTransaction()
	trx.DiscountType = "buy_n_get_m"
	trx.Items[0].Quantity = 3
	trx.Items[0].Discount = d("10000")
	trx.Items[0].Subtotal = d("20000")
	trx.Subtotal = d("30000")
	trx.DiscountAmount = d("10000")

	text := NewRenderer("en", 40).Render(Build(trx, company))
	assert.Equal(t, 1, strings.Count(text, "Discount"))
	assert.Contains(t, text, "-Rp 10,000")
}

func TestRenderer_Defaults(t *testing.T) {
	r := NewRenderer("fr", 5)
	assert.Equal(t, "en", r.lang)
	assert.Equal(t, DefaultWidth, r.width)
}

type failingSink struct{}

func (failingSink) Print(ctx context.Context, name string, content []byte) (string, error) {
	return "", errors.New("paper jam")
}

func TestPrinter(t *testing.T) {
	dir := t.TempDir()
	p := NewPrinter(company, NewRenderer("en", 40), NewSpoolSink(dir), logger.NewNop())

	path, err := p.Print(context.Background(), Build(sampleTransaction(), company))
	require.NoError(t, err)
	assert.Equal(t, "TRX20261016-0001.txt", path[len(dir)+1:])

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, p.Text(Build(sampleTransaction(), company)), string(content))

	failing := NewPrinter(company, NewRenderer("en", 40), failingSink{}, logger.NewNop())
	_, err = failing.Print(context.Background(), Build(sampleTransaction(), company))
	assert.EqualError(t, err, "paper jam")
}
