package receipt

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fekuna/omnipos-cashier-service/pkg/i18n"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	DefaultWidth = 40
	minWidth     = 24
)

// Renderer lays a Document out as fixed-width thermal printer text.
type Renderer struct {
	lang    string
	width   int
	printer *message.Printer
	decSep  string
}

func NewRenderer(lang string, width int) *Renderer {
	if !i18n.Supported(lang) {
		lang = "en"
	}
	if width < minWidth {
		width = DefaultWidth
	}

	tag := language.Make(lang)
	decSep := "."
	if tag == language.Indonesian {
		decSep = ","
	}

	return &Renderer{
		lang:    lang,
		width:   width,
		printer: message.NewPrinter(tag),
		decSep:  decSep,
	}
}

// Money formats an amount with locale digit grouping, e.g. "Rp 20,000" or
// "Rp 20.000". Fractions are printed only when present.
func (r *Renderer) Money(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Abs()
	}
	v = v.Round(2)
	whole := v.IntPart()
	s := sign + "Rp " + r.printer.Sprintf("%d", whole)

	frac := v.Sub(decimal.NewFromInt(whole))
	if !frac.IsZero() {
		s += r.decSep + frac.StringFixed(2)[2:]
	}
	return s
}

func (r *Renderer) t(id string, data map[string]interface{}) string {
	return i18n.T(r.lang, id, data)
}

func (r *Renderer) Render(doc Document) string {
	var b strings.Builder
	rule := strings.Repeat("-", r.width)

	for _, s := range []string{doc.Company.Name, doc.Company.Address, doc.Company.Phone} {
		if s != "" {
			b.WriteString(r.center(s))
		}
	}
	b.WriteString(rule + "\n")

	b.WriteString(r.pair(r.t("receipt.transaction", nil), doc.Code))
	b.WriteString(r.pair(r.t("receipt.date", nil), doc.Date.Format("02/01/2006 15:04")))
	b.WriteString(r.pair(r.t("receipt.cashier", nil), doc.Cashier))
	if doc.Voided {
		b.WriteString(r.center(r.t("receipt.voided", nil)))
	}
	b.WriteString(rule + "\n")

	for _, l := range doc.Lines {
		b.WriteString(truncate(l.Name, r.width) + "\n")
		qty := fmt.Sprintf("  %d x %s", l.Quantity, r.Money(l.UnitPrice))
		b.WriteString(r.pair(qty, r.Money(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))))
		if l.Discount.IsPositive() {
			b.WriteString(r.pair("  "+r.t("receipt.discount", nil), r.Money(l.Discount.Neg())))
		}
	}
	b.WriteString(rule + "\n")

	b.WriteString(r.pair(r.t("receipt.subtotal", nil), r.Money(doc.Subtotal)))
	lineDiscounts := decimal.Zero
	for _, l := range doc.Lines {
		lineDiscounts = lineDiscounts.Add(l.Discount)
	}
	// Promotion discounts already appear per line.
	if doc.DiscountAmount.IsPositive() && !doc.DiscountAmount.Equal(lineDiscounts) {
		label := r.t("receipt.discount", nil)
		if doc.DiscountPercentage.IsPositive() {
			label += " (" + doc.DiscountPercentage.String() + "%)"
		}
		b.WriteString(r.pair(label, r.Money(doc.DiscountAmount.Neg())))
	}
	b.WriteString(r.pair(r.t("receipt.tax", map[string]interface{}{"Rate": doc.TaxRate.String()}), r.Money(doc.TaxAmount)))
	b.WriteString(r.pair(r.t("receipt.total", nil), r.Money(doc.Total)))
	b.WriteString(rule + "\n")

	b.WriteString(r.pair(r.t("receipt.payment", nil), r.t("payment."+string(doc.PaymentMethod), nil)))
	b.WriteString(r.pair(r.t("receipt.cash", nil), r.Money(doc.CashPaid)))
	b.WriteString(r.pair(r.t("receipt.change", nil), r.Money(doc.Change)))
	b.WriteString(rule + "\n")

	b.WriteString(r.center(r.t("receipt.thanks", nil)))
	if doc.Company.Footer != "" {
		b.WriteString(r.center(doc.Company.Footer))
	}
	return b.String()
}

// pair puts left and right on one line, right-aligned to the width.
func (r *Renderer) pair(left, right string) string {
	gap := r.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
	if gap < 1 {
		left = truncate(left, r.width-utf8.RuneCountInString(right)-1)
		gap = r.width - utf8.RuneCountInString(left) - utf8.RuneCountInString(right)
		if gap < 1 {
			gap = 1
		}
	}
	return left + strings.Repeat(" ", gap) + right + "\n"
}

func (r *Renderer) center(s string) string {
	s = truncate(s, r.width)
	pad := (r.width - utf8.RuneCountInString(s)) / 2
	return strings.Repeat(" ", pad) + s + "\n"
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
