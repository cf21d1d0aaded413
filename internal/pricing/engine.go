// Package pricing computes cart totals. It has no side effects and never uses
// floating point for money.
package pricing

import (
	"fmt"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/shopspring/decimal"
)

const (
	DefaultScale int32 = 2
)

var (
	DefaultTaxRate = decimal.NewFromInt(10)
	hundred        = decimal.NewFromInt(100)
)

type Line struct {
	ProductCode string
	UnitPrice   decimal.Decimal
	Quantity    int
}

func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Result struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxableAmount  decimal.Decimal
	TaxAmount      decimal.Decimal
	FinalAmount    decimal.Decimal
	TaxRate        decimal.Decimal
	// DiscountPercentage is the policy percentage, zero for other kinds.
	DiscountPercentage decimal.Decimal
	// LineDiscounts is index-aligned with the input lines; only BuyNGetM fills it.
	LineDiscounts []decimal.Decimal
}

// LineSubtotal is unit price x quantity minus the line discount.
func (r *Result) LineSubtotal(lines []Line, i int) decimal.Decimal {
	return lines[i].Amount().Sub(r.LineDiscounts[i])
}

type Engine struct {
	taxRate decimal.Decimal
	scale   int32
}

// NewEngine validates the tax rate once; Compute reuses it for every cart.
func NewEngine(taxRate decimal.Decimal, scale int32) (*Engine, error) {
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return nil, fmt.Errorf("%w: tax rate %s outside [0,100]", apperr.ErrValidation, taxRate)
	}
	if scale < 0 {
		return nil, fmt.Errorf("%w: negative currency scale", apperr.ErrValidation)
	}
	return &Engine{taxRate: taxRate, scale: scale}, nil
}

func (e *Engine) TaxRate() decimal.Decimal { return e.taxRate }

// ComputeTotals is Engine.Compute with the given tax rate at DefaultScale.
func ComputeTotals(lines []Line, policy Policy, taxRate decimal.Decimal) (*Result, error) {
	e, err := NewEngine(taxRate, DefaultScale)
	if err != nil {
		return nil, err
	}
	return e.Compute(lines, policy)
}

// Compute rounds the discount and the tax to the currency scale; the final
// amount is then the exact sum taxable + tax.
func (e *Engine) Compute(lines []Line, policy Policy) (*Result, error) {
	if len(lines) == 0 {
		return nil, apperr.Invalid("cart is empty")
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		if l.Quantity <= 0 {
			return nil, apperr.Invalid("quantity for %s must be positive", l.ProductCode)
		}
		if l.UnitPrice.IsNegative() {
			return nil, apperr.Invalid("unit price for %s must not be negative", l.ProductCode)
		}
		subtotal = subtotal.Add(l.Amount())
	}

	res := &Result{
		Subtotal:           subtotal,
		TaxRate:            e.taxRate,
		DiscountPercentage: decimal.Zero,
		LineDiscounts:      make([]decimal.Decimal, len(lines)),
	}
	for i := range res.LineDiscounts {
		res.LineDiscounts[i] = decimal.Zero
	}

	discount, err := e.discount(lines, subtotal, policy, res)
	if err != nil {
		return nil, err
	}
	if discount.GreaterThan(subtotal) {
		return nil, fmt.Errorf("%w: discount %s exceeds subtotal %s", apperr.ErrInvalidDiscount, discount, subtotal)
	}

	res.DiscountAmount = discount
	res.TaxableAmount = subtotal.Sub(discount)
	res.TaxAmount = res.TaxableAmount.Mul(e.taxRate).Div(hundred).Round(e.scale)
	res.FinalAmount = res.TaxableAmount.Add(res.TaxAmount)
	return res, nil
}

func (e *Engine) discount(lines []Line, subtotal decimal.Decimal, p Policy, res *Result) (decimal.Decimal, error) {
	switch p.Kind {
	case KindNone, "":
		return decimal.Zero, nil

	case KindPercentage:
		if p.Value.IsNegative() || p.Value.GreaterThan(hundred) {
			return decimal.Zero, fmt.Errorf("%w: percentage %s outside [0,100]", apperr.ErrInvalidDiscount, p.Value)
		}
		res.DiscountPercentage = p.Value
		return subtotal.Mul(p.Value).Div(hundred).Round(e.scale), nil

	case KindFixed:
		if p.Value.IsNegative() {
			return decimal.Zero, fmt.Errorf("%w: fixed amount %s is negative", apperr.ErrInvalidDiscount, p.Value)
		}
		return decimal.Min(p.Value.Round(e.scale), subtotal), nil

	case KindBuyNGetM:
		n, m, err := ParseRule(p.Rule)
		if err != nil {
			return decimal.Zero, err
		}
		return buyNGetM(lines, n, m, p.ProductCodes, res), nil
	}

	return decimal.Zero, fmt.Errorf("%w: unknown discount type %q", apperr.ErrInvalidDiscount, p.Kind)
}

// buyNGetM gives M units free out of every complete group of N+M units on each
// eligible line. Lines are priced independently; units of different products
// never combine into a group.
func buyNGetM(lines []Line, n, m int, codes []string, res *Result) decimal.Decimal {
	eligible := make(map[string]struct{}, len(codes))
	for _, c := range codes {
		eligible[c] = struct{}{}
	}

	total := decimal.Zero
	for i, l := range lines {
		if len(eligible) > 0 {
			if _, ok := eligible[l.ProductCode]; !ok {
				continue
			}
		}
		free := (l.Quantity / (n + m)) * m
		if free == 0 {
			continue
		}
		d := l.UnitPrice.Mul(decimal.NewFromInt(int64(free)))
		res.LineDiscounts[i] = d
		total = total.Add(d)
	}
	return total
}
