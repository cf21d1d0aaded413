package pricing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindNone       Kind = "none"
	KindPercentage Kind = "percentage"
	KindFixed      Kind = "fixed"
	KindBuyNGetM   Kind = "buy_n_get_m"
)

// Policy is a tagged discount variant. Only the fields relevant to Kind are read.
type Policy struct {
	Kind  Kind
	Value decimal.Decimal
	// Rule is "N:M" for KindBuyNGetM.
	Rule string
	// ProductCodes limits KindBuyNGetM to these products; empty means every line.
	ProductCodes []string
}

func NoDiscount() Policy { return Policy{Kind: KindNone} }

func Percentage(v decimal.Decimal) Policy { return Policy{Kind: KindPercentage, Value: v} }

func Fixed(v decimal.Decimal) Policy { return Policy{Kind: KindFixed, Value: v} }

func BuyNGetM(rule string, productCodes ...string) Policy {
	return Policy{Kind: KindBuyNGetM, Rule: rule, ProductCodes: productCodes}
}

// ParseKind accepts the wire names plus a few aliases; "" means none.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return KindNone, nil
	case "percentage", "percent":
		return KindPercentage, nil
	case "fixed", "amount":
		return KindFixed, nil
	case "buy_n_get_m", "bogo", "promotion":
		return KindBuyNGetM, nil
	}
	return "", fmt.Errorf("%w: unknown discount type %q", apperr.ErrInvalidDiscount, s)
}

// ParseRule parses "N:M" (buy N, get M free) with N, M >= 1.
func ParseRule(rule string) (n, m int, err error) {
	parts := strings.Split(strings.TrimSpace(rule), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q is not of the form N:M", apperr.ErrInvalidPromotionRule, rule)
	}
	n, errN := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errN != nil || errM != nil {
		return 0, 0, fmt.Errorf("%w: %q has non-integer parts", apperr.ErrInvalidPromotionRule, rule)
	}
	if n < 1 || m < 1 {
		return 0, 0, fmt.Errorf("%w: %q needs N >= 1 and M >= 1", apperr.ErrInvalidPromotionRule, rule)
	}
	return n, m, nil
}
