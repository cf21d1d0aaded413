// Package label encodes products into scannable label payloads and drives
// label generation.
package label

import (
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-cashier-service/internal/apperr"
	"github.com/fekuna/omnipos-cashier-service/internal/model"
	"github.com/shopspring/decimal"
)

// PayloadPrefix marks scanner text produced from one of our labels.
const PayloadPrefix = "PRODUCT:"

const fieldSep = "|"

// Decoded is the content of a label payload.
type Decoded struct {
	Code  string
	Name  string
	Price decimal.Decimal
}

// Payload returns PRODUCT:<code>|<name>|<price>. Separators inside the name
// are replaced so the layout stays parseable.
func Payload(p *model.Product) string {
	name := strings.ReplaceAll(p.Name, fieldSep, "/")
	return PayloadPrefix + p.Code + fieldSep + name + fieldSep + p.SellingPrice.String()
}

// IsPayload reports whether s carries the label prefix.
func IsPayload(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), PayloadPrefix)
}

// ParsePayload decodes a label payload. Text without the prefix is a raw
// product code and comes back with only Code set.
func ParsePayload(s string) (*Decoded, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, apperr.Invalid("empty scan payload")
	}
	if !strings.HasPrefix(s, PayloadPrefix) {
		return &Decoded{Code: s}, nil
	}

	parts := strings.Split(strings.TrimPrefix(s, PayloadPrefix), fieldSep)
	if len(parts) < 3 {
		return nil, apperr.Invalid("malformed label payload %q", s)
	}
	code := strings.TrimSpace(parts[0])
	if code == "" {
		return nil, apperr.Invalid("label payload without product code")
	}
	price, err := decimal.NewFromString(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return nil, fmt.Errorf("label price %q: %w", parts[len(parts)-1], apperr.ErrInvalidRequest)
	}

	return &Decoded{
		Code:  code,
		Name:  strings.Join(parts[1:len(parts)-1], fieldSep),
		Price: price,
	}, nil
}
