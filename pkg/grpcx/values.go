package grpcx

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

func field(s *structpb.Struct, key string) *structpb.Value {
	if s == nil {
		return nil
	}
	return s.GetFields()[key]
}

func String(s *structpb.Struct, key string) string {
	v := field(s, key)
	if v == nil {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(k.NumberValue, 'f', -1, 64)
	}
	return ""
}

// maxWhole is the largest magnitude a JSON number carries as an exact integer.
const maxWhole = 1 << 53

// Int reads a whole number sent as a number or a numeric string. Fractions,
// NaN and magnitudes beyond what a JSON number holds exactly are rejected.
// A missing key yields zero.
func Int(s *structpb.Struct, key string) (int64, error) {
	v := field(s, key)
	if v == nil {
		return 0, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		n := k.NumberValue
		if math.Trunc(n) != n || math.Abs(n) > maxWhole {
			return 0, fmt.Errorf("%s: %v is not a whole number", key, n)
		}
		return int64(n), nil
	case *structpb.Value_StringValue:
		if k.StringValue == "" {
			return 0, nil
		}
		n, err := strconv.ParseInt(k.StringValue, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %q is not a whole number", key, k.StringValue)
		}
		return n, nil
	case *structpb.Value_NullValue:
		return 0, nil
	}
	return 0, fmt.Errorf("%s: not a number", key)
}

// Page reads the page and page_size fields.
func Page(s *structpb.Struct) (page, size int, err error) {
	p, err := Int(s, "page")
	if err != nil {
		return 0, 0, err
	}
	ps, err := Int(s, "page_size")
	if err != nil {
		return 0, 0, err
	}
	return int(p), int(ps), nil
}

func Bool(s *structpb.Struct, key string) bool {
	return field(s, key).GetBoolValue()
}

// Decimal reads money sent either as a string ("10000.50") or a number.
// A missing key yields zero.
func Decimal(s *structpb.Struct, key string) (decimal.Decimal, error) {
	v := field(s, key)
	if v == nil {
		return decimal.Zero, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		if k.StringValue == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(k.StringValue)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(k.NumberValue), nil
	case *structpb.Value_NullValue:
		return decimal.Zero, nil
	}
	return decimal.Zero, fmt.Errorf("%s: not a number", key)
}

func Has(s *structpb.Struct, key string) bool {
	return field(s, key) != nil
}

func Structs(s *structpb.Struct, key string) []*structpb.Struct {
	list := field(s, key).GetListValue()
	if list == nil {
		return nil
	}
	out := make([]*structpb.Struct, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		if sv := v.GetStructValue(); sv != nil {
			out = append(out, sv)
		}
	}
	return out
}

func Strings(s *structpb.Struct, key string) []string {
	list := field(s, key).GetListValue()
	if list == nil {
		return nil
	}
	out := make([]string, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		out = append(out, v.GetStringValue())
	}
	return out
}

// Time accepts RFC3339 or a plain 2006-01-02 date. A missing key yields the zero time.
func Time(s *structpb.Struct, key string) (time.Time, error) {
	raw := String(s, key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected RFC3339 or YYYY-MM-DD", key)
	}
	return t, nil
}

func Timestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
