package receipt

import (
	"math"
	"strconv"
	"strings"
)

// CoerceInt converts a loosely-typed JSON value into an integer. Floats
// are truncated toward zero. Strings tolerate currency markers, thousands
// separators and full-width digits. Anything unconvertible becomes nil;
// malformed input is data, not an error.
func CoerceInt(v any) *int {
	switch n := v.(type) {
	case nil:
		return nil
	case int:
		return intPtr(n)
	case int32:
		return intPtr(int(n))
	case int64:
		return intPtr(int(n))
	case float32:
		return coerceFloat(float64(n))
	case float64:
		return coerceFloat(n)
	case string:
		return coerceNumericString(n)
	default:
		return nil
	}
}

func coerceFloat(f float64) *int {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f >= float64(math.MaxInt64) || f < float64(math.MinInt64) {
		return nil
	}
	return intPtr(int(f))
}

func coerceNumericString(s string) *int {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '０' && r <= '９':
			b.WriteRune('0' + (r - '０'))
		case r == '-' || r == '－' || r == '−':
			b.WriteByte('-')
		}
	}
	digits := b.String()
	if digits == "" || digits == "-" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

func intPtr(n int) *int { return &n }
