package receipt

import (
	"strconv"
	"strings"
)

// Normalize maps a decoded JSON object onto the canonical Receipt. It
// never fails: missing or mistyped fields degrade to nil, and item
// entries without a usable name are dropped. Surviving items keep their
// input order.
func Normalize(obj map[string]any) *Receipt {
	r := &Receipt{
		Store:    stringOrNil(obj["store"]),
		Datetime: stringOrNil(obj["datetime"]),
		TotalYen: CoerceInt(obj["total_yen"]),
		TaxYen:   CoerceInt(obj["tax_yen"]),
		Payment:  stringOrNil(obj["payment"]),
		Items:    []LineItem{},
	}

	rawItems, ok := obj["items"].([]any)
	if !ok {
		return r
	}
	for _, raw := range rawItems {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name := itemName(entry["name"])
		if name == "" {
			continue
		}
		r.Items = append(r.Items, LineItem{
			Name:    name,
			Qty:     CoerceInt(entry["qty"]),
			UnitYen: CoerceInt(entry["unit_yen"]),
			LineYen: CoerceInt(entry["line_yen"]),
			TaxRate: CoerceInt(entry["tax_rate"]),
		})
	}
	return r
}

func stringOrNil(v any) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	return &s
}

// itemName coerces an item's name to a trimmed string. Numbers are
// accepted (a backend occasionally emits a bare product code); anything
// else yields "" and the item is dropped by the caller.
func itemName(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	}
	return ""
}
