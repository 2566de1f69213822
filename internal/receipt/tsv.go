package receipt

import (
	"fmt"
	"strconv"
	"strings"
)

// Layout selects how detail rows sit relative to the summary row.
type Layout int

const (
	// LayoutOffset left-pads each detail row with one blank column so
	// items paste one cell right of the summary fields.
	LayoutOffset Layout = iota
	// LayoutFlat writes five bare columns in every row.
	LayoutFlat
)

// ParseLayout maps a flag value onto a Layout.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "offset":
		return LayoutOffset, nil
	case "flat":
		return LayoutFlat, nil
	}
	return LayoutOffset, fmt.Errorf("unknown layout %q (want offset or flat)", s)
}

func (l Layout) String() string {
	if l == LayoutFlat {
		return "flat"
	}
	return "offset"
}

var cellSanitizer = strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")

// ToTSV renders a receipt as tab-separated text: one summary row
// (datetime, store, total_yen, tax_yen, payment) then one row per item
// (name, qty, unit_yen, line_yen, tax_rate), every row newline
// terminated. Nil fields render as empty cells.
func ToTSV(r *Receipt, layout Layout) string {
	var b strings.Builder
	writeRow(&b, []string{
		stringCell(r.Datetime),
		stringCell(r.Store),
		intCell(r.TotalYen),
		intCell(r.TaxYen),
		stringCell(r.Payment),
	})
	for _, item := range r.Items {
		row := []string{
			cellSanitizer.Replace(item.Name),
			intCell(item.Qty),
			intCell(item.UnitYen),
			intCell(item.LineYen),
			intCell(item.TaxRate),
		}
		if layout == LayoutOffset {
			row = append([]string{""}, row...)
		}
		writeRow(&b, row)
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string) {
	b.WriteString(strings.Join(cells, "\t"))
	b.WriteByte('\n')
}

func stringCell(p *string) string {
	if p == nil {
		return ""
	}
	return cellSanitizer.Replace(*p)
}

func intCell(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}
