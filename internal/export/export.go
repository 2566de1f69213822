package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

// Row is one extraction in the workbook.
type Row struct {
	CreatedAt time.Time
	Datetime  string
	Store     string
	TotalYen  *int
	TaxYen    *int
	Payment   string
	Items     int
}

// Exporter produces XLSX bytes from extraction history.
type Exporter struct {
	logger *slog.Logger
}

// NewExporter creates an Exporter. A nil logger falls back to the
// default.
func NewExporter(logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{logger: logger}
}

// Workbook renders rows into a single-sheet XLSX workbook: a header row
// then one row per extraction. Nil amounts stay empty cells.
func (e *Exporter) Workbook(rows []Row) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Extractions"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{
		"Extracted At",
		"Receipt Datetime",
		"Store",
		"Total Yen",
		"Tax Yen",
		"Payment",
		"Items",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	rowNum := 2
	for _, r := range rows {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, rowNum)
			_ = f.SetCellValue(sheet, cell, v)
		}

		if !r.CreatedAt.IsZero() {
			write(1, r.CreatedAt.Format("2006-01-02 15:04"))
		} else {
			write(1, "")
		}
		write(2, r.Datetime)
		write(3, truncate(r.Store, 60))
		if r.TotalYen != nil {
			write(4, *r.TotalYen)
		}
		if r.TaxYen != nil {
			write(5, *r.TaxYen)
		}
		write(6, r.Payment)
		write(7, r.Items)

		rowNum++
	}

	_ = f.SetColWidth(sheet, "A", "B", 18) // timestamps
	_ = f.SetColWidth(sheet, "C", "C", 28) // store
	_ = f.SetColWidth(sheet, "D", "E", 12) // amounts
	_ = f.SetColWidth(sheet, "F", "F", 14) // payment

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	e.logger.Info("export.xlsx.ok",
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// truncate shortens s to n runes. Store names are Japanese, so slicing
// happens on runes, not bytes.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
