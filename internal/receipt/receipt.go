package receipt

import "time"

// Receipt is the normalized result of one extraction. Fields the backend
// could not determine are nil and serialize as empty TSV cells.
type Receipt struct {
	Store    *string    `json:"store"`
	Datetime *string    `json:"datetime"`
	TotalYen *int       `json:"total_yen"`
	TaxYen   *int       `json:"tax_yen"`
	Payment  *string    `json:"payment"`
	Items    []LineItem `json:"items"`
}

// LineItem is a single purchased product. Name is always present; a
// candidate item without a usable name is dropped during normalization.
type LineItem struct {
	Name    string `json:"name"`
	Qty     *int   `json:"qty"`
	UnitYen *int   `json:"unit_yen"`
	LineYen *int   `json:"line_yen"`
	TaxRate *int   `json:"tax_rate"`
}

// Extraction is one recorded parse: the normalized receipt plus pointers
// to the stored input and output artifacts.
type Extraction struct {
	ID        string    `json:"id"`
	Receipt   Receipt   `json:"receipt"`
	OCRFile   string    `json:"ocr_file"`
	TSVFile   string    `json:"tsv_file"`
	CreatedAt time.Time `json:"created_at"`
}
