package extraction

import "fmt"

// receiptPrompt is the fixed instruction template sent to the backend.
// It pins the output schema and the domain rules: items hold purchased
// products only, amounts are integer yen, quantity notation expands to
// line totals, nearby OCR lines may be associated, no over-guessing.
const receiptPrompt = `あなたは日本のレシートOCRテキストを家計簿入力用に構造化します。
次の text から情報を抽出し、**JSONのみ**で返してください（説明文は禁止）。

出力JSONスキーマ（必須）:
{
  "store": string|null,
  "datetime": string|null,   // "2025-12-21 16:49"
  "total_yen": int|null,
  "tax_yen": int|null,
  "payment": string|null,
  "items": [
    {
      "name": string,
      "qty": int|null,
      "unit_yen": int|null,
      "line_yen": int|null,
      "tax_rate": int|null
    }
  ]
}

ルール:
- items には商品だけ入れる（小計・合計・税などは除外）
- 金額は必ず int（円）
- (6個x@128) → qty=6, unit_yen=128, line_yen=768
- 行がずれていても近接行を対応づけてよい
- 推測しすぎない
- JSON以外は絶対に出力しない

text:
"""%s"""`

// BuildPrompt embeds the OCR text verbatim into the instruction
// template.
func BuildPrompt(ocrText string) string {
	return fmt.Sprintf(receiptPrompt, ocrText)
}
