package csvcodec

import (
	"strings"

	"github.com/marcus/plansync/internal/models"
)

// IDColumn is the header of the key column in a localization table.
const IDColumn = "String ID"

// EncodeStrings renders a table as CSV over models.LanguageKeys. Every
// non-empty text is quoted; languages outside the fixed list are dropped.
func EncodeStrings(t *models.StringTable) string {
	var b strings.Builder
	b.WriteString(IDColumn)
	for _, lang := range models.LanguageKeys {
		b.WriteByte(',')
		b.WriteString(lang)
	}
	b.WriteByte('\n')

	for _, id := range t.Keys() {
		b.WriteString(encodeID(id))
		for _, lang := range models.LanguageKeys {
			b.WriteByte(',')
			if text, ok := t.Get(id, lang); ok && text != "" {
				b.WriteString(quote(text))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func encodeID(id string) string {
	if strings.ContainsAny(id, ",\"\r\n") {
		return quote(id)
	}
	return id
}

// PivotStrings groups decoded rows by their String ID column in one pass.
// Every other column is treated as a language; empty texts are skipped and
// rows without an id are ignored.
func PivotStrings(rows []Row) *models.StringTable {
	t := models.NewStringTable()
	for _, row := range rows {
		id := row.Text(IDColumn)
		if id == "" {
			continue
		}
		if !t.Has(id) {
			t.Set(id, nil)
		}
		for col, v := range row {
			if col == IDColumn || v.Raw == "" {
				continue
			}
			t.Upsert(id, col, v.Raw)
		}
	}
	return t
}

// DecodeStrings decodes a comma-delimited localization table.
func DecodeStrings(text string) (*models.StringTable, error) {
	rows, err := Decode(text, Comma)
	if err != nil {
		return nil, err
	}
	return PivotStrings(rows), nil
}
