package models

// DefaultLanguage is the editing language used when none is configured.
const DefaultLanguage = "en-us"

// LanguageKeys is the fixed, ordered set of language columns written to
// localization tables.
var LanguageKeys = []string{
	"en-us", "ko-kr", "vi-vn", "zh-cn", "es-us", "de-de", "es-es", "fi-fi",
	"fr-fr", "he-il", "it-it", "ja-jp", "pt-pt", "sv-se", "th-th",
}

// IsKnownLanguage reports whether lang is one of LanguageKeys.
func IsKnownLanguage(lang string) bool {
	for _, k := range LanguageKeys {
		if k == lang {
			return true
		}
	}
	return false
}

// StringTable maps a string id to its per-language text. Row order is
// preserved so a rewritten table diffs cleanly against the original file.
type StringTable struct {
	order []string
	rows  map[string]map[string]string
}

// NewStringTable returns an empty table.
func NewStringTable() *StringTable {
	return &StringTable{rows: make(map[string]map[string]string)}
}

// Len returns the number of ids.
func (t *StringTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Keys returns the ids in table order.
func (t *StringTable) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.order...)
}

// Has reports whether id has a row.
func (t *StringTable) Has(id string) bool {
	if t == nil {
		return false
	}
	_, ok := t.rows[id]
	return ok
}

// Get returns the text for id in lang.
func (t *StringTable) Get(id, lang string) (string, bool) {
	if t == nil {
		return "", false
	}
	row, ok := t.rows[id]
	if !ok {
		return "", false
	}
	v, ok := row[lang]
	return v, ok
}

// Row returns a copy of the per-language texts for id.
func (t *StringTable) Row(id string) map[string]string {
	if t == nil {
		return nil
	}
	row, ok := t.rows[id]
	if !ok {
		return nil
	}
	out := make(map[string]string, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Set replaces the whole row for id, appending id if it is new.
func (t *StringTable) Set(id string, row map[string]string) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	cp := make(map[string]string, len(row))
	for k, v := range row {
		cp[k] = v
	}
	t.rows[id] = cp
}

// Upsert writes text for one language of id, leaving other languages alone.
// It reports whether the row was created.
func (t *StringTable) Upsert(id, lang, text string) bool {
	row, ok := t.rows[id]
	if !ok {
		t.order = append(t.order, id)
		row = make(map[string]string)
		t.rows[id] = row
	}
	row[lang] = text
	return !ok
}

// Delete removes id.
func (t *StringTable) Delete(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	for i, k := range t.order {
		if k == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Clone returns a deep copy.
func (t *StringTable) Clone() *StringTable {
	out := NewStringTable()
	if t == nil {
		return out
	}
	for _, id := range t.order {
		out.Set(id, t.rows[id])
	}
	return out
}

// Equal reports whether both tables hold the same ids, order and texts.
func (t *StringTable) Equal(o *StringTable) bool {
	if t.Len() != o.Len() {
		return false
	}
	for i, id := range t.order {
		if o.order[i] != id {
			return false
		}
		a, b := t.rows[id], o.rows[id]
		if len(a) != len(b) {
			return false
		}
		for lang, v := range a {
			if w, ok := b[lang]; !ok || w != v {
				return false
			}
		}
	}
	return true
}

// Restrict returns a copy holding only languages in LanguageKeys, dropping
// empty texts. This is the form a table takes after an encode/decode cycle.
func (t *StringTable) Restrict() *StringTable {
	out := NewStringTable()
	for _, id := range t.Keys() {
		row := make(map[string]string)
		for _, lang := range LanguageKeys {
			if v, ok := t.rows[id][lang]; ok && v != "" {
				row[lang] = v
			}
		}
		out.Set(id, row)
	}
	return out
}
