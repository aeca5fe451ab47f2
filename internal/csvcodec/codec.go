// Package csvcodec decodes delimited text into typed rows and converts
// localization tables to and from their CSV form.
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Kind is the cast applied to a column.
type Kind int

const (
	KindText Kind = iota
	KindBool
	KindDate
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindDate:
		return "date"
	case KindNumber:
		return "number"
	default:
		return "text"
	}
}

// Value is one decoded field. Raw always holds the field text as read; the
// typed member matching Kind holds the cast result. Empty fields in date and
// number columns decode to the zero value of their kind.
type Value struct {
	Kind   Kind
	Raw    string
	Bool   bool
	Time   time.Time
	Number float64
}

// Text returns the field as written in the source.
func (v Value) Text() string { return v.Raw }

// Row maps a header column name to its value.
type Row map[string]Value

// Text returns the raw text of column, or "" when the column is absent.
func (r Row) Text(column string) string {
	return r[column].Raw
}

// Options configures Decode. Column sets name header columns to cast; any
// column not listed passes through as text.
type Options struct {
	Delimiter rune
	Booleans  []string
	Dates     []string
	Numbers   []string
}

// Comma is the default option set for localization tables.
var Comma = Options{Delimiter: ','}

// MalformedRowError reports a data row that could not be decoded. Row is the
// 1-based data row number; the header is row 0.
type MalformedRowError struct {
	Row    int
	Column string
	Reason string
}

func (e *MalformedRowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("malformed row %d: column %q: %s", e.Row, e.Column, e.Reason)
	}
	return fmt.Sprintf("malformed row %d: %s", e.Row, e.Reason)
}

// dateLayouts are tried in order for date columns.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01/02/2006",
	"1/2/2006",
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func (o Options) kinds() map[string]Kind {
	kinds := make(map[string]Kind)
	for _, c := range o.Booleans {
		kinds[c] = KindBool
	}
	for _, c := range o.Dates {
		kinds[c] = KindDate
	}
	for _, c := range o.Numbers {
		kinds[c] = KindNumber
	}
	return kinds
}

// Decode parses text whose first record is the header. Decoding is all or
// nothing: the first bad row fails the whole call with *MalformedRowError.
func Decode(text string, opts Options) ([]Row, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	r := csv.NewReader(strings.NewReader(text))
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, &MalformedRowError{Row: 0, Reason: parseReason(err)}
	}

	kinds := opts.kinds()
	var rows []Row
	for n := 1; ; n++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &MalformedRowError{Row: n, Reason: parseReason(err)}
		}
		if len(record) != len(header) {
			return nil, &MalformedRowError{
				Row:    n,
				Reason: fmt.Sprintf("has %d fields, header has %d", len(record), len(header)),
			}
		}
		row := make(Row, len(header))
		for i, col := range header {
			v, err := cast(record[i], kinds[col])
			if err != nil {
				return nil, &MalformedRowError{Row: n, Column: col, Reason: err.Error()}
			}
			row[col] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cast(field string, kind Kind) (Value, error) {
	v := Value{Kind: kind, Raw: field}
	switch kind {
	case KindBool:
		v.Bool = field == "TRUE"
	case KindDate:
		if field == "" {
			return v, nil
		}
		t, err := parseDate(strings.TrimSpace(field))
		if err != nil {
			return v, err
		}
		v.Time = t
	case KindNumber:
		if field == "" {
			return v, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return v, fmt.Errorf("invalid number %q", field)
		}
		v.Number = f
	}
	return v, nil
}

func parseReason(err error) string {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
