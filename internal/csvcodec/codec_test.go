package csvcodec

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/marcus/plansync/internal/models"
)

const sampleStrings = "\ufeffString ID,en-us,es-us,xx-yy\n" +
	"cdc/wa/state_name,Washington,\"Washington \"\"WA\"\"\",ignored\n" +
	"\"odd,id\",\"line one\nline two\",,\n" +
	"cdc/or/state_name,Oregon,,\n" +
	"\n"

func TestDecodeStrings(t *testing.T) {
	tbl, err := DecodeStrings(sampleStrings)
	if err != nil {
		t.Fatalf("DecodeStrings: %v", err)
	}
	if got := tbl.Keys(); len(got) != 3 || got[0] != "cdc/wa/state_name" || got[1] != "odd,id" {
		t.Fatalf("keys = %q", got)
	}
	if v, _ := tbl.Get("cdc/wa/state_name", "es-us"); v != `Washington "WA"` {
		t.Errorf("es-us = %q", v)
	}
	if v, _ := tbl.Get("odd,id", "en-us"); v != "line one\nline two" {
		t.Errorf("multiline = %q", v)
	}
	if v, ok := tbl.Get("cdc/wa/state_name", "xx-yy"); !ok || v != "ignored" {
		t.Errorf("unknown language should be retained on decode, got %q %v", v, ok)
	}
	if _, ok := tbl.Get("cdc/or/state_name", "es-us"); ok {
		t.Error("empty field should not produce a text")
	}
}

func TestStringsRoundTrip(t *testing.T) {
	first, err := DecodeStrings(sampleStrings)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	encoded := EncodeStrings(first)
	second, err := DecodeStrings(encoded)
	if err != nil {
		t.Fatalf("decode encoded: %v\n%s", err, encoded)
	}
	if !second.Equal(first.Restrict()) {
		t.Fatalf("round trip changed table\nencoded:\n%s", encoded)
	}
	if again := EncodeStrings(second); again != encoded {
		t.Errorf("encoding not idempotent:\n%s\nvs\n%s", encoded, again)
	}
}

func TestEncodeStrings(t *testing.T) {
	tbl := models.NewStringTable()
	tbl.Set("greeting", map[string]string{"en-us": `Say "hi"`, "th-th": "สวัสดี"})

	got := EncodeStrings(tbl)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}
	wantHeader := "String ID," + strings.Join(models.LanguageKeys, ",")
	if lines[0] != wantHeader {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `greeting,"Say ""hi""",,`) {
		t.Errorf("row = %q", lines[1])
	}
	if !strings.HasSuffix(lines[1], `,"สวัสดี"`) {
		t.Errorf("last language not written: %q", lines[1])
	}
	if n := strings.Count(lines[1], ","); n != len(models.LanguageKeys) {
		t.Errorf("row has %d separators, want %d", n, len(models.LanguageKeys))
	}
}

func TestDecodeMalformedRow(t *testing.T) {
	text := "String ID,en-us\na,b\nc,d,e\n"
	_, err := Decode(text, Comma)
	var mre *MalformedRowError
	if !errors.As(err, &mre) {
		t.Fatalf("expected MalformedRowError, got %v", err)
	}
	if mre.Row != 2 {
		t.Errorf("row = %d, want 2", mre.Row)
	}
}

func TestDecodeCasts(t *testing.T) {
	opts := Options{
		Delimiter: '|',
		Booleans:  []string{"in_stock"},
		Dates:     []string{"updated"},
		Numbers:   []string{"level"},
	}
	text := "id|in_stock|updated|level\n" +
		"a|TRUE|2021-03-01T10:00:00Z|2\n" +
		"b|true|2021-03-02|\n"
	rows, err := Decode(text, opts)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}
	if !rows[0]["in_stock"].Bool || rows[1]["in_stock"].Bool {
		t.Error("only the literal TRUE is true")
	}
	want := time.Date(2021, 3, 1, 10, 0, 0, 0, time.UTC)
	if got := rows[0]["updated"].Time; !got.Equal(want) {
		t.Errorf("updated = %v, want %v", got, want)
	}
	if rows[0]["level"].Number != 2 || rows[0]["level"].Kind != KindNumber {
		t.Errorf("level = %+v", rows[0]["level"])
	}
	if rows[1]["level"].Number != 0 {
		t.Errorf("empty number = %v", rows[1]["level"].Number)
	}
	if rows[0]["id"].Kind != KindText || rows[0].Text("id") != "a" {
		t.Errorf("id = %+v", rows[0]["id"])
	}
}

func TestDecodeBadCast(t *testing.T) {
	tests := []struct {
		name, text, column string
		opts           Options
	}{
		{"number", "id,n\na,x1\n", "n", Options{Delimiter: ',', Numbers: []string{"n"}}},
		{"date", "id,d\na,yesterday\n", "d", Options{Delimiter: ',', Dates: []string{"d"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text, tt.opts)
			var mre *MalformedRowError
			if !errors.As(err, &mre) {
				t.Fatalf("expected MalformedRowError, got %v", err)
			}
			if mre.Row != 1 || mre.Column != tt.column {
				t.Errorf("got row %d column %q", mre.Row, mre.Column)
			}
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	rows, err := Decode("", Comma)
	if err != nil || rows != nil {
		t.Fatalf("got %v, %v", rows, err)
	}
	tbl, err := DecodeStrings("String ID,en-us\n")
	if err != nil || tbl.Len() != 0 {
		t.Fatalf("header only: %v, %v", tbl.Keys(), err)
	}
}
