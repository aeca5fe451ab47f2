// Package ingest collates the pipe-delimited provider feed into one JSON
// record per provider location.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/marcus/plansync/internal/csvcodec"
)

// FeedOptions is the cast configuration for the provider feed.
var FeedOptions = csvcodec.Options{
	Delimiter: '|',
	Booleans:  []string{"insurance_accepted", "walkins_accepted", "in_stock"},
	Dates:     []string{"quantity_last_updated"},
	Numbers:   []string{"supply_level", "loc_store_no"},
}

// Location is the site address block.
type Location struct {
	Name    string  `json:"name"`
	StoreNo float64 `json:"store_no"`
	Phone   string  `json:"phone"`
	Street1 string  `json:"street1"`
	Street2 string  `json:"street2"`
	City    string  `json:"city"`
	State   string  `json:"state"`
	Zip     string  `json:"zip"`
}

// Hours holds free-text opening hours per weekday.
type Hours struct {
	Sunday    string `json:"sunday"`
	Monday    string `json:"monday"`
	Tuesday   string `json:"tuesday"`
	Wednesday string `json:"wednesday"`
	Thursday  string `json:"thursday"`
	Friday    string `json:"friday"`
	Saturday  string `json:"saturday"`
}

// Med is one medication stocked at a location.
type Med struct {
	Name                string     `json:"name"`
	ProviderNotes       string     `json:"provider_notes"`
	NDC                 string     `json:"ndc"`
	InStock             bool       `json:"in_stock"`
	SupplyLevel         float64    `json:"supply_level"`
	QuantityLastUpdated *time.Time `json:"quantity_last_updated"`
}

// ProviderLocation is one collated record.
type ProviderLocation struct {
	ID                string   `json:"id"`
	Location          Location `json:"location"`
	Hours             Hours    `json:"hours"`
	WebAddress        string   `json:"web_address"`
	PreScreen         string   `json:"pre_screen"`
	InsuranceAccepted bool     `json:"insurance_accepted"`
	WalkinsAccepted   bool     `json:"walkins_accepted"`
	Meds              []Med    `json:"meds"`
}

// Collate groups rows by provider_location_guid in first-seen order. The
// first row of a group supplies the location fields; every row contributes
// one med.
func Collate(rows []csvcodec.Row) []ProviderLocation {
	var out []ProviderLocation
	index := make(map[string]int)
	for _, row := range rows {
		id := row.Text("provider_location_guid")
		med := medFrom(row)
		if i, ok := index[id]; ok {
			out[i].Meds = append(out[i].Meds, med)
			continue
		}
		index[id] = len(out)
		out = append(out, ProviderLocation{
			ID: id,
			Location: Location{
				Name:    row.Text("loc_name"),
				StoreNo: row["loc_store_no"].Number,
				Phone:   row.Text("loc_phone"),
				Street1: row.Text("loc_admin_street1"),
				Street2: row.Text("loc_admin_street2"),
				City:    row.Text("loc_admin_city"),
				State:   row.Text("loc_admin_state"),
				Zip:     row.Text("loc_admin_zip"),
			},
			Hours: Hours{
				Sunday:    row.Text("sunday_hours"),
				Monday:    row.Text("monday_hours"),
				Tuesday:   row.Text("tuesday_hours"),
				Wednesday: row.Text("wednesday_hours"),
				Thursday:  row.Text("thursday_hours"),
				Friday:    row.Text("friday_hours"),
				Saturday:  row.Text("saturday_hours"),
			},
			WebAddress:        row.Text("web_address"),
			PreScreen:         row.Text("pre_screen"),
			InsuranceAccepted: row["insurance_accepted"].Bool,
			WalkinsAccepted:   row["walkins_accepted"].Bool,
			Meds:              []Med{med},
		})
	}
	return out
}

func medFrom(row csvcodec.Row) Med {
	m := Med{
		Name:          row.Text("med_name"),
		ProviderNotes: row.Text("provider_notes"),
		NDC:           row.Text("ndc"),
		InStock:       row["in_stock"].Bool,
		SupplyLevel:   row["supply_level"].Number,
	}
	if t := row["quantity_last_updated"].Time; !t.IsZero() {
		m.QuantityLastUpdated = &t
	}
	return m
}

// WriteLines writes one JSON object per record, newline separated.
func WriteLines(w io.Writer, recs []ProviderLocation) error {
	bw := bufio.NewWriter(w)
	for i, rec := range recs {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode %s: %w", rec.ID, err)
		}
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// OutputPath is the JSON lines file written next to a feed file.
func OutputPath(feed string) string {
	if strings.HasSuffix(feed, ".csv") {
		return strings.TrimSuffix(feed, ".csv") + ".json"
	}
	return feed + ".json"
}

// File decodes the feed at path and writes the collated records to
// OutputPath(path). It returns the output path and record count.
func File(path string) (string, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("read feed: %w", err)
	}
	rows, err := csvcodec.Decode(string(data), FeedOptions)
	if err != nil {
		return "", 0, fmt.Errorf("decode %s: %w", path, err)
	}
	recs := Collate(rows)
	slog.Debug("collated provider feed", "rows", len(rows), "locations", len(recs))

	out := OutputPath(path)
	f, err := os.Create(out)
	if err != nil {
		return "", 0, fmt.Errorf("create output: %w", err)
	}
	if err := WriteLines(f, recs); err != nil {
		f.Close()
		return "", 0, fmt.Errorf("write %s: %w", out, err)
	}
	if err := f.Close(); err != nil {
		return "", 0, fmt.Errorf("close %s: %w", out, err)
	}
	return out, len(recs), nil
}
