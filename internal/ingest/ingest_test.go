package ingest

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/plansync/internal/csvcodec"
)

const feed = "provider_location_guid|loc_name|loc_store_no|loc_admin_state|med_name|in_stock|supply_level|quantity_last_updated|insurance_accepted|walkins_accepted\n" +
	"g1|Main St Pharmacy|12|WA|Moderna|TRUE|3|2021-02-01|TRUE|FALSE\n" +
	"g2|Clinic|7|OR|Pfizer|false||||TRUE\n" +
	"g1|Main St Pharmacy|12|WA|Pfizer|FALSE|0|2021-02-02|TRUE|FALSE\n"

func TestCollate(t *testing.T) {
	rows, err := csvcodec.Decode(feed, FeedOptions)
	if err != nil {
		t.Fatal(err)
	}
	recs := Collate(rows)
	if len(recs) != 2 {
		t.Fatalf("records = %d", len(recs))
	}
	g1 := recs[0]
	if g1.ID != "g1" || g1.Location.StoreNo != 12 || !g1.InsuranceAccepted || g1.WalkinsAccepted {
		t.Errorf("g1 = %+v", g1)
	}
	if len(g1.Meds) != 2 || g1.Meds[0].Name != "Moderna" || g1.Meds[1].Name != "Pfizer" {
		t.Fatalf("g1 meds = %+v", g1.Meds)
	}
	if !g1.Meds[0].InStock || g1.Meds[0].SupplyLevel != 3 || g1.Meds[0].QuantityLastUpdated == nil {
		t.Errorf("first med = %+v", g1.Meds[0])
	}
	g2 := recs[1]
	if g2.Meds[0].InStock {
		t.Error("lowercase false must not be in stock")
	}
	if g2.Meds[0].QuantityLastUpdated != nil {
		t.Error("empty date should be omitted")
	}
	if !g2.WalkinsAccepted {
		t.Error("g2 walkins")
	}
}

func TestFileWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "providers.csv")
	if err := os.WriteFile(in, []byte(feed), 0644); err != nil {
		t.Fatal(err)
	}
	out, n, err := File(in)
	if err != nil {
		t.Fatal(err)
	}
	if out != filepath.Join(dir, "providers.json") || n != 2 {
		t.Errorf("out = %s, n = %d", out, n)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(string(data), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines = %q", lines)
	}
	var rec ProviderLocation
	if err := json.Unmarshal([]byte(lines[1]), &rec); err != nil {
		t.Fatal(err)
	}
	if rec.ID != "g2" || rec.Location.State != "OR" {
		t.Errorf("second line = %+v", rec)
	}
}

func TestFileMalformedRow(t *testing.T) {
	in := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(in, []byte("provider_location_guid|med_name\ng1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, _, err := File(in)
	var mre *csvcodec.MalformedRowError
	if !errors.As(err, &mre) || mre.Row != 1 {
		t.Errorf("err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(in), "bad.json")); !os.IsNotExist(err) {
		t.Error("output written for malformed feed")
	}
}

func TestOutputPath(t *testing.T) {
	if got := OutputPath("a/b.csv"); got != "a/b.json" {
		t.Errorf("got %q", got)
	}
	if got := OutputPath("feed.txt"); got != "feed.txt.json" {
		t.Errorf("got %q", got)
	}
}
