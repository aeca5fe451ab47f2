package tree

import (
	"errors"
	"strings"
	"testing"

	"github.com/marcus/plansync/internal/models"
)

func TestInsertSharesCommonPrefix(t *testing.T) {
	root := New()
	a := root.Insert("wa/regions/king", NewInfo(&models.Info{ID: "king"}))
	b := root.Insert("wa/regions/pierce", NewInfo(&models.Info{ID: "pierce"}))

	if got := root.Children(); len(got) != 1 || got[0] != "wa" {
		t.Fatalf("root children = %v", got)
	}
	regions, ok := root.Lookup("wa/regions")
	if !ok {
		t.Fatal("shared ancestor missing")
	}
	if regions.Child("king") != a || regions.Child("pierce") != b {
		t.Error("leaves not attached to the shared ancestor")
	}
	if root.Child("wa").IsContent() {
		t.Error("intermediate folder should stay a pure container")
	}
	if !a.IsContent() {
		t.Error("last segment should be content-bearing")
	}
}

func TestInsertMergesSlots(t *testing.T) {
	root := New()
	root.Insert("wa", NewInfo(&models.Info{ID: "wa"}))
	root.Insert("wa", NewPlan(&models.Plan{ActivePhase: "p1"}))
	root.Insert("wa", NewDescription("# Washington"))

	wa, _ := root.Location("wa")
	if wa.Info == nil || wa.Plan == nil || wa.Description == nil {
		t.Fatalf("slots not merged: %+v", wa)
	}
	if wa.Strings != nil {
		t.Error("unexpected strings slot")
	}
	if got := len(wa.Slots()); got != 3 {
		t.Errorf("Slots() = %d, want 3", got)
	}

	root.Insert("wa", NewPlan(&models.Plan{ActivePhase: "p2"}))
	if wa.Plan.Plan().ActivePhase != "p2" {
		t.Error("payload insert should overwrite the slot")
	}
}

func TestInsertWithoutPayloadIsIdempotent(t *testing.T) {
	root := New()
	first := root.Insert("or/regions", nil)
	second := root.Insert("or/regions", nil)
	if first != second {
		t.Fatal("second insert created a new node")
	}
	if len(first.Slots()) != 0 {
		t.Error("empty insert attached slots")
	}
	root.Insert("or", NewInfo(&models.Info{ID: "or"}))
	root.Insert("or", nil)
	if or, _ := root.Location("or"); or.Info == nil {
		t.Error("nil insert dropped an existing slot")
	}
}

func TestRegionsAndLocations(t *testing.T) {
	root := New()
	root.Insert("wa", NewInfo(&models.Info{ID: "wa"}))
	root.Insert("wa/regions/king", NewInfo(&models.Info{ID: "king"}))
	root.Insert("wa/regions/adams", nil)
	root.Insert("or", NewInfo(&models.Info{ID: "or"}))

	if got := strings.Join(root.Locations(), ","); got != "or,wa" {
		t.Errorf("Locations = %s", got)
	}
	wa, _ := root.Location("wa")
	if got := strings.Join(wa.Regions(), ","); got != "adams,king" {
		t.Errorf("Regions = %s", got)
	}
	if _, ok := wa.Region("king"); !ok {
		t.Error("king region not found")
	}
	if _, ok := wa.Region("nope"); ok {
		t.Error("unexpected region")
	}
	if _, ok := root.Location("missing"); ok {
		t.Error("unexpected location")
	}
}

func TestWalkOrder(t *testing.T) {
	root := New()
	root.Insert("b/x", nil)
	root.Insert("a", nil)

	var paths []string
	err := root.Walk(func(path string, _ *Node) error {
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(paths, "|"); got != "|a|b|b/x" {
		t.Errorf("walk = %q", got)
	}

	stop := errors.New("stop")
	if err := root.Walk(func(string, *Node) error { return stop }); !errors.Is(err, stop) {
		t.Errorf("walk error = %v", err)
	}
}

func TestSlotEncode(t *testing.T) {
	tbl := models.NewStringTable()
	tbl.Upsert("k", "en-us", "v")
	data, err := NewStrings(tbl).Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "k,\"v\"") {
		t.Errorf("strings encode = %q", data)
	}

	plan := &models.Plan{ActivePhase: "p1"}
	plan.SetPhases([]models.Phase{{ID: "p1", Label: "P1"}})
	data, err = NewPlan(plan).Encode()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n\t\"activePhase\": \"p1\"") {
		t.Errorf("plan not tab indented: %s", data)
	}

	s := NewDescription("text")
	s.SHA = "abc"
	s.MarkDirty()
	s.Committed("def")
	if s.Dirty || s.SHA != "def" {
		t.Errorf("Committed: %+v", s)
	}
}
