package session

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/tree"
)

const waPlan = `{
	"activePhase": "phase_1a",
	"phases": [
		{
			"id": "phase_1a",
			"label": "Phase 1A",
			"qualifications": [
				{"question": "Healthcare Worker", "moreInfoText": "CDC/WA/HCW", "moreInfoUrl": "https://wa.test/HCW?a=1"},
				{"question": "long term care"}
			]
		},
		{"id": "phase_1b", "label": "Phase 1B", "qualifications": []}
	]
}`

func mustPlan(t *testing.T, raw string) *models.Plan {
	t.Helper()
	var p models.Plan
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("plan: %v", err)
	}
	return &p
}

func slotAt(slot *tree.FileSlot, p, sha string) *tree.FileSlot {
	slot.Path = p
	slot.SHA = sha
	return slot
}

// newTestSession builds wa (two regions without their own phases) and or.
func newTestSession(t *testing.T) *Session {
	t.Helper()
	root := tree.New()
	root.Insert("wa", slotAt(tree.NewInfo(&models.Info{ID: "wa"}), "wa/info.json", "wa-info"))
	root.Insert("wa", slotAt(tree.NewPlan(mustPlan(t, waPlan)), "wa/vaccination.json", "wa-plan"))
	root.Insert("wa", slotAt(tree.NewStrings(nil), "wa/strings.csv", "wa-strings"))
	root.Insert("wa/regions/king", slotAt(tree.NewInfo(&models.Info{ID: "king"}), "wa/regions/king/info.json", "king-info"))
	root.Insert("wa/regions/king", slotAt(tree.NewPlan(mustPlan(t, `{}`)), "wa/regions/king/vaccination.json", "king-plan"))
	root.Insert("wa/regions/pierce", slotAt(tree.NewInfo(&models.Info{ID: "pierce"}), "wa/regions/pierce/info.json", "pierce-info"))
	root.Insert("or", slotAt(tree.NewInfo(&models.Info{ID: "or"}), "or/info.json", "or-info"))
	root.Insert("or", slotAt(tree.NewPlan(mustPlan(t, `{"phases":[]}`)), "or/vaccination.json", "or-plan"))

	globals := map[string]*tree.FileSlot{}
	for _, name := range fetch.GlobalFiles {
		globals[name] = slotAt(tree.NewStrings(nil), name, name+"-sha")
	}
	snap := &fetch.Snapshot{Ref: "main", Tree: root, Globals: fetch.NewGlobals(globals)}
	return New(snap, Config{Username: "octo", Language: "es-us", BaseBranch: "main"})
}

func planJSON(t *testing.T, slot *tree.FileSlot) string {
	t.Helper()
	data, err := slot.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return string(data)
}

var wa = Target{Location: "wa"}

func TestAddThenRemovePhaseRestoresPlan(t *testing.T) {
	s := newTestSession(t)
	loc, _ := s.Location("wa")
	before := planJSON(t, loc.Plan)

	id, err := s.AddPhase(wa, "COVID Phase 2")
	if err != nil {
		t.Fatalf("AddPhase: %v", err)
	}
	if id != "covid_phase_2" {
		t.Errorf("id = %q", id)
	}
	if planJSON(t, loc.Plan) == before {
		t.Fatal("AddPhase changed nothing")
	}
	if err := s.RemovePhase(wa, id); err != nil {
		t.Fatalf("RemovePhase: %v", err)
	}
	if got := planJSON(t, loc.Plan); got != before {
		t.Errorf("plan not restored:\n%s\nwant:\n%s", got, before)
	}
	if loc.Plan.SHA != "wa-plan" {
		t.Errorf("sha changed to %q", loc.Plan.SHA)
	}
	if !s.Pending() || !loc.Plan.Dirty {
		t.Error("edit not recorded as pending")
	}
}

func TestAddThenRemovePhaseKeepsPhasesMember(t *testing.T) {
	tests := []struct {
		name, plan string
	}{
		{"no phases member", `{"activePhase":"x"}`},
		{"empty phases", `{"activePhase":"x","phases":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t)
			or, _ := s.Location("or")
			or.Plan = slotAt(tree.NewPlan(mustPlan(t, tt.plan)), "or/vaccination.json", "or-plan")
			before := planJSON(t, or.Plan)

			target := Target{Location: "or"}
			id, err := s.AddPhase(target, "Phase 1")
			if err != nil {
				t.Fatalf("AddPhase: %v", err)
			}
			if err := s.RemovePhase(target, id); err != nil {
				t.Fatalf("RemovePhase: %v", err)
			}
			if got := planJSON(t, or.Plan); got != before {
				t.Errorf("plan not restored:\n%s\nwant:\n%s", got, before)
			}
		})
	}
}

func TestAddPhaseDuplicate(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.AddPhase(wa, "Phase 1A"); !errors.Is(err, ErrDuplicatePhase) {
		t.Errorf("expected ErrDuplicatePhase, got %v", err)
	}
	if _, err := s.AddPhase(wa, "!!"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("expected ErrInvalidID, got %v", err)
	}
	if s.Pending() {
		t.Error("failed edits marked the session pending")
	}
}

func TestRemoveMissingPhaseIsNoop(t *testing.T) {
	s := newTestSession(t)
	if err := s.RemovePhase(wa, "nope"); err != nil {
		t.Fatalf("RemovePhase: %v", err)
	}
	if s.Pending() {
		t.Error("no-op marked the session pending")
	}
}

func TestUnknownTargets(t *testing.T) {
	s := newTestSession(t)
	if err := s.AddQualifier(Target{Location: "tx"}, "phase_1a", "q"); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("location: %v", err)
	}
	if err := s.AddQualifier(Target{Location: "wa", Region: "spokane"}, "phase_1a", "q"); !errors.Is(err, ErrRegionNotFound) {
		t.Errorf("region: %v", err)
	}
	if err := s.AddQualifier(wa, "phase_9", "q"); !errors.Is(err, ErrPhaseNotFound) {
		t.Errorf("phase: %v", err)
	}
}

func TestRegionOverlayIsMaterializedOnFirstWrite(t *testing.T) {
	s := newTestSession(t)
	king := Target{Location: "wa", Region: "king"}
	pierce := Target{Location: "wa", Region: "pierce"}

	phases, inherited, err := s.Phases(king)
	if err != nil || !inherited || len(phases) != 2 {
		t.Fatalf("before edit: %d phases inherited=%v err=%v", len(phases), inherited, err)
	}

	if err := s.UpdateQualifier(king, "phase_1a", "healthcare worker", "Frontline Worker"); err != nil {
		t.Fatalf("UpdateQualifier: %v", err)
	}
	loc, _ := s.Location("wa")
	kingNode, _ := loc.Region("king")
	plan := kingNode.Plan.Plan()
	if !plan.HasPhases() || len(plan.Phases) != 2 {
		t.Fatalf("overlay not materialized: %+v", plan)
	}
	q := plan.Phases[0].Qualifications
	if q[0].Question != "frontline worker" {
		t.Errorf("targeted question = %q", q[0].Question)
	}
	if q[0].MoreInfoText != "cdc/wa/hcw" {
		t.Errorf("moreInfoText not lower-cased: %q", q[0].MoreInfoText)
	}
	if q[0].MoreInfoURL != "https://wa.test/HCW?a=1" {
		t.Errorf("url not copied verbatim: %q", q[0].MoreInfoURL)
	}
	if plan.Phases[0].Label != "Phase 1A" || plan.Phases[1].ID != "phase_1b" {
		t.Errorf("phase copy = %+v", plan.Phases)
	}
	if parent := loc.Plan.Plan().Phases[0].Qualifications[0].Question; parent != "Healthcare Worker" {
		t.Errorf("parent plan mutated: %q", parent)
	}
	if kingNode.Plan.SHA != "king-plan" {
		t.Errorf("region sha changed: %q", kingNode.Plan.SHA)
	}

	// Pierce has no plan file yet; its overlay must be independent of king's.
	if err := s.AddQualifier(pierce, "phase_1a", "teachers"); err != nil {
		t.Fatalf("AddQualifier pierce: %v", err)
	}
	pierceNode, _ := loc.Region("pierce")
	if pierceNode.Plan == nil || pierceNode.Plan.SHA != "" || pierceNode.Plan.Path != "wa/regions/pierce/vaccination.json" {
		t.Fatalf("pierce plan slot = %+v", pierceNode.Plan)
	}
	if n := len(plan.Phases[0].Qualifications); n != 2 {
		t.Errorf("king copy changed by pierce edit: %d qualifications", n)
	}
	pq := pierceNode.Plan.Plan().Phases[0].Qualifications
	if len(pq) != 3 || pq[0].Question != "healthcare worker" {
		t.Errorf("pierce copy = %+v", pq)
	}
}

func TestSetActivePhaseDoesNotMaterialize(t *testing.T) {
	s := newTestSession(t)
	king := Target{Location: "wa", Region: "king"}
	if err := s.SetActivePhase(king, "phase_1b"); err != nil {
		t.Fatal(err)
	}
	loc, _ := s.Location("wa")
	node, _ := loc.Region("king")
	if node.Plan.Plan().HasPhases() {
		t.Error("SetActivePhase materialized the overlay")
	}
	if node.Plan.Plan().ActivePhase != "phase_1b" {
		t.Error("active phase not set")
	}
}

func TestQualifierOps(t *testing.T) {
	s := newTestSession(t)
	if err := s.AddQualifier(wa, "phase_1b", "Teachers"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateQualifier(wa, "phase_1b", "TEACHERS", "K-12 Teachers"); err != nil {
		t.Fatal(err)
	}
	loc, _ := s.Location("wa")
	ph, _ := loc.Plan.Plan().Phase("phase_1b")
	if len(ph.Qualifications) != 1 || ph.Qualifications[0].Question != "k-12 teachers" {
		t.Fatalf("qualifications = %+v", ph.Qualifications)
	}
	if err := s.RemoveQualifier(wa, "phase_1b", "missing"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveQualifier(wa, "phase_1b", "K-12 TEACHERS"); err != nil {
		t.Fatal(err)
	}
	if len(ph.Qualifications) != 0 {
		t.Errorf("qualification not removed: %+v", ph.Qualifications)
	}
	if err := s.AddQualifier(wa, "phase_1b", "  "); !errors.Is(err, ErrEmptyQuestion) {
		t.Errorf("expected ErrEmptyQuestion, got %v", err)
	}
	if err := s.RenamePhase(wa, "phase_1b", "Phase 1B Updated"); err != nil {
		t.Fatal(err)
	}
	ph, _ = loc.Plan.Plan().Phase("phase_1b")
	if ph.Label != "Phase 1B Updated" {
		t.Errorf("label = %q", ph.Label)
	}
}

func TestModifyStateStringsUpsertsPerLanguage(t *testing.T) {
	s := newTestSession(t)
	loc, _ := s.Location("wa")
	loc.Strings.Strings().Set("cdc/wa/hcw", map[string]string{"en-us": "Health workers"})

	key, err := s.ModifyStateStrings(wa, "phase_1a", "healthcare worker", "cdc/wa/hcw", "Trabajadores")
	if err != nil {
		t.Fatal(err)
	}
	row := loc.Strings.Strings().Row(key)
	if row["en-us"] != "Health workers" || row["es-us"] != "Trabajadores" {
		t.Errorf("row = %v", row)
	}
	q := loc.Plan.Plan().Phases[0].Qualifications[0]
	if q.MoreInfoText != "cdc/wa/hcw" {
		t.Errorf("moreInfoText = %q", q.MoreInfoText)
	}

	// A new question on a location target is created with a derived key.
	key, err = s.ModifyStateStrings(wa, "phase_1b", "Teachers", "", "Maestros")
	if err != nil {
		t.Fatal(err)
	}
	if key != "cdc/wa/phase_1b/teachers_more_info" {
		t.Errorf("derived key = %q", key)
	}
	ph, _ := loc.Plan.Plan().Phase("phase_1b")
	if len(ph.Qualifications) != 1 || ph.Qualifications[0].MoreInfoText != key {
		t.Errorf("phase_1b = %+v", ph.Qualifications)
	}
	if row := loc.Strings.Strings().Row(key); len(row) != 1 || row["es-us"] != "Maestros" {
		t.Errorf("new row = %v", row)
	}

	// On a region the qualification must exist.
	king := Target{Location: "wa", Region: "king"}
	if _, err := s.ModifyStateStrings(king, "phase_1a", "nobody", "", "x"); !errors.Is(err, ErrQualificationNotFound) {
		t.Errorf("expected ErrQualificationNotFound, got %v", err)
	}
}

func TestModifyMoreInfoLinks(t *testing.T) {
	s := newTestSession(t)
	if err := s.ModifyMoreInfoLinks(wa, "phase_1a", "LONG TERM CARE", "https://x.test/?a&b"); err != nil {
		t.Fatal(err)
	}
	loc, _ := s.Location("wa")
	if got := loc.Plan.Plan().Phases[0].Qualifications[1].MoreInfoURL; got != "https://x.test/?a&b" {
		t.Errorf("url = %q", got)
	}
	if err := s.ModifyMoreInfoLinks(wa, "phase_1a", "new one", "https://y.test"); err != nil {
		t.Fatal(err)
	}
	if n := len(loc.Plan.Plan().Phases[0].Qualifications); n != 3 {
		t.Errorf("qualification not created on location: %d", n)
	}
}

func TestAddLocationAndRegion(t *testing.T) {
	s := newTestSession(t)
	key, err := s.AddLocation("Puerto Rico", "Puerto Rico")
	if err != nil {
		t.Fatal(err)
	}
	if key != "puerto_rico" {
		t.Errorf("key = %q", key)
	}
	names := s.Globals.Slot(fetch.StateNames).Strings()
	for _, lang := range []string{"en-us", "es-us", "vi-vn"} {
		if v, _ := names.Get("cdc/puerto_rico/state_name", lang); v != "Puerto Rico" {
			t.Errorf("%s = %q", lang, v)
		}
	}
	if _, err := s.AddLocation("puerto rico", "x"); !errors.Is(err, ErrLocationExists) {
		t.Errorf("expected ErrLocationExists, got %v", err)
	}

	rkey, err := s.AddRegion(key, "San Juan", "")
	if err != nil {
		t.Fatal(err)
	}
	loc, _ := s.Location(key)
	r, ok := loc.Region(rkey)
	if !ok || r.Info.Path != "puerto_rico/regions/san_juan/info.json" {
		t.Fatalf("region = %+v", r)
	}
	if r.Info.Info().Name != "San Juan" {
		t.Errorf("region name = %q", r.Info.Info().Name)
	}
	if r.Plan.Plan().HasPhases() {
		t.Error("new region should inherit its phases")
	}
	if _, err := s.AddRegion("tx", "x", ""); !errors.Is(err, ErrLocationNotFound) {
		t.Errorf("expected ErrLocationNotFound, got %v", err)
	}

	var paths []string
	for _, d := range s.DirtySlots() {
		paths = append(paths, d.RemotePath("data"))
	}
	want := []string{
		"data/localization/cdc-state-names.csv",
		"data/policies/puerto_rico/info.json",
		"data/policies/puerto_rico/vaccination.json",
		"data/policies/puerto_rico/strings.csv",
		"data/policies/puerto_rico/regions/san_juan/info.json",
		"data/policies/puerto_rico/regions/san_juan/vaccination.json",
	}
	if len(paths) != len(want) {
		t.Fatalf("dirty = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("dirty[%d] = %s, want %s", i, paths[i], want[i])
		}
	}
}

func TestDirtySlotsOrder(t *testing.T) {
	s := newTestSession(t)
	king := Target{Location: "wa", Region: "king"}
	if err := s.SetActivePhase(Target{Location: "or"}, "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddQualifier(king, "phase_1b", "q"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ModifyStateStrings(wa, "phase_1a", "long term care", "k", "v"); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, d := range s.DirtySlots() {
		got = append(got, d.Slot.Path)
	}
	want := []string{"or/vaccination.json", "wa/vaccination.json", "wa/strings.csv", "wa/regions/king/vaccination.json"}
	if len(got) != len(want) {
		t.Fatalf("dirty = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("dirty[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	s.ClearPending()
	if s.Pending() || len(s.DirtySlots()) != 0 {
		t.Error("ClearPending left work behind")
	}
}
