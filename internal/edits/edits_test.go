package edits

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/session"
	"github.com/marcus/plansync/internal/tree"
)

func newSession(t *testing.T) *session.Session {
	t.Helper()
	var plan models.Plan
	if err := json.Unmarshal([]byte(`{"phases":[{"id":"phase_1","qualifications":[]}]}`), &plan); err != nil {
		t.Fatal(err)
	}
	root := tree.New()
	info := tree.NewInfo(&models.Info{ID: "wa"})
	info.Path = "wa/info.json"
	root.Insert("wa", info)
	ps := tree.NewPlan(&plan)
	ps.Path = "wa/vaccination.json"
	root.Insert("wa", ps)

	globals := map[string]*tree.FileSlot{}
	for _, name := range fetch.GlobalFiles {
		s := tree.NewStrings(nil)
		s.Path = name
		globals[name] = s
	}
	return session.New(&fetch.Snapshot{Tree: root, Globals: fetch.NewGlobals(globals)}, session.Config{Username: "octo"})
}

const script = `
actions:
  - op: add-phase
    location: wa
    label: Phase 2
  - op: add-qualifier
    location: wa
    phase: phase_2
    question: Teachers
  - op: set-string
    location: wa
    phase: phase_2
    question: teachers
    text: Teachers and school staff
  - op: set-link
    location: wa
    phase: phase_2
    question: teachers
    url: https://wa.test/teachers
  - op: add-region
    location: wa
    id: King County
`

func TestLoadScriptAndReplay(t *testing.T) {
	actions, err := LoadScript(strings.NewReader(script))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(actions) != 5 || actions[0].Op != OpAddPhase || actions[0].Label != "Phase 2" {
		t.Fatalf("actions = %+v", actions)
	}

	s := newSession(t)
	if err := Replay(s, actions); err != nil {
		t.Fatalf("Replay: %v", err)
	}
	wa, _ := s.Location("wa")
	ph, ok := wa.Plan.Plan().Phase("phase_2")
	if !ok || len(ph.Qualifications) != 1 {
		t.Fatalf("phase_2 = %+v", ph)
	}
	q := ph.Qualifications[0]
	if q.MoreInfoText != "cdc/wa/phase_2/teachers_more_info" || q.MoreInfoURL != "https://wa.test/teachers" {
		t.Errorf("qualification = %+v", q)
	}
	if v, _ := wa.Strings.Strings().Get(q.MoreInfoText, "en-us"); v != "Teachers and school staff" {
		t.Errorf("string = %q", v)
	}
	if _, ok := wa.Region("king_county"); !ok {
		t.Error("region not added")
	}
}

func TestApplyReturnsCreatedID(t *testing.T) {
	s := newSession(t)
	res, err := Apply(s, Action{Op: OpAddLocation, ID: "Guam", Name: "Guam"})
	if err != nil {
		t.Fatal(err)
	}
	if res.ID != "guam" {
		t.Errorf("id = %q", res.ID)
	}
}

func TestReplayStopsAtFailure(t *testing.T) {
	s := newSession(t)
	err := Replay(s, []Action{
		{Op: OpRenamePhase, Location: "wa", Phase: "phase_1", Label: "One"},
		{Op: OpRenamePhase, Location: "wa", Phase: "phase_9", Label: "Nine"},
	})
	if !errors.Is(err, session.ErrPhaseNotFound) {
		t.Fatalf("expected ErrPhaseNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "action 2") {
		t.Errorf("error does not name the action: %v", err)
	}
}

func TestLoadScriptRejectsUnknown(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"unknown op", "actions:\n  - op: drop-table\n"},
		{"unknown field", "actions:\n  - op: add-phase\n    colour: red\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScript(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}
	if actions, err := LoadScript(strings.NewReader("")); err != nil || actions != nil {
		t.Errorf("empty script = %v, %v", actions, err)
	}
}

func TestActionJSON(t *testing.T) {
	data, err := json.Marshal(Action{Op: OpSetLink, Location: "wa", Phase: "p", Question: "q", URL: "u"})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"op":"set-link","location":"wa","phase":"p","question":"q","url":"u"}`
	if string(data) != want {
		t.Errorf("json = %s", data)
	}
}
