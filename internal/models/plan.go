package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Info is the content of a location or region info.json.
type Info struct {
	ID    string
	Name  string
	Type  string
	Extra Extra

	keys []string
}

func (i *Info) UnmarshalJSON(data []byte) error {
	picked, extra, keys, err := splitObject(data, "id", "name", "type")
	if err != nil {
		return fmt.Errorf("info: %w", err)
	}
	for key, dst := range map[string]*string{"id": &i.ID, "name": &i.Name, "type": &i.Type} {
		if v, ok := picked[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("info %s: %w", key, err)
			}
		}
	}
	i.Extra = extra
	i.keys = keys
	return nil
}

func (i Info) MarshalJSON() ([]byte, error) {
	return marshalObject(i.keys, []member{
		{key: "id", value: i.ID},
		{key: "name", value: i.Name, omit: i.Name == ""},
		{key: "type", value: i.Type, omit: i.Type == ""},
	}, i.Extra)
}

// Plan is the content of a vaccination.json document.
type Plan struct {
	ActivePhase string
	Phases      []Phase
	Extra       Extra

	// hasPhases distinguishes a region plan that inherits its parent's
	// phases (no "phases" member) from one with an empty list.
	hasPhases bool
	// basePhases records whether the document carried "phases" when it was
	// decoded or created.
	basePhases bool
	keys       []string
}

// NewPlan returns an empty plan that owns an empty phase list.
func NewPlan() *Plan {
	return &Plan{Phases: []Phase{}, hasPhases: true, basePhases: true}
}

// HasPhases reports whether the plan carries its own phase list.
func (p *Plan) HasPhases() bool {
	return p != nil && p.hasPhases
}

// SetPhases replaces the phase list and marks the plan as owning it.
func (p *Plan) SetPhases(phases []Phase) {
	if phases == nil {
		phases = []Phase{}
	}
	p.Phases = phases
	p.hasPhases = true
}

// DropEmptyPhases removes an empty phase list that the document did not
// carry originally, so the "phases" member is omitted again on encode.
func (p *Plan) DropEmptyPhases() {
	if p.hasPhases && !p.basePhases && len(p.Phases) == 0 {
		p.Phases = nil
		p.hasPhases = false
	}
}

// Phase returns the phase with the given id.
func (p *Plan) Phase(id string) (*Phase, bool) {
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return &p.Phases[i], true
		}
	}
	return nil, false
}

// PhaseIndex returns the index of the phase with id, or -1.
func (p *Plan) PhaseIndex(id string) int {
	for i := range p.Phases {
		if p.Phases[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{ActivePhase: p.ActivePhase, Extra: p.Extra.clone(), hasPhases: p.hasPhases, basePhases: p.basePhases, keys: p.keys}
	if p.Phases != nil {
		out.Phases = make([]Phase, len(p.Phases))
		for i, ph := range p.Phases {
			out.Phases[i] = ph.Clone()
		}
	}
	return out
}

func (p *Plan) UnmarshalJSON(data []byte) error {
	picked, extra, keys, err := splitObject(data, "activePhase", "phases")
	if err != nil {
		return fmt.Errorf("plan: %w", err)
	}
	*p = Plan{Extra: extra, keys: keys}
	if v, ok := picked["activePhase"]; ok {
		if err := json.Unmarshal(v, &p.ActivePhase); err != nil {
			return fmt.Errorf("plan activePhase: %w", err)
		}
	}
	if v, ok := picked["phases"]; ok && !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		var phases []Phase
		if err := json.Unmarshal(v, &phases); err != nil {
			return fmt.Errorf("plan phases: %w", err)
		}
		p.SetPhases(phases)
		p.basePhases = true
	}
	return nil
}

func (p Plan) MarshalJSON() ([]byte, error) {
	phases := p.Phases
	if phases == nil {
		phases = []Phase{}
	}
	return marshalObject(p.keys, []member{
		{key: "activePhase", value: p.ActivePhase, omit: p.ActivePhase == ""},
		{key: "phases", value: phases, omit: !p.hasPhases},
	}, p.Extra)
}

// Phase is one stage of a plan.
type Phase struct {
	ID             string
	Label          string
	Qualifications []Qualification
	Extra          Extra

	keys []string
}

// Clone returns a deep copy of the phase.
func (ph Phase) Clone() Phase {
	out := Phase{ID: ph.ID, Label: ph.Label, Extra: ph.Extra.clone(), keys: ph.keys}
	out.Qualifications = make([]Qualification, len(ph.Qualifications))
	for i, q := range ph.Qualifications {
		out.Qualifications[i] = q.Clone()
	}
	return out
}

// FindQualification returns the index of the first qualification whose
// question matches case-insensitively, or -1.
func (ph *Phase) FindQualification(question string) int {
	for i := range ph.Qualifications {
		if strings.EqualFold(ph.Qualifications[i].Question, question) {
			return i
		}
	}
	return -1
}

func (ph *Phase) UnmarshalJSON(data []byte) error {
	picked, extra, keys, err := splitObject(data, "id", "label", "qualifications")
	if err != nil {
		return fmt.Errorf("phase: %w", err)
	}
	*ph = Phase{Extra: extra, keys: keys}
	if v, ok := picked["id"]; ok {
		if err := json.Unmarshal(v, &ph.ID); err != nil {
			return fmt.Errorf("phase id: %w", err)
		}
	}
	if v, ok := picked["label"]; ok {
		if err := json.Unmarshal(v, &ph.Label); err != nil {
			return fmt.Errorf("phase %s label: %w", ph.ID, err)
		}
	}
	if v, ok := picked["qualifications"]; ok {
		if err := json.Unmarshal(v, &ph.Qualifications); err != nil {
			return fmt.Errorf("phase %s qualifications: %w", ph.ID, err)
		}
	}
	if ph.Qualifications == nil {
		ph.Qualifications = []Qualification{}
	}
	return nil
}

func (ph Phase) MarshalJSON() ([]byte, error) {
	quals := ph.Qualifications
	if quals == nil {
		quals = []Qualification{}
	}
	return marshalObject(ph.keys, []member{
		{key: "id", value: ph.ID},
		{key: "label", value: ph.Label, omit: ph.Label == ""},
		{key: "qualifications", value: quals},
	}, ph.Extra)
}

// Qualification is one eligibility condition within a phase.
type Qualification struct {
	Question     string
	MoreInfoText string
	MoreInfoURL  string
	Extra        Extra

	// bare is set when the qualification was stored as a plain string.
	bare bool
	keys []string
}

// Bare reports whether the qualification was decoded from a plain string id.
func (q Qualification) Bare() bool { return q.bare }

// Clone returns a deep copy of the qualification.
func (q Qualification) Clone() Qualification {
	q.Extra = q.Extra.clone()
	return q
}

func (q *Qualification) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		*q = Qualification{bare: true}
		return json.Unmarshal(trimmed, &q.Question)
	}
	picked, extra, keys, err := splitObject(data, "question", "moreInfoText", "moreInfoUrl")
	if err != nil {
		return fmt.Errorf("qualification: %w", err)
	}
	*q = Qualification{Extra: extra, keys: keys}
	for key, dst := range map[string]*string{"question": &q.Question, "moreInfoText": &q.MoreInfoText, "moreInfoUrl": &q.MoreInfoURL} {
		if v, ok := picked[key]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("qualification %s: %w", key, err)
			}
		}
	}
	return nil
}

func (q Qualification) MarshalJSON() ([]byte, error) {
	if q.bare && q.MoreInfoText == "" && q.MoreInfoURL == "" && len(q.Extra) == 0 {
		return encodeValue(q.Question)
	}
	return marshalObject(q.keys, []member{
		{key: "question", value: q.Question},
		{key: "moreInfoText", value: q.MoreInfoText, omit: q.MoreInfoText == ""},
		{key: "moreInfoUrl", value: q.MoreInfoURL, omit: q.MoreInfoURL == ""},
	}, q.Extra)
}
