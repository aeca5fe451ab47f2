// Package validate checks vaccination plans for broken phase references and
// string ids that no localization table defines.
package validate

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/marcus/plansync/internal/models"
)

// StringLookup reports whether a string id is defined.
type StringLookup interface {
	Has(id string) bool
}

// Tables combines string tables into a single lookup. Ids match
// case-insensitively.
type Tables []*models.StringTable

func (ts Tables) Has(id string) bool {
	lower := strings.ToLower(id)
	for _, t := range ts {
		if t.Has(id) || t.Has(lower) {
			return true
		}
	}
	return false
}

// Kind classifies a Problem.
type Kind string

const (
	DuplicatePhase  Kind = "duplicate_phase"
	UnknownActive   Kind = "unknown_active_phase"
	UndefinedString Kind = "undefined_string"
)

// Problem is one finding against a plan.
type Problem struct {
	Kind    Kind   `json:"kind"`
	Phase   string `json:"phase,omitempty"`
	Ref     string `json:"ref"`
	Message string `json:"message"`
}

func (p Problem) String() string { return p.Message }

// link is the subset of a plan links entry that refers to strings.
type link struct {
	Text        string `json:"text"`
	Description string `json:"description"`
}

// Plan checks one plan. Phases are checked in order, then links by name.
// A nil known skips string checks.
func Plan(plan *models.Plan, known StringLookup) []Problem {
	if plan == nil {
		return nil
	}
	var problems []Problem

	seen := make(map[string]bool)
	for _, ph := range plan.Phases {
		if seen[ph.ID] {
			problems = append(problems, Problem{
				Kind:    DuplicatePhase,
				Phase:   ph.ID,
				Ref:     ph.ID,
				Message: fmt.Sprintf("duplicate phase id %q", ph.ID),
			})
		}
		seen[ph.ID] = true
	}

	if plan.ActivePhase != "" && plan.HasPhases() && !seen[plan.ActivePhase] {
		problems = append(problems, Problem{
			Kind:    UnknownActive,
			Ref:     plan.ActivePhase,
			Message: fmt.Sprintf("activePhase %q names no phase", plan.ActivePhase),
		})
	}

	if known == nil {
		return problems
	}

	for _, ph := range plan.Phases {
		for _, q := range ph.Qualifications {
			if q.Bare() && !known.Has(q.Question) {
				problems = append(problems, undefined(ph.ID, q.Question))
			}
			if q.MoreInfoText != "" && !known.Has(q.MoreInfoText) {
				problems = append(problems, undefined(ph.ID, q.MoreInfoText))
			}
		}
	}

	var links map[string]link
	if raw, ok := plan.Extra["links"]; ok {
		// Malformed links are a schema concern, not a string reference one.
		_ = json.Unmarshal(raw, &links)
	}
	names := make([]string, 0, len(links))
	for name := range links {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, id := range []string{links[name].Text, links[name].Description} {
			if id != "" && !known.Has(id) {
				problems = append(problems, undefined("", id))
			}
		}
	}
	return problems
}

func undefined(phase, id string) Problem {
	return Problem{
		Kind:    UndefinedString,
		Phase:   phase,
		Ref:     id,
		Message: fmt.Sprintf("no defined string with id %q", id),
	}
}
