// Package edits describes session mutations as data so they can be journaled,
// scripted and replayed onto a fresh snapshot.
package edits

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/marcus/plansync/internal/session"
)

// Op names a session mutation.
type Op string

const (
	OpAddPhase        Op = "add-phase"
	OpRemovePhase     Op = "remove-phase"
	OpRenamePhase     Op = "rename-phase"
	OpActivatePhase   Op = "activate-phase"
	OpAddQualifier    Op = "add-qualifier"
	OpRemoveQualifier Op = "remove-qualifier"
	OpUpdateQualifier Op = "update-qualifier"
	OpSetString       Op = "set-string"
	OpSetLink         Op = "set-link"
	OpAddLocation     Op = "add-location"
	OpAddRegion       Op = "add-region"
)

// Ops lists every known operation.
var Ops = []Op{
	OpAddPhase, OpRemovePhase, OpRenamePhase, OpActivatePhase,
	OpAddQualifier, OpRemoveQualifier, OpUpdateQualifier,
	OpSetString, OpSetLink, OpAddLocation, OpAddRegion,
}

// Action is one serialized mutation.
type Action struct {
	Op          Op     `json:"op" yaml:"op"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	Region      string `json:"region,omitempty" yaml:"region,omitempty"`
	Phase       string `json:"phase,omitempty" yaml:"phase,omitempty"`
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	Question    string `json:"question,omitempty" yaml:"question,omitempty"`
	NewQuestion string `json:"new_question,omitempty" yaml:"new_question,omitempty"`
	Key         string `json:"key,omitempty" yaml:"key,omitempty"`
	Text        string `json:"text,omitempty" yaml:"text,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
}

// Target returns the location or region the action addresses.
func (a Action) Target() session.Target {
	return session.Target{Location: a.Location, Region: a.Region}
}

// Result carries the identifiers an action produced.
type Result struct {
	// ID is the phase id, string key, location key or region key created.
	ID string
}

// Apply runs a against sess.
func Apply(sess *session.Session, a Action) (Result, error) {
	t := a.Target()
	var (
		id  string
		err error
	)
	switch a.Op {
	case OpAddPhase:
		id, err = sess.AddPhase(t, a.Label)
	case OpRemovePhase:
		err = sess.RemovePhase(t, a.Phase)
	case OpRenamePhase:
		err = sess.RenamePhase(t, a.Phase, a.Label)
	case OpActivatePhase:
		err = sess.SetActivePhase(t, a.Phase)
	case OpAddQualifier:
		err = sess.AddQualifier(t, a.Phase, a.Question)
	case OpRemoveQualifier:
		err = sess.RemoveQualifier(t, a.Phase, a.Question)
	case OpUpdateQualifier:
		err = sess.UpdateQualifier(t, a.Phase, a.Question, a.NewQuestion)
	case OpSetString:
		id, err = sess.ModifyStateStrings(t, a.Phase, a.Question, a.Key, a.Text)
	case OpSetLink:
		err = sess.ModifyMoreInfoLinks(t, a.Phase, a.Question, a.URL)
	case OpAddLocation:
		id, err = sess.AddLocation(a.ID, a.Name)
	case OpAddRegion:
		id, err = sess.AddRegion(a.Location, a.ID, a.Name)
	default:
		return Result{}, fmt.Errorf("unknown op %q", a.Op)
	}
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", a.Op, err)
	}
	return Result{ID: id}, nil
}

// Replay applies actions in order, stopping at the first failure. The index
// of the failing action is reported in the error.
func Replay(sess *session.Session, actions []Action) error {
	for i, a := range actions {
		if _, err := Apply(sess, a); err != nil {
			return fmt.Errorf("replay action %d: %w", i+1, err)
		}
	}
	return nil
}

// Script is the document shape of an edit script.
type Script struct {
	Actions []Action `yaml:"actions"`
}

// LoadScript parses a YAML edit script.
func LoadScript(r io.Reader) ([]Action, error) {
	var s Script
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse script: %w", err)
	}
	known := make(map[Op]bool, len(Ops))
	for _, op := range Ops {
		known[op] = true
	}
	for i, a := range s.Actions {
		if !known[a.Op] {
			return nil, fmt.Errorf("script action %d: unknown op %q", i+1, a.Op)
		}
	}
	return s.Actions, nil
}
