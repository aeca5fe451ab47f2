// Package session holds one editing session over a fetched data tree.
//
// A Session owns the working tree, the global string tables, the pending
// flag and the set of touched locations and regions. Every mutation goes
// through a Session method; nothing here talks to the remote.
package session

import (
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/ghclient"
	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/tree"
)

var (
	ErrLocationNotFound      = errors.New("location not found")
	ErrRegionNotFound        = errors.New("region not found")
	ErrPhaseNotFound         = errors.New("phase not found")
	ErrQualificationNotFound = errors.New("qualification not found")
	ErrDuplicatePhase        = errors.New("phase id already exists")
	ErrLocationExists        = errors.New("location already exists")
	ErrRegionExists          = errors.New("region already exists")
	ErrInvalidID             = errors.New("label yields an empty id")
	ErrEmptyQuestion         = errors.New("qualification question is required")
)

// State is the position of the session in the submit cycle.
type State int

const (
	Idle State = iota
	BranchEnsured
	FilesCommitted
	RequestOpened
)

func (s State) String() string {
	switch s {
	case BranchEnsured:
		return "branch-ensured"
	case FilesCommitted:
		return "files-committed"
	case RequestOpened:
		return "request-opened"
	default:
		return "idle"
	}
}

// Target names a location, or a region when Region is set.
type Target struct {
	Location string
	Region   string
}

// IsRegion reports whether t addresses a region.
func (t Target) IsRegion() bool { return t.Region != "" }

func (t Target) String() string {
	if t.Region == "" {
		return t.Location
	}
	return t.Location + "/" + t.Region
}

// Config carries the identity and branch state a session starts with.
type Config struct {
	Username    string
	Language    string
	BaseBranch  string
	Branch      string
	PullRequest *ghclient.PullRequest
}

// Session is one editing session.
type Session struct {
	Tree        *tree.Node
	Globals     *fetch.Globals
	Ref         string
	Username    string
	Language    string
	BaseBranch  string
	Branch      string
	PullRequest *ghclient.PullRequest
	State       State

	pending        bool
	touched        map[string]map[string]bool
	touchedGlobals map[string]bool
}

// New starts a session over snap.
func New(snap *fetch.Snapshot, cfg Config) *Session {
	lang := cfg.Language
	if lang == "" {
		lang = models.DefaultLanguage
	}
	globals := snap.Globals
	if globals == nil {
		globals = fetch.NewGlobals(nil)
	}
	return &Session{
		Tree:           snap.Tree,
		Globals:        globals,
		Ref:            snap.Ref,
		Username:       cfg.Username,
		Language:       lang,
		BaseBranch:     cfg.BaseBranch,
		Branch:         cfg.Branch,
		PullRequest:    cfg.PullRequest,
		touched:        make(map[string]map[string]bool),
		touchedGlobals: make(map[string]bool),
	}
}

// Pending reports whether the session holds uncommitted edits.
func (s *Session) Pending() bool { return s.pending }

// ClearPending forgets the touched set after a fully successful commit.
func (s *Session) ClearPending() {
	s.pending = false
	s.touched = make(map[string]map[string]bool)
	s.touchedGlobals = make(map[string]bool)
}

// Touched returns the touched targets: each location followed by its
// touched regions, both sorted.
func (s *Session) Touched() []Target {
	locs := make([]string, 0, len(s.touched))
	for k := range s.touched {
		locs = append(locs, k)
	}
	sort.Strings(locs)
	var out []Target
	for _, loc := range locs {
		out = append(out, Target{Location: loc})
		regions := make([]string, 0, len(s.touched[loc]))
		for r := range s.touched[loc] {
			regions = append(regions, r)
		}
		sort.Strings(regions)
		for _, r := range regions {
			out = append(out, Target{Location: loc, Region: r})
		}
	}
	return out
}

// DirtySlot is a slot awaiting a write. Dir is the subtree of the data root
// the slot path is relative to.
type DirtySlot struct {
	Dir  string
	Slot *tree.FileSlot
}

// RemotePath returns the repository path of the slot under dataRoot.
func (d DirtySlot) RemotePath(dataRoot string) string {
	return path.Join(dataRoot, d.Dir, d.Slot.Path)
}

// DirtySlots lists dirty slots in commit order: touched global tables, then
// each touched location's info, plan and strings followed by its touched
// regions' info and plan.
func (s *Session) DirtySlots() []DirtySlot {
	var out []DirtySlot
	for _, name := range fetch.GlobalFiles {
		if slot := s.Globals.Slot(name); slot != nil && slot.Dirty && s.touchedGlobals[name] {
			out = append(out, DirtySlot{Dir: fetch.LocalizationDir, Slot: slot})
		}
	}
	for _, t := range s.Touched() {
		var node *tree.Node
		var ok bool
		if t.IsRegion() {
			loc, _ := s.Tree.Location(t.Location)
			if loc != nil {
				node, ok = loc.Region(t.Region)
			}
		} else {
			node, ok = s.Tree.Location(t.Location)
		}
		if !ok {
			continue
		}
		roles := []*tree.FileSlot{node.Info, node.Plan, node.Strings}
		if t.IsRegion() {
			roles = roles[:2]
		}
		for _, slot := range roles {
			if slot != nil && slot.Dirty {
				out = append(out, DirtySlot{Dir: fetch.PoliciesDir, Slot: slot})
			}
		}
	}
	return out
}

// Location returns the node of a location key.
func (s *Session) Location(key string) (*tree.Node, error) {
	n, ok := s.Tree.Location(key)
	if !ok {
		return nil, ErrLocationNotFound
	}
	return n, nil
}

func (s *Session) node(t Target) (loc, node *tree.Node, err error) {
	loc, err = s.Location(t.Location)
	if err != nil {
		return nil, nil, err
	}
	if !t.IsRegion() {
		return loc, loc, nil
	}
	r, ok := loc.Region(t.Region)
	if !ok {
		return nil, nil, ErrRegionNotFound
	}
	return loc, r, nil
}

func slotPath(t Target, file string) string {
	if t.IsRegion() {
		return path.Join(t.Location, tree.RegionsDir, t.Region, file)
	}
	return path.Join(t.Location, file)
}

// planSlot returns the plan slot of t, creating an unsaved one when the
// node has none. A new location plan owns an empty phase list; a new region
// plan inherits.
func (s *Session) planSlot(t Target, node *tree.Node) *tree.FileSlot {
	if node.Plan != nil && node.Plan.Plan() != nil {
		return node.Plan
	}
	plan := &models.Plan{}
	if !t.IsRegion() {
		plan = models.NewPlan()
	}
	slot := tree.NewPlan(plan)
	slot.Path = slotPath(t, slot.Name)
	node.SetSlot(slot)
	return slot
}

// effectivePhases returns the phases that apply to t without materializing
// a region overlay. inherited is true when they belong to the location.
func (s *Session) effectivePhases(t Target) (phases []models.Phase, inherited bool, err error) {
	loc, node, err := s.node(t)
	if err != nil {
		return nil, false, err
	}
	if p := node.Plan.Plan(); p.HasPhases() {
		return p.Phases, false, nil
	}
	if !t.IsRegion() {
		return nil, false, nil
	}
	if p := loc.Plan.Plan(); p != nil {
		return p.Phases, true, nil
	}
	return nil, true, nil
}

// writablePlan resolves the plan slot of t for a write. For a region without
// its own phases the parent's phases are copied in first.
func (s *Session) writablePlan(t Target) (*tree.FileSlot, error) {
	loc, node, err := s.node(t)
	if err != nil {
		return nil, err
	}
	slot := s.planSlot(t, node)
	if t.IsRegion() && !slot.Plan().HasPhases() {
		slot.Plan().SetPhases(overlay(loc.Plan.Plan()))
	}
	return slot, nil
}

// overlay copies a location's phases for a region. Questions and
// moreInfoText keys are lower-cased; everything else is copied verbatim.
func overlay(parent *models.Plan) []models.Phase {
	if parent == nil {
		return nil
	}
	out := make([]models.Phase, 0, len(parent.Phases))
	for _, ph := range parent.Phases {
		cp := ph.Clone()
		for i := range cp.Qualifications {
			q := &cp.Qualifications[i]
			q.Question = strings.ToLower(q.Question)
			q.MoreInfoText = strings.ToLower(q.MoreInfoText)
		}
		out = append(out, cp)
	}
	return out
}

func (s *Session) touch(t Target, slots ...*tree.FileSlot) {
	for _, slot := range slots {
		slot.MarkDirty()
	}
	s.pending = true
	regions, ok := s.touched[t.Location]
	if !ok {
		regions = make(map[string]bool)
		s.touched[t.Location] = regions
	}
	if t.IsRegion() {
		regions[t.Region] = true
	}
}

func (s *Session) touchGlobal(name string, slot *tree.FileSlot) {
	slot.MarkDirty()
	s.pending = true
	s.touchedGlobals[name] = true
}
