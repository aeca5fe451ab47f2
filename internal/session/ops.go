package session

import (
	"fmt"
	"path"
	"strings"

	"github.com/marcus/plansync/internal/fetch"
	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/tree"
)

// Phases returns the phases that apply to t and whether they are inherited
// from the location. Nothing is materialized.
func (s *Session) Phases(t Target) ([]models.Phase, bool, error) {
	return s.effectivePhases(t)
}

func findPhase(phases []models.Phase, id string) (*models.Phase, int) {
	for i := range phases {
		if phases[i].ID == id {
			return &phases[i], i
		}
	}
	return nil, -1
}

// editPhase materializes the plan of t and returns the phase id in it.
func (s *Session) editPhase(t Target, id string) (*tree.FileSlot, *models.Phase, error) {
	phases, _, err := s.effectivePhases(t)
	if err != nil {
		return nil, nil, err
	}
	if ph, _ := findPhase(phases, id); ph == nil {
		return nil, nil, fmt.Errorf("%s: %w: %s", t, ErrPhaseNotFound, id)
	}
	slot, err := s.writablePlan(t)
	if err != nil {
		return nil, nil, err
	}
	ph, _ := findPhase(slot.Plan().Phases, id)
	return slot, ph, nil
}

// AddPhase appends a phase whose id is derived from label and returns the id.
func (s *Session) AddPhase(t Target, label string) (string, error) {
	id := models.FormatID(label)
	if id == "" {
		return "", ErrInvalidID
	}
	phases, _, err := s.effectivePhases(t)
	if err != nil {
		return "", err
	}
	if ph, _ := findPhase(phases, id); ph != nil {
		return "", fmt.Errorf("%s: %w: %s", t, ErrDuplicatePhase, id)
	}
	slot, err := s.writablePlan(t)
	if err != nil {
		return "", err
	}
	plan := slot.Plan()
	plan.SetPhases(append(plan.Phases, models.Phase{
		ID:             id,
		Label:          label,
		Qualifications: []models.Qualification{},
	}))
	s.touch(t, slot)
	return id, nil
}

// RemovePhase removes phase id. A missing id changes nothing.
func (s *Session) RemovePhase(t Target, id string) error {
	phases, _, err := s.effectivePhases(t)
	if err != nil {
		return err
	}
	if ph, _ := findPhase(phases, id); ph == nil {
		return nil
	}
	slot, err := s.writablePlan(t)
	if err != nil {
		return err
	}
	plan := slot.Plan()
	_, i := findPhase(plan.Phases, id)
	plan.SetPhases(append(plan.Phases[:i:i], plan.Phases[i+1:]...))
	plan.DropEmptyPhases()
	s.touch(t, slot)
	return nil
}

// RenamePhase changes the label of phase id; the id is kept.
func (s *Session) RenamePhase(t Target, id, label string) error {
	slot, ph, err := s.editPhase(t, id)
	if err != nil {
		return err
	}
	ph.Label = label
	s.touch(t, slot)
	return nil
}

// SetActivePhase sets the active phase marker of t. The id is not checked
// and a region overlay is not materialized.
func (s *Session) SetActivePhase(t Target, id string) error {
	_, node, err := s.node(t)
	if err != nil {
		return err
	}
	slot := s.planSlot(t, node)
	slot.Plan().ActivePhase = id
	s.touch(t, slot)
	return nil
}

// AddQualifier appends question to phase.
func (s *Session) AddQualifier(t Target, phase, question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	slot, ph, err := s.editPhase(t, phase)
	if err != nil {
		return err
	}
	ph.Qualifications = append(ph.Qualifications, models.Qualification{Question: question})
	s.touch(t, slot)
	return nil
}

// RemoveQualifier removes the first qualification of phase matching question
// case-insensitively. A missing question changes nothing.
func (s *Session) RemoveQualifier(t Target, phase, question string) error {
	phases, _, err := s.effectivePhases(t)
	if err != nil {
		return err
	}
	ph, _ := findPhase(phases, phase)
	if ph == nil {
		return fmt.Errorf("%s: %w: %s", t, ErrPhaseNotFound, phase)
	}
	if ph.FindQualification(question) < 0 {
		return nil
	}
	slot, ph, err := s.editPhase(t, phase)
	if err != nil {
		return err
	}
	i := ph.FindQualification(question)
	ph.Qualifications = append(ph.Qualifications[:i:i], ph.Qualifications[i+1:]...)
	s.touch(t, slot)
	return nil
}

// UpdateQualifier renames the first qualification matching old to the
// lower-cased form of question. A missing match changes nothing.
func (s *Session) UpdateQualifier(t Target, phase, old, question string) error {
	if strings.TrimSpace(question) == "" {
		return ErrEmptyQuestion
	}
	phases, _, err := s.effectivePhases(t)
	if err != nil {
		return err
	}
	ph, _ := findPhase(phases, phase)
	if ph == nil {
		return fmt.Errorf("%s: %w: %s", t, ErrPhaseNotFound, phase)
	}
	if ph.FindQualification(old) < 0 {
		return nil
	}
	slot, ph, err := s.editPhase(t, phase)
	if err != nil {
		return err
	}
	ph.Qualifications[ph.FindQualification(old)].Question = strings.ToLower(question)
	s.touch(t, slot)
	return nil
}

// MoreInfoKey derives the default strings key for a qualification's more
// info text.
func MoreInfoKey(t Target, phase, question string) string {
	parts := []string{"cdc", t.Location}
	if t.IsRegion() {
		parts = append(parts, t.Region)
	}
	parts = append(parts, phase, models.FormatID(question)+"_more_info")
	return strings.Join(parts, "/")
}

// linkQualification finds question in phase for a cross-link write. On a
// location target a missing question is appended; on a region it is an
// error. The plan slot must already be writable.
func linkQualification(t Target, ph *models.Phase, question string) (*models.Qualification, error) {
	if i := ph.FindQualification(question); i >= 0 {
		return &ph.Qualifications[i], nil
	}
	if t.IsRegion() {
		return nil, fmt.Errorf("%s: %w: %s", t, ErrQualificationNotFound, question)
	}
	ph.Qualifications = append(ph.Qualifications, models.Qualification{Question: question})
	return &ph.Qualifications[len(ph.Qualifications)-1], nil
}

// checkLink verifies a cross-link can be written before anything changes.
func (s *Session) checkLink(t Target, phase, question string) error {
	phases, _, err := s.effectivePhases(t)
	if err != nil {
		return err
	}
	ph, _ := findPhase(phases, phase)
	if ph == nil {
		return fmt.Errorf("%s: %w: %s", t, ErrPhaseNotFound, phase)
	}
	if t.IsRegion() && ph.FindQualification(question) < 0 {
		return fmt.Errorf("%s: %w: %s", t, ErrQualificationNotFound, question)
	}
	return nil
}

// ModifyStateStrings writes text under key for the session language in the
// location strings table, leaving other languages alone, and points the
// qualification's moreInfoText at key. An empty key uses MoreInfoKey.
func (s *Session) ModifyStateStrings(t Target, phase, question, key, text string) (string, error) {
	if key == "" {
		key = MoreInfoKey(t, phase, question)
	}
	if err := s.checkLink(t, phase, question); err != nil {
		return "", err
	}
	loc, err := s.Location(t.Location)
	if err != nil {
		return "", err
	}
	strSlot := loc.Strings
	if strSlot == nil {
		strSlot = tree.NewStrings(nil)
		strSlot.Path = path.Join(t.Location, strSlot.Name)
		loc.SetSlot(strSlot)
	}
	strSlot.Strings().Upsert(key, s.Language, text)

	slot, ph, err := s.editPhase(t, phase)
	if err != nil {
		return "", err
	}
	q, err := linkQualification(t, ph, question)
	if err != nil {
		return "", err
	}
	q.MoreInfoText = key
	s.touch(Target{Location: t.Location}, strSlot)
	s.touch(t, slot)
	return key, nil
}

// ModifyMoreInfoLinks sets the moreInfoUrl of a qualification.
func (s *Session) ModifyMoreInfoLinks(t Target, phase, question, url string) error {
	if err := s.checkLink(t, phase, question); err != nil {
		return err
	}
	slot, ph, err := s.editPhase(t, phase)
	if err != nil {
		return err
	}
	q, err := linkQualification(t, ph, question)
	if err != nil {
		return err
	}
	q.MoreInfoURL = url
	s.touch(t, slot)
	return nil
}

// StateNameKey is the global string id holding a location's display name.
func StateNameKey(location string) string {
	return "cdc/" + location + "/state_name"
}

// stateNameLanguages are seeded with the display name of a new location.
var stateNameLanguages = []string{"en-us", "es-us", "vi-vn"}

// AddLocation creates a location with an info document, an empty plan and
// an empty strings table, and seeds its display name in the global state
// names table. It returns the location key.
func (s *Session) AddLocation(id, name string) (string, error) {
	key := models.FormatID(id)
	if key == "" {
		return "", ErrInvalidID
	}
	if _, ok := s.Tree.Location(key); ok {
		return "", fmt.Errorf("%w: %s", ErrLocationExists, key)
	}
	names := s.Globals.Slot(fetch.StateNames)
	if names == nil {
		return "", fmt.Errorf("add location: %s not loaded", fetch.StateNames)
	}

	t := Target{Location: key}
	info := tree.NewInfo(&models.Info{ID: key, Name: StateNameKey(key), Type: "state"})
	info.Path = slotPath(t, info.Name)
	planSlot := tree.NewPlan(models.NewPlan())
	planSlot.Path = slotPath(t, planSlot.Name)
	strSlot := tree.NewStrings(nil)
	strSlot.Path = slotPath(t, strSlot.Name)

	node := s.Tree.Insert(key, info)
	node.SetSlot(planSlot)
	node.SetSlot(strSlot)

	row := make(map[string]string, len(stateNameLanguages))
	for _, lang := range stateNameLanguages {
		row[lang] = name
	}
	names.Strings().Set(StateNameKey(key), row)

	s.touchGlobal(fetch.StateNames, names)
	s.touch(t, info, planSlot, strSlot)
	return key, nil
}

// AddRegion creates a region under location whose plan inherits the
// location's phases. It returns the region key.
func (s *Session) AddRegion(location, id, name string) (string, error) {
	key := models.FormatID(id)
	if key == "" {
		return "", ErrInvalidID
	}
	loc, err := s.Location(location)
	if err != nil {
		return "", err
	}
	if _, ok := loc.Region(key); ok {
		return "", fmt.Errorf("%w: %s/%s", ErrRegionExists, location, key)
	}

	t := Target{Location: location, Region: key}
	if name == "" {
		name = models.ProperCase(key)
	}
	info := tree.NewInfo(&models.Info{ID: key, Name: name, Type: "region"})
	info.Path = slotPath(t, info.Name)
	planSlot := tree.NewPlan(&models.Plan{})
	planSlot.Path = slotPath(t, planSlot.Name)

	node := loc.Insert(path.Join(tree.RegionsDir, key), info)
	node.SetSlot(planSlot)
	s.touch(t, info, planSlot)
	return key, nil
}
