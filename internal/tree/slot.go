package tree

import (
	"fmt"

	"github.com/marcus/plansync/internal/csvcodec"
	"github.com/marcus/plansync/internal/models"
)

// FileSlot is one remote file attached to a folder node.
//
// SHA is the identity marker the remote handed out when the file was read.
// It is forwarded unchanged on every write and only replaced by Committed.
type FileSlot struct {
	Name  string
	Role  models.FileRole
	SHA   string
	URL   string
	Path  string
	Dirty bool

	info    *models.Info
	plan    *models.Plan
	strings *models.StringTable
	text    string
}

// NewInfo returns an info slot holding info.
func NewInfo(info *models.Info) *FileSlot {
	return &FileSlot{Name: "info.json", Role: models.RoleInfo, info: info}
}

// NewPlan returns a plan slot holding plan.
func NewPlan(plan *models.Plan) *FileSlot {
	return &FileSlot{Name: "vaccination.json", Role: models.RolePlan, plan: plan}
}

// NewStrings returns a strings slot holding t.
func NewStrings(t *models.StringTable) *FileSlot {
	if t == nil {
		t = models.NewStringTable()
	}
	return &FileSlot{Name: "strings.csv", Role: models.RoleStrings, strings: t}
}

// NewDescription returns a description slot holding text.
func NewDescription(text string) *FileSlot {
	return &FileSlot{Name: "desc.md", Role: models.RoleDescription, text: text}
}

// Info returns the decoded info document, or nil for other roles.
func (s *FileSlot) Info() *models.Info {
	if s == nil {
		return nil
	}
	return s.info
}

// Plan returns the decoded plan document, or nil for other roles.
func (s *FileSlot) Plan() *models.Plan {
	if s == nil {
		return nil
	}
	return s.plan
}

// Strings returns the string table, or nil for other roles.
func (s *FileSlot) Strings() *models.StringTable {
	if s == nil {
		return nil
	}
	return s.strings
}

// Text returns the raw description text.
func (s *FileSlot) Text() string {
	if s == nil {
		return ""
	}
	return s.text
}

// MarkDirty flags the slot for the next commit batch.
func (s *FileSlot) MarkDirty() { s.Dirty = true }

// Committed records a successful remote write.
func (s *FileSlot) Committed(sha string) {
	s.SHA = sha
	s.Dirty = false
}

// Encode returns the bytes written back to the remote for this slot.
func (s *FileSlot) Encode() ([]byte, error) {
	switch s.Role {
	case models.RoleInfo:
		return models.EncodeDocument(s.info)
	case models.RolePlan:
		return models.EncodeDocument(s.plan)
	case models.RoleStrings:
		return []byte(csvcodec.EncodeStrings(s.strings)), nil
	case models.RoleDescription:
		return []byte(s.text), nil
	}
	return nil, fmt.Errorf("encode %s: unknown role %q", s.Path, s.Role)
}
