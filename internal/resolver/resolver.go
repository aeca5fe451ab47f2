// Package resolver maps fetched blobs onto typed file slots.
package resolver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/marcus/plansync/internal/csvcodec"
	"github.com/marcus/plansync/internal/models"
	"github.com/marcus/plansync/internal/tree"
)

// Blob identifies one remote file. Path is relative to the subtree root.
type Blob struct {
	Path string
	SHA  string
	URL  string
}

// Dir returns the folder a blob belongs to.
func (b Blob) Dir() string {
	d := path.Dir(b.Path)
	if d == "." {
		return ""
	}
	return d
}

// Role classifies a file name. ok is false for files that carry no slot.
func Role(name string) (models.FileRole, bool) {
	ext := strings.ToLower(path.Ext(name))
	stem := strings.TrimSuffix(name, path.Ext(name))
	switch ext {
	case ".json":
		switch stem {
		case "info":
			return models.RoleInfo, true
		case "vaccination":
			return models.RolePlan, true
		}
	case ".md":
		return models.RoleDescription, true
	case ".csv":
		return models.RoleStrings, true
	}
	return "", false
}

// Resolve decodes content into a slot for b. Files with no role are skipped
// with ok=false; a file with a role that fails to decode is an error.
func Resolve(b Blob, content []byte) (*tree.FileSlot, bool, error) {
	name := path.Base(b.Path)
	role, ok := Role(name)
	if !ok {
		slog.Debug("skipping unrecognized file", "path", b.Path)
		return nil, false, nil
	}

	var slot *tree.FileSlot
	switch role {
	case models.RoleInfo:
		var info models.Info
		if err := json.Unmarshal(content, &info); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", b.Path, err)
		}
		slot = tree.NewInfo(&info)
	case models.RolePlan:
		var plan models.Plan
		if err := json.Unmarshal(content, &plan); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", b.Path, err)
		}
		slot = tree.NewPlan(&plan)
	case models.RoleStrings:
		t, err := csvcodec.DecodeStrings(string(content))
		if err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", b.Path, err)
		}
		slot = tree.NewStrings(t)
	case models.RoleDescription:
		slot = tree.NewDescription(string(content))
	}

	slot.Name = name
	slot.Path = b.Path
	slot.SHA = b.SHA
	slot.URL = b.URL
	return slot, true, nil
}
