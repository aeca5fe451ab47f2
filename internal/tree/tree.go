// Package tree rebuilds the remote folder hierarchy from flat path listings.
//
// A Node is either a pure container or content-bearing. Content-bearing nodes
// were the final segment of an insert and carry up to four typed file slots;
// a location is a content-bearing child of the root and its regions live
// under the "regions" child.
package tree

import (
	"sort"
	"strings"

	"github.com/marcus/plansync/internal/models"
)

// RegionsDir is the folder holding a location's regions.
const RegionsDir = "regions"

// Node is one folder of the remote tree.
type Node struct {
	Name string

	Info        *FileSlot
	Plan        *FileSlot
	Strings     *FileSlot
	Description *FileSlot

	children map[string]*Node
	content  bool
}

// New returns an empty root.
func New() *Node {
	return &Node{}
}

func splitPath(path string) []string {
	var segs []string
	for _, s := range strings.Split(path, "/") {
		if s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// Insert walks path from n, creating missing folders, and marks the final
// node content-bearing. A non-nil slot replaces the slot of the same role on
// that node. Inserting an existing path with a nil slot changes nothing.
func (n *Node) Insert(path string, slot *FileSlot) *Node {
	cur := n
	for _, seg := range splitPath(path) {
		next, ok := cur.children[seg]
		if !ok {
			if cur.children == nil {
				cur.children = make(map[string]*Node)
			}
			next = &Node{Name: seg}
			cur.children[seg] = next
		}
		cur = next
	}
	cur.content = true
	if slot != nil {
		cur.SetSlot(slot)
	}
	return cur
}

// Lookup returns the node at path relative to n.
func (n *Node) Lookup(path string) (*Node, bool) {
	cur := n
	for _, seg := range splitPath(path) {
		next, ok := cur.children[seg]
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Child returns the direct child called name, or nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	return n.children[name]
}

// Children returns the child names sorted.
func (n *Node) Children() []string {
	if n == nil {
		return nil
	}
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsContent reports whether the node was the final segment of an insert.
func (n *Node) IsContent() bool {
	return n != nil && n.content
}

// Slot returns the slot for role.
func (n *Node) Slot(role models.FileRole) *FileSlot {
	switch role {
	case models.RoleInfo:
		return n.Info
	case models.RolePlan:
		return n.Plan
	case models.RoleStrings:
		return n.Strings
	case models.RoleDescription:
		return n.Description
	}
	return nil
}

// SetSlot stores slot under its role, replacing any previous slot.
func (n *Node) SetSlot(slot *FileSlot) {
	switch slot.Role {
	case models.RoleInfo:
		n.Info = slot
	case models.RolePlan:
		n.Plan = slot
	case models.RoleStrings:
		n.Strings = slot
	case models.RoleDescription:
		n.Description = slot
	}
	n.content = true
}

// Slots returns the non-nil slots in role order.
func (n *Node) Slots() []*FileSlot {
	var out []*FileSlot
	for _, role := range models.Roles {
		if s := n.Slot(role); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Walk visits n and every descendant depth first in sorted child order.
// Returning an error from fn stops the walk.
func (n *Node) Walk(fn func(path string, node *Node) error) error {
	return n.walk("", fn)
}

func (n *Node) walk(path string, fn func(string, *Node) error) error {
	if err := fn(path, n); err != nil {
		return err
	}
	for _, name := range n.Children() {
		p := name
		if path != "" {
			p = path + "/" + name
		}
		if err := n.children[name].walk(p, fn); err != nil {
			return err
		}
	}
	return nil
}

// Location returns the content-bearing child key of the policies root.
func (n *Node) Location(key string) (*Node, bool) {
	loc := n.Child(key)
	if !loc.IsContent() {
		return nil, false
	}
	return loc, true
}

// Locations returns the keys of every content-bearing child, sorted.
func (n *Node) Locations() []string {
	var keys []string
	for _, name := range n.Children() {
		if n.children[name].content {
			keys = append(keys, name)
		}
	}
	return keys
}

// Region returns region key of a location node.
func (n *Node) Region(key string) (*Node, bool) {
	r := n.Child(RegionsDir).Child(key)
	if !r.IsContent() {
		return nil, false
	}
	return r, true
}

// Regions returns the region keys of a location node, sorted.
func (n *Node) Regions() []string {
	dir := n.Child(RegionsDir)
	if dir == nil {
		return nil
	}
	var keys []string
	for _, name := range dir.Children() {
		if dir.children[name].content {
			keys = append(keys, name)
		}
	}
	return keys
}
