package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// FileRole is the semantic role of a file attached to a folder node.
type FileRole string

const (
	RoleInfo        FileRole = "info"
	RolePlan        FileRole = "plan"
	RoleStrings     FileRole = "strings"
	RoleDescription FileRole = "description"
)

// Roles lists every file role in slot order.
var Roles = []FileRole{RoleInfo, RolePlan, RoleStrings, RoleDescription}

// IsValid reports whether r is a known role.
func (r FileRole) IsValid() bool {
	switch r {
	case RoleInfo, RolePlan, RoleStrings, RoleDescription:
		return true
	}
	return false
}

// Extra holds JSON object members that a typed document does not model.
// They are written back untouched. Members the source document did not
// carry go last, sorted by key.
type Extra map[string]json.RawMessage

func (e Extra) clone() Extra {
	if e == nil {
		return nil
	}
	out := make(Extra, len(e))
	for k, v := range e {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}

// member is one key/value pair of an object being marshalled in a fixed order.
type member struct {
	key   string
	value any
	omit  bool
}

// marshalObject writes the members named in keys in that order, then the
// remaining modelled members, then the remaining extras sorted by key. keys
// is the member order of the decoded source, nil for new documents.
func marshalObject(keys []string, members []member, extra Extra) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := make(map[string]bool, len(members)+len(extra))
	write := func(key string, raw []byte) {
		if len(written) > 0 {
			buf.WriteByte(',')
		}
		written[key] = true
		k, _ := encodeValue(key)
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(raw)
	}
	writeMember := func(m member) error {
		raw, err := encodeValue(m.value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", m.key, err)
		}
		write(m.key, raw)
		return nil
	}

	byKey := make(map[string]member, len(members))
	for _, m := range members {
		byKey[m.key] = m
	}
	for _, k := range keys {
		if written[k] {
			continue
		}
		if m, ok := byKey[k]; ok {
			if !m.omit {
				if err := writeMember(m); err != nil {
					return nil, err
				}
			}
			continue
		}
		if raw, ok := extra[k]; ok {
			write(k, raw)
		}
	}
	for _, m := range members {
		if m.omit || written[m.key] {
			continue
		}
		if err := writeMember(m); err != nil {
			return nil, err
		}
	}
	rest := make([]string, 0, len(extra))
	for k := range extra {
		if !written[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		write(k, extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// objectKeys returns the member names of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// encodeValue marshals v without HTML escaping, so URLs keep their '&'.
func encodeValue(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// splitObject decodes a JSON object and removes the given keys into the
// returned map, leaving everything else in the Extra. keys is the member
// order of data.
func splitObject(data []byte, known ...string) (picked map[string]json.RawMessage, extra Extra, keys []string, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, nil, err
	}
	if raw == nil {
		return nil, nil, nil, fmt.Errorf("expected JSON object")
	}
	if keys, err = objectKeys(data); err != nil {
		return nil, nil, nil, err
	}
	picked = make(map[string]json.RawMessage, len(known))
	for _, k := range known {
		if v, ok := raw[k]; ok {
			picked[k] = v
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		raw = nil
	}
	return picked, Extra(raw), keys, nil
}

// EncodeDocument renders a document the way the data repository stores it:
// tab indentation, no HTML escaping, trailing newline.
func EncodeDocument(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "\t")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
