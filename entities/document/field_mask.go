//       _      _  __ _      _ _
//    __| |_ __(_)/ _| |_ __| | |__
//   / _` | '__| | |_| __/ _` | '_ \
//  | (_| | |  | |  _| || (_| | |_) |
//   \__,_|_|  |_|_|  \__\__,_|_.__/
//
//  Copyright © 2021 - 2026 DriftDB B.V. All rights reserved.
//
//  CONTACT: hello@driftdb.io
//

package document

import (
	"sort"
	"strings"
)

// FieldPath addresses a (possibly nested) field within a document's data.
type FieldPath []string

func NewFieldPath(segments ...string) FieldPath {
	out := make(FieldPath, len(segments))
	copy(out, segments)
	return out
}

// ParseFieldPath splits a dot-separated field path. Segments containing dots
// are not supported at this layer.
func ParseFieldPath(s string) FieldPath {
	return FieldPath(strings.Split(s, "."))
}

func (f FieldPath) IsPrefixOf(other FieldPath) bool {
	if len(f) > len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

func (f FieldPath) Equal(other FieldPath) bool {
	return len(f) == len(other) && f.IsPrefixOf(other)
}

func (f FieldPath) String() string {
	return strings.Join(f, ".")
}

// FieldMask is a set of field paths. A nil *FieldMask means "all fields";
// the distinction between nil and empty is significant to overlay
// recalculation.
type FieldMask struct {
	paths map[string]FieldPath
}

func NewFieldMask(paths ...FieldPath) *FieldMask {
	m := &FieldMask{paths: make(map[string]FieldPath, len(paths))}
	for _, p := range paths {
		m.paths[p.String()] = p
	}
	return m
}

func (m *FieldMask) Len() int {
	if m == nil {
		return 0
	}
	return len(m.paths)
}

// Covers reports whether the mask contains path or one of its ancestors.
func (m *FieldMask) Covers(path FieldPath) bool {
	if m == nil {
		return true
	}
	for _, p := range m.paths {
		if p.IsPrefixOf(path) {
			return true
		}
	}
	return false
}

// Paths returns the mask's field paths in canonical order.
func (m *FieldMask) Paths() []FieldPath {
	if m == nil {
		return nil
	}
	keys := make([]string, 0, len(m.paths))
	for k := range m.paths {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]FieldPath, len(keys))
	for i, k := range keys {
		out[i] = m.paths[k]
	}
	return out
}

// Union returns a new mask containing the paths of both operands. A nil
// receiver or argument yields nil: the all-fields mask absorbs every union.
func (m *FieldMask) Union(other *FieldMask) *FieldMask {
	if m == nil || other == nil {
		return nil
	}
	out := &FieldMask{paths: make(map[string]FieldPath, len(m.paths)+len(other.paths))}
	for k, p := range m.paths {
		out.paths[k] = p
	}
	for k, p := range other.paths {
		out.paths[k] = p
	}
	return out
}

func (m *FieldMask) Equal(other *FieldMask) bool {
	if m == nil || other == nil {
		return m == nil && other == nil
	}
	if len(m.paths) != len(other.paths) {
		return false
	}
	for k := range m.paths {
		if _, ok := other.paths[k]; !ok {
			return false
		}
	}
	return true
}
