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
	"strings"

	"github.com/pkg/errors"
)

// ResourcePath is an ordered sequence of path segments addressing a document
// or a collection. Collection paths have odd length, document paths even
// length: the immediate child documents of a collection c always have length
// c.Len()+1.
type ResourcePath []string

// NewResourcePath builds a path from its segments.
func NewResourcePath(segments ...string) ResourcePath {
	out := make(ResourcePath, len(segments))
	copy(out, segments)
	return out
}

// ParseResourcePath splits a slash-separated canonical path string.
func ParseResourcePath(s string) (ResourcePath, error) {
	if s == "" {
		return ResourcePath{}, nil
	}
	segments := strings.Split(s, "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, errors.Errorf("invalid path %q: empty segment", s)
		}
	}
	return ResourcePath(segments), nil
}

func (p ResourcePath) Len() int {
	return len(p)
}

func (p ResourcePath) IsEmpty() bool {
	return len(p) == 0
}

// Child returns a new path with segment appended. The receiver is unchanged.
func (p ResourcePath) Child(segment string) ResourcePath {
	out := make(ResourcePath, len(p)+1)
	copy(out, p)
	out[len(p)] = segment
	return out
}

// Parent returns the path without its last segment.
func (p ResourcePath) Parent() ResourcePath {
	if len(p) == 0 {
		return p
	}
	out := make(ResourcePath, len(p)-1)
	copy(out, p[:len(p)-1])
	return out
}

// LastSegment returns the final segment, or "" for the empty path.
func (p ResourcePath) LastSegment() string {
	if len(p) == 0 {
		return ""
	}
	return p[len(p)-1]
}

// IsPrefixOf reports whether every segment of p matches the corresponding
// leading segment of other.
func (p ResourcePath) IsPrefixOf(other ResourcePath) bool {
	if len(p) > len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

func (p ResourcePath) Equal(other ResourcePath) bool {
	return len(p) == len(other) && p.IsPrefixOf(other)
}

// Compare orders paths segment-wise, a shorter path ordering before any path
// it prefixes.
func (p ResourcePath) Compare(other ResourcePath) int {
	n := len(p)
	if len(other) < n {
		n = len(other)
	}
	for i := 0; i < n; i++ {
		if c := strings.Compare(p[i], other[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(p) < len(other):
		return -1
	case len(p) > len(other):
		return 1
	default:
		return 0
	}
}

// IsDocumentPath reports whether the path addresses a document.
func (p ResourcePath) IsDocumentPath() bool {
	return len(p)%2 == 0 && len(p) > 0
}

// IsCollectionPath reports whether the path addresses a collection.
func (p ResourcePath) IsCollectionPath() bool {
	return len(p)%2 == 1
}

func (p ResourcePath) String() string {
	return strings.Join(p, "/")
}
