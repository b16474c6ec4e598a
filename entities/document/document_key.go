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

// DocumentKey is the canonical address of a document. It is a comparable
// value type so it can be used directly as a map key; ordering follows the
// segment-wise path comparator.
type DocumentKey struct {
	canonical string
}

// NewDocumentKey validates that path addresses a document.
func NewDocumentKey(path ResourcePath) (DocumentKey, error) {
	if !path.IsDocumentPath() {
		return DocumentKey{}, errors.Errorf("path %q does not address a document", path)
	}
	return DocumentKey{canonical: path.String()}, nil
}

// MustKey builds a key from a slash-separated document path and panics on an
// invalid one. Intended for fixtures and package-internal constants.
func MustKey(s string) DocumentKey {
	path, err := ParseResourcePath(s)
	if err != nil {
		panic(err)
	}
	key, err := NewDocumentKey(path)
	if err != nil {
		panic(err)
	}
	return key
}

// NewSeekKey returns a synthetic key that sorts before every document in
// collection. It does not address a real document and must only be used to
// position iterators.
func NewSeekKey(collection ResourcePath) DocumentKey {
	return DocumentKey{canonical: collection.String() + "/"}
}

func (k DocumentKey) IsZero() bool {
	return k.canonical == ""
}

// Path returns the key's segments.
func (k DocumentKey) Path() ResourcePath {
	if k.canonical == "" {
		return ResourcePath{}
	}
	return ResourcePath(strings.Split(k.canonical, "/"))
}

// CollectionPath returns the parent collection's path.
func (k DocumentKey) CollectionPath() ResourcePath {
	return k.Path().Parent()
}

// CollectionGroup returns the name of the last collection segment, or "" for
// a zero key.
func (k DocumentKey) CollectionGroup() string {
	path := k.Path()
	if path.Len() < 2 {
		return ""
	}
	return path[path.Len()-2]
}

// HasCollectionGroup reports whether the key lives in a collection named
// group, at any nesting depth.
func (k DocumentKey) HasCollectionGroup(group string) bool {
	return k.CollectionGroup() == group
}

func (k DocumentKey) Compare(other DocumentKey) int {
	return k.Path().Compare(other.Path())
}

func (k DocumentKey) Equal(other DocumentKey) bool {
	return k.canonical == other.canonical
}

func (k DocumentKey) String() string {
	return k.canonical
}
