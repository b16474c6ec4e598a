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

package mutation

import (
	"time"

	"github.com/driftdb/driftdb/entities/document"
)

// Mutation is one pending local write against a single document. The set of
// implementations is closed: Set, Patch, Delete and Verify. Discrimination
// happens by type switch; only Patch depends on the base document's content
// or existence.
type Mutation interface {
	Key() document.DocumentKey
	Precondition() Precondition

	// ApplyToLocalView applies the mutation to doc in place using
	// localWriteTime for any time-dependent semantics, and returns the field
	// mask accumulated so far: previousMask extended by the fields this
	// mutation wrote. A nil mask means every field has been written.
	ApplyToLocalView(doc *document.Document, previousMask *document.FieldMask, localWriteTime time.Time) *document.FieldMask

	isMutation()
}

// IsPatch reports whether m is a patch mutation, the only variant whose
// effect depends on the base document.
func IsPatch(m Mutation) bool {
	_, ok := m.(*Patch)
	return ok
}

// Set unconditionally replaces the target document's data.
type Set struct {
	key          document.DocumentKey
	value        document.ObjectValue
	precondition Precondition
}

func NewSet(key document.DocumentKey, value document.ObjectValue, precondition Precondition) *Set {
	return &Set{key: key, value: value, precondition: precondition}
}

func (m *Set) Key() document.DocumentKey  { return m.key }
func (m *Set) Precondition() Precondition { return m.precondition }
func (m *Set) Value() document.ObjectValue {
	return m.value
}

func (m *Set) ApplyToLocalView(doc *document.Document, previousMask *document.FieldMask,
	_ time.Time,
) *document.FieldMask {
	if !m.precondition.IsValidFor(doc) {
		return previousMask
	}
	doc.ConvertToFound(m.value.DeepCopy()).SetHasLocalMutations()
	return nil
}

func (m *Set) isMutation() {}

// Patch rewrites the fields named by its mask: mask paths present in the
// patch data are set, mask paths absent from it are deleted. Its effect is
// conditional on the precondition holding against the base document.
type Patch struct {
	key          document.DocumentKey
	data         document.ObjectValue
	mask         *document.FieldMask
	precondition Precondition
}

func NewPatch(key document.DocumentKey, data document.ObjectValue, mask *document.FieldMask,
	precondition Precondition,
) *Patch {
	return &Patch{key: key, data: data, mask: mask, precondition: precondition}
}

func (m *Patch) Key() document.DocumentKey  { return m.key }
func (m *Patch) Precondition() Precondition { return m.precondition }
func (m *Patch) Mask() *document.FieldMask  { return m.mask }
func (m *Patch) Data() document.ObjectValue { return m.data }

func (m *Patch) ApplyToLocalView(doc *document.Document, previousMask *document.FieldMask,
	_ time.Time,
) *document.FieldMask {
	if !m.precondition.IsValidFor(doc) {
		return previousMask
	}
	data := doc.Data().DeepCopy()
	for _, path := range m.mask.Paths() {
		if val, ok := m.data.Get(path); ok {
			data.Set(path, val)
		} else {
			data.Delete(path)
		}
	}
	doc.ConvertToFound(data).SetHasLocalMutations()
	if previousMask == nil {
		return nil
	}
	return previousMask.Union(m.mask)
}

func (m *Patch) isMutation() {}

// Delete removes the target document from the local view.
type Delete struct {
	key          document.DocumentKey
	precondition Precondition
}

func NewDelete(key document.DocumentKey, precondition Precondition) *Delete {
	return &Delete{key: key, precondition: precondition}
}

func (m *Delete) Key() document.DocumentKey  { return m.key }
func (m *Delete) Precondition() Precondition { return m.precondition }

func (m *Delete) ApplyToLocalView(doc *document.Document, previousMask *document.FieldMask,
	_ time.Time,
) *document.FieldMask {
	if !m.precondition.IsValidFor(doc) {
		return previousMask
	}
	doc.ConvertToMissing().SetHasLocalMutations()
	return nil
}

func (m *Delete) isMutation() {}

// Verify asserts a precondition at commit time and has no local effect.
type Verify struct {
	key          document.DocumentKey
	precondition Precondition
}

func NewVerify(key document.DocumentKey, precondition Precondition) *Verify {
	return &Verify{key: key, precondition: precondition}
}

func (m *Verify) Key() document.DocumentKey  { return m.key }
func (m *Verify) Precondition() Precondition { return m.precondition }

func (m *Verify) ApplyToLocalView(_ *document.Document, previousMask *document.FieldMask,
	_ time.Time,
) *document.FieldMask {
	return previousMask
}

func (m *Verify) isMutation() {}
