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
	"fmt"
	"time"
)

type documentState int

const (
	// stateInvalid marks a document whose remote state is unknown. It is the
	// sentinel the remote cache returns for keys it has never seen.
	stateInvalid documentState = iota
	// stateFound marks a document known to exist with the carried data.
	stateFound
	// stateMissing marks a document known not to exist.
	stateMissing
)

// Document is the mutable local view of a single document. Mutations and
// overlays are applied to it in place; the remote cache hands out deep copies
// so callers own the value they receive.
type Document struct {
	key               DocumentKey
	state             documentState
	readTime          time.Time
	data              ObjectValue
	hasLocalMutations bool
}

// NewInvalidDocument returns the unknown-state sentinel for key.
func NewInvalidDocument(key DocumentKey) *Document {
	return &Document{key: key, state: stateInvalid, data: EmptyObjectValue()}
}

// NewFoundDocument returns a document known to exist with the given data as
// of readTime.
func NewFoundDocument(key DocumentKey, data ObjectValue, readTime time.Time) *Document {
	return &Document{key: key, state: stateFound, data: data, readTime: readTime}
}

// NewMissingDocument returns a document known not to exist as of readTime.
func NewMissingDocument(key DocumentKey, readTime time.Time) *Document {
	return &Document{key: key, state: stateMissing, data: EmptyObjectValue(), readTime: readTime}
}

func (d *Document) Key() DocumentKey {
	return d.key
}

// IsValid reports whether the document's remote state is known at all.
func (d *Document) IsValid() bool {
	return d.state != stateInvalid
}

func (d *Document) IsFound() bool {
	return d.state == stateFound
}

func (d *Document) IsMissing() bool {
	return d.state == stateMissing
}

func (d *Document) Data() ObjectValue {
	return d.data
}

func (d *Document) ReadTime() time.Time {
	return d.readTime
}

func (d *Document) HasLocalMutations() bool {
	return d.hasLocalMutations
}

// ConvertToFound replaces the document's state and data in place.
func (d *Document) ConvertToFound(data ObjectValue) *Document {
	d.state = stateFound
	d.data = data
	return d
}

// ConvertToMissing marks the document as known-missing and drops its data.
func (d *Document) ConvertToMissing() *Document {
	d.state = stateMissing
	d.data = EmptyObjectValue()
	return d
}

// SetHasLocalMutations flags the view as containing unacknowledged writes.
func (d *Document) SetHasLocalMutations() *Document {
	d.hasLocalMutations = true
	return d
}

func (d *Document) SetReadTime(t time.Time) *Document {
	d.readTime = t
	return d
}

func (d *Document) DeepCopy() *Document {
	cp := *d
	cp.data = d.data.DeepCopy()
	return &cp
}

func (d *Document) String() string {
	switch d.state {
	case stateFound:
		return fmt.Sprintf("Document{%s found %v}", d.key, d.data.Map())
	case stateMissing:
		return fmt.Sprintf("Document{%s missing}", d.key)
	default:
		return fmt.Sprintf("Document{%s invalid}", d.key)
	}
}

// IndexOffset positions incremental reads: results must be newer than
// ReadTime on the remote side and carry a batch id greater than
// LargestBatchID on the overlay side.
type IndexOffset struct {
	ReadTime       time.Time
	LargestBatchID int
}
