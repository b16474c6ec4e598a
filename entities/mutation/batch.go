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

// Batch is an ordered group of mutations written in a single user
// transaction. The queue assigns strictly increasing batch ids.
type Batch struct {
	BatchID        int
	LocalWriteTime time.Time
	Mutations      []Mutation
}

func NewBatch(batchID int, localWriteTime time.Time, mutations []Mutation) *Batch {
	return &Batch{BatchID: batchID, LocalWriteTime: localWriteTime, Mutations: mutations}
}

// Keys returns the set of document keys the batch touches.
func (b *Batch) Keys() map[document.DocumentKey]struct{} {
	keys := make(map[document.DocumentKey]struct{}, len(b.Mutations))
	for _, m := range b.Mutations {
		keys[m.Key()] = struct{}{}
	}
	return keys
}

func (b *Batch) AppliesTo(key document.DocumentKey) bool {
	for _, m := range b.Mutations {
		if m.Key().Equal(key) {
			return true
		}
	}
	return false
}

// ApplyToLocalViewWithFieldMask applies every mutation of the batch targeting
// doc's key, in order, and returns the accumulated field mask.
func (b *Batch) ApplyToLocalViewWithFieldMask(doc *document.Document,
	mask *document.FieldMask,
) *document.FieldMask {
	for _, m := range b.Mutations {
		if m.Key().Equal(doc.Key()) {
			mask = m.ApplyToLocalView(doc, mask, b.LocalWriteTime)
		}
	}
	return mask
}
