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
	"github.com/driftdb/driftdb/entities/document"
)

// BatchIDUnknown orders before every assigned batch id. It is used as the
// lower bound for "all batches" scans.
const BatchIDUnknown = -1

// Overlay pairs a mutation with the highest batch id among the batches that
// contribute to its effect. Applying the mutation to the remote version of
// its document yields the current local view. Immutable after construction.
type Overlay struct {
	LargestBatchID int
	Mutation       Mutation
}

func NewOverlay(largestBatchID int, m Mutation) *Overlay {
	return &Overlay{LargestBatchID: largestBatchID, Mutation: m}
}

func (o *Overlay) Key() document.DocumentKey {
	return o.Mutation.Key()
}

// CalculateOverlayMutation derives the single mutation that reproduces the
// composed batch effect recorded in doc and mask, or nil when the batches
// had no effect at all (no local mutations, or an empty mask left by failed
// patch preconditions). A nil mask means every field was rewritten,
// collapsing the history into a Set (or a Delete when the composition left
// the document missing). A non-empty mask yields a Patch carrying exactly
// the masked fields; masked paths absent from doc become deletes when the
// patch is replayed.
func CalculateOverlayMutation(doc *document.Document, mask *document.FieldMask) Mutation {
	if !doc.HasLocalMutations() || (mask != nil && mask.Len() == 0) {
		return nil
	}

	if mask == nil {
		switch {
		case doc.IsFound():
			return NewSet(doc.Key(), doc.Data().DeepCopy(), PreconditionNone())
		case doc.IsMissing():
			return NewDelete(doc.Key(), PreconditionNone())
		default:
			return nil
		}
	}

	data := document.EmptyObjectValue()
	for _, path := range mask.Paths() {
		if val, ok := doc.Data().Get(path); ok {
			data.Set(path, val)
		}
	}
	return NewPatch(doc.Key(), data, mask, PreconditionNone())
}
