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

package localdocs

import (
	"context"
	"time"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/entities/query"
)

// Transaction is the serial execution context every storage operation runs
// in. Operations within one transaction observe a consistent snapshot and
// commit atomically; the concrete type is owned by the persistence layer
// backing the stores in use.
type Transaction interface {
	Context() context.Context
}

type basicTransaction struct {
	ctx context.Context
}

func (t *basicTransaction) Context() context.Context {
	return t.ctx
}

// NewTransaction returns a transaction without durable state, for use with
// purely in-memory stores.
func NewTransaction(ctx context.Context) Transaction {
	return &basicTransaction{ctx: ctx}
}

// OverlayCache stores, per document, the single mutation that turns the
// remote version of that document into its current local view.
type OverlayCache interface {
	// GetOverlay returns the overlay for key, or nil if none exists.
	GetOverlay(tx Transaction, key document.DocumentKey) (*mutation.Overlay, error)

	// SaveOverlays installs an overlay (largestBatchID, m) for every entry,
	// replacing any prior overlay for the same key. Nil mutations are
	// skipped.
	SaveOverlays(tx Transaction, largestBatchID int, overlays map[document.DocumentKey]mutation.Mutation) error

	// RemoveOverlaysForBatchID removes exactly the overlays whose largest
	// batch id equals batchID.
	RemoveOverlaysForBatchID(tx Transaction, batchID int) error

	// GetOverlaysForCollection returns every overlay for an immediate child
	// document of collection with a largest batch id greater than
	// sinceBatchID.
	GetOverlaysForCollection(tx Transaction, collection document.ResourcePath,
		sinceBatchID int) (map[document.DocumentKey]*mutation.Overlay, error)

	// GetOverlaysForCollectionGroup returns overlays for collectionGroup with
	// a largest batch id greater than sinceBatchID, in ascending batch-id
	// order. Batches are never split: enumeration only stops at a batch
	// boundary once at least count overlays have been collected, so the
	// result may exceed count.
	GetOverlaysForCollectionGroup(tx Transaction, collectionGroup string, sinceBatchID,
		count int) (map[document.DocumentKey]*mutation.Overlay, error)
}

// RemoteDocumentCache is the durable cache of documents as last delivered by
// the backend. Absent keys yield invalid-document sentinels; returned values
// are mutable copies owned by the caller.
type RemoteDocumentCache interface {
	GetEntry(tx Transaction, key document.DocumentKey) (*document.Document, error)
	GetEntries(tx Transaction, keys []document.DocumentKey) (map[document.DocumentKey]*document.Document, error)
	GetDocumentsMatchingQuery(tx Transaction, q query.Query,
		sinceReadTime time.Time) (map[document.DocumentKey]*document.Document, error)
}

// MutationQueue hands out the pending batches relevant to a set of keys,
// ordered by batch id.
type MutationQueue interface {
	GetAllMutationBatchesAffectingDocumentKeys(tx Transaction,
		keys []document.DocumentKey) ([]*mutation.Batch, error)
}

// IndexManager answers which concrete collections exist for a collection
// group.
type IndexManager interface {
	GetCollectionParents(tx Transaction, collectionID string) ([]document.ResourcePath, error)
}
