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
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/entities/query"
	"github.com/driftdb/driftdb/usecases/monitoring"
)

// LocalDocumentsView merges the remote document cache, the mutation queue
// and the overlay cache into the view of documents an application observes:
// remote state with all unacknowledged local mutations already applied.
type LocalDocumentsView struct {
	remote   RemoteDocumentCache
	queue    MutationQueue
	overlays OverlayCache
	index    IndexManager
	logger   logrus.FieldLogger
	now      func() time.Time
	metrics  *viewMetrics
}

type viewMetrics struct {
	getDocument   prometheus.Observer
	getDocuments  prometheus.Observer
	matchingQuery prometheus.Observer
	recalculate   prometheus.Observer
}

func (m *viewMetrics) observe(o prometheus.Observer) func() {
	if m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		o.Observe(time.Since(start).Seconds())
	}
}

func (m *viewMetrics) observeGetDocument() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.getDocument)
}

func (m *viewMetrics) observeGetDocuments() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.getDocuments)
}

func (m *viewMetrics) observeMatchingQuery() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.matchingQuery)
}

func (m *viewMetrics) observeRecalculate() func() {
	if m == nil {
		return func() {}
	}
	return m.observe(m.recalculate)
}

func NewLocalDocumentsView(remote RemoteDocumentCache, queue MutationQueue,
	overlays OverlayCache, index IndexManager, logger logrus.FieldLogger,
) *LocalDocumentsView {
	return &LocalDocumentsView{
		remote:   remote,
		queue:    queue,
		overlays: overlays,
		index:    index,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNowFunc overrides the local-write timestamp source.
func (v *LocalDocumentsView) SetNowFunc(now func() time.Time) {
	v.now = now
}

// SetMetrics enables duration reporting for the view's operations.
func (v *LocalDocumentsView) SetMetrics(pm *monitoring.PrometheusMetrics) {
	if pm == nil {
		v.metrics = nil
		return
	}
	v.metrics = &viewMetrics{
		getDocument:   pm.LocalViewOperations.With(prometheus.Labels{"operation": "get_document"}),
		getDocuments:  pm.LocalViewOperations.With(prometheus.Labels{"operation": "get_documents"}),
		matchingQuery: pm.LocalViewOperations.With(prometheus.Labels{"operation": "get_documents_matching_query"}),
		recalculate:   pm.LocalViewOperations.With(prometheus.Labels{"operation": "recalculate_and_save_overlays"}),
	}
}

// GetDocument returns the local view of a single document.
func (v *LocalDocumentsView) GetDocument(tx Transaction, key document.DocumentKey) (*document.Document, error) {
	defer v.metrics.observeGetDocument()()

	overlay, err := v.overlays.GetOverlay(tx, key)
	if err != nil {
		return nil, err
	}
	doc, err := v.getBaseDocument(tx, key, overlay)
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		overlay.Mutation.ApplyToLocalView(doc, nil, v.now())
	}
	return doc, nil
}

// getBaseDocument fetches the document the overlay applies to. Set and
// delete overlays replace the document wholesale, so the remote read is
// skipped for them; patches need the remote base for their precondition and
// field semantics.
func (v *LocalDocumentsView) getBaseDocument(tx Transaction, key document.DocumentKey,
	overlay *mutation.Overlay,
) (*document.Document, error) {
	if overlay == nil || mutation.IsPatch(overlay.Mutation) {
		return v.remote.GetEntry(tx, key)
	}
	return document.NewInvalidDocument(key), nil
}

// GetDocuments returns the local view of every requested document, keyed by
// document key. Missing documents are part of the result as invalid or
// missing sentinels.
func (v *LocalDocumentsView) GetDocuments(tx Transaction,
	keys []document.DocumentKey,
) (map[document.DocumentKey]*document.Document, error) {
	defer v.metrics.observeGetDocuments()()

	docs, err := v.remote.GetEntries(tx, keys)
	if err != nil {
		return nil, err
	}
	return v.GetLocalViewOfDocuments(tx, docs, nil)
}

// GetLocalViewOfDocuments applies pending overlays to the given base
// documents. existenceStateChanged names keys whose remote existence flipped
// since the overlays were computed, which may invalidate patch overlays.
func (v *LocalDocumentsView) GetLocalViewOfDocuments(tx Transaction,
	docs map[document.DocumentKey]*document.Document,
	existenceStateChanged map[document.DocumentKey]struct{},
) (map[document.DocumentKey]*document.Document, error) {
	return v.ComputeViews(tx, docs, map[document.DocumentKey]*mutation.Overlay{}, existenceStateChanged)
}

// ComputeViews turns base documents into local views in place. Overlays are
// taken from memoizedOverlays when present, from the overlay cache
// otherwise. Keys whose existence state changed and whose overlay is absent
// or a patch get their overlay recalculated from the mutation queue first:
// the patch's precondition may have flipped, turning the overlay from a
// no-op into an effective write or back. Non-patch overlays do not depend on
// the base document and are applied as-is.
func (v *LocalDocumentsView) ComputeViews(tx Transaction,
	docs map[document.DocumentKey]*document.Document,
	memoizedOverlays map[document.DocumentKey]*mutation.Overlay,
	existenceStateChanged map[document.DocumentKey]struct{},
) (map[document.DocumentKey]*document.Document, error) {
	recalculate := make(map[document.DocumentKey]*document.Document)

	for key, doc := range docs {
		overlay, ok := memoizedOverlays[key]
		if !ok {
			var err error
			overlay, err = v.overlays.GetOverlay(tx, key)
			if err != nil {
				return nil, err
			}
		}

		_, changed := existenceStateChanged[key]
		switch {
		case changed && (overlay == nil || mutation.IsPatch(overlay.Mutation)):
			recalculate[key] = doc
		case overlay != nil:
			overlay.Mutation.ApplyToLocalView(doc, nil, v.now())
		}
	}

	if err := v.RecalculateAndSaveOverlays(tx, recalculate); err != nil {
		return nil, err
	}

	results := make(map[document.DocumentKey]*document.Document, len(docs))
	for key, doc := range docs {
		results[key] = doc
	}
	return results, nil
}

// RecalculateAndSaveOverlays recomputes the overlays for the given base
// documents from the full set of pending batches affecting them, and writes
// the result back to the overlay cache. The documents are mutated into their
// local views as a side effect.
func (v *LocalDocumentsView) RecalculateAndSaveOverlays(tx Transaction,
	docs map[document.DocumentKey]*document.Document,
) error {
	if len(docs) == 0 {
		return nil
	}
	defer v.metrics.observeRecalculate()()

	keys := make([]document.DocumentKey, 0, len(docs))
	for key := range docs {
		keys = append(keys, key)
	}

	batches, err := v.queue.GetAllMutationBatchesAffectingDocumentKeys(tx, keys)
	if err != nil {
		return err
	}

	masks := make(map[document.DocumentKey]*document.FieldMask)
	documentsByBatchID := make(map[int]map[document.DocumentKey]struct{})

	// apply every batch in order, accumulating per-key masks in place
	for _, batch := range batches {
		for key := range batch.Keys() {
			baseDoc, ok := docs[key]
			if !ok {
				continue
			}
			mask, seen := masks[key]
			if !seen {
				mask = document.NewFieldMask()
			}
			masks[key] = batch.ApplyToLocalViewWithFieldMask(baseDoc, mask)

			set, ok := documentsByBatchID[batch.BatchID]
			if !ok {
				set = make(map[document.DocumentKey]struct{})
				documentsByBatchID[batch.BatchID] = set
			}
			set[key] = struct{}{}
		}
	}

	batchIDs := make([]int, 0, len(documentsByBatchID))
	for id := range documentsByBatchID {
		batchIDs = append(batchIDs, id)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(batchIDs)))

	// Descending order assigns each key's overlay to the highest batch id
	// that touched it; processed keys are skipped in lower batches so they
	// are not overwritten.
	processed := make(map[document.DocumentKey]struct{})
	for _, batchID := range batchIDs {
		staged := make(map[document.DocumentKey]mutation.Mutation)
		for key := range documentsByBatchID[batchID] {
			if _, done := processed[key]; done {
				continue
			}
			staged[key] = mutation.CalculateOverlayMutation(docs[key], masks[key])
			processed[key] = struct{}{}
		}
		if err := v.overlays.SaveOverlays(tx, batchID, staged); err != nil {
			return err
		}
	}

	v.logger.WithFields(logrus.Fields{
		"action":  "recalculate_overlays",
		"docs":    len(docs),
		"batches": len(batches),
	}).Debug("recalculated overlays")

	return nil
}

// RecalculateAndSaveOverlaysForDocumentKeys recomputes overlays for keys
// using the remote cache's current base documents.
func (v *LocalDocumentsView) RecalculateAndSaveOverlaysForDocumentKeys(tx Transaction,
	keys []document.DocumentKey,
) error {
	docs, err := v.remote.GetEntries(tx, keys)
	if err != nil {
		return err
	}
	return v.RecalculateAndSaveOverlays(tx, docs)
}

// GetDocumentsMatchingQuery returns the local view of every document
// matching q, reading incrementally from offset.
func (v *LocalDocumentsView) GetDocumentsMatchingQuery(tx Transaction, q query.Query,
	offset document.IndexOffset,
) (map[document.DocumentKey]*document.Document, error) {
	defer v.metrics.observeMatchingQuery()()

	switch {
	case q.IsDocumentQuery():
		return v.getDocumentsMatchingDocumentQuery(tx, q)
	case q.IsCollectionGroupQuery():
		return v.getDocumentsMatchingCollectionGroupQuery(tx, q, offset)
	default:
		return v.getDocumentsMatchingCollectionQuery(tx, q, offset)
	}
}

func (v *LocalDocumentsView) getDocumentsMatchingDocumentQuery(tx Transaction,
	q query.Query,
) (map[document.DocumentKey]*document.Document, error) {
	key, err := document.NewDocumentKey(q.Path)
	if err != nil {
		return nil, errors.Wrap(err, "document query")
	}
	doc, err := v.GetDocument(tx, key)
	if err != nil {
		return nil, err
	}
	results := make(map[document.DocumentKey]*document.Document, 1)
	if doc.IsFound() {
		results[key] = doc
	}
	return results, nil
}

func (v *LocalDocumentsView) getDocumentsMatchingCollectionGroupQuery(tx Transaction,
	q query.Query, offset document.IndexOffset,
) (map[document.DocumentKey]*document.Document, error) {
	parents, err := v.index.GetCollectionParents(tx, q.CollectionGroup)
	if err != nil {
		return nil, err
	}

	results := make(map[document.DocumentKey]*document.Document)
	for _, parent := range parents {
		collectionQuery := q.AsCollectionQueryAtPath(parent.Child(q.CollectionGroup))
		docs, err := v.getDocumentsMatchingCollectionQuery(tx, collectionQuery, offset)
		if err != nil {
			return nil, err
		}
		for key, doc := range docs {
			results[key] = doc
		}
	}
	return results, nil
}

func (v *LocalDocumentsView) getDocumentsMatchingCollectionQuery(tx Transaction,
	q query.Query, offset document.IndexOffset,
) (map[document.DocumentKey]*document.Document, error) {
	remoteDocs, err := v.remote.GetDocumentsMatchingQuery(tx, q, offset.ReadTime)
	if err != nil {
		return nil, err
	}
	overlays, err := v.overlays.GetOverlaysForCollection(tx, q.Path, offset.LargestBatchID)
	if err != nil {
		return nil, err
	}

	// An overlay may target a key the remote cache has not delivered yet; a
	// synthetic invalid document gives its mutation something to apply to,
	// so the document can still enter the match set.
	for key := range overlays {
		if _, ok := remoteDocs[key]; !ok {
			remoteDocs[key] = document.NewInvalidDocument(key)
		}
	}

	results := make(map[document.DocumentKey]*document.Document)
	for key, doc := range remoteDocs {
		if overlay, ok := overlays[key]; ok {
			overlay.Mutation.ApplyToLocalView(doc, nil, v.now())
		}
		if q.Matches(doc) {
			results[key] = doc
		}
	}
	return results, nil
}
