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

package overlays

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/driftdb/driftdb/entities/docmap"
	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

// MemoryCache is the process-local overlay cache. It keeps a sorted forward
// map from document key to overlay plus an inverted index from batch id to
// the keys whose overlay carries that batch id; both are maintained in
// lockstep. Overlays die with the process.
type MemoryCache struct {
	overlays  *docmap.KeyMap[*mutation.Overlay]
	byBatchID map[int]map[document.DocumentKey]struct{}
	logger    logrus.FieldLogger
	metrics   *Metrics
}

func NewMemoryCache(logger logrus.FieldLogger, metrics *Metrics) *MemoryCache {
	return &MemoryCache{
		overlays:  docmap.New[*mutation.Overlay](),
		byBatchID: make(map[int]map[document.DocumentKey]struct{}),
		logger:    logger,
		metrics:   metrics,
	}
}

func (c *MemoryCache) GetOverlay(_ localdocs.Transaction,
	key document.DocumentKey,
) (*mutation.Overlay, error) {
	defer c.metrics.GetOverlay()()

	overlay, ok := c.overlays.Get(key)
	if !ok {
		return nil, nil
	}
	return overlay, nil
}

func (c *MemoryCache) SaveOverlays(_ localdocs.Transaction, largestBatchID int,
	overlays map[document.DocumentKey]mutation.Mutation,
) error {
	defer c.metrics.SaveOverlays()()

	for _, m := range overlays {
		if m == nil {
			continue
		}
		c.saveOverlay(largestBatchID, m)
	}
	c.metrics.SetOverlayCount(c.overlays.Len())
	return nil
}

func (c *MemoryCache) saveOverlay(largestBatchID int, m mutation.Mutation) {
	key := m.Key()

	// the previous overlay's inverted-index entry must go before the new
	// bucket receives the key
	if existing, ok := c.overlays.Get(key); ok {
		if bucket, ok := c.byBatchID[existing.LargestBatchID]; ok {
			delete(bucket, key)
			if len(bucket) == 0 {
				delete(c.byBatchID, existing.LargestBatchID)
			}
		}
	}

	c.overlays.Insert(key, mutation.NewOverlay(largestBatchID, m))

	bucket, ok := c.byBatchID[largestBatchID]
	if !ok {
		bucket = make(map[document.DocumentKey]struct{})
		c.byBatchID[largestBatchID] = bucket
	}
	bucket[key] = struct{}{}
}

func (c *MemoryCache) RemoveOverlaysForBatchID(_ localdocs.Transaction, batchID int) error {
	defer c.metrics.RemoveOverlays()()

	keys, ok := c.byBatchID[batchID]
	if !ok {
		return nil
	}
	delete(c.byBatchID, batchID)
	for key := range keys {
		c.overlays.Remove(key)
	}
	c.metrics.SetOverlayCount(c.overlays.Len())
	return nil
}

func (c *MemoryCache) GetOverlaysForCollection(_ localdocs.Transaction,
	collection document.ResourcePath, sinceBatchID int,
) (map[document.DocumentKey]*mutation.Overlay, error) {
	defer c.metrics.GetForCollection()()

	results := make(map[document.DocumentKey]*mutation.Overlay)
	immediateChildLen := collection.Len() + 1

	it := c.overlays.IteratorFrom(document.NewSeekKey(collection))
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		path := entry.Key.Path()
		if !collection.IsPrefixOf(path) {
			break
		}
		if path.Len() != immediateChildLen {
			// sub-collection descendant
			continue
		}
		if entry.Value.LargestBatchID > sinceBatchID {
			results[entry.Key] = entry.Value
		}
	}
	return results, nil
}

func (c *MemoryCache) GetOverlaysForCollectionGroup(_ localdocs.Transaction,
	collectionGroup string, sinceBatchID, count int,
) (map[document.DocumentKey]*mutation.Overlay, error) {
	defer c.metrics.GetForCollectionGroup()()

	// bucket qualifying overlays by batch id, then drain whole buckets in
	// ascending order until the count is reached
	byBatch := make(map[int]map[document.DocumentKey]*mutation.Overlay)
	it := c.overlays.Iterator()
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		if !entry.Key.HasCollectionGroup(collectionGroup) {
			continue
		}
		if entry.Value.LargestBatchID <= sinceBatchID {
			continue
		}
		bucket, ok := byBatch[entry.Value.LargestBatchID]
		if !ok {
			bucket = make(map[document.DocumentKey]*mutation.Overlay)
			byBatch[entry.Value.LargestBatchID] = bucket
		}
		bucket[entry.Key] = entry.Value
	}

	batchIDs := make([]int, 0, len(byBatch))
	for id := range byBatch {
		batchIDs = append(batchIDs, id)
	}
	sort.Ints(batchIDs)

	results := make(map[document.DocumentKey]*mutation.Overlay)
	for _, id := range batchIDs {
		for key, overlay := range byBatch[id] {
			results[key] = overlay
		}
		if len(results) >= count {
			break
		}
	}
	return results, nil
}
