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

// Package mutations holds the in-memory mutation queue: the ordered pending
// local writes that have not been acknowledged by the backend yet.
package mutations

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

// MemoryQueue assigns strictly increasing batch ids and keeps batches in
// id order, with a per-document index for affected-key lookups.
type MemoryQueue struct {
	nextBatchID int
	batches     []*mutation.Batch
	byKey       map[document.DocumentKey][]int
	logger      logrus.FieldLogger
}

func NewMemoryQueue(logger logrus.FieldLogger) *MemoryQueue {
	return &MemoryQueue{
		nextBatchID: 1,
		byKey:       make(map[document.DocumentKey][]int),
		logger:      logger,
	}
}

// AddBatch enqueues mutations as a new batch and returns it.
func (q *MemoryQueue) AddBatch(_ localdocs.Transaction, localWriteTime time.Time,
	mutations []mutation.Mutation,
) (*mutation.Batch, error) {
	if len(mutations) == 0 {
		return nil, errors.New("empty mutation batch")
	}

	batch := mutation.NewBatch(q.nextBatchID, localWriteTime, mutations)
	q.nextBatchID++
	q.batches = append(q.batches, batch)
	for key := range batch.Keys() {
		q.byKey[key] = append(q.byKey[key], batch.BatchID)
	}
	return batch, nil
}

// RemoveBatch drops an acknowledged or rejected batch. Only the oldest
// batch may be removed; the queue drains in order.
func (q *MemoryQueue) RemoveBatch(_ localdocs.Transaction, batch *mutation.Batch) error {
	if len(q.batches) == 0 || q.batches[0].BatchID != batch.BatchID {
		return errors.Errorf("can only remove the oldest batch, got %d", batch.BatchID)
	}
	q.batches = q.batches[1:]
	for key := range batch.Keys() {
		ids := q.byKey[key]
		for i, id := range ids {
			if id == batch.BatchID {
				q.byKey[key] = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(q.byKey[key]) == 0 {
			delete(q.byKey, key)
		}
	}
	return nil
}

// NextBatchID returns the id the next enqueued batch will receive.
func (q *MemoryQueue) NextBatchID() int {
	return q.nextBatchID
}

func (q *MemoryQueue) GetAllMutationBatchesAffectingDocumentKeys(_ localdocs.Transaction,
	keys []document.DocumentKey,
) ([]*mutation.Batch, error) {
	ids := make(map[int]struct{})
	for _, key := range keys {
		for _, id := range q.byKey[key] {
			ids[id] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(ids))
	for id := range ids {
		sorted = append(sorted, id)
	}
	sort.Ints(sorted)

	out := make([]*mutation.Batch, 0, len(sorted))
	for _, id := range sorted {
		if batch := q.lookupBatch(id); batch != nil {
			out = append(out, batch)
		}
	}
	return out, nil
}

func (q *MemoryQueue) lookupBatch(batchID int) *mutation.Batch {
	i := sort.Search(len(q.batches), func(i int) bool {
		return q.batches[i].BatchID >= batchID
	})
	if i < len(q.batches) && q.batches[i].BatchID == batchID {
		return q.batches[i]
	}
	return nil
}
