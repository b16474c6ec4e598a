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

// Package remote holds the in-memory remote document cache: the documents as
// last delivered by the backend, before any local mutation is layered on.
package remote

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/driftdb/driftdb/entities/docmap"
	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/query"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

// MemoryCache stores remote document states in key order. It hands out deep
// copies: callers mutate their copy into a local view without affecting the
// cached remote state.
type MemoryCache struct {
	docs   *docmap.KeyMap[*document.Document]
	index  *MemoryIndexManager
	logger logrus.FieldLogger
}

func NewMemoryCache(index *MemoryIndexManager, logger logrus.FieldLogger) *MemoryCache {
	return &MemoryCache{
		docs:   docmap.New[*document.Document](),
		index:  index,
		logger: logger,
	}
}

// AddEntry records doc as the latest remote state of its document and feeds
// the collection-parent index.
func (c *MemoryCache) AddEntry(_ localdocs.Transaction, doc *document.Document) error {
	c.docs.Insert(doc.Key(), doc.DeepCopy())
	if c.index != nil {
		c.index.AddToCollectionParentIndex(doc.Key().CollectionPath())
	}
	return nil
}

// RemoveEntry drops the remote state for key entirely, returning it to the
// unknown state.
func (c *MemoryCache) RemoveEntry(_ localdocs.Transaction, key document.DocumentKey) error {
	c.docs.Remove(key)
	return nil
}

func (c *MemoryCache) GetEntry(_ localdocs.Transaction,
	key document.DocumentKey,
) (*document.Document, error) {
	doc, ok := c.docs.Get(key)
	if !ok {
		return document.NewInvalidDocument(key), nil
	}
	return doc.DeepCopy(), nil
}

func (c *MemoryCache) GetEntries(tx localdocs.Transaction,
	keys []document.DocumentKey,
) (map[document.DocumentKey]*document.Document, error) {
	results := make(map[document.DocumentKey]*document.Document, len(keys))
	for _, key := range keys {
		doc, err := c.GetEntry(tx, key)
		if err != nil {
			return nil, err
		}
		results[key] = doc
	}
	return results, nil
}

func (c *MemoryCache) GetDocumentsMatchingQuery(_ localdocs.Transaction, q query.Query,
	sinceReadTime time.Time,
) (map[document.DocumentKey]*document.Document, error) {
	results := make(map[document.DocumentKey]*document.Document)
	immediateChildLen := q.Path.Len() + 1

	it := c.docs.IteratorFrom(document.NewSeekKey(q.Path))
	for {
		entry, ok := it.Next()
		if !ok {
			break
		}
		path := entry.Key.Path()
		if !q.Path.IsPrefixOf(path) {
			break
		}
		if path.Len() != immediateChildLen {
			continue
		}
		if !entry.Value.ReadTime().After(sinceReadTime) {
			continue
		}
		doc := entry.Value.DeepCopy()
		if q.Matches(doc) {
			results[entry.Key] = doc
		}
	}
	return results, nil
}
