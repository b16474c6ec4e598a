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
	"bytes"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

// BoltCache is the durable overlay cache for a single user, backed by the
// shared overlay Store. Every row is prefixed with the user id, so two
// users' overlays never collide. All operations must run inside a Store
// transaction.
type BoltCache struct {
	userID  string
	logger  logrus.FieldLogger
	metrics *Metrics
}

// NewBoltCache scopes a cache to userID; "" is the unauthenticated user.
func NewBoltCache(userID string, logger logrus.FieldLogger, metrics *Metrics) *BoltCache {
	return &BoltCache{userID: userID, logger: logger, metrics: metrics}
}

func (c *BoltCache) GetOverlay(tx localdocs.Transaction,
	key document.DocumentKey,
) (*mutation.Overlay, error) {
	defer c.metrics.GetOverlay()()

	btx, err := boltTx(tx)
	if err != nil {
		return nil, err
	}
	return c.getOverlay(btx, key)
}

func (c *BoltCache) getOverlay(btx *bolt.Tx, key document.DocumentKey) (*mutation.Overlay, error) {
	data := btx.Bucket(bucketOverlays).Get(primaryKey(c.userID, key))
	if data == nil {
		return nil, nil
	}
	overlay, err := unmarshalOverlay(data)
	if err != nil {
		return nil, errors.Wrapf(err, "overlay for %q", key)
	}
	return overlay, nil
}

func (c *BoltCache) SaveOverlays(tx localdocs.Transaction, largestBatchID int,
	overlays map[document.DocumentKey]mutation.Mutation,
) error {
	defer c.metrics.SaveOverlays()()

	btx, err := boltTx(tx)
	if err != nil {
		return err
	}
	for _, m := range overlays {
		if m == nil {
			continue
		}
		if err := c.saveOverlay(btx, largestBatchID, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *BoltCache) saveOverlay(btx *bolt.Tx, largestBatchID int, m mutation.Mutation) error {
	key := m.Key()
	pk := primaryKey(c.userID, key)
	primary := btx.Bucket(bucketOverlays)

	// stale secondary index rows of a replaced overlay must go first
	if existing := primary.Get(pk); existing != nil {
		old, err := unmarshalOverlay(existing)
		if err != nil {
			return errors.Wrapf(err, "previous overlay for %q", key)
		}
		if err := c.deleteIndexRows(btx, old.LargestBatchID, key); err != nil {
			return err
		}
	}

	data, err := marshalOverlay(mutation.NewOverlay(largestBatchID, m))
	if err != nil {
		return errors.Wrapf(err, "marshal overlay for %q", key)
	}
	if err := primary.Put(pk, data); err != nil {
		return errors.Wrap(err, "put overlay")
	}

	docPath := []byte(key.String())
	if err := btx.Bucket(bucketOverlaysByBatch).
		Put(batchIndexKey(c.userID, largestBatchID, key), docPath); err != nil {
		return errors.Wrap(err, "put batch index row")
	}
	if err := btx.Bucket(bucketOverlaysByCollection).
		Put(collectionIndexKey(c.userID, key.CollectionPath(), largestBatchID, key), docPath); err != nil {
		return errors.Wrap(err, "put collection index row")
	}
	if err := btx.Bucket(bucketOverlaysByGroup).
		Put(groupIndexKey(c.userID, key.CollectionGroup(), largestBatchID, key), docPath); err != nil {
		return errors.Wrap(err, "put group index row")
	}
	return nil
}

func (c *BoltCache) deleteIndexRows(btx *bolt.Tx, batchID int, key document.DocumentKey) error {
	if err := btx.Bucket(bucketOverlaysByBatch).
		Delete(batchIndexKey(c.userID, batchID, key)); err != nil {
		return errors.Wrap(err, "delete batch index row")
	}
	if err := btx.Bucket(bucketOverlaysByCollection).
		Delete(collectionIndexKey(c.userID, key.CollectionPath(), batchID, key)); err != nil {
		return errors.Wrap(err, "delete collection index row")
	}
	if err := btx.Bucket(bucketOverlaysByGroup).
		Delete(groupIndexKey(c.userID, key.CollectionGroup(), batchID, key)); err != nil {
		return errors.Wrap(err, "delete group index row")
	}
	return nil
}

func (c *BoltCache) RemoveOverlaysForBatchID(tx localdocs.Transaction, batchID int) error {
	defer c.metrics.RemoveOverlays()()

	btx, err := boltTx(tx)
	if err != nil {
		return err
	}

	prefix := batchIndexPrefix(c.userID, batchID)
	keys, err := c.collectIndexedKeys(btx.Bucket(bucketOverlaysByBatch), prefix, nil)
	if err != nil {
		return err
	}

	primary := btx.Bucket(bucketOverlays)
	for _, key := range keys {
		if err := primary.Delete(primaryKey(c.userID, key)); err != nil {
			return errors.Wrap(err, "delete overlay")
		}
		if err := c.deleteIndexRows(btx, batchID, key); err != nil {
			return err
		}
	}
	return nil
}

// collectIndexedKeys walks an index bucket from the first key >= seek (or
// the prefix itself) while the prefix matches and decodes the document keys
// stored as row values.
func (c *BoltCache) collectIndexedKeys(bucket *bolt.Bucket, prefix, seek []byte,
) ([]document.DocumentKey, error) {
	if seek == nil {
		seek = prefix
	}
	var keys []document.DocumentKey
	cur := bucket.Cursor()
	for k, v := cur.Seek(seek); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
		key, err := decodeIndexedKey(v)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func decodeIndexedKey(row []byte) (document.DocumentKey, error) {
	path, err := document.ParseResourcePath(string(row))
	if err != nil {
		return document.DocumentKey{}, errors.Wrap(err, "corrupted index row")
	}
	key, err := document.NewDocumentKey(path)
	if err != nil {
		return document.DocumentKey{}, errors.Wrap(err, "corrupted index row")
	}
	return key, nil
}

func (c *BoltCache) GetOverlaysForCollection(tx localdocs.Transaction,
	collection document.ResourcePath, sinceBatchID int,
) (map[document.DocumentKey]*mutation.Overlay, error) {
	defer c.metrics.GetForCollection()()

	btx, err := boltTx(tx)
	if err != nil {
		return nil, err
	}

	prefix := collectionIndexPrefix(c.userID, collection)
	seek := appendBatchID(append([]byte(nil), prefix...), sinceBatchID+1)

	keys, err := c.collectIndexedKeys(btx.Bucket(bucketOverlaysByCollection), prefix, seek)
	if err != nil {
		return nil, err
	}

	results := make(map[document.DocumentKey]*mutation.Overlay, len(keys))
	for _, key := range keys {
		overlay, err := c.getOverlay(btx, key)
		if err != nil {
			return nil, err
		}
		if overlay == nil {
			return nil, errors.Errorf("index row without overlay for %q", key)
		}
		results[key] = overlay
	}
	return results, nil
}

func (c *BoltCache) GetOverlaysForCollectionGroup(tx localdocs.Transaction,
	collectionGroup string, sinceBatchID, count int,
) (map[document.DocumentKey]*mutation.Overlay, error) {
	defer c.metrics.GetForCollectionGroup()()

	btx, err := boltTx(tx)
	if err != nil {
		return nil, err
	}

	prefix := groupIndexPrefix(c.userID, collectionGroup)
	seek := appendBatchID(append([]byte(nil), prefix...), sinceBatchID+1)

	results := make(map[document.DocumentKey]*mutation.Overlay)
	currentBatchID := mutation.BatchIDUnknown

	cur := btx.Bucket(bucketOverlaysByGroup).Cursor()
	for k, v := cur.Seek(seek); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
		batchID := readBatchID(k, len(prefix))
		// never split a batch: keep appending past count while the batch id
		// stays the same
		if len(results) >= count && batchID != currentBatchID {
			break
		}
		key, err := decodeIndexedKey(v)
		if err != nil {
			return nil, err
		}
		overlay, err := c.getOverlay(btx, key)
		if err != nil {
			return nil, err
		}
		if overlay == nil {
			return nil, errors.Errorf("index row without overlay for %q", key)
		}
		results[key] = overlay
		currentBatchID = batchID
	}
	return results, nil
}
