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
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/driftdb/driftdb/usecases/localdocs"
)

var (
	bucketOverlays             = []byte("overlays")
	bucketOverlaysByBatch      = []byte("overlays_by_batch")
	bucketOverlaysByCollection = []byte("overlays_by_collection")
	bucketOverlaysByGroup      = []byte("overlays_by_group")
)

// Store owns the bolt database file holding all users' overlays and hands
// out the transactions the caches operate in.
type Store struct {
	path string
	log  logrus.FieldLogger
	db   *bolt.DB
}

// NewStore returns a new overlay store. Call Open before use and Close to
// release the file.
func NewStore(path string, logger logrus.FieldLogger) *Store {
	return &Store{path: path, log: logger}
}

func (s *Store) Open() error {
	db, err := bolt.Open(s.path, 0o600, nil)
	if err != nil {
		return errors.Wrapf(err, "open %q", s.path)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{
			bucketOverlays, bucketOverlaysByBatch,
			bucketOverlaysByCollection, bucketOverlaysByGroup,
		} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return errors.Wrapf(err, "create bucket %q", bucket)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return err
	}

	s.db = db
	s.log.WithFields(logrus.Fields{
		"action": "overlay_store_open",
		"path":   s.path,
	}).Debug("opened overlay store")
	return nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Tx is one serial read-write or read-only context against the store. It is
// the concrete localdocs.Transaction for every bolt-backed cache.
type Tx struct {
	ctx context.Context
	btx *bolt.Tx
}

func (t *Tx) Context() context.Context {
	return t.ctx
}

// Update runs fn in a read-write transaction. All writes commit atomically
// or roll back together with fn's error.
func (s *Store) Update(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.Update(func(btx *bolt.Tx) error {
		return fn(&Tx{ctx: ctx, btx: btx})
	})
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx *Tx) error) error {
	return s.db.View(func(btx *bolt.Tx) error {
		return fn(&Tx{ctx: ctx, btx: btx})
	})
}

// boltTx unwraps the store's concrete transaction. Handing a bolt-backed
// cache any other transaction type is a wiring error.
func boltTx(tx localdocs.Transaction) (*bolt.Tx, error) {
	typed, ok := tx.(*Tx)
	if !ok {
		return nil, errors.Errorf("expected overlay store transaction, got %T", tx)
	}
	return typed.btx, nil
}
