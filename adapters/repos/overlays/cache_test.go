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
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/entities/mutation"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

type cacheHarness struct {
	cache localdocs.OverlayCache
	run   func(t *testing.T, fn func(tx localdocs.Transaction))
}

// harnesses runs the contract suite against both implementations: the
// in-memory cache and the bolt-backed one.
func harnesses(t *testing.T) map[string]*cacheHarness {
	logger, _ := test.NewNullLogger()

	memory := NewMemoryCache(logger, nil)
	memoryHarness := &cacheHarness{
		cache: memory,
		run: func(t *testing.T, fn func(tx localdocs.Transaction)) {
			fn(localdocs.NewTransaction(context.Background()))
		},
	}

	store := NewStore(filepath.Join(t.TempDir(), "overlays.db"), logger)
	require.Nil(t, store.Open())
	t.Cleanup(func() { store.Close() })

	boltHarness := &cacheHarness{
		cache: NewBoltCache("owner", logger, nil),
		run: func(t *testing.T, fn func(tx localdocs.Transaction)) {
			err := store.Update(context.Background(), func(tx *Tx) error {
				fn(tx)
				return nil
			})
			require.Nil(t, err)
		},
	}

	return map[string]*cacheHarness{
		"memory": memoryHarness,
		"bolt":   boltHarness,
	}
}

func setMutation(path string, fields map[string]interface{}) mutation.Mutation {
	return mutation.NewSet(document.MustKey(path), document.NewObjectValue(fields),
		mutation.PreconditionNone())
}

func patchMutation(path string, fields map[string]interface{}, maskPaths ...string) mutation.Mutation {
	paths := make([]document.FieldPath, len(maskPaths))
	for i, p := range maskPaths {
		paths[i] = document.ParseFieldPath(p)
	}
	return mutation.NewPatch(document.MustKey(path), document.NewObjectValue(fields),
		document.NewFieldMask(paths...), mutation.PreconditionNone())
}

func saveOne(t *testing.T, h *cacheHarness, batchID int, m mutation.Mutation) {
	h.run(t, func(tx localdocs.Transaction) {
		err := h.cache.SaveOverlays(tx, batchID, map[document.DocumentKey]mutation.Mutation{
			m.Key(): m,
		})
		require.Nil(t, err)
	})
}

func getOne(t *testing.T, h *cacheHarness, path string) *mutation.Overlay {
	var overlay *mutation.Overlay
	h.run(t, func(tx localdocs.Transaction) {
		var err error
		overlay, err = h.cache.GetOverlay(tx, document.MustKey(path))
		require.Nil(t, err)
	})
	return overlay
}

func TestOverlayCache_SaveAndGet(t *testing.T) {
	for name, h := range harnesses(t) {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, getOne(t, h, "users/alice"))

			m := setMutation("users/alice", map[string]interface{}{"age": float64(31), "city": "NYC"})
			saveOne(t, h, 5, m)

			overlay := getOne(t, h, "users/alice")
			require.NotNil(t, overlay)
			assert.Equal(t, 5, overlay.LargestBatchID)
			assert.Equal(t, document.MustKey("users/alice"), overlay.Key())
			set, ok := overlay.Mutation.(*mutation.Set)
			require.True(t, ok)
			city, _ := set.Value().Get(document.ParseFieldPath("city"))
			assert.Equal(t, "NYC", city)

			// replacing moves the overlay to the new batch
			saveOne(t, h, 8, patchMutation("users/alice", map[string]interface{}{"city": "LA"}, "city"))
			overlay = getOne(t, h, "users/alice")
			require.NotNil(t, overlay)
			assert.Equal(t, 8, overlay.LargestBatchID)
			assert.True(t, mutation.IsPatch(overlay.Mutation))
		})
	}
}

func TestOverlayCache_SaveSkipsNilMutations(t *testing.T) {
	for name, h := range harnesses(t) {
		t.Run(name, func(t *testing.T) {
			h.run(t, func(tx localdocs.Transaction) {
				err := h.cache.SaveOverlays(tx, 3, map[document.DocumentKey]mutation.Mutation{
					document.MustKey("users/alice"): nil,
				})
				require.Nil(t, err)
			})
			assert.Nil(t, getOne(t, h, "users/alice"))
		})
	}
}

func TestOverlayCache_RemoveOverlaysForBatchID(t *testing.T) {
	for name, h := range harnesses(t) {
		t.Run(name, func(t *testing.T) {
			saveOne(t, h, 2, setMutation("users/alice", nil))
			saveOne(t, h, 2, setMutation("users/bob", nil))
			saveOne(t, h, 3, setMutation("users/carol", nil))

			h.run(t, func(tx localdocs.Transaction) {
				require.Nil(t, h.cache.RemoveOverlaysForBatchID(tx, 2))
			})

			assert.Nil(t, getOne(t, h, "users/alice"))
			assert.Nil(t, getOne(t, h, "users/bob"))
			require.NotNil(t, getOne(t, h, "users/carol"), "other batches are untouched")

			// removing an unknown batch id is a no-op
			h.run(t, func(tx localdocs.Transaction) {
				require.Nil(t, h.cache.RemoveOverlaysForBatchID(tx, 99))
			})
			require.NotNil(t, getOne(t, h, "users/carol"))
		})
	}
}

// A replaced overlay must leave its old batch-id bucket; otherwise removing
// the old batch would drag the newer overlay with it.
func TestOverlayCache_ReplaceUpdatesBatchIndex(t *testing.T) {
	for name, h := range harnesses(t) {
		t.Run(name, func(t *testing.T) {
			saveOne(t, h, 2, setMutation("users/alice", nil))
			saveOne(t, h, 4, setMutation("users/alice", nil))

			h.run(t, func(tx localdocs.Transaction) {
				require.Nil(t, h.cache.RemoveOverlaysForBatchID(tx, 2))
			})
			overlay := getOne(t, h, "users/alice")
			require.NotNil(t, overlay)
			assert.Equal(t, 4, overlay.LargestBatchID)

			h.run(t, func(tx localdocs.Transaction) {
				require.Nil(t, h.cache.RemoveOverlaysForBatchID(tx, 4))
			})
			assert.Nil(t, getOne(t, h, "users/alice"))
		})
	}
}

func TestOverlayCache_GetOverlaysForCollection(t *testing.T) {
	for name, h := range harnesses(t) {
		t.Run(name, func(t *testing.T) {
			saveOne(t, h, 1, setMutation("rooms/r1", nil))
			saveOne(t, h, 2, setMutation("rooms/r1/messages/m1", nil))
			saveOne(t, h, 3, setMutation("rooms/r2", nil))
			saveOne(t, h, 4, setMutation("roomsx/r9", nil))

			rooms, _ := document.ParseResourcePath("rooms")

			// immediate children only, no sub-collection descendants
			h.run(t, func(tx localdocs.Transaction) {
				got, err := h.cache.GetOverlaysForCollection(tx, rooms, mutation.BatchIDUnknown)
				require.Nil(t, err)
				require.Len(t, got, 2)
				assert.Contains(t, got, document.MustKey("rooms/r1"))
				assert.Contains(t, got, document.MustKey("rooms/r2"))
			})

			// sinceBatchID is exclusive
			h.run(t, func(tx localdocs.Transaction) {
				got, err := h.cache.GetOverlaysForCollection(tx, rooms, 1)
				require.Nil(t, err)
				require.Len(t, got, 1)
				assert.Contains(t, got, document.MustKey("rooms/r2"))
			})

			// nested collection
			messages, _ := document.ParseResourcePath("rooms/r1/messages")
			h.run(t, func(tx localdocs.Transaction) {
				got, err := h.cache.GetOverlaysForCollection(tx, messages, mutation.BatchIDUnknown)
				require.Nil(t, err)
				require.Len(t, got, 1)
				assert.Contains(t, got, document.MustKey("rooms/r1/messages/m1"))
			})
		})
	}
}

func TestOverlayCache_GetOverlaysForCollectionGroup(t *testing.T) {
	for name, h := range harnesses(t) {
		t.Run(name, func(t *testing.T) {
			// batch 3 -> {A, B}; batch 4 -> {C}; batch 5 -> {D, E, F}
			saveOne(t, h, 3, setMutation("rooms/r1/messages/a", nil))
			saveOne(t, h, 3, setMutation("rooms/r2/messages/b", nil))
			saveOne(t, h, 4, setMutation("rooms/r1/messages/c", nil))
			saveOne(t, h, 5, setMutation("rooms/r1/messages/d", nil))
			saveOne(t, h, 5, setMutation("rooms/r3/messages/e", nil))
			saveOne(t, h, 5, setMutation("archive/x/messages/f", nil))
			// different group, same batch ids
			saveOne(t, h, 3, setMutation("rooms/r1/people/p", nil))

			expect := func(t *testing.T, count, expected int) {
				h.run(t, func(tx localdocs.Transaction) {
					got, err := h.cache.GetOverlaysForCollectionGroup(tx, "messages", 2, count)
					require.Nil(t, err)
					assert.Len(t, got, expected)
					for _, overlay := range got {
						assert.True(t, overlay.Key().HasCollectionGroup("messages"))
					}
				})
			}

			expect(t, 2, 2) // batch 3 exactly
			expect(t, 3, 3) // batches 3 and 4
			expect(t, 4, 6) // batch 5 completes past the limit
			expect(t, 1, 2) // batch 3 is never split

			// sinceBatchID exclusive: starting at 3 skips batch 3
			h.run(t, func(tx localdocs.Transaction) {
				got, err := h.cache.GetOverlaysForCollectionGroup(tx, "messages", 3, 1)
				require.Nil(t, err)
				require.Len(t, got, 1)
				assert.Contains(t, got, document.MustKey("rooms/r1/messages/c"))
			})
		})
	}
}

func TestBoltCache_UserIsolation(t *testing.T) {
	logger, _ := test.NewNullLogger()
	store := NewStore(filepath.Join(t.TempDir(), "overlays.db"), logger)
	require.Nil(t, store.Open())
	defer store.Close()

	alice := NewBoltCache("alice", logger, nil)
	bob := NewBoltCache("bob", logger, nil)

	err := store.Update(context.Background(), func(tx *Tx) error {
		m := setMutation("rooms/r1", nil)
		return alice.SaveOverlays(tx, 7, map[document.DocumentKey]mutation.Mutation{m.Key(): m})
	})
	require.Nil(t, err)

	err = store.View(context.Background(), func(tx *Tx) error {
		got, err := alice.GetOverlay(tx, document.MustKey("rooms/r1"))
		require.Nil(t, err)
		require.NotNil(t, got)

		gotBob, err := bob.GetOverlay(tx, document.MustKey("rooms/r1"))
		require.Nil(t, err)
		assert.Nil(t, gotBob)

		rooms, _ := document.ParseResourcePath("rooms")
		forBob, err := bob.GetOverlaysForCollection(tx, rooms, mutation.BatchIDUnknown)
		require.Nil(t, err)
		assert.Empty(t, forBob)
		return nil
	})
	require.Nil(t, err)

	// removing bob's batch 7 must not touch alice's overlays
	err = store.Update(context.Background(), func(tx *Tx) error {
		return bob.RemoveOverlaysForBatchID(tx, 7)
	})
	require.Nil(t, err)

	err = store.View(context.Background(), func(tx *Tx) error {
		got, err := alice.GetOverlay(tx, document.MustKey("rooms/r1"))
		require.Nil(t, err)
		require.NotNil(t, got)
		return nil
	})
	require.Nil(t, err)
}

func TestBoltCache_PersistsAcrossReopen(t *testing.T) {
	logger, _ := test.NewNullLogger()
	path := filepath.Join(t.TempDir(), "overlays.db")

	store := NewStore(path, logger)
	require.Nil(t, store.Open())
	cache := NewBoltCache("owner", logger, nil)

	err := store.Update(context.Background(), func(tx *Tx) error {
		m := patchMutation("users/alice", map[string]interface{}{"city": "LA"}, "city")
		return cache.SaveOverlays(tx, 9, map[document.DocumentKey]mutation.Mutation{m.Key(): m})
	})
	require.Nil(t, err)
	require.Nil(t, store.Close())

	reopened := NewStore(path, logger)
	require.Nil(t, reopened.Open())
	defer reopened.Close()

	err = reopened.View(context.Background(), func(tx *Tx) error {
		overlay, err := cache.GetOverlay(tx, document.MustKey("users/alice"))
		require.Nil(t, err)
		require.NotNil(t, overlay)
		assert.Equal(t, 9, overlay.LargestBatchID)
		patch, ok := overlay.Mutation.(*mutation.Patch)
		require.True(t, ok)
		city, _ := patch.Data().Get(document.ParseFieldPath("city"))
		assert.Equal(t, "LA", city)
		return nil
	})
	require.Nil(t, err)
}

func TestBoltCache_RejectsForeignTransaction(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cache := NewBoltCache("owner", logger, nil)

	_, err := cache.GetOverlay(localdocs.NewTransaction(context.Background()),
		document.MustKey("users/alice"))
	require.NotNil(t, err)
}
