package remote

import (
	"sort"

	"github.com/driftdb/driftdb/entities/document"
	"github.com/driftdb/driftdb/usecases/localdocs"
)

// MemoryIndexManager tracks which concrete parent paths exist for each
// collection id. MemoryCache.AddEntry feeds it for every remote document;
// overlay caches do not feed it, so the collections of local writes must be
// recorded through AddToCollectionParentIndex by the caller.
type MemoryIndexManager struct {
	parents map[string]map[string]document.ResourcePath
}

func NewMemoryIndexManager() *MemoryIndexManager {
	return &MemoryIndexManager{parents: make(map[string]map[string]document.ResourcePath)}
}

// AddToCollectionParentIndex records collection's parent under the
// collection's id. Duplicate adds are no-ops.
func (m *MemoryIndexManager) AddToCollectionParentIndex(collection document.ResourcePath) {
	if collection.IsEmpty() {
		return
	}
	collectionID := collection.LastSegment()
	parent := collection.Parent()

	byPath, ok := m.parents[collectionID]
	if !ok {
		byPath = make(map[string]document.ResourcePath)
		m.parents[collectionID] = byPath
	}
	byPath[parent.String()] = parent
}

func (m *MemoryIndexManager) GetCollectionParents(_ localdocs.Transaction,
	collectionID string,
) ([]document.ResourcePath, error) {
	byPath := m.parents[collectionID]
	out := make([]document.ResourcePath, 0, len(byPath))
	for _, parent := range byPath {
		out = append(out, parent)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Compare(out[j]) < 0
	})
	return out, nil
}
