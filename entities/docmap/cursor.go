package docmap

import (
	"sort"

	"github.com/driftdb/driftdb/entities/document"
)

// Entry is one key/value pair observed by a cursor.
type Entry[V any] struct {
	Key   document.DocumentKey
	Value V
}

// Iterator walks entries in ascending key order. It operates on a snapshot
// of the map taken at creation; mutating the map during iteration does not
// affect it.
//
// This is a really primitive approach: it flattens the whole tree up front
// even if the caller only reads a handful of entries. The maps involved are
// small enough that the flatten cost has never shown up; the seek below is
// still O(log n) on the flattened slice.
type Iterator[V any] struct {
	entries []Entry[V]
	pos     int
	reverse bool
}

// Iterator returns an ascending cursor over all entries.
func (m *KeyMap[V]) Iterator() *Iterator[V] {
	return &Iterator[V]{entries: m.flatten()}
}

// IteratorFrom returns an ascending cursor positioned at the first key >= key.
func (m *KeyMap[V]) IteratorFrom(key document.DocumentKey) *Iterator[V] {
	entries := m.flatten()
	pos := sort.Search(len(entries), func(i int) bool {
		return entries[i].Key.Compare(key) >= 0
	})
	return &Iterator[V]{entries: entries, pos: pos}
}

// ReverseIterator returns a cursor over all entries in descending key order.
func (m *KeyMap[V]) ReverseIterator() *Iterator[V] {
	entries := m.flatten()
	return &Iterator[V]{entries: entries, pos: len(entries) - 1, reverse: true}
}

// Next returns the cursor's current entry and advances it. The second return
// is false once the cursor is exhausted.
func (i *Iterator[V]) Next() (Entry[V], bool) {
	if i.pos < 0 || i.pos >= len(i.entries) {
		return Entry[V]{}, false
	}
	entry := i.entries[i.pos]
	if i.reverse {
		i.pos--
	} else {
		i.pos++
	}
	return entry, true
}
