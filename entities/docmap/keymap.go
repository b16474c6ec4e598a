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

// Package docmap provides an ordered associative container keyed by document
// key, backed by a red-black tree. Removal is implemented through tombstones:
// from the point of view of the tree a tombstoned node is a normal node that
// stays balanced the normal way, and cursors skip it.
package docmap

import (
	"github.com/driftdb/driftdb/entities/document"
)

type node[V any] struct {
	key       document.DocumentKey
	value     V
	tombstone bool
	red       bool
	parent    *node[V]
	left      *node[V]
	right     *node[V]
}

// KeyMap is an ordered map from document key to V. The zero value is ready to
// use. Not safe for concurrent mutation; iterators are snapshots taken at
// creation time.
type KeyMap[V any] struct {
	root *node[V]
	size int
}

func New[V any]() *KeyMap[V] {
	return &KeyMap[V]{}
}

// Len returns the number of live entries.
func (m *KeyMap[V]) Len() int {
	return m.size
}

func (m *KeyMap[V]) Get(key document.DocumentKey) (V, bool) {
	n := m.find(key)
	if n == nil || n.tombstone {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Insert sets the value for key, replacing any previous value and reviving a
// tombstoned entry.
func (m *KeyMap[V]) Insert(key document.DocumentKey, value V) {
	if existing := m.find(key); existing != nil {
		if existing.tombstone {
			existing.tombstone = false
			m.size++
		}
		existing.value = value
		return
	}

	n := &node[V]{key: key, value: value, red: true}
	m.attach(n)
	m.rebalance(n)
	m.size++
}

// Remove tombstones the entry for key. Removing an absent key is a no-op.
func (m *KeyMap[V]) Remove(key document.DocumentKey) {
	n := m.find(key)
	if n == nil || n.tombstone {
		return
	}
	var zero V
	n.value = zero
	n.tombstone = true
	m.size--
}

func (m *KeyMap[V]) find(key document.DocumentKey) *node[V] {
	current := m.root
	for current != nil {
		switch c := key.Compare(current.key); {
		case c == 0:
			return current
		case c < 0:
			current = current.left
		default:
			current = current.right
		}
	}
	return nil
}

func (m *KeyMap[V]) attach(n *node[V]) {
	if m.root == nil {
		n.red = false
		m.root = n
		return
	}
	current := m.root
	for {
		if n.key.Compare(current.key) < 0 {
			if current.left == nil {
				current.left = n
				n.parent = current
				return
			}
			current = current.left
		} else {
			if current.right == nil {
				current.right = n
				n.parent = current
				return
			}
			current = current.right
		}
	}
}

// rebalance restores the red-black invariants after n was attached as a red
// leaf. Relationships follow the usual naming: GP = grandparent, P = parent,
// U = uncle, N = the node that was just added.
func (m *KeyMap[V]) rebalance(n *node[V]) {
	for n.parent != nil && n.parent.red {
		parent := n.parent
		grandparent := parent.parent
		if parent == grandparent.left {
			uncle := grandparent.right
			if uncle != nil && uncle.red {
				// red uncle: recolouring up to the grandparent is enough, but
				// the grandparent turned red, so continue from there
				parent.red = false
				uncle.red = false
				grandparent.red = true
				n = grandparent
				continue
			}
			if n == parent.right {
				n = parent
				m.rotateLeft(n)
			}
			n.parent.red = false
			n.parent.parent.red = true
			m.rotateRight(n.parent.parent)
		} else {
			uncle := grandparent.left
			if uncle != nil && uncle.red {
				parent.red = false
				uncle.red = false
				grandparent.red = true
				n = grandparent
				continue
			}
			if n == parent.left {
				n = parent
				m.rotateRight(n)
			}
			n.parent.red = false
			n.parent.parent.red = true
			m.rotateLeft(n.parent.parent)
		}
	}
	m.root.red = false
}

func (m *KeyMap[V]) rotateLeft(x *node[V]) {
	y := x.right
	x.right = y.left
	if y.left != nil {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		m.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (m *KeyMap[V]) rotateRight(x *node[V]) {
	y := x.left
	x.left = y.right
	if y.right != nil {
		y.right.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == nil:
		m.root = y
	case x == x.parent.right:
		x.parent.right = y
	default:
		x.parent.left = y
	}
	y.right = x
	x.parent = y
}

// flatten collects the live entries in key order.
func (m *KeyMap[V]) flatten() []Entry[V] {
	out := make([]Entry[V], 0, m.size)
	var walk func(n *node[V])
	walk = func(n *node[V]) {
		if n == nil {
			return
		}
		walk(n.left)
		if !n.tombstone {
			out = append(out, Entry[V]{Key: n.key, Value: n.value})
		}
		walk(n.right)
	}
	walk(m.root)
	return out
}
