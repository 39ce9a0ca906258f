// Package index provides an in-memory B+ tree for ordered keys.
package index

import (
	"cmp"
	"sort"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 32

// Tree is a B+ tree mapping ordered keys to values. It is safe for
// concurrent use; lookups share a read lock.
type Tree[K cmp.Ordered, V any] struct {
	mu     sync.RWMutex
	root   *node[K, V]
	order  int
	height int
	size   int
}

// node is either a leaf holding values or an internal node holding children.
type node[K cmp.Ordered, V any] struct {
	leaf     bool
	keys     []K
	values   []V
	children []*node[K, V]
	parent   *node[K, V]
	next     *node[K, V] // leaf chain for ordered scans
}

// New creates a tree with the given order. Orders below 3 use DefaultOrder.
func New[K cmp.Ordered, V any](order int) *Tree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &Tree[K, V]{
		root:   &node[K, V]{leaf: true},
		order:  order,
		height: 1,
	}
}

// Len returns the number of keys.
func (t *Tree[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.size
}

// Height returns the number of levels, 1 for a lone leaf.
func (t *Tree[K, V]) Height() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.height
}

// Search returns the value stored under key.
func (t *Tree[K, V]) Search(key K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.findLeaf(key)
	i, ok := sort.Find(len(leaf.keys), func(i int) int { return cmp.Compare(key, leaf.keys[i]) })
	if !ok {
		var zero V
		return zero, false
	}
	return leaf.values[i], true
}

// Insert stores value under key if key is absent and reports whether it
// did. An existing entry is left untouched.
func (t *Tree[K, V]) Insert(key K, value V) bool {
	return t.insert(key, value, false)
}

// Put stores value under key, replacing any existing entry.
func (t *Tree[K, V]) Put(key K, value V) {
	t.insert(key, value, true)
}

// Ascend calls fn for each key in [lo, hi] in order until fn returns false.
func (t *Tree[K, V]) Ascend(lo, hi K, fn func(K, V) bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	leaf := t.findLeaf(lo)
	i := sort.Search(len(leaf.keys), func(i int) bool { return leaf.keys[i] >= lo })
	for ; leaf != nil; leaf, i = leaf.next, 0 {
		for ; i < len(leaf.keys); i++ {
			if leaf.keys[i] > hi || !fn(leaf.keys[i], leaf.values[i]) {
				return
			}
		}
	}
}

func (t *Tree[K, V]) findLeaf(key K) *node[K, V] {
	n := t.root
	for !n.leaf {
		n = n.children[childIndex(n.keys, key)]
	}
	return n
}

// childIndex is the child to follow for key: keys equal to a separator
// live in the right subtree.
func childIndex[K cmp.Ordered](keys []K, key K) int {
	return sort.Search(len(keys), func(i int) bool { return key < keys[i] })
}

func (t *Tree[K, V]) insert(key K, value V, replace bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	leaf := t.findLeaf(key)
	i, found := sort.Find(len(leaf.keys), func(i int) int { return cmp.Compare(key, leaf.keys[i]) })
	if found {
		if replace {
			leaf.values[i] = value
		}
		return false
	}

	leaf.keys = insertAt(leaf.keys, i, key)
	leaf.values = insertAt(leaf.values, i, value)
	t.size++

	if len(leaf.keys) > t.order {
		t.splitLeaf(leaf)
	}
	return true
}

// splitLeaf moves the upper half of an overflowing leaf into a new sibling.
func (t *Tree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2
	sibling := &node[K, V]{
		leaf:   true,
		keys:   append([]K(nil), leaf.keys[mid:]...),
		values: append([]V(nil), leaf.values[mid:]...),
		parent: leaf.parent,
		next:   leaf.next,
	}
	leaf.keys = leaf.keys[:mid:mid]
	leaf.values = leaf.values[:mid:mid]
	leaf.next = sibling

	t.insertInParent(leaf, sibling.keys[0], sibling)
}

// splitInternal moves the upper half of an overflowing internal node into a
// new sibling and pushes the middle key up.
func (t *Tree[K, V]) splitInternal(n *node[K, V]) {
	mid := len(n.keys) / 2
	up := n.keys[mid]
	sibling := &node[K, V]{
		keys:     append([]K(nil), n.keys[mid+1:]...),
		children: append([]*node[K, V](nil), n.children[mid+1:]...),
		parent:   n.parent,
	}
	for _, c := range sibling.children {
		c.parent = sibling
	}
	n.keys = n.keys[:mid:mid]
	n.children = n.children[: mid+1 : mid+1]

	t.insertInParent(n, up, sibling)
}

func (t *Tree[K, V]) insertInParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		root := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent, right.parent = root, root
		t.root = root
		t.height++
		return
	}

	i := childIndex(parent.keys, key)
	parent.keys = insertAt(parent.keys, i, key)
	parent.children = insertAt(parent.children, i+1, right)
	right.parent = parent

	if len(parent.keys) > t.order {
		t.splitInternal(parent)
	}
}

func insertAt[T any](s []T, i int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
