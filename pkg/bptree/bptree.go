// Package bptree is an in-memory B+tree ordered by a caller-supplied compare
// function, used to hold composite keys in codec order.
package bptree

import (
	"cmp"
	"sync"
)

// DefaultOrder is the fallback branching factor if a user-supplied order is too small.
const DefaultOrder = 4

// CompareFunc orders two keys, returning a negative number, zero or a
// positive number.
type CompareFunc[K any] func(a, b K) int

// BPlusTree maps keys to values in compare order. All methods are safe for
// concurrent use: readers share the tree lock and writers hold it exclusively.
type BPlusTree[K any, V any] struct {
	m       sync.RWMutex
	root    *node[K, V]
	order   int
	height  int
	size    int
	compare CompareFunc[K]
}

// node represents both internal and leaf nodes in the B+Tree.
type node[K any, V any] struct {
	isLeaf   bool
	keys     []K
	children []*node[K, V] // used if !isLeaf
	values   []V           // used if isLeaf
	parent   *node[K, V]
	next     *node[K, V] // leaf-link pointer, for range scans
}

// NewBPlusTree creates a B+Tree with the given order and key ordering.
// If the specified order < 3, we fall back to DefaultOrder.
func NewBPlusTree[K any, V any](order int, compare CompareFunc[K]) *BPlusTree[K, V] {
	if order < 3 {
		order = DefaultOrder
	}
	return &BPlusTree[K, V]{
		root:    newLeaf[K, V](order),
		order:   order,
		height:  1,
		compare: compare,
	}
}

// NewOrdered creates a B+Tree over naturally ordered keys.
func NewOrdered[K cmp.Ordered, V any](order int) *BPlusTree[K, V] {
	return NewBPlusTree[K, V](order, cmp.Compare[K])
}

func newLeaf[K any, V any](order int) *node[K, V] {
	return &node[K, V]{
		isLeaf: true,
		keys:   make([]K, 0, order+1),
		values: make([]V, 0, order+1),
	}
}

// Height returns the number of levels, counting the leaves.
func (tree *BPlusTree[K, V]) Height() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.height
}

// Len returns the number of keys.
func (tree *BPlusTree[K, V]) Len() int {
	tree.m.RLock()
	defer tree.m.RUnlock()
	return tree.size
}

// findChildIndex determines which child pointer to follow in an internal
// node: child i holds the keys below keys[i].
func (tree *BPlusTree[K, V]) findChildIndex(keys []K, searchKey K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if tree.compare(searchKey, keys[mid]) < 0 {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// leafIndex returns the position of the first key >= searchKey in a leaf and
// whether that key is equal to searchKey.
func (tree *BPlusTree[K, V]) leafIndex(keys []K, searchKey K) (int, bool) {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if tree.compare(keys[mid], searchKey) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, lo < len(keys) && tree.compare(keys[lo], searchKey) == 0
}

func (tree *BPlusTree[K, V]) findLeaf(key K) *node[K, V] {
	current := tree.root
	for !current.isLeaf {
		current = current.children[tree.findChildIndex(current.keys, key)]
	}
	return current
}

// Search locates the value associated with key.
func (tree *BPlusTree[K, V]) Search(key K) (V, bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(key)
	if idx, ok := tree.leafIndex(leaf.keys, key); ok {
		return leaf.values[idx], true
	}
	var zero V
	return zero, false
}

// Insert adds a (key, value) pair, replacing the value of an existing key.
// It reports whether the key was new.
func (tree *BPlusTree[K, V]) Insert(key K, value V) bool {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	if !tree.insertKeyValueInLeaf(leaf, key, value) {
		return false
	}
	tree.size++
	if len(leaf.keys) > tree.order {
		tree.splitLeaf(leaf)
	}
	return true
}

func (tree *BPlusTree[K, V]) insertKeyValueInLeaf(leaf *node[K, V], key K, value V) bool {
	idx, found := tree.leafIndex(leaf.keys, key)
	if found {
		leaf.values[idx] = value
		return false
	}
	leaf.keys = append(leaf.keys, key)
	leaf.values = append(leaf.values, value)

	// Shift elements to make room at idx
	copy(leaf.keys[idx+1:], leaf.keys[idx:])
	leaf.keys[idx] = key

	copy(leaf.values[idx+1:], leaf.values[idx:])
	leaf.values[idx] = value
	return true
}

// Delete removes key and reports whether it was present. Leaves are not
// merged: separator keys in internal nodes stay valid bounds for routing
// even when the leaves beneath them shrink or empty.
func (tree *BPlusTree[K, V]) Delete(key K) bool {
	tree.m.Lock()
	defer tree.m.Unlock()

	leaf := tree.findLeaf(key)
	idx, found := tree.leafIndex(leaf.keys, key)
	if !found {
		return false
	}
	var zeroK K
	var zeroV V
	copy(leaf.keys[idx:], leaf.keys[idx+1:])
	leaf.keys[len(leaf.keys)-1] = zeroK
	leaf.keys = leaf.keys[:len(leaf.keys)-1]
	copy(leaf.values[idx:], leaf.values[idx+1:])
	leaf.values[len(leaf.values)-1] = zeroV
	leaf.values = leaf.values[:len(leaf.values)-1]
	tree.size--
	return true
}

// Ascend calls fn for every key >= from in ascending order until fn returns
// false. The tree is read-locked for the duration of the walk, so fn must
// not modify the tree.
func (tree *BPlusTree[K, V]) Ascend(from K, fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.findLeaf(from)
	idx, _ := tree.leafIndex(leaf.keys, from)
	tree.walk(leaf, idx, fn)
}

// AscendAll calls fn for every key in ascending order until fn returns false.
func (tree *BPlusTree[K, V]) AscendAll(fn func(key K, value V) bool) {
	tree.m.RLock()
	defer tree.m.RUnlock()

	leaf := tree.root
	for !leaf.isLeaf {
		leaf = leaf.children[0]
	}
	tree.walk(leaf, 0, fn)
}

func (tree *BPlusTree[K, V]) walk(leaf *node[K, V], idx int, fn func(K, V) bool) {
	for ; leaf != nil; leaf, idx = leaf.next, 0 {
		for ; idx < len(leaf.keys); idx++ {
			if !fn(leaf.keys[idx], leaf.values[idx]) {
				return
			}
		}
	}
}

// splitLeaf handles splitting a leaf node that has overflowed.
func (tree *BPlusTree[K, V]) splitLeaf(leaf *node[K, V]) {
	mid := len(leaf.keys) / 2

	sibling := newLeaf[K, V](tree.order)
	sibling.keys = append(sibling.keys, leaf.keys[mid:]...)
	sibling.values = append(sibling.values, leaf.values[mid:]...)
	sibling.next = leaf.next
	sibling.parent = leaf.parent

	// Adjust the original leaf, clearing the moved tail so it can be collected
	clear(leaf.keys[mid:])
	clear(leaf.values[mid:])
	leaf.keys = leaf.keys[:mid]
	leaf.values = leaf.values[:mid]
	leaf.next = sibling

	tree.insertKeyInParent(leaf, sibling.keys[0], sibling)
}

// insertKeyInParent links right after left under left's parent, separated by
// key, creating a new root when left is the root.
func (tree *BPlusTree[K, V]) insertKeyInParent(left *node[K, V], key K, right *node[K, V]) {
	parent := left.parent
	if parent == nil {
		newRoot := &node[K, V]{
			keys:     []K{key},
			children: []*node[K, V]{left, right},
		}
		left.parent = newRoot
		right.parent = newRoot
		tree.root = newRoot
		tree.height++
		return
	}

	idx := tree.findChildIndex(parent.keys, key)

	parent.keys = append(parent.keys, key)
	copy(parent.keys[idx+1:], parent.keys[idx:])
	parent.keys[idx] = key

	parent.children = append(parent.children, right)
	copy(parent.children[idx+2:], parent.children[idx+1:])
	parent.children[idx+1] = right

	right.parent = parent

	if len(parent.keys) > tree.order {
		tree.splitInternalNode(parent)
	}
}

// splitInternalNode handles splitting an internal node that has overflowed.
// The middle key moves up to the parent.
func (tree *BPlusTree[K, V]) splitInternalNode(internal *node[K, V]) {
	mid := len(internal.keys) / 2
	splitKey := internal.keys[mid]

	sibling := &node[K, V]{
		keys:     append([]K{}, internal.keys[mid+1:]...),
		children: append([]*node[K, V]{}, internal.children[mid+1:]...),
		parent:   internal.parent,
	}
	for _, child := range sibling.children {
		child.parent = sibling
	}

	internal.keys = internal.keys[:mid]
	internal.children = internal.children[:mid+1]

	tree.insertKeyInParent(internal, splitKey, sibling)
}
