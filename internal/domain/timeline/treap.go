package timeline

import "math/rand"

// startIndex is an ordered map from an input's start time to its index,
// implemented as a treap. Start keys are unique; Put on an existing key
// replaces the stored index.
type startIndex struct {
	root *node
	rng  *rand.Rand
}

type node struct {
	start float64
	index int
	prio  uint64
	left  *node
	right *node
	size  int
}

func newStartIndex(seed int64) *startIndex {
	return &startIndex{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // balancing only
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

// insert adds start or replaces the index stored under it.
func insert(n *node, start float64, index int, prio uint64) *node {
	if n == nil {
		return &node{start: start, index: index, prio: prio, size: 1}
	}
	switch {
	case start == n.start:
		n.index = index
		return n
	case start < n.start:
		n.left = insert(n.left, start, index, prio)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	default:
		n.right = insert(n.right, start, index, prio)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, start float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case start == n.start:
		// Rotate the higher-priority child up until the node is a leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, start)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, start)
		}
	case start < n.start:
		n.left = deleteNode(n.left, start)
	default:
		n.right = deleteNode(n.right, start)
	}
	fix(n)
	return n
}

// Put stores index under start.
func (s *startIndex) Put(start float64, index int) {
	s.root = insert(s.root, start, index, s.rng.Uint64())
}

// Delete removes start if present.
func (s *startIndex) Delete(start float64) {
	s.root = deleteNode(s.root, start)
}

// Get returns the index stored under start.
func (s *startIndex) Get(start float64) (int, bool) {
	for n := s.root; n != nil; {
		switch {
		case start == n.start:
			return n.index, true
		case start < n.start:
			n = n.left
		default:
			n = n.right
		}
	}
	return 0, false
}

// Floor returns the entry with the greatest start <= t.
func (s *startIndex) Floor(t float64) *node {
	var best *node
	for n := s.root; n != nil; {
		if n.start <= t {
			best = n
			n = n.right
		} else {
			n = n.left
		}
	}
	return best
}

// Higher returns the entry with the smallest start > t.
func (s *startIndex) Higher(t float64) *node {
	var best *node
	for n := s.root; n != nil; {
		if n.start > t {
			best = n
			n = n.left
		} else {
			n = n.right
		}
	}
	return best
}

// Min returns the entry with the smallest start.
func (s *startIndex) Min() *node {
	n := s.root
	if n == nil {
		return nil
	}
	for n.left != nil {
		n = n.left
	}
	return n
}

// Len returns the number of stored starts.
func (s *startIndex) Len() int { return nsize(s.root) }

// Reset drops every entry.
func (s *startIndex) Reset() { s.root = nil }

// Ascend calls fn for each entry in ascending start order until fn returns false.
func (s *startIndex) Ascend(fn func(start float64, index int) bool) {
	ascend(s.root, fn)
}

func ascend(n *node, fn func(float64, int) bool) bool {
	if n == nil {
		return true
	}
	if !ascend(n.left, fn) {
		return false
	}
	if !fn(n.start, n.index) {
		return false
	}
	return ascend(n.right, fn)
}
