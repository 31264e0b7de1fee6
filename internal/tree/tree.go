// Package tree implements the unbalanced binary search tree that orders
// experience-buffer indices by sampling priority.
package tree

type node struct {
	priority float64
	index    int
	left     *node
	right    *node
}

// Tree is a max-priority multiset of (priority, buffer index) pairs.
// Duplicate priorities are allowed and descend right, so among equal
// priorities the most recently inserted entry pops first. No rebalancing is
// performed; depth can degrade to O(n) under sorted insertion order.
//
// The tree keeps no node count. The owning store tracks size externally,
// alongside the experience buffer it shares lifecycle accounting with.
type Tree struct {
	root *node
}

// New returns an empty tree.
func New() *Tree {
	return &Tree{}
}

// Empty reports whether the tree has no entries.
func (t *Tree) Empty() bool {
	return t.root == nil
}

// Insert adds an entry as a new leaf. Any priority is accepted, including
// +Inf, which the store uses to guarantee fresh experience is sampled
// before anything with a real TD-error.
func (t *Tree) Insert(priority float64, index int) {
	n := &node{priority: priority, index: index}
	if t.root == nil {
		t.root = n
		return
	}
	cur := t.root
	for {
		if priority >= cur.priority {
			if cur.right == nil {
				cur.right = n
				return
			}
			cur = cur.right
		} else {
			if cur.left == nil {
				cur.left = n
				return
			}
			cur = cur.left
		}
	}
}

// PopMax detaches and returns the maximum-priority entry. The maximum lives
// at the end of the rightmost path; its left subtree, if any, is spliced
// into the parent's right-child slot.
//
// Calling PopMax on an empty tree is a contract violation and panics; the
// owning store gates every pop on its size counter.
func (t *Tree) PopMax() (float64, int) {
	if t.root == nil {
		panic("tree: PopMax on empty tree")
	}
	var parent *node
	cur := t.root
	for cur.right != nil {
		parent = cur
		cur = cur.right
	}
	if parent == nil {
		t.root = cur.left
	} else {
		parent.right = cur.left
	}
	return cur.priority, cur.index
}

// Depth returns the length of the longest root-to-leaf path, 0 for an
// empty tree.
func (t *Tree) Depth() int {
	return depth(t.root)
}

func depth(n *node) int {
	if n == nil {
		return 0
	}
	l := depth(n.left)
	r := depth(n.right)
	if l > r {
		return l + 1
	}
	return r + 1
}
