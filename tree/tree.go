// Package tree implements the Tensor Index Tree: the hierarchical result of slicing a datacube with a set
// of shapes. Every non-root node pairs an axis name with one resolved native value on that axis, and
// every root-to-leaf path is one resolved coordinate in the datacube's index space.
//
// Nodes live in an arena owned by the Tree and are addressed by NodeID. Children are owned index lists
// kept sorted by value; the parent link is a plain index used only for traversal. A removed subtree is
// marked dead in the arena and is never reachable again, so no operation can introduce a cycle.
//
// A Tree is not safe for concurrent mutation. Build independent trees concurrently and Merge them from a
// single goroutine.
package tree

import (
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"
)

// Addresses a node inside the arena of one Tree.
type NodeID int32

// The root of every tree. It carries no axis and no value.
const Root NodeID = 0

const noParent NodeID = -1

type node struct {
	axis     string
	value    any
	parent   NodeID
	children []NodeID
	removed  bool
}

type Tree struct {
	nodes   []node
	compare Compare
	live    int
}

// Creates an empty tree whose siblings are ordered and deduplicated with the given comparison. A nil
// compare uses DefaultCompare.
func New(compare Compare) *Tree {
	if compare == nil {
		compare = DefaultCompare
	}
	return &Tree{
		nodes:   []node{{parent: noParent}},
		compare: compare,
	}
}

func (t *Tree) get(id NodeID) *node {
	if id < 0 || int(id) >= len(t.nodes) || t.nodes[id].removed {
		panic(fmt.Sprintf("tree: invalid or removed node %d", id))
	}
	return &t.nodes[id]
}

// Appends a child holding value on axis under parent, unless a sibling already holds an equal value, in
// which case the existing sibling is returned. The boolean reports whether a new node was created.
//
// Inserting an axis that differs from the axis of the existing siblings, or an axis already resolved by
// an ancestor, violates the tree's ordering invariant and panics.
func (t *Tree) Insert(parent NodeID, axis string, value any) (NodeID, bool) {
	p := t.get(parent)
	if len(p.children) > 0 {
		if sibAxis := t.nodes[p.children[0]].axis; sibAxis != axis {
			panic(fmt.Sprintf("tree: cannot insert axis %q next to siblings on axis %q", axis, sibAxis))
		}
	}
	for anc := parent; anc != Root; anc = t.nodes[anc].parent {
		if t.nodes[anc].axis == axis {
			panic(fmt.Sprintf("tree: axis %q already resolved on this path", axis))
		}
	}

	pos, found := slices.BinarySearchFunc(p.children, value, func(child NodeID, v any) int {
		return t.compare(axis, t.nodes[child].value, v)
	})
	if found {
		return p.children[pos], false
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{axis: axis, value: value, parent: parent})
	// the append may have moved the arena
	p = &t.nodes[parent]
	p.children = slices.Insert(p.children, pos, id)
	t.live++
	return id, true
}

// Inserts every coordinate of path below the root, reusing existing nodes, and returns the final node.
func (t *Tree) InsertPath(path Path) NodeID {
	current := Root
	for _, c := range path {
		current, _ = t.Insert(current, c.Axis, c.Value)
	}
	return current
}

// Removes the node and its whole subtree. The root cannot be removed; removing it clears the tree instead.
func (t *Tree) Remove(id NodeID) {
	n := t.get(id)
	if id == Root {
		for _, child := range slices.Clone(n.children) {
			t.Remove(child)
		}
		return
	}
	parent := &t.nodes[n.parent]
	if pos := slices.Index(parent.children, id); pos >= 0 {
		parent.children = slices.Delete(parent.children, pos, pos+1)
	}
	t.kill(id)
}

func (t *Tree) kill(id NodeID) {
	n := &t.nodes[id]
	for _, child := range n.children {
		t.kill(child)
	}
	n.children = nil
	n.value = nil
	n.removed = true
	t.live--
}

// Removes the node and then any ancestor left without children, so that a branch with no surviving
// leaves disappears entirely.
func (t *Tree) RemoveBranch(id NodeID) {
	for id != Root {
		parent := t.get(id).parent
		t.Remove(id)
		if len(t.nodes[parent].children) > 0 {
			return
		}
		id = parent
	}
}

// Removes every node whose subtree does not reach the given depth, where the root is depth 0 and a
// fully resolved leaf sits at the depth equal to the number of axes. Returns the number of branches
// removed.
func (t *Tree) PruneEmpty(depth int) int {
	pruned := 0
	var visit func(id NodeID, d int) bool
	visit = func(id NodeID, d int) bool {
		n := &t.nodes[id]
		if len(n.children) == 0 {
			return d >= depth
		}
		for _, child := range slices.Clone(n.children) {
			if !visit(child, d+1) {
				t.Remove(child)
				pruned++
			}
		}
		return len(t.nodes[id].children) > 0
	}
	visit(Root, 0)
	return pruned
}

// Merges every branch of other into this tree. Branches that agree on a prefix share the existing nodes;
// values already present are not duplicated.
func (t *Tree) Merge(other *Tree) {
	if other == nil {
		return
	}
	var merge func(mine NodeID, theirs NodeID)
	merge = func(mine NodeID, theirs NodeID) {
		for _, child := range other.nodes[theirs].children {
			c := &other.nodes[child]
			id, _ := t.Insert(mine, c.axis, c.value)
			merge(id, child)
		}
	}
	merge(Root, Root)
}

// The axis of a node. The root has an empty axis.
func (t *Tree) Axis(id NodeID) string {
	return t.get(id).axis
}

// The native value held by a node. The root holds nil.
func (t *Tree) Value(id NodeID) any {
	return t.get(id).value
}

// The parent of a node; false for the root.
func (t *Tree) Parent(id NodeID) (NodeID, bool) {
	p := t.get(id).parent
	return p, p != noParent
}

// The children of a node, in value order.
func (t *Tree) Children(id NodeID) []NodeID {
	return slices.Clone(t.get(id).children)
}

// The depth of a node, where the root is 0.
func (t *Tree) Depth(id NodeID) int {
	d := 0
	for n := t.get(id); n.parent != noParent; n = &t.nodes[n.parent] {
		d++
	}
	return d
}

// The coordinates from the root down to and including the node.
func (t *Tree) Path(id NodeID) Path {
	path := Path{}
	for n := id; n != Root; n = t.nodes[n].parent {
		nd := t.get(n)
		path = append(path, Coordinate{Axis: nd.axis, Value: nd.value})
	}
	slices.Reverse(path)
	return path
}

// The number of live non-root nodes.
func (t *Tree) Len() int {
	return t.live
}

// Reports whether the tree holds no resolved coordinate at all.
func (t *Tree) Empty() bool {
	return len(t.nodes[Root].children) == 0
}

// Iterate over the root-to-leaf paths of the tree, in value order. The sequence is lazy and can be
// ranged over any number of times; each pass reflects the tree at the time it runs.
func (t *Tree) Leaves() iter.Seq[Path] {
	return func(yield func(Path) bool) {
		var walk func(id NodeID, prefix Path) bool
		walk = func(id NodeID, prefix Path) bool {
			n := &t.nodes[id]
			if len(n.children) == 0 {
				if id == Root {
					return true
				}
				return yield(prefix)
			}
			for _, child := range n.children {
				c := &t.nodes[child]
				if !walk(child, prefix.With(c.axis, c.value)) {
					return false
				}
			}
			return true
		}
		walk(Root, Path{})
	}
}

// Counts the leaves of the tree.
func (t *Tree) LeafCount() int {
	count := 0
	for range t.Leaves() {
		count++
	}
	return count
}

// Writes an indented rendering of the tree, one node per line.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	sb.WriteString("root\n")
	var walk func(id NodeID, level int)
	walk = func(id NodeID, level int) {
		for _, child := range t.nodes[id].children {
			c := &t.nodes[child]
			sb.WriteString(strings.Repeat("\t", level))
			fmt.Fprintf(&sb, "↳%s=%v\n", c.axis, c.value)
			walk(child, level+1)
		}
	}
	walk(Root, 0)
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

func (t *Tree) String() string {
	var sb strings.Builder
	t.WriteTo(&sb)
	return sb.String()
}
