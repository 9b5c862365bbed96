package tree

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeInsertDeduplicates(t *testing.T) {
	tr := New(nil)
	a, created := tr.Insert(Root, "step", 0)
	require.True(t, created)
	b, created := tr.Insert(Root, "step", 0)
	assert.False(t, created)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, tr.Len())
}

func TestTreeSiblingsNeverEqual(t *testing.T) {
	// arbitrary insert sequences must never produce two equal siblings
	for trial := range 50 {
		tr := New(nil)
		parents := []NodeID{Root}
		axes := []string{"a", "b", "c"}
		for range 200 {
			parent := parents[rand.IntN(len(parents))]
			depth := tr.Depth(parent)
			if depth >= len(axes) {
				continue
			}
			id, created := tr.Insert(parent, axes[depth], rand.IntN(5))
			if created {
				parents = append(parents, id)
			}
		}
		for _, id := range parents {
			children := tr.Children(id)
			values := make([]int, len(children))
			for i, c := range children {
				values[i] = tr.Value(c).(int)
			}
			assert.True(t, slices.IsSorted(values), "trial %d: children not ordered", trial)
			assert.Len(t, slices.Compact(slices.Clone(values)), len(values), "trial %d: duplicate sibling values %v", trial, values)
		}
	}
}

func TestTreeInsertPathIdempotent(t *testing.T) {
	tr := New(nil)
	path := Path{{"date", "20240101"}, {"step", 0}, {"param", "t2m"}}
	tr.InsertPath(path)
	tr.InsertPath(Path{{"date", "20240101"}, {"step", 6}, {"param", "t2m"}})
	before := tr.LeafCount()
	tr.InsertPath(path)
	assert.Equal(t, before, tr.LeafCount())
	assert.Equal(t, 2, before)
}

func TestTreeInsertPanicsOnAxisMismatch(t *testing.T) {
	tr := New(nil)
	tr.Insert(Root, "lat", 1.0)
	assert.Panics(t, func() { tr.Insert(Root, "lon", 1.0) })

	child, _ := tr.Insert(Root, "lat", 2.0)
	assert.Panics(t, func() { tr.Insert(child, "lat", 3.0) })
}

func TestTreeLeavesRestartable(t *testing.T) {
	tr := New(nil)
	tr.InsertPath(Path{{"x", 2}, {"y", 1}})
	tr.InsertPath(Path{{"x", 1}, {"y", 5}})
	tr.InsertPath(Path{{"x", 1}, {"y", 3}})

	first := slices.Collect(tr.Leaves())
	second := slices.Collect(tr.Leaves())
	assert.Equal(t, first, second)
	assert.Equal(t, []Path{
		{{"x", 1}, {"y", 3}},
		{{"x", 1}, {"y", 5}},
		{{"x", 2}, {"y", 1}},
	}, first)

	// stopping early must not break later passes
	for range tr.Leaves() {
		break
	}
	assert.Equal(t, 3, tr.LeafCount())
}

func TestTreeEmpty(t *testing.T) {
	tr := New(nil)
	assert.True(t, tr.Empty())
	assert.Zero(t, tr.LeafCount())
	tr.Insert(Root, "x", 1)
	assert.False(t, tr.Empty())
}

func TestTreePruneEmpty(t *testing.T) {
	tr := New(nil)
	tr.InsertPath(Path{{"x", 1}, {"y", 1}, {"z", 1}})
	tr.InsertPath(Path{{"x", 1}, {"y", 2}})
	tr.InsertPath(Path{{"x", 2}})

	pruned := tr.PruneEmpty(3)
	assert.Equal(t, 2, pruned)
	assert.Equal(t, []Path{{{"x", 1}, {"y", 1}, {"z", 1}}}, slices.Collect(tr.Leaves()))
	assert.Equal(t, 3, tr.Len())
}

func TestTreeRemoveBranchPropagates(t *testing.T) {
	tr := New(nil)
	leaf := tr.InsertPath(Path{{"x", 1}, {"y", 1}})
	tr.InsertPath(Path{{"x", 2}, {"y", 1}})

	tr.RemoveBranch(leaf)
	assert.Equal(t, []Path{{{"x", 2}, {"y", 1}}}, slices.Collect(tr.Leaves()))
	assert.Equal(t, 2, tr.Len())
	assert.Panics(t, func() { tr.Value(leaf) })
}

func TestTreeMerge(t *testing.T) {
	a := New(nil)
	a.InsertPath(Path{{"x", 1}, {"y", 1}})
	a.InsertPath(Path{{"x", 1}, {"y", 2}})
	b := New(nil)
	b.InsertPath(Path{{"x", 1}, {"y", 2}})
	b.InsertPath(Path{{"x", 3}, {"y", 1}})

	a.Merge(b)
	assert.Equal(t, 3, a.LeafCount())
	assert.Equal(t, 5, a.Len())

	// merging again changes nothing
	a.Merge(b)
	assert.Equal(t, 3, a.LeafCount())
}

func TestTreeToleranceCompare(t *testing.T) {
	tol := 1e-9
	tr := New(func(axis string, a, b any) int {
		va, vb := a.(float64), b.(float64)
		if va-vb > tol {
			return 1
		}
		if vb-va > tol {
			return -1
		}
		return 0
	})
	tr.Insert(Root, "lat", 10.0)
	_, created := tr.Insert(Root, "lat", 10.0+1e-12)
	assert.False(t, created)
}

func TestTreePathAndParent(t *testing.T) {
	tr := New(nil)
	leaf := tr.InsertPath(Path{{"x", 1}, {"y", "a"}})
	assert.Equal(t, Path{{"x", 1}, {"y", "a"}}, tr.Path(leaf))
	assert.Equal(t, 2, tr.Depth(leaf))
	parent, ok := tr.Parent(leaf)
	require.True(t, ok)
	assert.Equal(t, "x", tr.Axis(parent))
	_, ok = tr.Parent(Root)
	assert.False(t, ok)
}

func TestTreeWriteTo(t *testing.T) {
	tr := New(nil)
	tr.InsertPath(Path{{"x", 1}, {"y", 2}})
	out := tr.String()
	assert.True(t, strings.HasPrefix(out, "root\n"))
	assert.Contains(t, out, "↳x=1\n")
	assert.Contains(t, out, "\t↳y=2\n")
}

func TestPathHelpers(t *testing.T) {
	p := Path{{"x", 1}}
	q := p.With("y", 2)
	assert.Len(t, p, 1)
	assert.Equal(t, []string{"x", "y"}, q.Axes())
	v, ok := q.Get("y")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
	assert.Equal(t, Path{{"y", 2}}, q.Without("x"))
	assert.Equal(t, "{x=1, y=2}", q.String())
}
