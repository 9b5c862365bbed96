package tree

import (
	"cmp"
	"fmt"
	"strings"
)

// A single resolved step on a root-to-leaf path: the name of an axis and the native value chosen on it.
type Coordinate struct {
	Axis  string
	Value any
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%s=%v", c.Axis, c.Value)
}

// An ordered sequence of resolved coordinates, outermost axis first. A Path taken from a leaf of a
// Tree denotes one fully resolved, addressable location in the datacube index space.
type Path []Coordinate

// Returns the value resolved on the named axis, if the path contains that axis.
func (p Path) Get(axis string) (any, bool) {
	for _, c := range p {
		if c.Axis == axis {
			return c.Value, true
		}
	}
	return nil, false
}

// Returns a new path extended by one coordinate. The receiver is never modified, so paths can be shared
// safely between sibling branches that are resolved independently.
func (p Path) With(axis string, value any) Path {
	next := make(Path, len(p), len(p)+1)
	copy(next, p)
	return append(next, Coordinate{Axis: axis, Value: value})
}

// Returns a copy of the path with the named axis removed, or the path itself if the axis is absent.
func (p Path) Without(axis string) Path {
	for i, c := range p {
		if c.Axis == axis {
			next := make(Path, 0, len(p)-1)
			next = append(next, p[:i]...)
			return append(next, p[i+1:]...)
		}
	}
	return p
}

// The axis names of the path, in path order.
func (p Path) Axes() []string {
	axes := make([]string, len(p))
	for i, c := range p {
		axes[i] = c.Axis
	}
	return axes
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, c := range p {
		parts[i] = c.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Orders two values resolved on the same axis. A result of zero means the values are the same
// location on that axis, which is what the tree uses to deduplicate siblings.
type Compare func(axis string, a, b any) int

// A Compare usable when the values carry no axis-specific tolerance. Ordered builtin types compare
// naturally; values of different or unknown types fall back to comparing their printed form.
func DefaultCompare(axis string, a, b any) int {
	switch va := a.(type) {
	case int:
		if vb, ok := b.(int); ok {
			return cmp.Compare(va, vb)
		}
	case int64:
		if vb, ok := b.(int64); ok {
			return cmp.Compare(va, vb)
		}
	case float64:
		if vb, ok := b.(float64); ok {
			return cmp.Compare(va, vb)
		}
	case float32:
		if vb, ok := b.(float32); ok {
			return cmp.Compare(va, vb)
		}
	case string:
		if vb, ok := b.(string); ok {
			return cmp.Compare(va, vb)
		}
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
