package datacube

import (
	"fmt"
	"slices"

	"github.com/gracefulearth/gopolytope/tree"
)

type InMemoryAxis struct {
	Axis
	Values []any
}

type branchValues struct {
	when   tree.Path
	axis   string
	values []any
}

// A Source holding all axis values in memory. By default every axis has the same values regardless
// of the path leading to it, like a dense hypercube; Branch overrides the values of one axis below a
// particular set of coordinates to describe sparse archives.
type InMemorySource struct {
	axes     []Axis
	values   map[string][]any
	branches []branchValues
}

func NewInMemorySource(axes ...InMemoryAxis) *InMemorySource {
	src := &InMemorySource{values: make(map[string][]any, len(axes))}
	for _, a := range axes {
		src.axes = append(src.axes, a.Axis)
		src.values[a.Name] = slices.Clone(a.Values)
	}
	return src
}

// Overrides the values of axis whenever every coordinate of when is present in the lookup path. Later
// branches take precedence over earlier ones.
func (s *InMemorySource) Branch(when tree.Path, axis string, values ...any) *InMemorySource {
	s.branches = append(s.branches, branchValues{when: slices.Clone(when), axis: axis, values: values})
	return s
}

func (s *InMemorySource) Axes() []Axis {
	return slices.Clone(s.axes)
}

func (s *InMemorySource) Values(path tree.Path, axis string) ([]any, error) {
	values, ok := s.values[axis]
	if !ok {
		return nil, AxisNotFoundError{Axis: axis}
	}
	for i := len(s.branches) - 1; i >= 0; i-- {
		b := s.branches[i]
		if b.axis == axis && matches(path, b.when) {
			return slices.Clone(b.values), nil
		}
	}
	return slices.Clone(values), nil
}

func matches(path, when tree.Path) bool {
	for _, c := range when {
		v, ok := path.Get(c.Axis)
		if !ok || fmt.Sprint(v) != fmt.Sprint(c.Value) {
			return false
		}
	}
	return true
}
