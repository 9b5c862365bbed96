package datacube

import (
	"slices"

	"github.com/gracefulearth/gopolytope/tree"
)

// Presents an axis stored in descending order in ascending order, so range queries and tree insertion
// see a monotone enumeration.
type Reverse struct {
	axis string
}

func NewReverse(axis string) *Reverse {
	return &Reverse{axis: axis}
}

func (t *Reverse) Name() string { return "reverse" }
func (t *Reverse) Axis() string { return t.axis }

func (t *Reverse) Wrap(c *Cube, axis Axis, next Stage) Stage {
	return &reverseStage{typ: axis.Type, next: next}
}

func (t *Reverse) Unmap(c *Cube, path tree.Path) (tree.Path, error) {
	return path, nil
}

type reverseStage struct {
	typ  AxisType
	next Stage
}

func (s *reverseStage) FindIndexes(path tree.Path) ([]any, error) {
	values, err := s.next.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	values = slices.Clone(values)
	slices.SortStableFunc(values, s.typ.CompareValues)
	return values, nil
}

func (s *reverseStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	values, err := s.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	return between(s.typ, values, low, up)
}

func (s *reverseStage) Remap(low, up float64) []Range {
	return []Range{{Low: low, Up: up}}
}
