package datacube

import (
	"slices"

	"github.com/gracefulearth/gopolytope/tree"
)

// A closed interval on one axis, in the float representation of the axis values.
type Range struct {
	Low float64
	Up  float64
}

// Enumerates the native values of one axis below a partially resolved request path.
type Indexer interface {
	FindIndexes(path tree.Path) ([]any, error)
}

type IndexerFunc func(path tree.Path) ([]any, error)

func (f IndexerFunc) FindIndexes(path tree.Path) ([]any, error) {
	return f(path)
}

// One layer of the per-axis transformation pipeline. Every request axis resolves through a chain of
// stages, outermost transformation first, ending in the null stage over the datacube source. A stage
// may rewrite the range it passes to the next stage and the values it receives back.
type Stage interface {
	Indexer
	// The native values v below path with low <= v <= up, in ascending order of their float form.
	FindIndicesBetween(path tree.Path, low, up float64) ([]any, error)
	// The ranges the next stage is queried with for a requested range.
	Remap(low, up float64) []Range
}

type nullStage struct {
	typ  AxisType
	next Indexer
}

// The identity stage. It enumerates whatever the indexer returns, filters that enumeration linearly
// for range queries, and passes ranges through unchanged. Plain axes resolve through it alone.
func Null(typ AxisType, next Indexer) Stage {
	return nullStage{typ: typ, next: next}
}

func (s nullStage) FindIndexes(path tree.Path) ([]any, error) {
	return s.next.FindIndexes(path)
}

func (s nullStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	values, err := s.next.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	return between(s.typ, values, low, up)
}

func (s nullStage) Remap(low, up float64) []Range {
	return []Range{{Low: low, Up: up}}
}

// Filters values to those whose float form lies in [low, up], sorted ascending.
func between(typ AxisType, values []any, low, up float64) ([]any, error) {
	if !typ.Sliceable() {
		return nil, UnsupportedError("range queries on " + typ.String() + " axis")
	}
	found := make([]any, 0, len(values))
	for _, v := range values {
		if f := typ.ToFloat(v); low <= f && f <= up {
			found = append(found, v)
		}
	}
	slices.SortStableFunc(found, typ.CompareValues)
	return found, nil
}

// Sorts values ascending and drops neighbours that compare equal within the tolerance of the type.
func uniqueSorted(typ AxisType, values []any) []any {
	slices.SortStableFunc(values, typ.CompareValues)
	return slices.CompactFunc(values, func(a, b any) bool {
		return typ.CompareTolerant(a, b) == 0
	})
}

// Replaces the coordinate on axis with the given coordinates, in place of the original. The path is
// returned unchanged when it does not resolve axis.
func replace(path tree.Path, axis string, with ...tree.Coordinate) tree.Path {
	i := slices.IndexFunc(path, func(c tree.Coordinate) bool { return c.Axis == axis })
	if i < 0 {
		return path
	}
	out := make(tree.Path, 0, len(path)-1+len(with))
	out = append(out, path[:i]...)
	out = append(out, with...)
	return append(out, path[i+1:]...)
}
