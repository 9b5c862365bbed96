package datacube

import (
	"fmt"
	"slices"

	"github.com/gracefulearth/gopolytope/grid"
	"github.com/gracefulearth/gopolytope/tree"
)

// Replaces a storage axis of linear grid indices with the two coordinate axes of a grid. The inner
// axis is coupled to the outer one: its values depend on the resolved outer value.
type GridMapping struct {
	axis   string
	Mapper grid.Mapper
}

func NewGridMapping(m grid.Mapper) *GridMapping {
	return &GridMapping{axis: m.BaseAxis(), Mapper: m}
}

func (t *GridMapping) Name() string { return "mapper" }
func (t *GridMapping) Axis() string { return t.axis }

func (t *GridMapping) RequestAxes(storage Axis) []Axis {
	axes := t.Mapper.MappedAxes()
	return []Axis{{Name: axes[0], Type: AxisFloat64}, {Name: axes[1], Type: AxisFloat64}}
}

func (t *GridMapping) BlockedAxes() []string { return nil }

// The mapper enumerates the grid itself, so the storage stage beneath is never consulted.
func (t *GridMapping) Wrap(c *Cube, axis Axis, next Stage) Stage {
	axes := t.Mapper.MappedAxes()
	if axis.Name == axes[0] {
		return firstAxisStage{m: t.Mapper}
	}
	return secondAxisStage{m: t.Mapper, first: axes[0]}
}

// Replaces a resolved coordinate pair by the linear grid index on the storage axis. A path resolving
// only the outer axis has no storage coordinate yet, so the outer axis is dropped.
func (t *GridMapping) Unmap(c *Cube, path tree.Path) (tree.Path, error) {
	axes := t.Mapper.MappedAxes()
	first, hasFirst := path.Get(axes[0])
	second, hasSecond := path.Get(axes[1])
	switch {
	case hasFirst && hasSecond:
		idx, err := t.Mapper.Unmap(first.(float64), second.(float64))
		if err != nil {
			return nil, err
		}
		path = replace(path, axes[0], tree.Coordinate{Axis: t.axis, Value: int64(idx)})
		return path.Without(axes[1]), nil
	case hasFirst:
		return path.Without(axes[0]), nil
	case hasSecond:
		return nil, fmt.Errorf("polytope: axis '%s' resolved without '%s'", axes[1], axes[0])
	default:
		return path, nil
	}
}

func floatsToValues(fs []float64) []any {
	values := make([]any, len(fs))
	for i, f := range fs {
		values[i] = f
	}
	return values
}

type firstAxisStage struct {
	m grid.Mapper
}

func (s firstAxisStage) FindIndexes(path tree.Path) ([]any, error) {
	return floatsToValues(s.m.FirstAxisValues()), nil
}

// Rows run from north to south.
func (s firstAxisStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	lats := s.m.MapFirstAxis(low, up)
	slices.Reverse(lats)
	return floatsToValues(lats), nil
}

func (s firstAxisStage) Remap(low, up float64) []Range {
	return []Range{{Low: low, Up: up}}
}

type secondAxisStage struct {
	m     grid.Mapper
	first string
}

func (s secondAxisStage) firstValue(path tree.Path) (float64, error) {
	v, ok := path.Get(s.first)
	if !ok {
		return 0, AxisUnderdefinedError{Axis: s.first}
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("polytope: axis '%s' holds %T, not a float64", s.first, v)
	}
	return f, nil
}

func (s secondAxisStage) FindIndexes(path tree.Path) ([]any, error) {
	first, err := s.firstValue(path)
	if err != nil {
		return nil, err
	}
	values, err := s.m.SecondAxisValues(first)
	if err != nil {
		return nil, err
	}
	return floatsToValues(values), nil
}

func (s secondAxisStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	first, err := s.firstValue(path)
	if err != nil {
		return nil, err
	}
	values, err := s.m.MapSecondAxis(first, low, up)
	if err != nil {
		return nil, err
	}
	return floatsToValues(values), nil
}

func (s secondAxisStage) Remap(low, up float64) []Range {
	return []Range{{Low: low, Up: up}}
}
