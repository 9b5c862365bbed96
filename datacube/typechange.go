package datacube

import (
	"fmt"

	"github.com/gracefulearth/gopolytope/tree"
)

// Presents a string storage axis, such as forecast steps stored as text, as an axis of another type.
type TypeChange struct {
	axis string
	To   AxisType
}

func NewTypeChange(axis string, to AxisType) (*TypeChange, error) {
	if !to.Sliceable() || to == AxisTime {
		return nil, ConfigError(fmt.Sprintf("axis '%s' cannot change type to %v", axis, to))
	}
	return &TypeChange{axis: axis, To: to}, nil
}

func (t *TypeChange) Name() string { return "type_change" }
func (t *TypeChange) Axis() string { return t.axis }

func (t *TypeChange) RequestAxes(storage Axis) []Axis {
	return []Axis{{Name: storage.Name, Type: t.To}}
}

func (t *TypeChange) BlockedAxes() []string { return nil }

func (t *TypeChange) Wrap(c *Cube, axis Axis, next Stage) Stage {
	return &typeChangeStage{to: t.To, next: next}
}

// Writes the value back in the textual form the storage holds.
func (t *TypeChange) Unmap(c *Cube, path tree.Path) (tree.Path, error) {
	v, ok := path.Get(t.axis)
	if !ok {
		return path, nil
	}
	return replace(path, t.axis, tree.Coordinate{Axis: t.axis, Value: fmt.Sprint(v)}), nil
}

type typeChangeStage struct {
	to   AxisType
	next Stage
}

func (s *typeChangeStage) FindIndexes(path tree.Path) ([]any, error) {
	raw, err := s.next.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(raw))
	for i, v := range raw {
		if values[i], err = s.to.Parse(v); err != nil {
			return nil, fmt.Errorf("polytope: changing type of stored value: %w", err)
		}
	}
	return uniqueSorted(s.to, values), nil
}

func (s *typeChangeStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	values, err := s.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	return between(s.to, values, low, up)
}

func (s *typeChangeStage) Remap(low, up float64) []Range {
	return []Range{{Low: low, Up: up}}
}
