package datacube

import (
	"fmt"
	"time"

	"github.com/gracefulearth/gopolytope/tree"
)

// The linkers used when none are configured: a date and a time of day joined into "20060102T1504".
var DefaultLinkers = [2]string{"T", ""}

// Merges two string storage axes, typically a date and a time of day, into one time axis. The other
// axis disappears from requests; unmapping splits resolved times back into both storage values.
type Merge struct {
	axis    string
	Other   string
	Linkers [2]string
}

func NewMerge(axis, other string, linkers [2]string) (*Merge, error) {
	if other == "" || other == axis {
		return nil, ConfigError("merge of axis '" + axis + "' needs a distinct other axis")
	}
	return &Merge{axis: axis, Other: other, Linkers: linkers}, nil
}

func (t *Merge) Name() string { return "merge" }
func (t *Merge) Axis() string { return t.axis }

func (t *Merge) RequestAxes(storage Axis) []Axis {
	return []Axis{{Name: storage.Name, Type: AxisTime}}
}

func (t *Merge) BlockedAxes() []string { return []string{t.Other} }

func (t *Merge) Wrap(c *Cube, axis Axis, next Stage) Stage {
	return &mergeStage{merge: t, cube: c, next: next}
}

func (t *Merge) Unmap(c *Cube, path tree.Path) (tree.Path, error) {
	v, ok := path.Get(t.axis)
	if !ok {
		return path, nil
	}
	tm, ok := v.(time.Time)
	if !ok {
		return nil, fmt.Errorf("polytope: merged axis '%s' holds %T, not a time", t.axis, v)
	}
	return replace(path, t.axis,
		tree.Coordinate{Axis: t.axis, Value: tm.Format("20060102")},
		tree.Coordinate{Axis: t.Other, Value: tm.Format("1504")},
	), nil
}

type mergeStage struct {
	merge *Merge
	cube  *Cube
	next  Stage
}

func (s *mergeStage) FindIndexes(path tree.Path) ([]any, error) {
	firsts, err := s.next.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	storage, err := s.cube.storagePath(path)
	if err != nil {
		return nil, err
	}
	seconds, err := s.cube.source.Values(storage, s.merge.Other)
	if err != nil {
		return nil, err
	}

	values := make([]any, 0, len(firsts)*len(seconds))
	for _, first := range firsts {
		for _, second := range seconds {
			joined := fmt.Sprint(first) + s.merge.Linkers[0] + fmt.Sprint(second) + s.merge.Linkers[1]
			tm, err := parseTime(joined)
			if err != nil {
				return nil, fmt.Errorf("polytope: merging '%s' and '%s': %w", s.merge.axis, s.merge.Other, err)
			}
			values = append(values, tm)
		}
	}
	return uniqueSorted(AxisTime, values), nil
}

func (s *mergeStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	values, err := s.FindIndexes(path)
	if err != nil {
		return nil, err
	}
	return between(AxisTime, values, low, up)
}

func (s *mergeStage) Remap(low, up float64) []Range {
	return []Range{{Low: low, Up: up}}
}
