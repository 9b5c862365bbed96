package datacube

import (
	"fmt"

	"github.com/gracefulearth/gopolytope/tree"
)

// An integer axis of a mock datacube, holding the values 0 to Size-1.
type Dimension struct {
	Name string
	Size int
}

// An ordered set of integer axes forming a dense mock datacube. Useful for exercising the slicing
// engine without any real archive behind it.
type DimensionSet []Dimension

// The total number of points in the mock datacube.
func (set DimensionSet) Samples() int {
	if len(set) <= 0 {
		return 0
	}
	samples := 1
	for _, d := range set {
		samples *= d.Size
	}
	return samples
}

func (set DimensionSet) Axes() []Axis {
	axes := make([]Axis, len(set))
	for i, d := range set {
		axes[i] = Axis{Name: d.Name, Type: AxisInt64}
	}
	return axes
}

func (set DimensionSet) Values(path tree.Path, axis string) ([]any, error) {
	for _, d := range set {
		if d.Name == axis {
			vals := make([]any, d.Size)
			for i := range vals {
				vals[i] = int64(i)
			}
			return vals, nil
		}
	}
	return nil, AxisNotFoundError{Axis: axis}
}

// Flattens a fully resolved path into the linear index of the point, with the first dimension
// changing the fastest.
func (set DimensionSet) Index(path tree.Path) (int, error) {
	index := 0
	mul := 1
	for _, d := range set {
		v, ok := path.Get(d.Name)
		if !ok {
			return 0, AxisUnderdefinedError{Axis: d.Name}
		}
		c, ok := v.(int64)
		if !ok || c < 0 || int(c) >= d.Size {
			return 0, fmt.Errorf("polytope: value %v out of range for mock axis '%s'", v, d.Name)
		}
		index += int(c) * mul
		mul *= d.Size
	}
	return index, nil
}
