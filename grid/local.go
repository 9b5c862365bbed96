package grid

import (
	"fmt"
	"math"
	"slices"
)

// A regular latitude/longitude grid over a limited area. Rows run from the northern edge of the
// area to its southern edge and columns from its western edge to its eastern edge, both edges
// included, with resolution steps between them.
type LocalRegularMapper struct {
	base       string
	axes       [2]string
	resolution int
	lats       []float64
	lons       []float64
}

// The area is given as [south, north, west, east] in degrees.
func NewLocalRegularMapper(base string, axes [2]string, resolution int, area []float64) (*LocalRegularMapper, error) {
	if resolution <= 0 {
		return nil, ArgumentError("local regular grid resolution must be positive")
	}
	if len(area) != 4 {
		return nil, ArgumentError(fmt.Sprintf("local regular grid needs an area of four values, got %v", area))
	}
	south, north, west, east := area[0], area[1], area[2], area[3]
	if !(south < north) || !(west < east) {
		return nil, ArgumentError(fmt.Sprintf("local regular grid area %v is empty", area))
	}
	latStep := (north - south) / float64(resolution)
	lonStep := (east - west) / float64(resolution)
	lats := make([]float64, resolution+1)
	lons := make([]float64, resolution+1)
	for i := range lats {
		lats[i] = north - float64(i)*latStep
		lons[i] = west + float64(i)*lonStep
	}
	return &LocalRegularMapper{base: base, axes: axes, resolution: resolution, lats: lats, lons: lons}, nil
}

func (m *LocalRegularMapper) BaseAxis() string      { return m.base }
func (m *LocalRegularMapper) MappedAxes() [2]string { return m.axes }
func (m *LocalRegularMapper) Resolution() int       { return m.resolution }
func (m *LocalRegularMapper) Points() int           { return (m.resolution + 1) * (m.resolution + 1) }

func (m *LocalRegularMapper) FirstAxisValues() []float64 {
	return slices.Clone(m.lats)
}

func (m *LocalRegularMapper) MapFirstAxis(low, up float64) []float64 {
	return latitudesBetween(m.lats, low, up)
}

func (m *LocalRegularMapper) RowLength(firstIdx int) int {
	return m.resolution + 1
}

func (m *LocalRegularMapper) checkRow(first float64) error {
	if err := checkFinite(m.axes[0], first); err != nil {
		return err
	}
	row := nearestRow(m.lats, first)
	if math.Abs(m.lats[row]-first) > LatitudeTolerance {
		return NotOnGridError{Axis: m.axes[0], Value: first}
	}
	return nil
}

func (m *LocalRegularMapper) SecondAxisValues(first float64) ([]float64, error) {
	if err := m.checkRow(first); err != nil {
		return nil, err
	}
	return slices.Clone(m.lons), nil
}

func (m *LocalRegularMapper) MapSecondAxis(first, low, up float64) ([]float64, error) {
	if err := m.checkRow(first); err != nil {
		return nil, err
	}
	vals := []float64{}
	for _, lon := range m.lons {
		if lon > up {
			break
		}
		if lon >= low {
			vals = append(vals, lon)
		}
	}
	return vals, nil
}

func (m *LocalRegularMapper) AxesIdxToLinearIdx(firstIdx, secondIdx int) int {
	return firstIdx*(m.resolution+1) + secondIdx
}

// Coordinates outside the area resolve to the nearest edge row or column.
func (m *LocalRegularMapper) Unmap(first, second float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	if err := checkFinite(m.axes[1], second); err != nil {
		return 0, err
	}
	row := nearestRow(m.lats, first)
	step := m.lons[1] - m.lons[0]
	col := int(math.Floor((second-m.lons[0])/step + 0.5))
	col = max(0, min(col, m.resolution))
	return m.AxesIdxToLinearIdx(row, col), nil
}
