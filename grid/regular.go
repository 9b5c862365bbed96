package grid

import "slices"

// A regular latitude/longitude grid with 2*resolution rows spaced 90/resolution degrees apart from
// the north pole down, and 4*resolution columns per row starting at longitude 0.
type RegularMapper struct {
	base       string
	axes       [2]string
	resolution int
	lats       []float64
}

func NewRegularMapper(base string, axes [2]string, resolution int) (*RegularMapper, error) {
	if resolution <= 0 {
		return nil, ArgumentError("regular grid resolution must be positive")
	}
	increment := 90 / float64(resolution)
	lats := make([]float64, 2*resolution)
	for i := range lats {
		lats[i] = 90 - float64(i)*increment
	}
	return &RegularMapper{base: base, axes: axes, resolution: resolution, lats: lats}, nil
}

func (m *RegularMapper) BaseAxis() string      { return m.base }
func (m *RegularMapper) MappedAxes() [2]string { return m.axes }
func (m *RegularMapper) Resolution() int       { return m.resolution }
func (m *RegularMapper) Points() int           { return 8 * m.resolution * m.resolution }

func (m *RegularMapper) FirstAxisValues() []float64 {
	return slices.Clone(m.lats)
}

func (m *RegularMapper) MapFirstAxis(low, up float64) []float64 {
	return latitudesBetween(m.lats, low, up)
}

func (m *RegularMapper) RowLength(firstIdx int) int {
	return 4 * m.resolution
}

func (m *RegularMapper) checkRow(first float64) error {
	if err := checkFinite(m.axes[0], first); err != nil {
		return err
	}
	row := nearestRow(m.lats, first)
	if d := m.lats[row] - first; d > LatitudeTolerance || d < -LatitudeTolerance {
		return NotOnGridError{Axis: m.axes[0], Value: first}
	}
	return nil
}

func (m *RegularMapper) SecondAxisValues(first float64) ([]float64, error) {
	if err := m.checkRow(first); err != nil {
		return nil, err
	}
	return m.columns(), nil
}

func (m *RegularMapper) MapSecondAxis(first, low, up float64) ([]float64, error) {
	if err := m.checkRow(first); err != nil {
		return nil, err
	}
	return columnsBetween(4*m.resolution, low, up), nil
}

// Column i sits at i*90/resolution, which is the same value rowColumns yields for 4*resolution columns.
func (m *RegularMapper) columns() []float64 {
	return rowColumns(4 * m.resolution)
}

func (m *RegularMapper) AxesIdxToLinearIdx(firstIdx, secondIdx int) int {
	return firstIdx*4*m.resolution + secondIdx
}

func (m *RegularMapper) Unmap(first, second float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	if err := checkFinite(m.axes[1], second); err != nil {
		return 0, err
	}
	row := nearestRow(m.lats, first)
	return m.AxesIdxToLinearIdx(row, nearestColumn(4*m.resolution, second)), nil
}
