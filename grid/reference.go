package grid

import (
	"math"
	"slices"
)

// A straightforward octahedral grid mapper that scans rows instead of using closed forms and binary
// searches. It is slower than OctahedralMapper and serves as the oracle the fast mapper is checked
// against; select it with the "reference" implementation when a result looks suspicious.
type ReferenceOctahedralMapper struct {
	base       string
	axes       [2]string
	resolution int
	lats       []float64
}

func NewReferenceOctahedralMapper(base string, axes [2]string, resolution int) (*ReferenceOctahedralMapper, error) {
	if resolution <= 0 {
		return nil, ArgumentError("octahedral grid resolution must be positive")
	}
	return &ReferenceOctahedralMapper{
		base:       base,
		axes:       axes,
		resolution: resolution,
		lats:       gaussianLatitudes.Latitudes(resolution),
	}, nil
}

func (m *ReferenceOctahedralMapper) BaseAxis() string      { return m.base }
func (m *ReferenceOctahedralMapper) MappedAxes() [2]string { return m.axes }
func (m *ReferenceOctahedralMapper) Resolution() int       { return m.resolution }

func (m *ReferenceOctahedralMapper) Points() int {
	total := 0
	for row := range 2 * m.resolution {
		total += m.RowLength(row)
	}
	return total
}

func (m *ReferenceOctahedralMapper) FirstAxisValues() []float64 {
	return slices.Clone(m.lats)
}

func (m *ReferenceOctahedralMapper) MapFirstAxis(low, up float64) []float64 {
	vals := []float64{}
	for _, lat := range m.lats {
		if low <= lat && lat <= up {
			vals = append(vals, lat)
		}
	}
	return vals
}

func (m *ReferenceOctahedralMapper) RowLength(firstIdx int) int {
	return octahedralRowLength(m.resolution, firstIdx)
}

func (m *ReferenceOctahedralMapper) row(first float64) (int, error) {
	for i, lat := range m.lats {
		if first-LatitudeTolerance < lat && lat < first+LatitudeTolerance {
			return i, nil
		}
	}
	return 0, NotOnGridError{Axis: m.axes[0], Value: first}
}

func (m *ReferenceOctahedralMapper) SecondAxisValues(first float64) ([]float64, error) {
	row, err := m.row(first)
	if err != nil {
		return nil, err
	}
	n := m.RowLength(row)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) * (360 / float64(n))
	}
	return vals, nil
}

func (m *ReferenceOctahedralMapper) MapSecondAxis(first, low, up float64) ([]float64, error) {
	all, err := m.SecondAxisValues(first)
	if err != nil {
		return nil, err
	}
	vals := []float64{}
	for _, v := range all {
		if low <= v && v <= up {
			vals = append(vals, v)
		}
	}
	return vals, nil
}

func (m *ReferenceOctahedralMapper) AxesIdxToLinearIdx(firstIdx, secondIdx int) int {
	offset := 0
	for row := range firstIdx {
		offset += m.RowLength(row)
	}
	return offset + secondIdx
}

func (m *ReferenceOctahedralMapper) Unmap(first, second float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	if err := checkFinite(m.axes[1], second); err != nil {
		return 0, err
	}
	// nearest row by full scan; on equal distance the later row wins
	best, bestDist := 0, math.Inf(1)
	for i, lat := range m.lats {
		if d := math.Abs(lat - first); d <= bestDist {
			best, bestDist = i, d
		}
	}

	n := m.RowLength(best)
	spacing := 360 / float64(n)
	lon := math.Mod(second, 360)
	if lon < 0 {
		lon += 360
	}
	col, colDist := 0, math.Inf(1)
	for i := range n + 1 {
		if d := math.Abs(float64(i)*spacing - lon); d <= colDist {
			col, colDist = i, d
		}
	}
	return m.AxesIdxToLinearIdx(best, col%n), nil
}
