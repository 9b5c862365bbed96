package grid

import (
	"math"
	"slices"
)

// Zeros of the Bessel function J0, used as first guesses for the roots of the Legendre polynomial.
var besselZeros = [...]float64{
	2.4048255577, 5.5200781103, 8.6537279129, 11.7915344391, 14.9309177086,
	18.0710639679, 21.2116366299, 24.3524715308, 27.4934791320, 30.6346064684,
	33.7758202136, 36.9170983537, 40.0584257646, 43.1997917132, 46.3411883717,
	49.4826098974, 52.6240518411, 55.7655107550, 58.9069839261, 62.0484691902,
	65.1899648002, 68.3314693299, 71.4729816036, 74.6145006437, 77.7560256304,
	80.8975558711, 84.0390907769, 87.1806298436, 90.3221726372, 93.4637187819,
	96.6052679510, 99.7468198587, 102.8883742542, 106.0299309165, 109.1714896498,
	112.3130502805, 115.4546126537, 118.5961766309, 121.7377420880, 124.8793089132,
	128.0208770059, 131.1624462752, 134.3040166383, 137.4455880203, 140.5871603528,
	143.7287335737, 146.8703076258, 150.0118824570, 153.1534580192, 156.2950342685,
}

const (
	gaussianPrecision = 1e-14
	gaussianMaxIter   = 100
)

func besselGuesses(resolution int) []float64 {
	vals := make([]float64, resolution)
	for i := range vals {
		if i < len(besselZeros) {
			vals[i] = besselZeros[i]
		} else {
			vals[i] = vals[i-1] + math.Pi
		}
	}
	return vals
}

// Computes the 2*resolution latitude lines of a Gaussian grid, in degrees from north to south. The
// lines are the roots of the Legendre polynomial of degree 2*resolution, found by Newton iteration
// from Bessel zero guesses, and are symmetric about the equator.
func GaussianLatitudes(resolution int) []float64 {
	nval := resolution * 2
	rad2deg := 180 / math.Pi
	convval := 1 - ((2/math.Pi)*(2/math.Pi))*0.25
	guesses := besselGuesses(resolution)
	lats := make([]float64, nval)
	denom := math.Sqrt((float64(nval)+0.5)*(float64(nval)+0.5) + convval)
	for j := range resolution {
		root := math.Cos(guesses[j] / denom)
		conv := 1.0
		for iter := 0; math.Abs(conv) >= gaussianPrecision && iter < gaussianMaxIter; iter++ {
			mem2 := 1.0
			mem1 := root
			legfonc := root
			for legi := range nval {
				legfonc = ((2.0*float64(legi+1)-1.0)*root*mem1 - float64(legi)*mem2) / float64(legi+1)
				mem2 = mem1
				mem1 = legfonc
			}
			conv = legfonc / ((float64(nval) * (mem2 - root*legfonc)) / (1.0 - root*root))
			root -= conv
		}
		lats[j] = math.Asin(root) * rad2deg
		lats[nval-1-j] = -lats[j]
	}
	return lats
}

// The ring number of a row counted from the nearest pole, starting at 1.
func octahedralRing(resolution, row int) int {
	if row < resolution {
		return row + 1
	}
	return 2*resolution - row
}

func octahedralRowLength(resolution, row int) int {
	return 4*octahedralRing(resolution, row) + 16
}

// An octahedral reduced Gaussian grid. Row i counted from either pole holds 4i+16 points, and rows
// are stored one after the other from north to south.
type OctahedralMapper struct {
	base       string
	axes       [2]string
	resolution int
	lats       []float64
}

func NewOctahedralMapper(base string, axes [2]string, resolution int) (*OctahedralMapper, error) {
	if resolution <= 0 {
		return nil, ArgumentError("octahedral grid resolution must be positive")
	}
	return &OctahedralMapper{
		base:       base,
		axes:       axes,
		resolution: resolution,
		lats:       gaussianLatitudes.Latitudes(resolution),
	}, nil
}

func (m *OctahedralMapper) BaseAxis() string      { return m.base }
func (m *OctahedralMapper) MappedAxes() [2]string { return m.axes }
func (m *OctahedralMapper) Resolution() int       { return m.resolution }

func (m *OctahedralMapper) Points() int {
	return 4*m.resolution*m.resolution + 36*m.resolution
}

func (m *OctahedralMapper) FirstAxisValues() []float64 {
	return slices.Clone(m.lats)
}

func (m *OctahedralMapper) MapFirstAxis(low, up float64) []float64 {
	return latitudesBetween(m.lats, low, up)
}

func (m *OctahedralMapper) RowLength(firstIdx int) int {
	return octahedralRowLength(m.resolution, firstIdx)
}

// Finds the row whose latitude matches first within LatitudeTolerance.
func (m *OctahedralMapper) row(first float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	row := nearestRow(m.lats, first)
	if math.Abs(m.lats[row]-first) > LatitudeTolerance {
		return 0, NotOnGridError{Axis: m.axes[0], Value: first}
	}
	return row, nil
}

func (m *OctahedralMapper) SecondAxisValues(first float64) ([]float64, error) {
	row, err := m.row(first)
	if err != nil {
		return nil, err
	}
	return rowColumns(m.RowLength(row)), nil
}

func (m *OctahedralMapper) MapSecondAxis(first, low, up float64) ([]float64, error) {
	row, err := m.row(first)
	if err != nil {
		return nil, err
	}
	return columnsBetween(m.RowLength(row), low, up), nil
}

// The number of points stored before the given row, in closed form for either hemisphere.
func (m *OctahedralMapper) rowOffset(row int) int {
	r := m.resolution
	if row <= r {
		return 2*row*row + 18*row
	}
	k := row - r
	return 2*r*r + 18*r + k*(4*r+16) - 2*k*(k-1)
}

func (m *OctahedralMapper) AxesIdxToLinearIdx(firstIdx, secondIdx int) int {
	return m.rowOffset(firstIdx) + secondIdx
}

func (m *OctahedralMapper) Unmap(first, second float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	if err := checkFinite(m.axes[1], second); err != nil {
		return 0, err
	}
	row := nearestRow(m.lats, first)
	col := nearestColumn(m.RowLength(row), second)
	return m.AxesIdxToLinearIdx(row, col), nil
}
