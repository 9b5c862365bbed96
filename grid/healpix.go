package grid

import (
	"math"
	"slices"
)

// A HEALPix grid in ring ordering with resolution Nside. It has 4*Nside-1 rings of equal area
// pixels from north to south: polar rings i < Nside hold 4i pixels, the equatorial belt holds
// 4*Nside pixels per ring. Every other belt ring is shifted by half a pixel.
//
// In nested ordering the rows and columns are the same but linear indices follow the hierarchical
// numbering of the twelve base faces instead of running ring after ring.
type HealpixMapper struct {
	base       string
	axes       [2]string
	resolution int
	nested     bool
	lats       []float64
}

func NewHealpixMapper(base string, axes [2]string, resolution int) (*HealpixMapper, error) {
	if resolution <= 0 {
		return nil, ArgumentError("healpix grid resolution must be positive")
	}
	return &HealpixMapper{base: base, axes: axes, resolution: resolution, lats: healpixLatitudes(resolution)}, nil
}

// Nested ordering needs Nside to be a power of two.
func NewHealpixNestedMapper(base string, axes [2]string, resolution int) (*HealpixMapper, error) {
	if resolution <= 0 || resolution&(resolution-1) != 0 {
		return nil, ArgumentError("nested healpix resolution must be a power of two")
	}
	m, err := NewHealpixMapper(base, axes, resolution)
	if err != nil {
		return nil, err
	}
	m.nested = true
	return m, nil
}

func healpixLatitudes(nside int) []float64 {
	n := float64(nside)
	lats := make([]float64, 4*nside-1)
	for i := 1; i < 2*nside; i++ {
		var z float64
		if i < nside {
			z = 1 - float64(i*i)/(3*n*n)
		} else {
			z = float64(4*nside-2*i) / (3 * n)
		}
		lat := math.Asin(z) * 180 / math.Pi
		lats[i-1] = lat
		lats[4*nside-1-i] = -lat
	}
	lats[2*nside-1] = 0
	return lats
}

func (m *HealpixMapper) BaseAxis() string      { return m.base }
func (m *HealpixMapper) MappedAxes() [2]string { return m.axes }
func (m *HealpixMapper) Resolution() int       { return m.resolution }
func (m *HealpixMapper) Points() int           { return 12 * m.resolution * m.resolution }

func (m *HealpixMapper) FirstAxisValues() []float64 {
	return slices.Clone(m.lats)
}

func (m *HealpixMapper) MapFirstAxis(low, up float64) []float64 {
	return latitudesBetween(m.lats, low, up)
}

// The ring number counted from the nearest pole, starting at 1, capped at the belt.
func (m *HealpixMapper) ring(row int) int {
	i := row + 1
	return min(i, 4*m.resolution-i, m.resolution)
}

func (m *HealpixMapper) RowLength(firstIdx int) int {
	return 4 * m.ring(firstIdx)
}

// The longitude of the first pixel of a row. Polar rings and belt rings with an odd shift start
// half a pixel past 0.
func (m *HealpixMapper) rowStart(row int) float64 {
	spacing := 360 / float64(m.RowLength(row))
	i := row + 1
	if i < m.resolution || i > 3*m.resolution || (i-m.resolution+1)%2 == 1 {
		return spacing / 2
	}
	return 0
}

func (m *HealpixMapper) row(first float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	row := nearestRow(m.lats, first)
	if math.Abs(m.lats[row]-first) > LatitudeTolerance {
		return 0, NotOnGridError{Axis: m.axes[0], Value: first}
	}
	return row, nil
}

func (m *HealpixMapper) SecondAxisValues(first float64) ([]float64, error) {
	row, err := m.row(first)
	if err != nil {
		return nil, err
	}
	return shiftedColumnsBetween(m.RowLength(row), m.rowStart(row), math.Inf(-1), math.Inf(1)), nil
}

func (m *HealpixMapper) MapSecondAxis(first, low, up float64) ([]float64, error) {
	row, err := m.row(first)
	if err != nil {
		return nil, err
	}
	return shiftedColumnsBetween(m.RowLength(row), m.rowStart(row), low, up), nil
}

// The number of pixels stored before the given row, in closed form for the caps and the belt.
func (m *HealpixMapper) rowOffset(row int) int {
	r := m.resolution
	i := row + 1
	switch {
	case i <= r:
		return 2 * i * (i - 1)
	case i <= 3*r:
		return 2*r*(r-1) + 4*r*(i-r)
	default:
		k := 4*r - i
		return 12*r*r - 2*k*(k+1)
	}
}

func (m *HealpixMapper) AxesIdxToLinearIdx(firstIdx, secondIdx int) int {
	idx := m.rowOffset(firstIdx) + secondIdx
	if m.nested {
		return ringToNested(m.resolution, idx)
	}
	return idx
}

func (m *HealpixMapper) Unmap(first, second float64) (int, error) {
	if err := checkFinite(m.axes[0], first); err != nil {
		return 0, err
	}
	if err := checkFinite(m.axes[1], second); err != nil {
		return 0, err
	}
	row := nearestRow(m.lats, first)
	n := m.RowLength(row)
	spacing := 360 / float64(n)
	lon := math.Mod(second-m.rowStart(row), 360)
	if lon < 0 {
		lon += 360
	}
	col := int(math.Floor(lon/spacing+0.5)) % n
	return m.AxesIdxToLinearIdx(row, col), nil
}

// The values start + i*360/n of a row within the inclusive range [low, up].
func shiftedColumnsBetween(n int, start, low, up float64) []float64 {
	if math.IsNaN(low) || math.IsNaN(up) || low > up {
		return nil
	}
	spacing := 360 / float64(n)
	vals := []float64{}
	for i := range n {
		v := start + float64(i)*spacing
		if v > up {
			break
		}
		if v >= low {
			vals = append(vals, v)
		}
	}
	return vals
}

// Longitude offset of each base face, in units of a quarter of the row.
var faceColumn = [12]int{1, 3, 5, 7, 0, 2, 4, 6, 1, 3, 5, 7}

// Converts a ring ordered pixel index into the nested index of the same pixel by locating its base
// face and its x/y position within the face.
func ringToNested(nside, pix int) int {
	ncap := 2 * nside * (nside - 1)
	npix := 12 * nside * nside
	nl2 := 2 * nside

	var ring, phi, shift, nr, face int
	switch {
	case pix < ncap:
		ring = (1 + isqrt(1+2*pix)) >> 1
		phi = pix + 1 - 2*ring*(ring-1)
		nr = ring
		face = (phi - 1) / nr
	case pix < npix-ncap:
		ip := pix - ncap
		tmp := ip / (4 * nside)
		ring = tmp + nside
		phi = ip - tmp*4*nside + 1
		shift = (ring + nside) & 1
		nr = nside
		ifm := (phi - (tmp+1)/2 + nside - 1) / nside
		ifp := (phi - (nl2+1-tmp)/2 + nside - 1) / nside
		switch {
		case ifp == ifm:
			face = ifp | 4
		case ifp < ifm:
			face = ifp
		default:
			face = ifm + 8
		}
	default:
		ip := npix - pix
		nr = (1 + isqrt(2*ip-1)) >> 1
		phi = 4*nr + 1 - (ip - 2*nr*(nr-1))
		ring = 2*nl2 - nr
		face = (phi-1)/nr + 8
	}

	irt := ring - (2+(face>>2))*nside + 1
	ipt := 2*phi - faceColumn[face]*nr - shift - 1
	if ipt >= nl2 {
		ipt -= 8 * nside
	}
	x := (ipt - irt) >> 1
	y := (-ipt - irt) >> 1
	return face*nside*nside + spreadBits(x) + spreadBits(y)<<1
}

// Moves bit i of v to bit 2i.
func spreadBits(v int) int {
	b := uint64(v) & 0x00000000ffffffff
	b = (b ^ (b << 16)) & 0x0000ffff0000ffff
	b = (b ^ (b << 8)) & 0x00ff00ff00ff00ff
	b = (b ^ (b << 4)) & 0x0f0f0f0f0f0f0f0f
	b = (b ^ (b << 2)) & 0x3333333333333333
	b = (b ^ (b << 1)) & 0x5555555555555555
	return int(b)
}

func isqrt(v int) int {
	r := int(math.Sqrt(float64(v)))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}
