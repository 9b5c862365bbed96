// Package grid maps between the two continuous coordinates of a curved or regular global grid
// (latitude and longitude) and the single linear index a datacube backend uses to store the grid.
//
// Mappers are constructed once from immutable configuration and are safe for concurrent use.
package grid

import (
	"math"
	"slices"
)

// The tolerance used when matching a latitude value against the latitude lines of a grid.
const LatitudeTolerance = 1e-10

// Unmap resolves a coordinate to the nearest grid point, treating latitude and longitude
// independently. A coordinate exactly halfway between two latitude lines resolves to the line with
// the larger row index (further south); a longitude exactly halfway between two columns resolves to
// the column with the larger index, wrapping past the last column back to column 0.
//
// A request range on a periodic longitude axis wider than one period, or closed at both seams such
// as [-180, 180], yields the seam column once for each period it reaches. Both values unmap to the
// same linear index, so result trees can hold more leaves than the distinct grid points they
// locate.
const TieBreak = "round-half-up"

// Translates between grid coordinates and linear indices. The first axis is the outer axis whose
// rows are stored one after the other (latitude); the second axis is the inner axis whose values
// depend on the row (longitude).
type Mapper interface {
	// The name of the datacube axis storing the linear index.
	BaseAxis() string
	// The two request axes replacing the base axis, outer first.
	MappedAxes() [2]string
	Resolution() int
	// The number of points in the whole grid.
	Points() int
	// The latitude of every row, ordered from the north pole to the south pole.
	FirstAxisValues() []float64
	// The latitudes within the inclusive range [low, up], in row order.
	MapFirstAxis(low, up float64) []float64
	// The longitudes of the row at the given latitude, in column order.
	SecondAxisValues(first float64) ([]float64, error)
	// The longitudes of the row at the given latitude within the inclusive range [low, up].
	MapSecondAxis(first, low, up float64) ([]float64, error)
	// The number of columns of a row.
	RowLength(firstIdx int) int
	// Flattens a row and column into the linear storage index.
	AxesIdxToLinearIdx(firstIdx, secondIdx int) int
	// Returns the linear index of the grid point nearest to the coordinate.
	Unmap(first, second float64) (int, error)
}

// Names of the available grid types and mapper implementations.
const (
	TypeOctahedral    = "octahedral"
	TypeRegular       = "regular"
	TypeHealpix       = "healpix"
	TypeHealpixNested = "healpix_nested"
	TypeLocalRegular  = "local_regular"

	ImplementationFast      = "fast"
	ImplementationReference = "reference"
)

// Constructs the mapper for a grid type. The implementation selects between the fast octahedral
// mapper and its reference counterpart; an empty implementation means fast. Other grids have a
// single implementation. Only local grids take an area, as [south, north, west, east].
func New(gridType, implementation, base string, axes [2]string, resolution int, area []float64) (Mapper, error) {
	if len(area) > 0 && gridType != TypeLocalRegular {
		return nil, ArgumentError("grid type '" + gridType + "' covers the whole globe and takes no area")
	}
	switch gridType {
	case TypeOctahedral:
		switch implementation {
		case "", ImplementationFast:
			return NewOctahedralMapper(base, axes, resolution)
		case ImplementationReference:
			return NewReferenceOctahedralMapper(base, axes, resolution)
		}
		return nil, ArgumentError("unknown mapper implementation '" + implementation + "'")
	case TypeRegular:
		return NewRegularMapper(base, axes, resolution)
	case TypeHealpix:
		return NewHealpixMapper(base, axes, resolution)
	case TypeHealpixNested:
		return NewHealpixNestedMapper(base, axes, resolution)
	case TypeLocalRegular:
		return NewLocalRegularMapper(base, axes, resolution, area)
	default:
		return nil, ArgumentError("unknown grid type '" + gridType + "'")
	}
}

// Unmaps every longitude of one row, in order.
func UnmapRow(m Mapper, first float64, seconds []float64) ([]int, error) {
	indices := make([]int, len(seconds))
	for i, second := range seconds {
		idx, err := m.Unmap(first, second)
		if err != nil {
			return nil, err
		}
		indices[i] = idx
	}
	return indices, nil
}

// Selects the values of a row within the inclusive range [low, up]. Values are uniformly spaced from
// 0, so the scan starts just before the first candidate column instead of at the start of the row.
func columnsBetween(n int, low, up float64) []float64 {
	if n <= 0 || math.IsNaN(low) || math.IsNaN(up) || low > up {
		return nil
	}
	spacing := 360 / float64(n)
	start := 0
	if low > 0 {
		start = max(0, int(math.Ceil(low/spacing))-1)
	}
	vals := []float64{}
	for i := start; i < n; i++ {
		v := float64(i) * spacing
		if v > up {
			break
		}
		if v >= low {
			vals = append(vals, v)
		}
	}
	return vals
}

func rowColumns(n int) []float64 {
	spacing := 360 / float64(n)
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) * spacing
	}
	return vals
}

// The column nearest to a longitude on a row of n uniformly spaced points starting at 0.
func nearestColumn(n int, lon float64) int {
	lon = math.Mod(lon, 360)
	if lon < 0 {
		lon += 360
	}
	col := int(math.Floor(lon/(360/float64(n)) + 0.5))
	return col % n
}

// The index of the latitude line nearest to lat in a strictly decreasing list, resolving exact
// midpoints to the larger index.
func nearestRow(lats []float64, lat float64) int {
	// first row at or below lat
	i, _ := slices.BinarySearchFunc(lats, lat, func(row, target float64) int {
		if row > target {
			return -1
		}
		if row < target {
			return 1
		}
		return 0
	})
	if i == 0 {
		return 0
	}
	if i == len(lats) {
		return len(lats) - 1
	}
	above := lats[i-1] - lat
	below := lat - lats[i]
	if above < below {
		return i - 1
	}
	return i
}

// The latitudes of a decreasing list within [low, up], in list order.
func latitudesBetween(lats []float64, low, up float64) []float64 {
	vals := []float64{}
	for _, lat := range lats {
		if lat < low {
			break
		}
		if lat <= up {
			vals = append(vals, lat)
		}
	}
	return vals
}

func checkFinite(axis string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotOnGridError{Axis: axis, Value: v}
	}
	return nil
}
