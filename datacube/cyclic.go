package datacube

import (
	"math"

	"github.com/gracefulearth/gopolytope/tree"
)

// Makes an axis periodic over [Lower, Upper). Requests may range outside the period, and values found
// in the period are shifted by whole periods into the requested range.
type Cyclic struct {
	axis  string
	Lower float64
	Upper float64
}

func NewCyclic(axis string, lower, upper float64) (*Cyclic, error) {
	if !(lower < upper) || math.IsInf(upper-lower, 0) {
		return nil, ConfigError("cyclic range of axis '" + axis + "' must be finite and increasing")
	}
	return &Cyclic{axis: axis, Lower: lower, Upper: upper}, nil
}

func (t *Cyclic) Name() string { return "cyclic" }
func (t *Cyclic) Axis() string { return t.axis }

func (t *Cyclic) period() float64 {
	return t.Upper - t.Lower
}

func (t *Cyclic) Wrap(c *Cube, axis Axis, next Stage) Stage {
	return &cyclicStage{cyclic: t, typ: axis.Type, next: next}
}

// Moves the resolved value back into the period of the axis.
func (t *Cyclic) Unmap(c *Cube, path tree.Path) (tree.Path, error) {
	v, ok := path.Get(t.axis)
	if !ok {
		return path, nil
	}
	typ := c.axisType(t.axis)
	f := typ.ToFloat(v)
	p := t.period()
	f = t.Lower + math.Mod(math.Mod(f-t.Lower, p)+p, p)
	return replace(path, t.axis, tree.Coordinate{Axis: t.axis, Value: typ.FromFloat(f)}), nil
}

type cyclicStage struct {
	cyclic *Cyclic
	typ    AxisType
	next   Stage
}

func (s *cyclicStage) FindIndexes(path tree.Path) ([]any, error) {
	return s.next.FindIndexes(path)
}

func (s *cyclicStage) inPeriod(low, up float64) bool {
	tol := s.typ.Tolerance()
	return low >= s.cyclic.Lower-tol && up <= s.cyclic.Upper+tol
}

// Splits [low, up] into the pieces covered by each period it overlaps. A value on the seam shared by
// two pieces is returned once per piece, shifted into each, so [-180, 180] over [0, 360) holds both
// -180 and 180. Each range carries the period
// offset k as the multiple of the period subtracted from it.
func (s *cyclicStage) pieces(low, up float64) ([]Range, []float64) {
	l, u := s.cyclic.Lower, s.cyclic.Upper
	p := s.cyclic.period()
	if math.IsInf(low, -1) {
		low = l
	}
	if math.IsInf(up, 1) {
		up = u
	}

	var ranges []Range
	var offsets []float64
	first, last := math.Floor((low-l)/p), math.Floor((up-l)/p)
	for k := first; k <= last; k++ {
		a := math.Max(low, l+k*p) - k*p
		b := math.Min(up, l+(k+1)*p) - k*p
		if a > b {
			continue
		}
		ranges = append(ranges, Range{Low: a, Up: b})
		offsets = append(offsets, k*p)
	}
	return ranges, offsets
}

func (s *cyclicStage) Remap(low, up float64) []Range {
	if s.inPeriod(low, up) {
		return []Range{{Low: low, Up: up}}
	}
	ranges, _ := s.pieces(low, up)
	return ranges
}

func (s *cyclicStage) FindIndicesBetween(path tree.Path, low, up float64) ([]any, error) {
	if s.inPeriod(low, up) {
		return s.next.FindIndicesBetween(path, low, up)
	}

	tol := s.typ.Tolerance()
	ranges, offsets := s.pieces(low, up)
	var found []any
	for i, r := range ranges {
		values, err := s.next.FindIndicesBetween(path, r.Low-tol, r.Up+tol)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			f := s.typ.ToFloat(v) + offsets[i]
			if f < low-tol || f > up+tol {
				continue
			}
			if offsets[i] != 0 && tol > 0 {
				f = math.Round(f/tol) * tol
			}
			found = append(found, s.typ.FromFloat(f))
		}
	}
	return uniqueSorted(s.typ, found), nil
}
