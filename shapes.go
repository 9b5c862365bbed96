package polytope

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// A geometric description of part of a request. Shapes are lowered into polytopes once per request.
type Shape interface {
	// The axes the shape constrains.
	Axes() []string
	Polytopes(opts Options) ([]Polytope, error)
}

// An axis-aligned box between lower and upper corners, inclusive.
type Box struct {
	axes  []string
	lower []any
	upper []any
}

func NewBox(axes []string, lower, upper []any) (*Box, error) {
	if len(lower) != len(axes) || len(upper) != len(axes) {
		return nil, ShapeError(fmt.Sprintf("box corners %v and %v do not match axes %v", lower, upper, axes))
	}
	if len(axes) == 0 {
		return nil, ShapeError("box without axes")
	}
	return &Box{axes: slices.Clone(axes), lower: slices.Clone(lower), upper: slices.Clone(upper)}, nil
}

func (b *Box) Axes() []string { return slices.Clone(b.axes) }

// With box decomposition enabled, a box over several axes is a product of spans so that every axis is
// resolved on its own. Otherwise it is a single polytope with a vertex at every corner.
func (b *Box) Polytopes(opts Options) ([]Polytope, error) {
	if opts.DecomposeBoxes && len(b.axes) > 1 {
		spans := make([]*ConvexPolytope, len(b.axes))
		for i, ax := range b.axes {
			p, err := NewSpan(ax, b.lower[i], b.upper[i]).polytope()
			if err != nil {
				return nil, err
			}
			spans[i] = p
		}
		product, err := NewProduct(spans...)
		if err != nil {
			return nil, err
		}
		return []Polytope{product}, nil
	}

	n := len(b.axes)
	corners := make([][]any, 0, 1<<n)
	for mask := range 1 << n {
		corner := make([]any, n)
		for i := range n {
			if mask&(1<<i) == 0 {
				corner[i] = b.lower[i]
			} else {
				corner[i] = b.upper[i]
			}
		}
		corners = append(corners, corner)
	}
	p, err := NewConvexPolytope(b.axes, corners)
	if err != nil {
		return nil, err
	}
	p.orthogonal = true
	return []Polytope{p}, nil
}

// The inclusive range between two values on one axis.
type Span struct {
	axis  string
	lower any
	upper any
}

func NewSpan(axis string, lower, upper any) *Span {
	return &Span{axis: axis, lower: lower, upper: upper}
}

func (s *Span) Axes() []string { return []string{s.axis} }

func (s *Span) polytope() (*ConvexPolytope, error) {
	p, err := NewConvexPolytope([]string{s.axis}, [][]any{{s.lower}, {s.upper}})
	if err != nil {
		return nil, err
	}
	p.orthogonal = true
	return p, nil
}

func (s *Span) Polytopes(opts Options) ([]Polytope, error) {
	p, err := s.polytope()
	if err != nil {
		return nil, err
	}
	return []Polytope{p}, nil
}

// Every value the datacube holds along one axis. Unlike a span, it is valid on categorical axes.
type All struct {
	axis string
}

func NewAll(axis string) *All {
	return &All{axis: axis}
}

func (a *All) Axes() []string { return []string{a.axis} }

func (a *All) Polytopes(opts Options) ([]Polytope, error) {
	return []Polytope{&ConvexPolytope{axes: []string{a.axis}, orthogonal: true, all: true}}, nil
}

// Individual points. Every point is its own alternative. With Nearest set, a point matching no
// datacube value exactly resolves to the nearest value along each axis instead.
type Point struct {
	axes    []string
	points  [][]any
	Nearest bool
}

func NewPoint(axes []string, points ...[]any) (*Point, error) {
	if len(points) == 0 {
		return nil, ShapeError("point shape without points")
	}
	for _, p := range points {
		if len(p) != len(axes) {
			return nil, ShapeError(fmt.Sprintf("point %v does not match axes %v", p, axes))
		}
	}
	return &Point{axes: slices.Clone(axes), points: points}, nil
}

func (p *Point) Axes() []string { return slices.Clone(p.axes) }

func (p *Point) Polytopes(opts Options) ([]Polytope, error) {
	polytopes := make([]Polytope, 0, len(p.points))
	for _, pt := range p.points {
		cp, err := NewConvexPolytope(p.axes, [][]any{pt})
		if err != nil {
			return nil, err
		}
		cp.nearest = p.Nearest
		polytopes = append(polytopes, cp)
	}
	return polytopes, nil
}

// A list of values on one axis. Every value is its own alternative.
type Select struct {
	axis   string
	values []any
}

func NewSelect(axis string, values ...any) (*Select, error) {
	if len(values) == 0 {
		return nil, ShapeError("select on axis '" + axis + "' without values")
	}
	return &Select{axis: axis, values: values}, nil
}

func (s *Select) Axes() []string { return []string{s.axis} }

func (s *Select) Polytopes(opts Options) ([]Polytope, error) {
	polytopes := make([]Polytope, 0, len(s.values))
	for _, v := range s.values {
		p, err := NewConvexPolytope([]string{s.axis}, [][]any{{v}})
		if err != nil {
			return nil, err
		}
		polytopes = append(polytopes, p)
	}
	return polytopes, nil
}

// A simple polygon over two axes, given by its vertices in boundary order. It is split into convex
// triangles, which are alternatives of a union.
type Polygon struct {
	axes   []string
	points [][]any
}

func NewPolygon(axes []string, points ...[]any) (*Polygon, error) {
	if len(axes) != 2 {
		return nil, ShapeError(fmt.Sprintf("polygon needs two axes, got %v", axes))
	}
	if len(points) == 0 {
		return nil, ShapeError("polygon without points")
	}
	for _, p := range points {
		if len(p) != 2 {
			return nil, ShapeError(fmt.Sprintf("polygon point %v does not match axes %v", p, axes))
		}
	}
	return &Polygon{axes: slices.Clone(axes), points: points}, nil
}

func (p *Polygon) Axes() []string { return slices.Clone(p.axes) }

func (p *Polygon) Polytopes(opts Options) ([]Polytope, error) {
	if len(p.points) > opts.MaxPolygonPoints {
		return nil, ShapeTooComplexError{Points: len(p.points), Max: opts.MaxPolygonPoints}
	}

	whole, err := NewConvexPolytope(p.axes, p.points)
	if err != nil {
		return nil, err
	}
	points, err := whole.floatVertices()
	if err != nil {
		return nil, err
	}
	// a closing point repeating a neighbour adds nothing
	points = slices.CompactFunc(points, func(a, b []float64) bool { return slices.Equal(a, b) })
	if len(points) > 1 && slices.Equal(points[0], points[len(points)-1]) {
		points = points[:len(points)-1]
	}

	if area := polygonArea(column(points, 0), column(points, 1)); area > opts.MaxPolygonArea {
		return nil, ShapeTooLargeError{Area: area, Max: opts.MaxPolygonArea}
	}

	if len(points) <= 3 {
		return []Polytope{whole}, nil
	}
	triangles := earClip(points)
	if len(triangles) == 0 {
		return []Polytope{whole}, nil
	}
	polytopes := make([]Polytope, len(triangles))
	for i, tri := range triangles {
		vertices := make([][]any, 3)
		for j, k := range tri {
			vertices[j] = []any{points[k][0], points[k][1]}
		}
		cp, err := NewConvexPolytope(p.axes, vertices)
		if err != nil {
			return nil, err
		}
		cp.inUnion = true
		polytopes[i] = cp
	}
	return polytopes, nil
}

const diskSegments = 12

// An axis-aligned ellipse over two axes, approximated by the circumscribed polygon with twelve
// vertices so that the whole disk is covered.
type Disk struct {
	axes   []string
	center [2]float64
	radius [2]float64
}

func NewDisk(axes []string, center, radius [2]float64) (*Disk, error) {
	if len(axes) != 2 {
		return nil, ShapeError(fmt.Sprintf("disk needs two axes, got %v", axes))
	}
	if radius[0] < 0 || radius[1] < 0 {
		return nil, ShapeError(fmt.Sprintf("disk radius %v is negative", radius))
	}
	return &Disk{axes: slices.Clone(axes), center: center, radius: radius}, nil
}

func (d *Disk) Axes() []string { return slices.Clone(d.axes) }

func (d *Disk) Polytopes(opts Options) ([]Polytope, error) {
	angles := floats.Span(make([]float64, diskSegments), 0, 2*math.Pi*(diskSegments-1)/diskSegments)
	expand := 1 / math.Cos(math.Pi/diskSegments)
	vertices := make([][]any, len(angles))
	for i, a := range angles {
		vertices[i] = []any{
			d.center[0] + d.radius[0]*expand*math.Cos(a),
			d.center[1] + d.radius[1]*expand*math.Sin(a),
		}
	}
	p, err := NewConvexPolytope(d.axes, vertices)
	if err != nil {
		return nil, err
	}
	return []Polytope{p}, nil
}

// An axis-aligned ellipsoid over three axes, approximated by the circumscribed icosahedron.
type Ellipsoid struct {
	axes   []string
	center [3]float64
	radius [3]float64
}

func NewEllipsoid(axes []string, center, radius [3]float64) (*Ellipsoid, error) {
	if len(axes) != 3 {
		return nil, ShapeError(fmt.Sprintf("ellipsoid needs three axes, got %v", axes))
	}
	if radius[0] < 0 || radius[1] < 0 || radius[2] < 0 {
		return nil, ShapeError(fmt.Sprintf("ellipsoid radius %v is negative", radius))
	}
	return &Ellipsoid{axes: slices.Clone(axes), center: center, radius: radius}, nil
}

func (e *Ellipsoid) Axes() []string { return slices.Clone(e.axes) }

func (e *Ellipsoid) Polytopes(opts Options) ([]Polytope, error) {
	// an icosahedron with this edge length has an inradius of one
	phi := (1 + math.Sqrt(5)) / 2
	a := 2 * math.Sqrt(3) / (phi * phi)
	short, long := a/2, a*phi/2

	var unit [][3]float64
	for _, s1 := range []float64{1, -1} {
		for _, s2 := range []float64{1, -1} {
			unit = append(unit,
				[3]float64{0, s1 * short, s2 * long},
				[3]float64{s1 * short, s2 * long, 0},
				[3]float64{s2 * long, 0, s1 * short},
			)
		}
	}
	vertices := make([][]any, len(unit))
	for i, u := range unit {
		vertices[i] = []any{
			e.center[0] + u[0]*e.radius[0],
			e.center[1] + u[1]*e.radius[1],
			e.center[2] + u[2]*e.radius[2],
		}
	}
	p, err := NewConvexPolytope(e.axes, vertices)
	if err != nil {
		return nil, err
	}
	return []Polytope{p}, nil
}

// Shapes over the same axes, any of which a coordinate may satisfy.
type Union struct {
	axes   []string
	shapes []Shape
}

func NewUnion(shapes ...Shape) (*Union, error) {
	if len(shapes) == 0 {
		return nil, ShapeError("empty union")
	}
	axes := shapes[0].Axes()
	key := slices.Sorted(slices.Values(axes))
	for _, s := range shapes[1:] {
		if !slices.Equal(key, slices.Sorted(slices.Values(s.Axes()))) {
			return nil, ShapeError(fmt.Sprintf("union of shapes over different axes %v and %v", axes, s.Axes()))
		}
	}
	return &Union{axes: axes, shapes: slices.Clone(shapes)}, nil
}

func (u *Union) Axes() []string { return slices.Clone(u.axes) }

func (u *Union) Polytopes(opts Options) ([]Polytope, error) {
	var polytopes []Polytope
	for _, s := range u.shapes {
		ps, err := s.Polytopes(opts)
		if err != nil {
			return nil, err
		}
		for _, p := range ps {
			polytopes = append(polytopes, inUnion(p))
		}
	}
	return polytopes, nil
}
