// Package polytope turns requests made of geometric shapes over named axes into the exact set of
// discrete datacube coordinates the shapes cover.
//
// A request is a list of shapes. Each shape is lowered into convex polytopes, the polytopes are
// grouped by the axes they span, and every combination of alternatives across groups is sliced
// against a datacube axis by axis. The result is a tree.Tree whose root-to-leaf paths are the
// resolved coordinates; fetching field values for them is left to the datacube backend.
package polytope

import (
	"fmt"
	"slices"
	"time"

	"github.com/gracefulearth/gopolytope/datacube"
)

// A region of the index space that can take part in slicing.
type Polytope interface {
	// The axes the polytope spans, in vertex coordinate order.
	Axes() []string
	// Whether the polytope is aligned to its axes, so that it can be resolved one axis at a time.
	Orthogonal() bool
	// Whether the polytope is one of several alternatives of a union.
	InUnion() bool
	// The convex polytopes the region is made of, ANDed together.
	Flatten() []*ConvexPolytope
}

// The convex hull of a set of vertices over a fixed list of axes. Vertex coordinates are request
// values, parsed against the datacube axis types only when slicing.
type ConvexPolytope struct {
	axes       []string
	vertices   [][]any
	orthogonal bool
	inUnion    bool
	all        bool
	nearest    bool
}

func NewConvexPolytope(axes []string, vertices [][]any) (*ConvexPolytope, error) {
	if len(axes) == 0 {
		return nil, ShapeError("polytope without axes")
	}
	for i, ax := range axes {
		if slices.Contains(axes[:i], ax) {
			return nil, ShapeError(fmt.Sprintf("axis '%s' repeated", ax))
		}
	}
	if len(vertices) == 0 {
		return nil, ShapeError("polytope without vertices")
	}
	for _, v := range vertices {
		if len(v) != len(axes) {
			return nil, ShapeError(fmt.Sprintf("vertex %v does not have one coordinate for each of %v", v, axes))
		}
	}
	return &ConvexPolytope{axes: slices.Clone(axes), vertices: vertices}, nil
}

func (p *ConvexPolytope) Axes() []string            { return slices.Clone(p.axes) }
func (p *ConvexPolytope) Vertices() [][]any         { return p.vertices }
func (p *ConvexPolytope) Orthogonal() bool          { return p.orthogonal }
func (p *ConvexPolytope) InUnion() bool             { return p.inUnion }
func (p *ConvexPolytope) Flatten() []*ConvexPolytope { return []*ConvexPolytope{p} }

// Whether the polytope covers its whole axis, whatever values the datacube holds along it.
func (p *ConvexPolytope) All() bool { return p.all }

func (p *ConvexPolytope) String() string {
	if p.all {
		return fmt.Sprintf("All(%s)", p.axes[0])
	}
	return fmt.Sprintf("ConvexPolytope(%v, %v)", p.axes, p.vertices)
}

// The vertices as floats, for polytopes whose coordinates are numbers or times.
func (p *ConvexPolytope) floatVertices() ([][]float64, error) {
	points := make([][]float64, len(p.vertices))
	for i, v := range p.vertices {
		points[i] = make([]float64, len(v))
		for j, c := range v {
			f, err := toFloat(c)
			if err != nil {
				return nil, fmt.Errorf("polytope: axis '%s': %w", p.axes[j], err)
			}
			points[i][j] = f
		}
	}
	return points, nil
}

// The extent of the polytope projected onto one of its axes.
func (p *ConvexPolytope) Bounds(axis string) (float64, float64, error) {
	i := slices.Index(p.axes, axis)
	if i < 0 {
		return 0, 0, AxisNotFoundError{Axis: axis}
	}
	if p.all {
		return 0, 0, ShapeError("unbounded polytope on axis '" + axis + "'")
	}
	points, err := p.floatVertices()
	if err != nil {
		return 0, 0, err
	}
	lo, hi := columnRange(points, i)
	return lo, hi, nil
}

// Reports whether a point, given with one coordinate for each axis of the polytope, lies inside it.
func (p *ConvexPolytope) Contains(point []float64) (bool, error) {
	if len(point) != len(p.axes) {
		return false, ShapeError(fmt.Sprintf("point %v does not have one coordinate for each of %v", point, p.axes))
	}
	if p.all {
		return true, nil
	}
	points, err := p.floatVertices()
	if err != nil {
		return false, err
	}
	return containsPoint(uniquePoints(points), point, containmentTolerance), nil
}

// Independent polytopes over disjoint axes whose combination covers the union of their axes.
type Product struct {
	components []*ConvexPolytope
	inUnion    bool
}

func NewProduct(components ...*ConvexPolytope) (*Product, error) {
	var axes []string
	for _, c := range components {
		for _, ax := range c.axes {
			if slices.Contains(axes, ax) {
				return nil, ShapeError(fmt.Sprintf("product components share axis '%s'", ax))
			}
			axes = append(axes, ax)
		}
	}
	if len(axes) == 0 {
		return nil, ShapeError("empty product")
	}
	return &Product{components: slices.Clone(components)}, nil
}

func (p *Product) Axes() []string {
	var axes []string
	for _, c := range p.components {
		axes = append(axes, c.axes...)
	}
	return axes
}

func (p *Product) Orthogonal() bool {
	for _, c := range p.components {
		if !c.orthogonal {
			return false
		}
	}
	return true
}

func (p *Product) InUnion() bool             { return p.inUnion }
func (p *Product) Flatten() []*ConvexPolytope { return slices.Clone(p.components) }

// Returns a copy of the polytope marked as an alternative of a union.
func inUnion(p Polytope) Polytope {
	switch pt := p.(type) {
	case *ConvexPolytope:
		cp := *pt
		cp.inUnion = true
		return &cp
	case *Product:
		cp := *pt
		cp.inUnion = true
		return &cp
	default:
		return p
	}
}

func toFloat(v any) (float64, error) {
	if t, ok := v.(time.Time); ok {
		return datacube.AxisTime.ToFloat(t), nil
	}
	f, err := datacube.AxisFloat64.Parse(v)
	if err != nil {
		return 0, err
	}
	return f.(float64), nil
}
