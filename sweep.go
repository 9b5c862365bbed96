package polytope

import (
	"fmt"
	"slices"
)

// A shape swept along the straight line between two points. The shape is given relative to the
// origin and is moved to every point of the segment.
type PathSegment struct {
	shape Shape
	start []float64
	end   []float64
}

func NewPathSegment(shape Shape, start, end []float64) (*PathSegment, error) {
	n := len(shape.Axes())
	if len(start) != n || len(end) != n {
		return nil, ShapeError(fmt.Sprintf("segment from %v to %v does not match axes %v", start, end, shape.Axes()))
	}
	return &PathSegment{shape: shape, start: slices.Clone(start), end: slices.Clone(end)}, nil
}

func (s *PathSegment) Axes() []string { return s.shape.Axes() }

// Each polytope of the shape becomes the hull of its vertices placed at both ends of the segment.
func (s *PathSegment) Polytopes(opts Options) ([]Polytope, error) {
	// corners are needed, not the per-axis spans of a decomposed box
	opts.DecomposeBoxes = false
	polytopes, err := s.shape.Polytopes(opts)
	if err != nil {
		return nil, err
	}
	axes := s.shape.Axes()

	swept := make([]Polytope, 0, len(polytopes))
	for _, p := range polytopes {
		parts := p.Flatten()
		if len(parts) != 1 || parts[0].all {
			return nil, ShapeError(fmt.Sprintf("cannot sweep %v along a path", p))
		}
		cp := parts[0]
		points, err := cp.floatVertices()
		if err != nil {
			return nil, err
		}
		vertices := make([][]any, 0, 2*len(points))
		for _, pt := range points {
			from := make([]any, len(pt))
			to := make([]any, len(pt))
			for j, ax := range cp.axes {
				k := slices.Index(axes, ax)
				from[j] = pt[j] + s.start[k]
				to[j] = pt[j] + s.end[k]
			}
			vertices = append(vertices, from, to)
		}
		out, err := NewConvexPolytope(cp.axes, vertices)
		if err != nil {
			return nil, err
		}
		out.inUnion = p.InUnion()
		swept = append(swept, out)
	}
	return swept, nil
}

// A shape swept along a polyline. A closed path also joins the last point back to the first.
type Path struct {
	union *Union
}

func NewPath(shape Shape, closed bool, points ...[]float64) (*Path, error) {
	if len(points) < 2 {
		return nil, ShapeError(fmt.Sprintf("path needs at least two points, got %d", len(points)))
	}
	var segments []Shape
	for i := range len(points) - 1 {
		seg, err := NewPathSegment(shape, points[i], points[i+1])
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	if closed && len(points) > 2 {
		seg, err := NewPathSegment(shape, points[len(points)-1], points[0])
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	union, err := NewUnion(segments...)
	if err != nil {
		return nil, err
	}
	return &Path{union: union}, nil
}

func (p *Path) Axes() []string { return p.union.Axes() }

func (p *Path) Polytopes(opts Options) ([]Polytope, error) {
	return p.union.Polytopes(opts)
}
