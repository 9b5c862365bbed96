package polytope

import "slices"

// The shapes of one request. No two shapes may constrain the same axis.
type Request struct {
	shapes []Shape
}

func NewRequest(shapes ...Shape) (*Request, error) {
	var seen []string
	for _, s := range shapes {
		for _, ax := range s.Axes() {
			if slices.Contains(seen, ax) {
				return nil, AxisOverdefinedError{Axis: ax}
			}
			seen = append(seen, ax)
		}
	}
	return &Request{shapes: slices.Clone(shapes)}, nil
}

func (r *Request) Shapes() []Shape {
	return slices.Clone(r.shapes)
}

// The axes of the request, in shape order.
func (r *Request) Axes() []string {
	var axes []string
	for _, s := range r.shapes {
		axes = append(axes, s.Axes()...)
	}
	return axes
}

// Lowers every shape of the request into polytopes.
func (r *Request) Polytopes(opts Options) ([]Polytope, error) {
	var polytopes []Polytope
	for _, s := range r.shapes {
		ps, err := s.Polytopes(opts)
		if err != nil {
			return nil, err
		}
		polytopes = append(polytopes, ps...)
	}
	return polytopes, nil
}
