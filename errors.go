package polytope

import (
	"fmt"

	"github.com/gracefulearth/gopolytope/datacube"
)

// Request and datacube axis mismatches. They are detected once per request, before any slicing.
type (
	AxisNotFoundError     = datacube.AxisNotFoundError
	AxisOverdefinedError  = datacube.AxisOverdefinedError
	AxisUnderdefinedError = datacube.AxisUnderdefinedError
)

// A malformed shape, such as a box whose bounds do not match its axes.
type ShapeError string

func (e ShapeError) Error() string {
	return "polytope: invalid shape - " + string(e)
}

// A shape spanning a categorical axis in a way that would need interpolation along it.
type UnsliceableShapeError struct {
	Axis string
}

func (e UnsliceableShapeError) Error() string {
	return fmt.Sprintf("polytope: cannot slice a shape along categorical axis '%s', select its values instead", e.Axis)
}

// A polygon with more vertices than the engine is configured to accept.
type ShapeTooComplexError struct {
	Points int
	Max    int
}

func (e ShapeTooComplexError) Error() string {
	return fmt.Sprintf("polytope: polygon has %d points, more than the maximum of %d", e.Points, e.Max)
}

// A polygon enclosing a larger area than the engine is configured to accept.
type ShapeTooLargeError struct {
	Area float64
	Max  float64
}

func (e ShapeTooLargeError) Error() string {
	return fmt.Sprintf("polytope: polygon area %g exceeds the maximum of %g", e.Area, e.Max)
}
