package datacube

import "github.com/gracefulearth/gopolytope/tree"

// A named axis of a datacube and the type of the values along it.
type Axis struct {
	Name string   // The name requests use to refer to the axis.
	Type AxisType // The native representation of values along the axis.
}

// The storage backend a Cube reads axis metadata from. A Source is addressed in storage space: the
// axes it reports are the axes values are actually stored along, and the paths it receives hold
// storage-space values, never the request-space values produced by transformations.
//
// A Source only enumerates index values; fetching field values for resolved indices is the concern
// of whatever consumes the finished tree.
type Source interface {
	// The storage axes, outermost first.
	Axes() []Axis
	// The values present along axis below the partially resolved path. The path holds only axes
	// that precede axis in storage order.
	Values(path tree.Path, axis string) ([]any, error)
}
