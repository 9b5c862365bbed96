package datacube

import "github.com/gracefulearth/gopolytope/tree"

// A per-axis transformation of the datacube. Transformations configured on an axis form an explicit
// ordered list; the first one registered is the outermost and each wraps the stage built from the
// ones after it.
type Transformation interface {
	// The configuration name of the transformation kind, such as "cyclic".
	Name() string
	// The axis the transformation is configured on.
	Axis() string
	// Builds the stage resolving the request axis through this transformation on top of next.
	Wrap(c *Cube, axis Axis, next Stage) Stage
	// Rewrites the request-space coordinates this transformation produced back into the coordinates
	// of the layer beneath it. Coordinates that are absent from a partial path are left alone.
	Unmap(c *Cube, path tree.Path) (tree.Path, error)
}

// Implemented by transformations that change which axes a request sees in place of a storage axis.
type AxisRewriter interface {
	// The request axes standing in for the given axis.
	RequestAxes(storage Axis) []Axis
	// Storage axes that are consumed by the transformation and hidden from requests.
	BlockedAxes() []string
}
