package polytope

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/RoaringBitmap/roaring"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gracefulearth/gopolytope/datacube"
	"github.com/gracefulearth/gopolytope/tree"
)

// Answers requests against one datacube.
type Engine struct {
	cube   *datacube.Cube
	opts   Options
	logger *slog.Logger
	slicer *Slicer
}

// Creates an engine over a datacube. A nil logger uses slog.Default.
func NewEngine(cube *datacube.Cube, opts Options, logger *slog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cube:   cube,
		opts:   opts,
		logger: logger,
		slicer: NewSlicer(cube, opts, logger),
	}, nil
}

func (e *Engine) Cube() *datacube.Cube { return e.cube }

// Builds a request from shapes and retrieves it.
func (e *Engine) Slice(ctx context.Context, shapes ...Shape) (*tree.Tree, error) {
	req, err := NewRequest(shapes...)
	if err != nil {
		return nil, err
	}
	return e.Retrieve(ctx, req)
}

// Resolves a request into the tree of datacube coordinates it covers. Axis mismatches between the
// request and the datacube fail the whole request before any slicing. A request covering no
// coordinates returns an empty tree, not an error.
func (e *Engine) Retrieve(ctx context.Context, req *Request) (*tree.Tree, error) {
	start := time.Now()
	result, err := e.retrieve(ctx, req)
	sliceDuration.Observe(time.Since(start).Seconds())
	switch {
	case err != nil:
		sliceRequests.WithLabelValues("error").Inc()
	case result.Empty():
		sliceRequests.WithLabelValues("empty").Inc()
	default:
		sliceRequests.WithLabelValues("ok").Inc()
	}
	return result, err
}

func (e *Engine) retrieve(ctx context.Context, req *Request) (*tree.Tree, error) {
	polytopes, err := req.Polytopes(e.opts)
	if err != nil {
		return nil, err
	}
	groups, axes := Group(polytopes)
	if err := e.cube.Validate(axes); err != nil {
		return nil, err
	}
	combinations := TensorProduct(groups)

	ctx, span := startSliceSpan(ctx, len(axes), len(combinations))
	defer span.End()
	e.logger.Info("slicing request", "axes", axes, "groups", len(groups), "combinations", len(combinations))

	result, err := e.slicer.Slice(ctx, combinations)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	leaves := result.LeafCount()
	sliceLeaves.Observe(float64(leaves))
	span.SetAttributes(attribute.Int("polytope.leaves", leaves))
	if leaves == 0 {
		e.logger.Warn("request covers no data", "axes", axes)
	} else {
		e.logger.Info("sliced request", "leaves", leaves, "nodes", result.Len())
	}
	return result, nil
}

// The grid points below one set of storage coordinates.
type Location struct {
	Path    tree.Path       // Storage coordinates of every axis except the grid axis.
	Indices *roaring.Bitmap // Linear indices of the grid points.
}

// Translates the leaves of a result tree into storage coordinates and gathers the grid points that
// share all other coordinates, in order of first appearance. Datacubes without a grid mapper have no
// linear indices to gather.
func (e *Engine) Locate(t *tree.Tree) ([]Location, error) {
	m, ok := e.cube.Mapper()
	if !ok {
		return nil, datacube.UnsupportedError("locating grid points on a datacube without a grid mapper")
	}
	base := m.BaseAxis()

	var locations []Location
	byPrefix := make(map[string]int)
	for leaf := range t.Leaves() {
		storage, err := e.cube.Unmap(leaf)
		if err != nil {
			return nil, err
		}
		v, ok := storage.Get(base)
		if !ok {
			return nil, fmt.Errorf("polytope: leaf %v resolves no grid point", leaf)
		}
		prefix := storage.Without(base)
		key := prefix.String()
		i, ok := byPrefix[key]
		if !ok {
			i = len(locations)
			byPrefix[key] = i
			locations = append(locations, Location{Path: prefix, Indices: roaring.New()})
		}
		locations[i].Indices.Add(uint32(v.(int64)))
	}
	return locations, nil
}
