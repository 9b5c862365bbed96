package polytope

import (
	"context"
	"log/slog"
	"math"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gracefulearth/gopolytope/datacube"
	"github.com/gracefulearth/gopolytope/tree"
)

// The distance under which a leaf still counts as inside the shape it was sliced from.
const containmentTolerance = 1e-9

// A polytope in the float form of the datacube axes, shrinking as its axes are resolved.
type hull struct {
	origin      *ConvexPolytope
	axes        []string
	points      [][]float64
	categorical bool
	value       any
	all         bool
}

// Resolves combinations of polytopes against the axes of a datacube.
type Slicer struct {
	cube   *datacube.Cube
	opts   Options
	logger *slog.Logger
}

func NewSlicer(cube *datacube.Cube, opts Options, logger *slog.Logger) *Slicer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Slicer{cube: cube, opts: opts, logger: logger}
}

// Slices every combination into its own tree and merges the trees into one. Combinations are
// independent of each other and are sliced by up to Options.Workers goroutines; merging is
// serialised. A combination covering no coordinates simply contributes nothing.
func (s *Slicer) Slice(ctx context.Context, combinations []Combination) (*tree.Tree, error) {
	result := tree.New(s.cube.Compare)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.opts.Workers))
	for i, c := range combinations {
		g.Go(func() error {
			t, err := s.sliceCombination(gctx, c)
			if err != nil {
				return err
			}
			if t.Empty() {
				s.logger.Debug("combination has no data", "combination", i)
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			result.Merge(t)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Slicer) sliceCombination(ctx context.Context, c Combination) (*tree.Tree, error) {
	var hulls, checks []*hull
	for _, p := range c.Polytopes() {
		h, err := s.normalize(p)
		if err != nil {
			return nil, err
		}
		hulls = append(hulls, h)
		if s.needsCheck(h) {
			checks = append(checks, h)
		}
	}

	t := tree.New(s.cube.Compare)
	if err := s.descend(ctx, t, tree.Root, nil, 0, hulls, checks); err != nil {
		return nil, err
	}
	if pruned := t.PruneEmpty(len(s.cube.Axes())); pruned > 0 {
		branchesPruned.Add(float64(pruned))
	}
	return t, nil
}

// Parses the vertices of a polytope into the float form of the datacube axes. Polytopes touching a
// categorical axis must select a single value on that axis alone.
func (s *Slicer) normalize(p *ConvexPolytope) (*hull, error) {
	h := &hull{origin: p, axes: p.Axes(), all: p.all}
	for _, ax := range h.axes {
		if _, ok := s.cube.Axis(ax); !ok {
			return nil, AxisNotFoundError{Axis: ax}
		}
	}
	if h.all {
		return h, nil
	}

	for _, ax := range h.axes {
		if s.cube.Sliceable(ax) {
			continue
		}
		if len(h.axes) != 1 {
			return nil, UnsliceableShapeError{Axis: ax}
		}
		h.categorical = true
		for i, v := range p.vertices {
			native, err := s.cube.Parse(ax, v[0])
			if err != nil {
				return nil, err
			}
			if i > 0 && s.cube.Compare(ax, h.value, native) != 0 {
				return nil, UnsliceableShapeError{Axis: ax}
			}
			h.value = native
		}
		return h, nil
	}

	points := make([][]float64, len(p.vertices))
	for i, v := range p.vertices {
		points[i] = make([]float64, len(v))
		for j, ax := range h.axes {
			f, err := s.cube.ParseFloat(ax, v[j])
			if err != nil {
				return nil, err
			}
			points[i][j] = f
		}
	}
	h.points = uniquePoints(points)
	return h, nil
}

// Slicing resolves one-dimensional and axis-aligned polytopes exactly. Other polytopes over several
// axes are checked against every leaf.
func (s *Slicer) needsCheck(h *hull) bool {
	return s.opts.ExactContainment && !h.origin.orthogonal && !h.origin.nearest &&
		!h.categorical && !h.all && len(h.axes) > 1
}

// Resolves the axis at depth below node, then recurses into the next axis for every value found.
// Leaves are only inserted once every check passes; interior nodes left without leaves are pruned
// afterwards.
func (s *Slicer) descend(ctx context.Context, t *tree.Tree, node tree.NodeID, path tree.Path, depth int, hulls, checks []*hull) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	axes := s.cube.Axes()
	ax := axes[depth]
	values, err := s.candidates(ax, path, hulls)
	if err != nil {
		return err
	}

	last := depth == len(axes)-1
	for _, v := range values {
		next := path.With(ax, v)
		if last {
			if s.satisfies(checks, next) {
				t.Insert(node, ax, v)
			}
			continue
		}
		child, _ := t.Insert(node, ax, v)
		if err := s.descend(ctx, t, child, next, depth+1, s.sliceHulls(hulls, ax, v), checks); err != nil {
			return err
		}
	}
	return nil
}

// The values of an axis satisfying every polytope spanning it.
func (s *Slicer) candidates(ax string, path tree.Path, hulls []*hull) ([]any, error) {
	var result []any
	constrained := false
	for _, h := range hulls {
		i := slices.Index(h.axes, ax)
		if i < 0 {
			continue
		}
		values, err := s.valuesFor(h, i, ax, path)
		if err != nil {
			return nil, err
		}
		if !constrained {
			result, constrained = values, true
		} else {
			result = s.intersect(ax, result, values)
		}
		if len(result) == 0 {
			break
		}
	}
	if !constrained {
		return nil, AxisUnderdefinedError{Axis: ax}
	}
	return result, nil
}

func (s *Slicer) valuesFor(h *hull, i int, ax string, path tree.Path) ([]any, error) {
	switch {
	case h.all:
		return s.cube.FindIndexes(ax, path)
	case h.categorical:
		all, err := s.cube.FindIndexes(ax, path)
		if err != nil {
			return nil, err
		}
		for _, v := range all {
			if s.cube.Compare(ax, v, h.value) == 0 {
				return []any{v}, nil
			}
		}
		return nil, nil
	case len(h.points) == 0:
		return nil, nil
	}

	lo, hi := columnRange(h.points, i)
	tol := s.cube.Tolerance(ax)
	values, err := s.cube.FindIndicesBetween(ax, path, lo-tol, hi+tol)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 && h.origin.nearest {
		all, err := s.cube.FindIndexes(ax, path)
		if err != nil {
			return nil, err
		}
		if v, ok := s.nearest(ax, all, lo); ok {
			values = []any{v}
		}
	}
	s.logger.Debug("found indices", "axis", ax, "lower", lo, "upper", hi, "count", len(values))
	return values, nil
}

func (s *Slicer) nearest(ax string, values []any, f float64) (any, bool) {
	var best any
	bestDist := math.Inf(1)
	for _, v := range values {
		if d := math.Abs(s.cube.ToFloat(ax, v) - f); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, best != nil
}

func (s *Slicer) intersect(ax string, a, b []any) []any {
	var out []any
	for _, v := range a {
		if slices.ContainsFunc(b, func(w any) bool { return s.cube.Compare(ax, v, w) == 0 }) {
			out = append(out, v)
		}
	}
	return out
}

// The hulls remaining once ax is resolved to v. Hulls spanning only ax are used up; hulls spanning
// more axes are cut down to their section at v.
func (s *Slicer) sliceHulls(hulls []*hull, ax string, v any) []*hull {
	out := make([]*hull, 0, len(hulls))
	for _, h := range hulls {
		i := slices.Index(h.axes, ax)
		if i < 0 {
			out = append(out, h)
			continue
		}
		if h.all || h.categorical || len(h.axes) == 1 {
			continue
		}
		next := &hull{origin: h.origin, axes: slices.Delete(slices.Clone(h.axes), i, i+1)}
		if len(h.points) > 0 {
			lo, hi := columnRange(h.points, i)
			f := clamp(s.cube.ToFloat(ax, v), lo, hi)
			next.points = slicePoints(h.points, i, f, s.cube.Tolerance(ax))
		}
		out = append(out, next)
	}
	return out
}

// Reports whether a fully resolved path lies inside every polytope that needs checking.
func (s *Slicer) satisfies(checks []*hull, path tree.Path) bool {
	for _, h := range checks {
		x := make([]float64, len(h.axes))
		for i, ax := range h.axes {
			v, ok := path.Get(ax)
			if !ok {
				return false
			}
			x[i] = s.cube.ToFloat(ax, v)
		}
		if !containsPoint(h.points, x, containmentTolerance) {
			return false
		}
	}
	return true
}
