// Package datacube describes the index space a request is sliced against: the axes of a datacube, the
// native types of their values, and the per-axis transformation pipeline translating between the
// axes a request names and the axes the storage backend is laid out along.
package datacube

import (
	"fmt"
	"slices"

	"github.com/gracefulearth/gopolytope/grid"
	"github.com/gracefulearth/gopolytope/tree"
)

type requestAxis struct {
	Axis
	storage string
	stage   Stage
	chain   []Transformation
}

// A datacube as requests see it: a Source plus the transformations configured on its axes. The axes
// of a Cube are request axes, ordered as the storage axes they stand in for. A Cube is immutable
// after construction and safe for concurrent use as long as its Source is.
type Cube struct {
	source     Source
	storage    []Axis
	axes       []requestAxis
	index      map[string]int
	configured map[string][]Transformation
	unmapOrder []Transformation
	mapping    *GridMapping
}

// Builds the request view of a source. Every configuration must name either a storage axis or a
// request axis introduced by a transformation on a storage axis.
func New(source Source, configs ...AxisConfig) (*Cube, error) {
	c := &Cube{
		source:     source,
		storage:    source.Axes(),
		index:      make(map[string]int),
		configured: make(map[string][]Transformation),
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.configured[cfg.Name]; dup {
			return nil, ConfigError("axis '" + cfg.Name + "' configured twice")
		}
		list := make([]Transformation, 0, len(cfg.Transformations))
		for _, tc := range cfg.Transformations {
			t, err := tc.Build(cfg.Name)
			if err != nil {
				return nil, err
			}
			if m, ok := t.(*GridMapping); ok {
				if c.mapping != nil {
					return nil, ConfigError("only one grid mapper per datacube is supported")
				}
				c.mapping = m
			}
			list = append(list, t)
		}
		c.configured[cfg.Name] = list
	}

	if err := c.buildAxes(); err != nil {
		return nil, err
	}
	c.buildUnmapOrder()
	return c, nil
}

func (c *Cube) isStorage(name string) bool {
	return slices.ContainsFunc(c.storage, func(a Axis) bool { return a.Name == name })
}

func (c *Cube) buildAxes() error {
	blocked := make(map[string]bool)
	for _, s := range c.storage {
		for _, t := range c.configured[s.Name] {
			if rw, ok := t.(AxisRewriter); ok {
				for _, b := range rw.BlockedAxes() {
					if !c.isStorage(b) {
						return ConfigError(fmt.Sprintf("%s of axis '%s' refers to unknown axis '%s'", t.Name(), s.Name, b))
					}
					blocked[b] = true
				}
			}
		}
	}

	for _, s := range c.storage {
		if blocked[s.Name] {
			continue
		}
		axes := []Axis{s}
		for _, t := range c.configured[s.Name] {
			rw, ok := t.(AxisRewriter)
			if !ok {
				continue
			}
			if len(axes) != 1 {
				return ConfigError(fmt.Sprintf("%s cannot follow another axis-splitting transformation on '%s'", t.Name(), s.Name))
			}
			axes = rw.RequestAxes(axes[0])
		}
		for _, a := range axes {
			if _, dup := c.index[a.Name]; dup {
				return ConfigError("request axis '" + a.Name + "' defined twice")
			}
			c.index[a.Name] = len(c.axes)
			c.axes = append(c.axes, requestAxis{Axis: a, storage: s.Name})
		}
	}

	for name, list := range c.configured {
		if c.isStorage(name) {
			continue
		}
		if _, ok := c.index[name]; !ok {
			return ConfigError("configured axis '" + name + "' is not an axis of the datacube")
		}
		for _, t := range list {
			if _, ok := t.(AxisRewriter); ok {
				return ConfigError(fmt.Sprintf("%s must be configured on a storage axis, not '%s'", t.Name(), name))
			}
		}
	}

	for i := range c.axes {
		ra := &c.axes[i]
		if ra.Name != ra.storage {
			ra.chain = append(ra.chain, c.configured[ra.Name]...)
		}
		ra.chain = append(ra.chain, c.configured[ra.storage]...)

		storageType := c.storage[slices.IndexFunc(c.storage, func(a Axis) bool { return a.Name == ra.storage })].Type
		stage := Null(storageType, c.sourceIndexer(ra.storage))
		for j := len(ra.chain) - 1; j >= 0; j-- {
			stage = ra.chain[j].Wrap(c, ra.Axis, stage)
		}
		ra.stage = stage
	}
	return nil
}

// Transformations on request-only axes are undone first, as they wrap those on the storage axis.
func (c *Cube) buildUnmapOrder() {
	for _, ra := range c.axes {
		if ra.Name != ra.storage {
			c.unmapOrder = append(c.unmapOrder, c.configured[ra.Name]...)
		}
	}
	for _, s := range c.storage {
		c.unmapOrder = append(c.unmapOrder, c.configured[s.Name]...)
	}
}

func (c *Cube) sourceIndexer(axis string) Indexer {
	return IndexerFunc(func(path tree.Path) ([]any, error) {
		storage, err := c.storagePath(path)
		if err != nil {
			return nil, err
		}
		return c.source.Values(storage, axis)
	})
}

func (c *Cube) storagePath(path tree.Path) (tree.Path, error) {
	return c.Unmap(path)
}

func (c *Cube) lookup(axis string) (*requestAxis, error) {
	i, ok := c.index[axis]
	if !ok {
		return nil, AxisNotFoundError{Axis: axis}
	}
	return &c.axes[i], nil
}

func (c *Cube) axisType(axis string) AxisType {
	if ra, err := c.lookup(axis); err == nil {
		return ra.Type
	}
	return AxisUnknown
}

// The request axes, outermost first.
func (c *Cube) Axes() []string {
	names := make([]string, len(c.axes))
	for i, a := range c.axes {
		names[i] = a.Name
	}
	return names
}

func (c *Cube) Axis(name string) (Axis, bool) {
	ra, err := c.lookup(name)
	if err != nil {
		return Axis{}, false
	}
	return ra.Axis, true
}

// The axes of the underlying source, outermost first.
func (c *Cube) StorageAxes() []Axis {
	return slices.Clone(c.storage)
}

func (c *Cube) Sliceable(axis string) bool {
	return c.axisType(axis).Sliceable()
}

func (c *Cube) Tolerance(axis string) float64 {
	return c.axisType(axis).Tolerance()
}

// Converts a request value into the native representation of an axis.
func (c *Cube) Parse(axis string, v any) (any, error) {
	ra, err := c.lookup(axis)
	if err != nil {
		return nil, err
	}
	native, err := ra.Type.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("polytope: axis '%s': %w", axis, err)
	}
	return native, nil
}

// Converts a shape coordinate into the float form of a sliceable axis.
func (c *Cube) ParseFloat(axis string, v any) (float64, error) {
	ra, err := c.lookup(axis)
	if err != nil {
		return 0, err
	}
	f, err := ra.Type.ParseFloat(v)
	if err != nil {
		return 0, fmt.Errorf("polytope: axis '%s': %w", axis, err)
	}
	return f, nil
}

func (c *Cube) ToFloat(axis string, v any) float64 {
	return c.axisType(axis).ToFloat(v)
}

func (c *Cube) FromFloat(axis string, f float64) any {
	return c.axisType(axis).FromFloat(f)
}

// Orders two native values of an axis, treating values within the axis tolerance as equal. It has
// the signature of tree.Compare, so result trees deduplicate with the tolerance of each axis.
func (c *Cube) Compare(axis string, a, b any) int {
	ra, err := c.lookup(axis)
	if err != nil {
		return tree.DefaultCompare(axis, a, b)
	}
	return ra.Type.CompareTolerant(a, b)
}

// All native values of an axis below a partially resolved request path.
func (c *Cube) FindIndexes(axis string, path tree.Path) ([]any, error) {
	ra, err := c.lookup(axis)
	if err != nil {
		return nil, err
	}
	return ra.stage.FindIndexes(path)
}

// The native values v of an axis below path with low <= v <= up.
func (c *Cube) FindIndicesBetween(axis string, path tree.Path, low, up float64) ([]any, error) {
	ra, err := c.lookup(axis)
	if err != nil {
		return nil, err
	}
	return ra.stage.FindIndicesBetween(path, low, up)
}

// The ranges a requested range of an axis is resolved through after the outermost transformation.
func (c *Cube) Remap(axis string, low, up float64) ([]Range, error) {
	ra, err := c.lookup(axis)
	if err != nil {
		return nil, err
	}
	return ra.stage.Remap(low, up), nil
}

// The transformations an axis resolves through, outermost first.
func (c *Cube) Transformations(axis string) []Transformation {
	ra, err := c.lookup(axis)
	if err != nil {
		return nil
	}
	return slices.Clone(ra.chain)
}

// The grid mapper of the datacube, if one of its axes is mapped.
func (c *Cube) Mapper() (grid.Mapper, bool) {
	if c.mapping == nil {
		return nil, false
	}
	return c.mapping.Mapper, true
}

// Checks that a request names every axis of the datacube exactly once.
func (c *Cube) Validate(requested []string) error {
	return ValidateAxes(c.Axes(), requested)
}

// Translates a request path, such as a leaf of a result tree, into storage coordinates.
func (c *Cube) Unmap(path tree.Path) (tree.Path, error) {
	out := slices.Clone(path)
	for _, t := range c.unmapOrder {
		var err error
		if out, err = t.Unmap(c, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}
