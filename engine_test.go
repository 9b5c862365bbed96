package polytope

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracefulearth/gopolytope/datacube"
	"github.com/gracefulearth/gopolytope/tree"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func floatAxis(name string, values ...float64) datacube.InMemoryAxis {
	axis := datacube.InMemoryAxis{Axis: datacube.Axis{Name: name, Type: datacube.AxisFloat64}}
	for _, v := range values {
		axis.Values = append(axis.Values, v)
	}
	return axis
}

func integers(n int) []float64 {
	out := make([]float64, n+1)
	for i := range out {
		out[i] = float64(i)
	}
	return out
}

// A dense datacube with float axes x and y holding the integers 0 to n.
func gridCube(t *testing.T, n int) *datacube.Cube {
	t.Helper()
	c, err := datacube.New(datacube.NewInMemorySource(floatAxis("x", integers(n)...), floatAxis("y", integers(n)...)))
	require.NoError(t, err)
	return c
}

func mapperConfigs(resolution int, cyclic bool) []datacube.AxisConfig {
	configs := []datacube.AxisConfig{{
		Name: "values",
		Transformations: []datacube.TransformationConfig{{
			Name:       "mapper",
			Type:       "octahedral",
			Resolution: resolution,
			Axes:       []string{"latitude", "longitude"},
		}},
	}}
	if cyclic {
		configs = append(configs, datacube.AxisConfig{
			Name:            "longitude",
			Transformations: []datacube.TransformationConfig{{Name: "cyclic", Range: []float64{0, 360}}},
		})
	}
	return configs
}

// A datacube storing an octahedral grid on a values axis below any extra axes.
func octahedralCube(t *testing.T, resolution int, cyclic bool, extra ...datacube.InMemoryAxis) *datacube.Cube {
	t.Helper()
	axes := append(extra, datacube.InMemoryAxis{Axis: datacube.Axis{Name: "values", Type: datacube.AxisInt64}})
	c, err := datacube.New(datacube.NewInMemorySource(axes...), mapperConfigs(resolution, cyclic)...)
	require.NoError(t, err)
	return c
}

func newEngine(t *testing.T, c *datacube.Cube, opts Options) *Engine {
	t.Helper()
	e, err := NewEngine(c, opts, discardLogger())
	require.NoError(t, err)
	return e
}

func leafCoordinates(t *testing.T, c *datacube.Cube, result *tree.Tree) [][]float64 {
	t.Helper()
	var out [][]float64
	for leaf := range result.Leaves() {
		require.Len(t, leaf, len(c.Axes()))
		coords := make([]float64, len(leaf))
		for i, coord := range leaf {
			coords[i] = c.ToFloat(coord.Axis, coord.Value)
		}
		out = append(out, coords)
	}
	return out
}

func leafStrings(result *tree.Tree) []string {
	var out []string
	for leaf := range result.Leaves() {
		out = append(out, leaf.String())
	}
	return out
}

func TestSliceBoxOnOctahedralGrid(t *testing.T) {
	c := octahedralCube(t, 640, false)
	e := newEngine(t, c, DefaultOptions())

	box := mustBox(t, []string{"latitude", "longitude"}, []any{0, 0}, []any{1, 1})
	result, err := e.Slice(context.Background(), box)
	require.NoError(t, err)
	require.False(t, result.Empty())

	leaves := leafCoordinates(t, c, result)
	assert.Greater(t, len(leaves), 20)
	for _, leaf := range leaves {
		assert.GreaterOrEqual(t, leaf[0], 0.0)
		assert.LessOrEqual(t, leaf[0], 1.0)
		assert.GreaterOrEqual(t, leaf[1], 0.0)
		assert.LessOrEqual(t, leaf[1], 1.0)
	}
}

func TestSliceRejectsComplexPolygon(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxPolygonPoints = 4
	e := newEngine(t, gridCube(t, 4), opts)

	l, err := NewPolygon([]string{"x", "y"}, anyPoints(lShape())...)
	require.NoError(t, err)
	_, err = e.Slice(context.Background(), l)
	var tooComplex ShapeTooComplexError
	require.ErrorAs(t, err, &tooComplex)
	assert.Equal(t, ShapeTooComplexError{Points: 6, Max: 4}, tooComplex)
}

func TestSliceAxisMismatch(t *testing.T) {
	tm := datacube.InMemoryAxis{
		Axis:   datacube.Axis{Name: "time", Type: datacube.AxisTime},
		Values: []any{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	c, err := datacube.New(datacube.NewInMemorySource(floatAxis("lat", 0, 1, 2), floatAxis("lon", 0, 1, 2), tm))
	require.NoError(t, err)
	e := newEngine(t, c, DefaultOptions())

	box := mustBox(t, []string{"lat", "lon"}, []any{0, 0}, []any{1, 1})
	when, err := NewSelect("time", "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	pressure, err := NewSelect("pressure", 500)
	require.NoError(t, err)

	_, err = e.Slice(context.Background(), box, when, pressure)
	assert.Equal(t, AxisNotFoundError{Axis: "pressure"}, err)

	_, err = e.Slice(context.Background(), box)
	assert.Equal(t, AxisUnderdefinedError{Axis: "time"}, err)

	_, err = e.Slice(context.Background(), box, NewSpan("lat", 0, 1), when)
	assert.Equal(t, AxisOverdefinedError{Axis: "lat"}, err)

	result, err := e.Slice(context.Background(), box, when)
	require.NoError(t, err)
	assert.Equal(t, 4, result.LeafCount())
}

func TestSliceConcavePolygon(t *testing.T) {
	c := gridCube(t, 4)
	l, err := NewPolygon([]string{"x", "y"}, anyPoints(lShape())...)
	require.NoError(t, err)

	for _, workers := range []int{1, 4} {
		opts := DefaultOptions()
		opts.Workers = workers
		result, err := newEngine(t, c, opts).Slice(context.Background(), l)
		require.NoError(t, err)

		leaves := leafCoordinates(t, c, result)
		assert.Len(t, leaves, 21, "workers %d", workers)
		for _, leaf := range leaves {
			assert.False(t, leaf[0] > 2 && leaf[1] > 2, "leaf %v lies in the notch", leaf)
		}
	}
}

func TestSliceWorkersAgree(t *testing.T) {
	c := gridCube(t, 10)
	shapes := func() []Shape {
		a, err := NewPolygon([]string{"x", "y"}, []any{0, 0}, []any{10, 0}, []any{0, 10})
		require.NoError(t, err)
		b, err := NewDisk([]string{"x", "y"}, [2]float64{7, 7}, [2]float64{2, 3})
		require.NoError(t, err)
		u, err := NewUnion(a, b)
		require.NoError(t, err)
		return []Shape{u}
	}

	serial, err := newEngine(t, c, DefaultOptions()).Slice(context.Background(), shapes()...)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Workers = 8
	parallel, err := newEngine(t, c, opts).Slice(context.Background(), shapes()...)
	require.NoError(t, err)

	assert.Equal(t, leafStrings(serial), leafStrings(parallel))
	assert.GreaterOrEqual(t, serial.LeafCount(), 66)
}

func TestSliceDisk(t *testing.T) {
	c := gridCube(t, 10)
	d, err := NewDisk([]string{"x", "y"}, [2]float64{5, 5}, [2]float64{2, 2})
	require.NoError(t, err)
	result, err := newEngine(t, c, DefaultOptions()).Slice(context.Background(), d)
	require.NoError(t, err)

	leaves := leafCoordinates(t, c, result)
	assert.Len(t, leaves, 13)
	for _, leaf := range leaves {
		dx, dy := leaf[0]-5, leaf[1]-5
		assert.LessOrEqual(t, dx*dx+dy*dy, 4.0)
	}
}

func TestSliceIntegerAxes(t *testing.T) {
	c, err := datacube.New(datacube.DimensionSet{{Name: "x", Size: 10}, {Name: "y", Size: 10}})
	require.NoError(t, err)
	e := newEngine(t, c, DefaultOptions())

	box := mustBox(t, []string{"x", "y"}, []any{0.5, 0.5}, []any{3.5, 3.5})
	result, err := e.Slice(context.Background(), box)
	require.NoError(t, err)
	assert.Equal(t, 9, result.LeafCount())
	for _, leaf := range leafCoordinates(t, c, result) {
		assert.GreaterOrEqual(t, leaf[0], 1.0)
		assert.LessOrEqual(t, leaf[1], 3.0)
	}

	d, err := NewDisk([]string{"x", "y"}, [2]float64{5, 5}, [2]float64{2, 2})
	require.NoError(t, err)
	result, err = e.Slice(context.Background(), d)
	require.NoError(t, err)
	leaves := leafCoordinates(t, c, result)
	assert.Len(t, leaves, 13)
	for _, leaf := range leaves {
		dx, dy := leaf[0]-5, leaf[1]-5
		assert.LessOrEqual(t, dx*dx+dy*dy, 4.0)
	}
}

func TestSliceEllipsoid(t *testing.T) {
	c, err := datacube.New(datacube.NewInMemorySource(
		floatAxis("x", integers(6)...), floatAxis("y", integers(6)...), floatAxis("z", integers(6)...)))
	require.NoError(t, err)
	e, err := NewEllipsoid([]string{"x", "y", "z"}, [3]float64{3, 3, 3}, [3]float64{2, 2, 2})
	require.NoError(t, err)
	result, err := newEngine(t, c, DefaultOptions()).Slice(context.Background(), e)
	require.NoError(t, err)

	inSphere := 0
	for _, leaf := range leafCoordinates(t, c, result) {
		dx, dy, dz := leaf[0]-3, leaf[1]-3, leaf[2]-3
		d2 := dx*dx + dy*dy + dz*dz
		assert.LessOrEqual(t, d2, 6.4, "leaf %v", leaf)
		if d2 <= 4 {
			inSphere++
		}
	}
	// every grid point of the sphere is covered by the circumscribed icosahedron
	assert.Equal(t, 33, inSphere)
}

func TestSlicePath(t *testing.T) {
	c := gridCube(t, 10)
	e := newEngine(t, c, DefaultOptions())
	square := mustBox(t, []string{"x", "y"}, []any{-0.5, -0.5}, []any{0.5, 0.5})

	diagonal, err := NewPathSegment(square, []float64{1, 1}, []float64{4, 4})
	require.NoError(t, err)
	result, err := e.Slice(context.Background(), diagonal)
	require.NoError(t, err)
	assert.Equal(t, 10, result.LeafCount())
	for _, leaf := range leafCoordinates(t, c, result) {
		assert.LessOrEqual(t, math.Abs(leaf[0]-leaf[1]), 1.0)
	}

	points := [][]float64{{1, 1}, {4, 1}, {4, 4}}
	tests := []struct {
		closed bool
		leaves int
	}{
		{false, 7},
		{true, 13},
	}
	for _, tt := range tests {
		path, err := NewPath(square, tt.closed, points...)
		require.NoError(t, err)
		result, err := e.Slice(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, tt.leaves, result.LeafCount(), "closed %v", tt.closed)
	}
}

func TestSliceBoxDecomposition(t *testing.T) {
	c := gridCube(t, 10)
	box := mustBox(t, []string{"y", "x"}, []any{2, 1}, []any{5, 3})
	for _, decompose := range []bool{true, false} {
		opts := DefaultOptions()
		opts.DecomposeBoxes = decompose
		result, err := newEngine(t, c, opts).Slice(context.Background(), box)
		require.NoError(t, err)
		assert.Equal(t, 12, result.LeafCount(), "decompose %v", decompose)
		for leaf := range result.Leaves() {
			assert.Equal(t, []string{"x", "y"}, leaf.Axes())
		}
	}
}

func TestSliceNearestPoint(t *testing.T) {
	c := gridCube(t, 10)
	pt, err := NewPoint([]string{"x", "y"}, []any{2.4, 3.6})
	require.NoError(t, err)

	result, err := newEngine(t, c, DefaultOptions()).Slice(context.Background(), pt)
	require.NoError(t, err)
	assert.True(t, result.Empty())

	pt.Nearest = true
	result, err = newEngine(t, c, DefaultOptions()).Slice(context.Background(), pt)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 4}}, leafCoordinates(t, c, result))
}

func TestSliceCategoricalAxis(t *testing.T) {
	param := datacube.InMemoryAxis{
		Axis:   datacube.Axis{Name: "param", Type: datacube.AxisString},
		Values: []any{"t2m", "u10", "v10"},
	}
	step := datacube.InMemoryAxis{
		Axis:   datacube.Axis{Name: "step", Type: datacube.AxisInt64},
		Values: []any{int64(0), int64(6), int64(12), int64(18)},
	}
	c, err := datacube.New(datacube.NewInMemorySource(param, step))
	require.NoError(t, err)
	e := newEngine(t, c, DefaultOptions())

	sel, err := NewSelect("param", "t2m", "v10", "q")
	require.NoError(t, err)
	result, err := e.Slice(context.Background(), sel, NewSpan("step", 5, 13))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"{param=t2m, step=6}",
		"{param=t2m, step=12}",
		"{param=v10, step=6}",
		"{param=v10, step=12}",
	}, leafStrings(result))

	first, err := NewSelect("step", 0)
	require.NoError(t, err)
	result, err = e.Slice(context.Background(), NewAll("param"), first)
	require.NoError(t, err)
	assert.Equal(t, 3, result.LeafCount())

	_, err = e.Slice(context.Background(), NewSpan("param", "t2m", "v10"), first)
	assert.Equal(t, UnsliceableShapeError{Axis: "param"}, err)

	missing, err := NewSelect("param", "q")
	require.NoError(t, err)
	result, err = e.Slice(context.Background(), missing, first)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}

func TestSliceTimeAxis(t *testing.T) {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm := datacube.InMemoryAxis{Axis: datacube.Axis{Name: "time", Type: datacube.AxisTime}}
	for h := 0; h < 48; h += 6 {
		tm.Values = append(tm.Values, day.Add(time.Duration(h)*time.Hour))
	}
	c, err := datacube.New(datacube.NewInMemorySource(tm, floatAxis("level", 500, 850, 1000)))
	require.NoError(t, err)

	levels, err := NewSelect("level", 850, 1000)
	require.NoError(t, err)
	result, err := newEngine(t, c, DefaultOptions()).Slice(context.Background(),
		NewSpan("time", day.Add(6*time.Hour), "2024-01-01T18:00:00Z"), levels)
	require.NoError(t, err)
	assert.Equal(t, 6, result.LeafCount())
	for leaf := range result.Leaves() {
		v, ok := leaf.Get("time")
		require.True(t, ok)
		assert.Equal(t, 1, v.(time.Time).Day())
	}
}

func TestSliceIntersectsConstraints(t *testing.T) {
	c := gridCube(t, 10)
	ps := mustPolytopes(t, DefaultOptions(), NewSpan("y", 0, 1))
	extra, err := NewSpan("x", 0, 5).Polytopes(DefaultOptions())
	require.NoError(t, err)
	more, err := NewSpan("x", 3, 8).Polytopes(DefaultOptions())
	require.NoError(t, err)

	groups, axes := Group(append(append(ps, extra...), more...))
	require.NoError(t, c.Validate(axes))
	result, err := NewSlicer(c, DefaultOptions(), discardLogger()).Slice(context.Background(), TensorProduct(groups))
	require.NoError(t, err)

	var xs []float64
	for _, leaf := range leafCoordinates(t, c, result) {
		if leaf[1] == 0 {
			xs = append(xs, leaf[0])
		}
	}
	assert.Equal(t, []float64{3, 4, 5}, xs)
	assert.Equal(t, 6, result.LeafCount())
}

func TestSliceCancelled(t *testing.T) {
	c := gridCube(t, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newEngine(t, c, DefaultOptions()).Slice(ctx, mustBox(t, []string{"x", "y"}, []any{0, 0}, []any{5, 5}))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocate(t *testing.T) {
	c := octahedralCube(t, 8, true)
	e := newEngine(t, c, DefaultOptions())

	box := mustBox(t, []string{"latitude", "longitude"}, []any{0, -10}, []any{10, 10})
	result, err := e.Slice(context.Background(), box)
	require.NoError(t, err)
	var lons []float64
	for _, leaf := range leafCoordinates(t, c, result) {
		lons = append(lons, leaf[1])
	}
	assert.InDeltaSlice(t, []float64{-7.5, 0, 7.5}, lons, 1e-9)

	locations, err := e.Locate(result)
	require.NoError(t, err)
	require.Len(t, locations, 1)
	assert.Empty(t, locations[0].Path)
	assert.Equal(t, []uint32{224, 225, 271}, locations[0].Indices.ToArray())
}

func TestSliceCyclicSeam(t *testing.T) {
	c := octahedralCube(t, 8, true)
	e := newEngine(t, c, DefaultOptions())
	points := 4*8*8 + 36*8

	tests := []struct {
		name   string
		lower  float64
		upper  float64
		leaves int
	}{
		{"one period", 0, 360, points},
		// -180 and 180 are the same column of every row, reached from two periods
		{"centred on the meridian", -180, 180, points + 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := mustBox(t, []string{"latitude", "longitude"}, []any{-90, tt.lower}, []any{90, tt.upper})
			result, err := e.Slice(context.Background(), box)
			require.NoError(t, err)
			assert.Equal(t, tt.leaves, result.LeafCount())

			locations, err := e.Locate(result)
			require.NoError(t, err)
			require.Len(t, locations, 1)
			assert.Equal(t, uint64(points), locations[0].Indices.GetCardinality())
		})
	}
}

func TestLocateOtherGrids(t *testing.T) {
	all := []Shape{NewAll("latitude"), NewAll("longitude")}
	tests := []struct {
		name     string
		mapper   datacube.TransformationConfig
		shapes   []Shape
		expected []uint32
	}{
		{
			name:     "healpix",
			mapper:   datacube.TransformationConfig{Type: "healpix", Resolution: 2},
			shapes:   all,
			expected: integerRange(48),
		},
		{
			name:     "local regular",
			mapper:   datacube.TransformationConfig{Type: "local_regular", Resolution: 10, Local: []float64{40, 50, -10, 0}},
			shapes:   []Shape{mustBox(t, []string{"latitude", "longitude"}, []any{42, -3}, []any{44, -1})},
			expected: []uint32{73, 74, 75, 84, 85, 86, 95, 96, 97},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.mapper
			cfg.Name = "mapper"
			cfg.Axes = []string{"latitude", "longitude"}
			src := datacube.NewInMemorySource(datacube.InMemoryAxis{Axis: datacube.Axis{Name: "values", Type: datacube.AxisInt64}})
			c, err := datacube.New(src, datacube.AxisConfig{Name: "values", Transformations: []datacube.TransformationConfig{cfg}})
			require.NoError(t, err)
			e := newEngine(t, c, DefaultOptions())

			result, err := e.Slice(context.Background(), tt.shapes...)
			require.NoError(t, err)
			locations, err := e.Locate(result)
			require.NoError(t, err)
			require.Len(t, locations, 1)
			assert.Equal(t, tt.expected, locations[0].Indices.ToArray())
		})
	}
}

func integerRange(n int) []uint32 {
	out := make([]uint32, n)
	for i := range out {
		out[i] = uint32(i)
	}
	return out
}

func TestLocateWholeGrid(t *testing.T) {
	step := datacube.InMemoryAxis{
		Axis:   datacube.Axis{Name: "step", Type: datacube.AxisInt64},
		Values: []any{int64(0), int64(6), int64(12)},
	}
	c := octahedralCube(t, 8, false, step)
	e := newEngine(t, c, DefaultOptions())

	steps, err := NewSelect("step", 0, 12)
	require.NoError(t, err)
	result, err := e.Slice(context.Background(), steps, NewAll("latitude"), NewAll("longitude"))
	require.NoError(t, err)

	locations, err := e.Locate(result)
	require.NoError(t, err)
	require.Len(t, locations, 2)
	for i, want := range []int64{0, 12} {
		assert.Equal(t, tree.Path{{Axis: "step", Value: want}}, locations[i].Path)
		assert.Equal(t, uint64(4*8*8+36*8), locations[i].Indices.GetCardinality())
		assert.Equal(t, uint32(4*8*8+36*8-1), locations[i].Indices.Maximum())
	}

	_, err = newEngine(t, gridCube(t, 2), DefaultOptions()).Locate(result)
	var unsupported datacube.UnsupportedError
	assert.ErrorAs(t, err, &unsupported)
}
