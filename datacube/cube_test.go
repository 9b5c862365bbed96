package datacube

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gracefulearth/gopolytope/grid"
	"github.com/gracefulearth/gopolytope/tree"
)

const forecastConfig = `
- name: date
  transformations:
    - name: merge
      other_axis: time
- name: step
  transformations:
    - name: type_change
      type: int
- name: values
  transformations:
    - name: mapper
      type: octahedral
      resolution: 8
      axes: [latitude, longitude]
- name: longitude
  transformations:
    - name: cyclic
      range: [0, 360]
`

func forecastSource() *InMemorySource {
	return NewInMemorySource(
		InMemoryAxis{Axis: Axis{Name: "date", Type: AxisString}, Values: []any{"20240101", "20240102"}},
		InMemoryAxis{Axis: Axis{Name: "time", Type: AxisString}, Values: []any{"0000", "1200"}},
		InMemoryAxis{Axis: Axis{Name: "step", Type: AxisString}, Values: []any{"0", "6", "12"}},
		InMemoryAxis{Axis: Axis{Name: "values", Type: AxisInt64}},
	)
}

func forecastCube(t *testing.T, src Source) *Cube {
	t.Helper()
	configs, err := LoadAxisConfigs(strings.NewReader(forecastConfig))
	require.NoError(t, err)
	c, err := New(src, configs...)
	require.NoError(t, err)
	return c
}

func TestLoadAxisConfigs(t *testing.T) {
	configs, err := LoadAxisConfigs(strings.NewReader(forecastConfig))
	require.NoError(t, err)
	require.Len(t, configs, 4)
	assert.Equal(t, "values", configs[2].Name)
	assert.Equal(t, TransformationConfig{
		Name:       "mapper",
		Type:       "octahedral",
		Resolution: 8,
		Axes:       []string{"latitude", "longitude"},
	}, configs[2].Transformations[0])
	assert.Equal(t, []float64{0, 360}, configs[3].Transformations[0].Range)

	configs, err = LoadAxisConfigs(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, configs)

	_, err = LoadAxisConfigs(strings.NewReader("- name: lon\n  transformations:\n    - name: rotate\n"))
	var cfgErr ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestCubeAxes(t *testing.T) {
	c := forecastCube(t, forecastSource())
	assert.Equal(t, []string{"date", "step", "latitude", "longitude"}, c.Axes())

	tests := []struct {
		axis      string
		typ       AxisType
		sliceable bool
		chain     []string
	}{
		{"date", AxisTime, true, []string{"merge"}},
		{"step", AxisInt64, true, []string{"type_change"}},
		{"latitude", AxisFloat64, true, []string{"mapper"}},
		{"longitude", AxisFloat64, true, []string{"cyclic", "mapper"}},
	}
	for _, tt := range tests {
		t.Run(tt.axis, func(t *testing.T) {
			axis, ok := c.Axis(tt.axis)
			require.True(t, ok)
			assert.Equal(t, tt.typ, axis.Type)
			assert.Equal(t, tt.sliceable, c.Sliceable(tt.axis))
			var names []string
			for _, tr := range c.Transformations(tt.axis) {
				names = append(names, tr.Name())
			}
			assert.Equal(t, tt.chain, names)
		})
	}

	_, ok := c.Axis("time")
	assert.False(t, ok)
	m, ok := c.Mapper()
	require.True(t, ok)
	assert.Equal(t, 8, m.Resolution())
	assert.Len(t, c.StorageAxes(), 4)
}

func TestCubeValidate(t *testing.T) {
	c := forecastCube(t, forecastSource())
	assert.NoError(t, c.Validate([]string{"longitude", "latitude", "step", "date"}))
	assert.Equal(t, AxisNotFoundError{Axis: "time"}, c.Validate([]string{"date", "step", "latitude", "longitude", "time"}))
	assert.Equal(t, AxisUnderdefinedError{Axis: "step"}, c.Validate([]string{"date", "latitude", "longitude"}))
}

func TestCubeMergedAxis(t *testing.T) {
	c := forecastCube(t, forecastSource())
	all, err := c.FindIndexes("date", nil)
	require.NoError(t, err)
	assert.Equal(t, []any{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC),
	}, all)

	low, err := c.Parse("date", "2024-01-01T12:00:00Z")
	require.NoError(t, err)
	up, err := c.Parse("date", "20240102")
	require.NoError(t, err)
	found, err := c.FindIndicesBetween("date", nil, c.ToFloat("date", low), c.ToFloat("date", up))
	require.NoError(t, err)
	assert.Equal(t, []any{
		time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, found)
}

func TestCubeTypeChangedAxis(t *testing.T) {
	c := forecastCube(t, forecastSource())
	found, err := c.FindIndicesBetween("step", nil, 1, 12)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(6), int64(12)}, found)

	step, err := c.Parse("step", "6")
	require.NoError(t, err)
	assert.Equal(t, int64(6), step)
}

func TestCubeMappedAxes(t *testing.T) {
	c := forecastCube(t, forecastSource())
	lats, err := c.FindIndicesBetween("latitude", nil, 0, 90)
	require.NoError(t, err)
	require.Len(t, lats, 8)

	equator := grid.GaussianLatitudes(8)[7]
	path := tree.Path{{Axis: "latitude", Value: equator}}
	lons, err := c.FindIndexes("longitude", path)
	require.NoError(t, err)
	assert.Len(t, lons, 48)

	found, err := c.FindIndicesBetween("longitude", path, -10, 10)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-7.5, 0, 7.5}, toFloats(t, found), 1e-9)

	ranges, err := c.Remap("longitude", -10, 10)
	require.NoError(t, err)
	assert.Equal(t, []Range{{Low: 350, Up: 360}, {Low: 0, Up: 10}}, ranges)

	_, err = c.FindIndexes("longitude", nil)
	assert.Equal(t, AxisUnderdefinedError{Axis: "latitude"}, err)
	_, err = c.FindIndexes("pressure", nil)
	assert.Equal(t, AxisNotFoundError{Axis: "pressure"}, err)
}

func TestCubeUnmap(t *testing.T) {
	c := forecastCube(t, forecastSource())
	equator := grid.GaussianLatitudes(8)[7]
	leaf := tree.Path{
		{Axis: "date", Value: time.Date(2024, 1, 2, 12, 0, 0, 0, time.UTC)},
		{Axis: "step", Value: int64(6)},
		{Axis: "latitude", Value: equator},
		{Axis: "longitude", Value: -7.5},
	}
	storage, err := c.Unmap(leaf)
	require.NoError(t, err)
	assert.Equal(t, tree.Path{
		{Axis: "date", Value: "20240102"},
		{Axis: "time", Value: "1200"},
		{Axis: "step", Value: "6"},
		{Axis: "values", Value: int64(224 + 47)},
	}, storage)

	partial, err := c.Unmap(leaf[:3])
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "time", "step"}, partial.Axes())
}

func TestCubeSparseSource(t *testing.T) {
	src := forecastSource().Branch(tree.Path{{Axis: "date", Value: "20240102"}}, "step", "0")
	c := forecastCube(t, src)

	early := tree.Path{{Axis: "date", Value: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
	steps, err := c.FindIndexes("step", early)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(6), int64(12)}, steps)

	late := tree.Path{{Axis: "date", Value: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}}
	steps, err = c.FindIndexes("step", late)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0)}, steps)
}

func TestCubeCompare(t *testing.T) {
	c := forecastCube(t, forecastSource())
	assert.Equal(t, 0, c.Compare("latitude", 1.0, 1.0+1e-13))
	assert.Equal(t, -1, c.Compare("step", int64(0), int64(6)))
	assert.Equal(t, 1, c.Compare("unknown", "b", "a"))
	assert.Equal(t, 1e-12, c.Tolerance("longitude"))
	assert.Equal(t, int64(3), c.FromFloat("step", 3.2))
}

func TestNewCubeErrors(t *testing.T) {
	src := forecastSource()
	tests := []struct {
		name    string
		configs []AxisConfig
	}{
		{"unknown transformation", []AxisConfig{{Name: "date", Transformations: []TransformationConfig{{Name: "rotate"}}}}},
		{"cyclic without range", []AxisConfig{{Name: "step", Transformations: []TransformationConfig{{Name: "cyclic"}}}}},
		{"merge without other axis", []AxisConfig{{Name: "date", Transformations: []TransformationConfig{{Name: "merge"}}}}},
		{"merge with unknown axis", []AxisConfig{{Name: "date", Transformations: []TransformationConfig{{Name: "merge", OtherAxis: "hour"}}}}},
		{"mapper without resolution", []AxisConfig{{Name: "values", Transformations: []TransformationConfig{{Name: "mapper", Axes: []string{"lat", "lon"}}}}}},
		{"mapper of unknown grid", []AxisConfig{{Name: "values", Transformations: []TransformationConfig{{Name: "mapper", Type: "healpix", Resolution: 4, Axes: []string{"lat", "lon"}}}}}},
		{"type change to string", []AxisConfig{{Name: "step", Transformations: []TransformationConfig{{Name: "type_change", Type: "string"}}}}},
		{"unknown axis", []AxisConfig{{Name: "pressure", Transformations: []TransformationConfig{{Name: "reverse"}}}}},
		{"configured twice", []AxisConfig{{Name: "step"}, {Name: "step"}}},
		{"mapper on a request axis", []AxisConfig{
			{Name: "values", Transformations: []TransformationConfig{{Name: "mapper", Resolution: 4, Axes: []string{"lat", "lon"}}}},
			{Name: "lon", Transformations: []TransformationConfig{{Name: "type_change", Type: "int"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(src, tt.configs...)
			var cfgErr ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestInMemorySource(t *testing.T) {
	src := forecastSource().
		Branch(tree.Path{{Axis: "date", Value: "20240102"}}, "step", "0").
		Branch(tree.Path{{Axis: "date", Value: "20240102"}, {Axis: "time", Value: "1200"}}, "step", "0", "6")

	steps, err := src.Values(tree.Path{{Axis: "date", Value: "20240102"}, {Axis: "time", Value: "0000"}}, "step")
	require.NoError(t, err)
	assert.Equal(t, []any{"0"}, steps)

	steps, err = src.Values(tree.Path{{Axis: "date", Value: "20240102"}, {Axis: "time", Value: "1200"}}, "step")
	require.NoError(t, err)
	assert.Equal(t, []any{"0", "6"}, steps)

	steps, err = src.Values(nil, "step")
	require.NoError(t, err)
	assert.Equal(t, []any{"0", "6", "12"}, steps)

	_, err = src.Values(nil, "pressure")
	assert.Equal(t, AxisNotFoundError{Axis: "pressure"}, err)
}

func TestDimensionSet(t *testing.T) {
	set := DimensionSet{{Name: "a", Size: 2}, {Name: "b", Size: 3}}
	assert.Equal(t, 6, set.Samples())
	assert.Zero(t, DimensionSet{}.Samples())

	values, err := set.Values(nil, "b")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(0), int64(1), int64(2)}, values)

	expected := 0
	for b := range int64(3) {
		for a := range int64(2) {
			idx, err := set.Index(tree.Path{{Axis: "a", Value: a}, {Axis: "b", Value: b}})
			require.NoError(t, err)
			assert.Equal(t, expected, idx)
			expected++
		}
	}

	_, err = set.Index(tree.Path{{Axis: "a", Value: int64(0)}})
	assert.Equal(t, AxisUnderdefinedError{Axis: "b"}, err)
	_, err = set.Index(tree.Path{{Axis: "a", Value: int64(2)}, {Axis: "b", Value: int64(0)}})
	assert.Error(t, err)

	c, err := New(set)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, c.Axes())
	found, err := c.FindIndicesBetween("b", nil, 0.5, 2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, found)
}
