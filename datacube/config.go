package datacube

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/gracefulearth/gopolytope/grid"
)

var validate = validator.New()

// Configures one transformation of an axis. Which fields apply depends on Name:
//
//	cyclic       range: [lower, upper]
//	mapper       type: octahedral | regular | healpix | healpix_nested | local_regular,
//	             resolution, axes: [outer, inner], implementation: fast | reference,
//	             local: [south, north, west, east] for local_regular
//	reverse      no options
//	type_change  type: the axis type values are presented as, such as int
//	merge        other_axis, linkers: [between, after]
type TransformationConfig struct {
	Name           string    `yaml:"name" validate:"required,oneof=cyclic mapper reverse type_change merge"`
	Range          []float64 `yaml:"range,omitempty" validate:"omitempty,len=2"`
	Type           string    `yaml:"type,omitempty"`
	Resolution     int       `yaml:"resolution,omitempty" validate:"gte=0"`
	Axes           []string  `yaml:"axes,omitempty" validate:"omitempty,len=2,dive,required"`
	Implementation string    `yaml:"implementation,omitempty" validate:"omitempty,oneof=fast reference"`
	Local          []float64 `yaml:"local,omitempty" validate:"omitempty,len=4"`
	OtherAxis      string    `yaml:"other_axis,omitempty" validate:"required_if=Name merge"`
	Linkers        []string  `yaml:"linkers,omitempty" validate:"omitempty,len=2"`
}

// The ordered transformations of one axis, named either by a storage axis or by an axis a
// transformation on a storage axis introduces.
type AxisConfig struct {
	Name            string                 `yaml:"name" validate:"required"`
	Transformations []TransformationConfig `yaml:"transformations" validate:"dive"`
}

// Decodes a YAML list of axis configurations and validates each of them.
func LoadAxisConfigs(r io.Reader) ([]AxisConfig, error) {
	var configs []AxisConfig
	if err := yaml.NewDecoder(r).Decode(&configs); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("polytope: decoding axis configuration: %w", err)
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return configs, nil
}

func (cfg AxisConfig) Validate() error {
	if err := validate.Struct(cfg); err != nil {
		return ConfigError(fmt.Sprintf("axis '%s': %v", cfg.Name, err))
	}
	return nil
}

// Builds the transformation the configuration describes on the named axis.
func (cfg TransformationConfig) Build(axis string) (Transformation, error) {
	switch cfg.Name {
	case "cyclic":
		if len(cfg.Range) != 2 {
			return nil, ConfigError("cyclic axis '" + axis + "' needs a range of two values")
		}
		return NewCyclic(axis, cfg.Range[0], cfg.Range[1])
	case "mapper":
		if len(cfg.Axes) != 2 {
			return nil, ConfigError("mapper of axis '" + axis + "' needs two mapped axes")
		}
		gridType := cfg.Type
		if gridType == "" {
			gridType = grid.TypeOctahedral
		}
		m, err := grid.New(gridType, cfg.Implementation, axis, [2]string{cfg.Axes[0], cfg.Axes[1]}, cfg.Resolution, cfg.Local)
		if err != nil {
			return nil, ConfigError(fmt.Sprintf("mapper of axis '%s': %v", axis, err))
		}
		return NewGridMapping(m), nil
	case "reverse":
		return NewReverse(axis), nil
	case "type_change":
		to, err := ParseAxisType(cfg.Type)
		if err != nil {
			return nil, ConfigError(fmt.Sprintf("type change of axis '%s': %v", axis, err))
		}
		return NewTypeChange(axis, to)
	case "merge":
		linkers := DefaultLinkers
		if len(cfg.Linkers) == 2 {
			linkers = [2]string{cfg.Linkers[0], cfg.Linkers[1]}
		}
		return NewMerge(axis, cfg.OtherAxis, linkers)
	default:
		return nil, UnsupportedError("transformation '" + cfg.Name + "'")
	}
}
