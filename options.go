package polytope

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Tunes how requests are turned into polytopes and how they are sliced.
type Options struct {
	// Polygons with more vertices are rejected with ShapeTooComplexError.
	MaxPolygonPoints int `yaml:"max_polygon_points" validate:"gte=3"`
	// Polygons enclosing a larger area, in squared axis units, are rejected with ShapeTooLargeError.
	MaxPolygonArea float64 `yaml:"max_polygon_area" validate:"gt=0"`
	// Represent multi-axis boxes as a product of independent spans, one per axis.
	DecomposeBoxes bool `yaml:"decompose_boxes"`
	// The number of tensor product combinations sliced concurrently.
	Workers int `yaml:"workers" validate:"gte=1,lte=1024"`
	// Check every leaf of a non-orthogonal shape against the original shape before keeping it.
	ExactContainment bool `yaml:"exact_containment"`
}

func DefaultOptions() Options {
	return Options{
		MaxPolygonPoints: 100000,
		MaxPolygonArea:   math.Inf(1),
		DecomposeBoxes:   true,
		Workers:          1,
		ExactContainment: true,
	}
}

// Decodes options from YAML over the defaults and validates them.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	if err := yaml.NewDecoder(r).Decode(&opts); err != nil && !errors.Is(err, io.EOF) {
		return Options{}, fmt.Errorf("polytope: decoding options: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

func (o Options) Validate() error {
	if err := validate.Struct(o); err != nil {
		return fmt.Errorf("polytope: invalid options: %w", err)
	}
	return nil
}
