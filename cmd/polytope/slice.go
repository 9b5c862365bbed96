package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	polytope "github.com/gracefulearth/gopolytope"
	"github.com/gracefulearth/gopolytope/datacube"
	"github.com/gracefulearth/gopolytope/grid"
)

var (
	axesFile    string
	optionsFile string
	boxFlag     string
	polygonFlag string
	diskFlag    string
	pointFlag   string
	nearest     bool
	cyclic      bool
	printTree   bool
	workers     int

	sliceCmd = &cobra.Command{
		Use:   "slice",
		Short: "Resolve a shape over latitude and longitude into grid points",
		Long: `slice resolves one shape against a datacube holding a single global grid and prints the linear
indices of the grid points it covers. Coordinates are given as latitude,longitude pairs.`,
		Example: `  polytope slice -r 640 --box 40,-10,50,5
  polytope slice --polygon "0,0;10,0;10,10;5,2;0,10" --tree
  polytope slice --point 51.5,-0.1 --nearest`,
		Args: cobra.NoArgs,
		RunE: runSlice,
	}
)

func init() {
	flags := sliceCmd.Flags()
	flags.StringVar(&axesFile, "axes", "", "YAML axis configuration replacing the default grid mapping")
	flags.StringVar(&optionsFile, "options", "", "YAML slicing options")
	flags.StringVar(&boxFlag, "box", "", "box as lat0,lon0,lat1,lon1")
	flags.StringVar(&polygonFlag, "polygon", "", "polygon as lat,lon;lat,lon;...")
	flags.StringVar(&diskFlag, "disk", "", "disk as lat,lon,latRadius,lonRadius")
	flags.StringVar(&pointFlag, "point", "", "points as lat,lon;lat,lon;...")
	flags.BoolVar(&nearest, "nearest", false, "resolve points to the nearest grid point")
	flags.BoolVar(&cyclic, "cyclic", true, "treat longitude as periodic over [0, 360)")
	flags.BoolVar(&printTree, "tree", false, "print the index tree instead of the grid indices")
	flags.IntVar(&workers, "workers", 0, "combinations sliced concurrently, overriding the options file")
	sliceCmd.MarkFlagsMutuallyExclusive("box", "polygon", "disk", "point")
	sliceCmd.MarkFlagsOneRequired("box", "polygon", "disk", "point")
}

var latLon = []string{"latitude", "longitude"}

// Parses a comma separated list of exactly n numbers.
func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Parses semicolon separated lat,lon pairs.
func parsePairs(s string) ([][]any, error) {
	var pairs [][]any
	for part := range strings.SplitSeq(s, ";") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		f, err := parseFloats(part, 2)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, []any{f[0], f[1]})
	}
	if len(pairs) == 0 {
		return nil, errors.New("no coordinates given")
	}
	return pairs, nil
}

func shapeFromFlags() (polytope.Shape, error) {
	switch {
	case boxFlag != "":
		f, err := parseFloats(boxFlag, 4)
		if err != nil {
			return nil, fmt.Errorf("box: %w", err)
		}
		return polytope.NewBox(latLon, []any{f[0], f[1]}, []any{f[2], f[3]})
	case polygonFlag != "":
		pairs, err := parsePairs(polygonFlag)
		if err != nil {
			return nil, fmt.Errorf("polygon: %w", err)
		}
		return polytope.NewPolygon(latLon, pairs...)
	case diskFlag != "":
		f, err := parseFloats(diskFlag, 4)
		if err != nil {
			return nil, fmt.Errorf("disk: %w", err)
		}
		return polytope.NewDisk(latLon, [2]float64{f[0], f[1]}, [2]float64{f[2], f[3]})
	default:
		pairs, err := parsePairs(pointFlag)
		if err != nil {
			return nil, fmt.Errorf("point: %w", err)
		}
		pt, err := polytope.NewPoint(latLon, pairs...)
		if err != nil {
			return nil, err
		}
		pt.Nearest = nearest
		return pt, nil
	}
}

func loadAxisConfigs() ([]datacube.AxisConfig, error) {
	if axesFile != "" {
		f, err := os.Open(axesFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return datacube.LoadAxisConfigs(f)
	}
	configs := []datacube.AxisConfig{{
		Name: "values",
		Transformations: []datacube.TransformationConfig{{
			Name:           "mapper",
			Type:           gridType,
			Implementation: implementation,
			Resolution:     resolution,
			Axes:           latLon,
			Local:          area,
		}},
	}}
	// a local area is not periodic
	if cyclic && gridType != grid.TypeLocalRegular {
		configs = append(configs, datacube.AxisConfig{
			Name:            "longitude",
			Transformations: []datacube.TransformationConfig{{Name: "cyclic", Range: []float64{0, 360}}},
		})
	}
	return configs, nil
}

func loadOptions() (polytope.Options, error) {
	opts := polytope.DefaultOptions()
	if optionsFile != "" {
		f, err := os.Open(optionsFile)
		if err != nil {
			return opts, err
		}
		defer f.Close()
		if opts, err = polytope.LoadOptions(f); err != nil {
			return opts, err
		}
	}
	if workers > 0 {
		opts.Workers = workers
	}
	return opts, nil
}

func runSlice(cmd *cobra.Command, args []string) error {
	shape, err := shapeFromFlags()
	if err != nil {
		return err
	}
	configs, err := loadAxisConfigs()
	if err != nil {
		return err
	}
	opts, err := loadOptions()
	if err != nil {
		return err
	}

	source := datacube.NewInMemorySource(datacube.InMemoryAxis{Axis: datacube.Axis{Name: "values", Type: datacube.AxisInt64}})
	cube, err := datacube.New(source, configs...)
	if err != nil {
		return err
	}
	engine, err := polytope.NewEngine(cube, opts, slog.Default())
	if err != nil {
		return err
	}

	result, err := engine.Slice(cmd.Context(), shape)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if printTree {
		_, err = result.WriteTo(out)
		return err
	}

	locations, err := engine.Locate(result)
	if err != nil {
		return err
	}
	for _, loc := range locations {
		fmt.Fprintf(out, "%d points: %s\n", loc.Indices.GetCardinality(), loc.Indices.String())
	}
	return nil
}
