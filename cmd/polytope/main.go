package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gracefulearth/gopolytope/grid"
)

var (
	verbose        bool
	gridType       string
	implementation string
	resolution     int
	area           []float64

	rootCmd = &cobra.Command{
		Use:   "polytope",
		Short: "Resolve geometric requests against gridded datacubes",
		Long: `polytope turns shapes over latitude and longitude into the exact grid points they cover,
and inspects the global grids it knows how to map.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "log every slicing step")
	flags.StringVar(&gridType, "grid", grid.TypeOctahedral, "grid type: octahedral, regular, healpix, healpix_nested or local_regular")
	flags.StringVar(&implementation, "implementation", grid.ImplementationFast, "octahedral mapper implementation, fast or reference")
	flags.IntVarP(&resolution, "resolution", "r", 8, "grid resolution")
	flags.Float64SliceVar(&area, "area", nil, "area of a local_regular grid as south,north,west,east")
	rootCmd.AddCommand(gridCmd, sliceCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}
