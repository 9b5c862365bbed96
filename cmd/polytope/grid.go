package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gracefulearth/gopolytope/grid"
)

var (
	gridCmd = &cobra.Command{
		Use:   "grid",
		Short: "Inspect a global grid",
	}
	gridRowsCmd = &cobra.Command{
		Use:   "rows",
		Short: "List the latitude and length of every row",
		Args:  cobra.NoArgs,
		RunE:  runGridRows,
	}
	gridUnmapCmd = &cobra.Command{
		Use:   "unmap LATITUDE LONGITUDE",
		Short: "Print the linear index of the grid point nearest to a coordinate",
		Args:  cobra.ExactArgs(2),
		RunE:  runGridUnmap,
	}
)

func init() {
	gridCmd.AddCommand(gridRowsCmd, gridUnmapCmd)
}

func newMapper() (grid.Mapper, error) {
	return grid.New(gridType, implementation, "values", [2]string{"latitude", "longitude"}, resolution, area)
}

func runGridRows(cmd *cobra.Command, args []string) error {
	m, err := newMapper()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for i, lat := range m.FirstAxisValues() {
		fmt.Fprintf(out, "%4d %12.6f %6d %8d\n", i, lat, m.RowLength(i), m.AxesIdxToLinearIdx(i, 0))
	}
	fmt.Fprintf(out, "%d points\n", m.Points())
	return nil
}

func runGridUnmap(cmd *cobra.Command, args []string) error {
	m, err := newMapper()
	if err != nil {
		return err
	}
	lat, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("longitude: %w", err)
	}
	idx, err := m.Unmap(lat, lon)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), idx)
	return nil
}
