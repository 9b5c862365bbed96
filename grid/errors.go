package grid

import "fmt"

type ArgumentError string

func (e ArgumentError) Error() string {
	return "grid: invalid argument - " + string(e)
}

// Reported when a coordinate cannot be placed on the grid, either because it is not finite or
// because it does not match any latitude line of the grid.
type NotOnGridError struct {
	Axis  string
	Value float64
}

func (e NotOnGridError) Error() string {
	return fmt.Sprintf("grid: value %v is not on the grid along axis '%s'", e.Value, e.Axis)
}
