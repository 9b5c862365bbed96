package datacube

import "fmt"

// A requested axis that the datacube does not have.
type AxisNotFoundError struct {
	Axis string
}

func (e AxisNotFoundError) Error() string {
	return fmt.Sprintf("polytope: axis '%s' not found in datacube", e.Axis)
}

// An axis defined more than once by a request.
type AxisOverdefinedError struct {
	Axis string
}

func (e AxisOverdefinedError) Error() string {
	return fmt.Sprintf("polytope: axis '%s' is overdefined, it appears in more than one shape", e.Axis)
}

// A datacube axis the request leaves undefined.
type AxisUnderdefinedError struct {
	Axis string
}

func (e AxisUnderdefinedError) Error() string {
	return fmt.Sprintf("polytope: axis '%s' is underdefined, no shape covers it", e.Axis)
}

type ConfigError string

func (e ConfigError) Error() string {
	return "polytope: invalid axis configuration - " + string(e)
}

type UnsupportedError string

func (e UnsupportedError) Error() string {
	return "polytope: unsupported action - " + string(e)
}
