package datacube

// Checks that the requested axes cover the datacube axes exactly once. A requested axis repeated is
// reported first, then a datacube axis missing from the request, then a requested axis the datacube
// does not have; within each kind the first offending axis in order is reported.
func ValidateAxes(actual, requested []string) error {
	seen := make(map[string]bool, len(requested))
	for _, axis := range requested {
		if seen[axis] {
			return AxisOverdefinedError{Axis: axis}
		}
		seen[axis] = true
	}

	known := make(map[string]bool, len(actual))
	for _, axis := range actual {
		known[axis] = true
		if !seen[axis] {
			return AxisUnderdefinedError{Axis: axis}
		}
	}

	for _, axis := range requested {
		if !known[axis] {
			return AxisNotFoundError{Axis: axis}
		}
	}
	return nil
}
