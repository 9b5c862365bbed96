package polytope

import (
	"slices"
	"strings"

	"github.com/gracefulearth/gopolytope/datacube"
)

// The polytopes of a request spanning exactly the same axes.
type AxisGroup struct {
	Axes []string // Sorted axis names shared by every polytope of the group.
	// Each alternative covers the axes of the group on its own. The polytopes inside one alternative
	// are ANDed; alternatives are ORed.
	Alternatives [][]Polytope
}

// Partitions polytopes by their sorted axis names, in order of first appearance. Within a group the
// orthogonal polytopes that are not part of a union are merged into one alternative, since axis
// aligned constraints over the same axes all have to hold at once. Every other polytope is an
// alternative of its own. Also returns the concatenated axes of the groups, for validation.
func Group(polytopes []Polytope) ([]AxisGroup, []string) {
	type bucket struct {
		axes       []string
		orthogonal []Polytope
		others     []Polytope
	}
	var order []string
	buckets := make(map[string]*bucket)
	for _, p := range polytopes {
		axes := slices.Sorted(slices.Values(p.Axes()))
		key := strings.Join(axes, "\x00")
		b, ok := buckets[key]
		if !ok {
			b = &bucket{axes: axes}
			buckets[key] = b
			order = append(order, key)
		}
		if p.Orthogonal() && !p.InUnion() {
			b.orthogonal = append(b.orthogonal, p)
		} else {
			b.others = append(b.others, p)
		}
	}

	groups := make([]AxisGroup, 0, len(order))
	var axes []string
	for _, key := range order {
		b := buckets[key]
		g := AxisGroup{Axes: b.axes}
		if len(b.orthogonal) > 0 {
			g.Alternatives = append(g.Alternatives, b.orthogonal)
		}
		for _, p := range b.others {
			g.Alternatives = append(g.Alternatives, []Polytope{p})
		}
		groups = append(groups, g)
		axes = append(axes, b.axes...)
	}
	return groups, axes
}

// One alternative from every group: a complete covering of the requested axes.
type Combination []Polytope

// The convex polytopes of the combination, with products expanded.
func (c Combination) Polytopes() []*ConvexPolytope {
	var out []*ConvexPolytope
	for _, p := range c {
		out = append(out, p.Flatten()...)
	}
	return out
}

// The cross product of the alternatives of the groups. The alternatives of the first group vary the
// slowest. Groups without alternatives yield no combinations.
func TensorProduct(groups []AxisGroup) []Combination {
	if len(groups) == 0 {
		return nil
	}
	combinations := []Combination{nil}
	for _, g := range groups {
		next := make([]Combination, 0, len(combinations)*len(g.Alternatives))
		for _, c := range combinations {
			for _, alt := range g.Alternatives {
				combined := make(Combination, 0, len(c)+len(alt))
				combined = append(combined, c...)
				next = append(next, append(combined, alt...))
			}
		}
		combinations = next
	}
	return combinations
}

// Checks that the requested axes name every datacube axis exactly once.
func ValidateAxes(actual, requested []string) error {
	return datacube.ValidateAxes(actual, requested)
}
