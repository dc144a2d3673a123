// Package observe implements goal states and the search machinery built on
// top of them (spec §3 Observation, §4.6): future-set computation,
// backward potential propagation, and a bounded best-first trajectory
// search over rule applications.
package observe

import "github.com/termfx/markovgo/internal/grid"

// Observation says cells holding Value must eventually hold some value in
// To (spec §3: "(from-value, to-mask) per symbol value").
type Observation struct {
	Value uint8
	To    uint64
}

// ErrInfeasible is returned by FutureSet when some cell's current value
// has a declared observation whose destination mask is empty, so no
// value can satisfy it (spec §4.6: "FAIL if any cell's value conflicts
// with its own required destination set being empty").
type ErrInfeasible struct{ Cell int }

func (e ErrInfeasible) Error() string { return "observe: infeasible future set" }

// FutureSet computes, for every cell, the mask of acceptable terminal
// values: the observation's To-mask if one is declared for the cell's
// current value, otherwise the single bit for the current value itself
// (spec §4.6 "Future set").
func FutureSet(g *grid.Grid, obs []Observation) ([]uint64, error) {
	byValue := make(map[uint8]uint64, len(obs))
	for _, o := range obs {
		byValue[o.Value] |= o.To
	}

	n := g.Len()
	future := make([]uint64, n)
	for i := range n {
		v := g.AtIndex(i)
		if to, ok := byValue[v]; ok {
			if to == 0 {
				return nil, ErrInfeasible{Cell: i}
			}
			future[i] = to
		} else {
			future[i] = 1 << uint(v)
		}
	}
	return future, nil
}

// Satisfied reports whether g's current state already matches future in
// every cell — the search/observation goal test.
func Satisfied(g *grid.Grid, future []uint64) bool {
	for i := range future {
		v := g.AtIndex(i)
		if future[i]&(1<<uint(v)) == 0 {
			return false
		}
	}
	return true
}
