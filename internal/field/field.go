// Package field computes a scalar potential over the grid via multi-source
// BFS for one symbol (spec §3 Field, §4 "Fields and potentials"), used to
// bias rule selection toward cells closer to (or further from) a target
// value.
package field

import "github.com/termfx/markovgo/internal/grid"

// Field describes one potential computation: ZeroVal are the BFS seed
// values (distance 0), and the BFS expands through cells whose value is
// in Substrate or ZeroVal, the distance increasing by 1 per step away
// from a seed; substrate cells are where the potential is defined.
type Field struct {
	Recompute bool // true: recompute every time the node using it runs
	Essential bool // true: if this field fails to reach a cell, FAIL

	Substrate uint64 // bitmask of values potential is defined over
	ZeroVal   uint64 // bitmask of values acting as BFS sources (distance 0)
}

// Potential holds the computed Int32 distance per cell; -1 marks
// unreachable cells (spec §3 Field).
type Potential struct {
	Values []int32
}

// ErrUnreachable is returned by Compute when Essential is set and at least
// one substrate cell never got a finite potential.
type ErrUnreachable struct{}

func (ErrUnreachable) Error() string { return "field: essential field left substrate cells unreachable" }

// Compute runs a multi-source BFS over g seeded from every cell whose
// current value matches f.ZeroVal, expanding through cells whose value
// matches f.Substrate, and returns the per-cell distance (spec "BFS-based
// scalar potential over the grid for one symbol").
func Compute(g *grid.Grid, f Field) (*Potential, error) {
	n := g.Len()
	dist := make([]int32, n)
	for i := range dist {
		dist[i] = -1
	}

	queue := make([]int, 0, n)
	for i := range n {
		v := g.AtIndex(i)
		if f.ZeroVal&(1<<uint(v)) != 0 {
			dist[i] = 0
			queue = append(queue, i)
		}
	}

	for head := 0; head < len(queue); head++ {
		i := queue[head]
		x := i % g.MX
		y := (i / g.MX) % g.MY
		z := i / (g.MX * g.MY)
		d := dist[i]
		for _, delta := range neighbors6 {
			nx, ny, nz := x+delta[0], y+delta[1], z+delta[2]
			if !g.InBounds(nx, ny, nz) {
				continue
			}
			ni := g.Index(nx, ny, nz)
			if dist[ni] != -1 {
				continue
			}
			v := g.AtIndex(ni)
			if f.Substrate&(1<<uint(v)) == 0 && f.ZeroVal&(1<<uint(v)) == 0 {
				continue
			}
			dist[ni] = d + 1
			queue = append(queue, ni)
		}
	}

	if f.Essential {
		for i := range n {
			v := g.AtIndex(i)
			if (f.Substrate&(1<<uint(v)) != 0) && dist[i] == -1 {
				return &Potential{Values: dist}, ErrUnreachable{}
			}
		}
	}

	return &Potential{Values: dist}, nil
}

var neighbors6 = [][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// At returns the potential at a flat grid index, or -1 if unreachable.
func (p *Potential) At(i int) int32 { return p.Values[i] }

// Bias implements the node package's PotentialSource interface: a field's
// potential does not depend on which value would be written, only on
// cell position. Returns (0, false) for an unreached cell, per spec §9's
// resolution that an absent potential contributes 0 to a selection bias.
func (p *Potential) Bias(cell int, _ uint8) (int32, bool) {
	v := p.Values[cell]
	if v < 0 {
		return 0, false
	}
	return v, true
}
