package observe

import (
	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/rule"
)

// Potentials holds, for every (cell, value) pair, the minimum number of
// rule applications a backward BFS determined could bring that cell to
// that value (spec §4.6 "Backward potentials"); -1 marks an unreached
// pair. Values is laid out cell-major: Values[cell*c+v].
type Potentials struct {
	Values []int32
	c      int
}

func (p *Potentials) at(cell int, v uint8) int32 { return p.Values[cell*p.c+int(v)] }

// Bias implements the node package's PotentialSource interface: the bias
// contribution of a rule writing value v to cell, or (0, false) if that
// (cell, value) pair was never reached by the backward BFS — per spec
// §9's resolution of the "missing potentials" open question, an absent
// potential contributes 0 to a selection bias sum, not -1 or an error.
func (p *Potentials) Bias(cell int, v uint8) (int32, bool) {
	val := p.at(cell, v)
	if val < 0 {
		return 0, false
	}
	return val, true
}

// MinToMask returns the minimum potential over every value in mask at
// cell, or -1 if no value in mask was ever reached at that cell.
func (p *Potentials) MinToMask(cell int, mask uint64) int32 {
	best := int32(-1)
	for v := range p.c {
		if mask&(1<<uint(v)) == 0 {
			continue
		}
		val := p.at(cell, uint8(v))
		if val < 0 {
			continue
		}
		if best < 0 || val < best {
			best = val
		}
	}
	return best
}

// ComputeBackwardPotentials runs the fixed-point backward BFS of spec
// §4.6: potential[cell][w] = 0 when w is already acceptable at cell
// (w ∈ future[cell]); otherwise potential[cell][w] = t+1 when some rule's
// output at cell is w and every one of that rule's input cells is
// satisfiable at level t (some accepted value there already has a
// potential ≤ t). cap bounds the number of BFS levels; the computation
// also terminates early at a fixed point.
func ComputeBackwardPotentials(g *grid.Grid, rules []*rule.Rule, future []uint64, cap int) *Potentials {
	c := g.C()
	n := g.Len()
	values := make([]int32, n*c)
	for i := range values {
		values[i] = -1
	}
	p := &Potentials{Values: values, c: c}

	for i := range n {
		for v := range c {
			if future[i]&(1<<uint(v)) != 0 {
				p.Values[i*c+v] = 0
			}
		}
	}

	for t := 0; cap <= 0 || t < cap; t++ {
		changed := false
		for _, r := range rules {
			for bz := 0; bz+r.IMZ <= g.MZ; bz++ {
				for by := 0; by+r.IMY <= g.MY; by++ {
					for bx := 0; bx+r.IMX <= g.MX; bx++ {
						if !feasibleAt(g, p, r, bx, by, bz, t) {
							continue
						}
						if writeOutputs(g, p, r, bx, by, bz, t+1) {
							changed = true
						}
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return p
}

// feasibleAt reports whether every input cell of r anchored at (x,y,z)
// has at least one accepted value whose potential is already ≤ t.
func feasibleAt(g *grid.Grid, p *Potentials, r *rule.Rule, x, y, z, t int) bool {
	for k := range r.IMZ {
		for j := range r.IMY {
			for i := range r.IMX {
				mask := r.Input[i+j*r.IMX+k*r.IMX*r.IMY]
				cell := g.Index(x+i, y+j, z+k)
				if !anyValueWithin(p, cell, mask, t) {
					return false
				}
			}
		}
	}
	return true
}

func anyValueWithin(p *Potentials, cell int, mask uint64, t int) bool {
	for v := range p.c {
		if mask&(1<<uint(v)) == 0 {
			continue
		}
		val := p.at(cell, uint8(v))
		if val >= 0 && int(val) <= t {
			return true
		}
	}
	return false
}

// writeOutputs sets potential level for every output cell of r anchored
// at (x,y,z) that is not yet reached, returning whether anything changed.
func writeOutputs(g *grid.Grid, p *Potentials, r *rule.Rule, x, y, z, level int) bool {
	changed := false
	for k := range r.OMZ {
		for j := range r.OMY {
			for i := range r.OMX {
				w := r.Output[i+j*r.OMX+k*r.OMX*r.OMY]
				if w == 0xFF {
					continue
				}
				cell := g.Index(x+i, y+j, z+k)
				idx := cell*p.c + int(w)
				if p.Values[idx] == -1 {
					p.Values[idx] = int32(level)
					changed = true
				}
			}
		}
	}
	return changed
}
