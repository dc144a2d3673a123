// Package grid implements the engine's shared symbolic state array (spec
// §3/§4.1): the alphabet, the value array, and the per-turn change log
// that the matcher's incremental rescan relies on.
package grid

import (
	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/pattern"
)

// Cell is a single (x, y, z) grid coordinate, also used as a match anchor.
type Cell struct {
	X, Y, Z int
}

// Grid owns the state array, alphabet mapping, and change log (spec §3).
type Grid struct {
	MX, MY, MZ int
	Alphabet   *pattern.Alphabet

	state []uint8

	// changes is the append-only (within a turn) ordered log of cells
	// written this run; first[t] is the index into changes where turn t
	// started, so the matcher can incrementally rescan changes[first[lastMatchedTurn]:].
	changes []Cell
	first   []int
	turn    int
}

// New constructs a grid of the given dimensions and alphabet. MZ=1 marks a
// 2D grid. All cells start at value 0.
func New(mx, my, mz int, alphabet *pattern.Alphabet) *Grid {
	core.Invariantf(mx > 0 && my > 0 && mz > 0, "grid dimensions must be positive, got (%d,%d,%d)", mx, my, mz)
	g := &Grid{
		MX: mx, MY: my, MZ: mz,
		Alphabet: alphabet,
		state:    make([]uint8, mx*my*mz),
	}
	g.first = []int{0}
	return g
}

// FromState builds a grid wrapping a copy of an existing state array, with
// an empty change log. Used by the search engine (package observe) to
// explore synthetic successor states without disturbing a live grid.
func FromState(mx, my, mz int, alphabet *pattern.Alphabet, state []uint8) *Grid {
	g := New(mx, my, mz, alphabet)
	copy(g.state, state)
	return g
}

// Clone returns a grid with an independent copy of g's state array and an
// empty change log, sharing the same alphabet and dimensions.
func (g *Grid) Clone() *Grid {
	return FromState(g.MX, g.MY, g.MZ, g.Alphabet, g.state)
}

func (g *Grid) C() int { return g.Alphabet.C() }

// Len is the number of cells, MX*MY*MZ.
func (g *Grid) Len() int { return len(g.state) }

// Index converts a coordinate to a flat state index.
func (g *Grid) Index(x, y, z int) int { return x + y*g.MX + z*g.MX*g.MY }

// InBounds reports whether (x,y,z) addresses a real cell.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && x < g.MX && y >= 0 && y < g.MY && z >= 0 && z < g.MZ
}

// At returns the value at a coordinate. Callers must ensure bounds; the
// engine never catches out-of-bounds reads (spec §4.1).
func (g *Grid) At(x, y, z int) uint8 {
	i := g.Index(x, y, z)
	core.Invariantf(i >= 0 && i < len(g.state), "grid.At out of bounds (%d,%d,%d)", x, y, z)
	return g.state[i]
}

// AtIndex returns the value at a flat index.
func (g *Grid) AtIndex(i int) uint8 {
	core.Invariantf(i >= 0 && i < len(g.state), "grid.AtIndex out of bounds %d", i)
	return g.state[i]
}

// State returns the backing state array. Callers must not retain it across
// a turn boundary without copying: Clear and Set mutate it in place.
func (g *Grid) State() []uint8 { return g.state }

// Clear resets all cells to 0 and the change log (spec §4.1 clear()).
func (g *Grid) Clear() {
	for i := range g.state {
		g.state[i] = 0
	}
	g.changes = g.changes[:0]
	g.first = g.first[:0]
	g.first = append(g.first, 0)
	g.turn = 0
}

// Set writes a value at a coordinate and appends the change to this turn's
// log, unless the value is unchanged (spec §4.3 match application: "a
// non-sentinel value different from the current grid value").
func (g *Grid) Set(x, y, z int, v uint8) {
	core.Invariantf(v < uint8(g.C()), "grid.Set value %d >= alphabet size %d", v, g.C())
	i := g.Index(x, y, z)
	core.Invariantf(i >= 0 && i < len(g.state), "grid.Set out of bounds (%d,%d,%d)", x, y, z)
	if g.state[i] == v {
		return
	}
	g.state[i] = v
	g.changes = append(g.changes, Cell{X: x, Y: y, Z: z})
}

// NextTurn advances the turn counter and marks where the next turn's
// changes begin in the log.
func (g *Grid) NextTurn() {
	g.turn++
	g.first = append(g.first, len(g.changes))
}

// Turn is the current turn number (0-based, incremented by NextTurn).
func (g *Grid) Turn() int { return g.turn }

// ChangesSince returns the slice of cells changed from the start of turn t
// (inclusive) to the current end of the log. Used by the matcher's
// incremental rescan.
func (g *Grid) ChangesSince(t int) []Cell {
	if t < 0 || t >= len(g.first) {
		return nil
	}
	return g.changes[g.first[t]:]
}

// Matches reports whether rule's input pattern fits the grid anchored at
// (x,y,z): for every input cell (i,j,k), the grid value there must satisfy
// the cell's accepted-value bitmask (spec §4.1).
func (g *Grid) Matches(imx, imy, imz int, input []uint64, x, y, z int) bool {
	for k := range imz {
		gz := z + k
		for j := range imy {
			gy := y + j
			base := gz*g.MX*g.MY + gy*g.MX
			ibase := k*imx*imy + j*imx
			for i := range imx {
				mask := input[ibase+i]
				v := g.state[base+x+i]
				if mask&(1<<uint(v)) == 0 {
					return false
				}
			}
		}
	}
	return true
}
