// Package interp ties the engine packages together: it loads a parsed
// XML program (package xmlprog) into a grid plus a node tree (spec §4.7,
// §6), then drives that tree as the lazy snapshot producer spec §4.7 and
// §9 describe ("pull-based iterator with an explicit HALT state").
package interp

import (
	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/node"
	"github.com/termfx/markovgo/internal/pattern"
)

// Program is a loaded, runnable model: an initial grid template and the
// node tree that rewrites it. A Program can be run any number of times,
// under any number of seeds, via NewRun. Its node tree holds per-run
// state (cursors, counters, matchers, RNG streams) that NewRun resets and
// re-seeds, so only one Run of a Program may be in progress at a time.
type Program struct {
	Alphabet  *pattern.Alphabet
	Template  *grid.Grid // never mutated directly; Run clones it
	Root      node.Node
	rewriters []*node.Rewrite // every rewrite leaf, in tree-construction order
}

// Snapshot is the engine's externally observable output (spec §3/§6):
// the grid state, the alphabet legend, and the grid's dimensions.
type Snapshot struct {
	State      []uint8
	Legend     string
	FX, FY, FZ int
}
