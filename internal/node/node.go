// Package node implements the execution tree (spec §3 Node, §4.7 node tree
// execution): sequence/Markov control nodes, the one/all/prl rewrite
// nodes, the other generator node run-state contracts, and the explicit
// per-node cursor that makes HALT resumable.
package node

import (
	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/grid"
)

// RunContext is the explicit context threaded into every node operation,
// replacing the source's node→interpreter back-reference (spec §9 DESIGN
// NOTES "Shared mutable grid with back-references"). The interpreter owns
// the grid and the node tree; nodes borrow both for the duration of a
// step.
type RunContext struct {
	Grid *grid.Grid
}

// Node is the tagged-variant interface every execution-tree element
// implements (spec §9: "tagged variant over node kinds with a single
// dispatch call"). Run executes at most one unit of observable progress
// (one rewrite application, or one search expansion batch) and returns
// the resulting RunState; HALT leaves the node's internal cursor
// unchanged so the next Run call resumes exactly where it left off.
type Node interface {
	Run(ctx *RunContext) core.RunState
	// Reset returns the node (and, recursively, its children) to its
	// freshly-loaded state: cursors rewound, counters zeroed, matcher
	// caches invalidated. Used when a node is re-entered after its
	// enclosing Markov/Sequence restarts it from scratch.
	Reset()
}
