package node

import "github.com/termfx/markovgo/internal/core"

// Generator is a leaf node for the pattern-generator family (Convchain,
// Path, Overlap, Convolution, Map) that the spec places out of scope
// beyond their run-state contract: each fires at most once per enclosing
// loop iteration and then FAILs until Reset, matching how every other
// leaf node signals "nothing left to do this pass" (spec §4.4 Non-goals).
type Generator struct {
	Kind string // "convchain" | "path" | "overlap" | "convolution" | "map"
	fired bool
}

// NewGenerator builds a placeholder generator node of the given kind.
func NewGenerator(kind string) *Generator {
	return &Generator{Kind: kind}
}

func (g *Generator) Reset() { g.fired = false }

func (g *Generator) Run(ctx *RunContext) core.RunState {
	if g.fired {
		return core.FAIL
	}
	g.fired = true
	return core.SUCCESS
}
