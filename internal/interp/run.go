package interp

import (
	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/node"
	"github.com/termfx/markovgo/internal/rng"
)

// Run is one execution of a Program under a fixed seed and step cap: the
// lazy pull-based producer of spec §4.7/§9. Next is called repeatedly;
// each call does at most one unit of tree progress and returns the
// resulting RunState, with a Snapshot attached whenever that progress
// was observable (a SUCCESS, or the final FAIL/exhaustion).
type Run struct {
	ctx    *node.RunContext
	root   node.Node
	steps  int
	tick   int
	legend string
	done   bool
}

// NewRun starts a fresh run of p from its template grid, seeded
// independently of any other Run on the same Program (spec §5
// determinism: identical (program, seed, steps) always reproduces the
// same snapshot sequence). steps <= 0 means unlimited outer ticks.
func NewRun(p *Program, seed uint64, steps int) *Run {
	p.Root.Reset()
	master := rng.New(seed)
	for _, rw := range p.rewriters {
		rw.SetRNG(master.Jump())
	}
	g := p.Template.Clone()
	return &Run{
		ctx:   &node.RunContext{Grid: g},
		root:  p.Root,
		steps: steps,
	}
}

// Next advances the run by one tree-walk call. It returns (snapshot,
// HALT) with a nil snapshot when the tree yielded control mid-step
// (cooperative search progress, spec §5); (snapshot, SUCCESS) once per
// applied change; and (snapshot, FAIL) exactly once, on termination,
// carrying the final grid state. Calling Next again after a FAIL return
// yields (nil, FAIL).
func (r *Run) Next() (*Snapshot, core.RunState) {
	if r.done {
		return nil, core.FAIL
	}
	if r.steps > 0 && r.tick >= r.steps {
		r.done = true
		return r.snapshot(), core.FAIL
	}

	state := r.root.Run(r.ctx)
	switch state {
	case core.HALT:
		return nil, core.HALT
	case core.SUCCESS:
		r.tick++
		return r.snapshot(), core.SUCCESS
	default: // core.FAIL
		r.done = true
		return r.snapshot(), core.FAIL
	}
}

// Done reports whether the run has delivered its final snapshot.
func (r *Run) Done() bool { return r.done }

func (r *Run) snapshot() *Snapshot {
	if r.legend == "" {
		r.legend = string(r.ctx.Grid.Alphabet.Characters)
	}
	state := append([]uint8(nil), r.ctx.Grid.State()...)
	return &Snapshot{
		State:  state,
		Legend: r.legend,
		FX:     r.ctx.Grid.MX,
		FY:     r.ctx.Grid.MY,
		FZ:     r.ctx.Grid.MZ,
	}
}
