package node

import (
	"math"

	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/field"
	"github.com/termfx/markovgo/internal/matcher"
	"github.com/termfx/markovgo/internal/observe"
	"github.com/termfx/markovgo/internal/rng"
	"github.com/termfx/markovgo/internal/rule"
)

// Mode selects a rewrite node's match-selection policy (spec §4.5).
type Mode int

const (
	// One applies exactly one randomly-chosen match per step.
	One Mode = iota
	// All applies every non-conflicting match per step.
	All
	// Prl applies every match independently, write-order deterministic.
	Prl
)

// PotentialSource is anything that can answer "what is the bias
// contribution of writing value v at cell c" — implemented by both
// field.Potential and observe.Potentials so rewrite-node selection can
// treat them uniformly (spec §4.5 "weight each match by
// rule.p · exp(potential_bias)").
type PotentialSource interface {
	Bias(cell int, v uint8) (int32, bool)
}

// FieldSpec wraps one field definition (spec §3 Field's attributes) that
// a rewrite node computes and uses to bias match selection.
type FieldSpec struct {
	Field field.Field
}

// Rewrite is the one/all/prl rewrite node (spec §4.4 run()).
type Rewrite struct {
	Mode  Mode
	Rules []*rule.Rule

	Steps       int // 0 means unlimited
	Temperature float64

	Fields        []FieldSpec
	Observations  []observe.Observation
	Search        bool
	SearchLimit   int
	DepthCoeff    float64
	YieldInterval int // cooperative search yield interval; 0 -> observe.DefaultYieldInterval

	RNG *rng.Source

	counter int
	last    []bool // per-rule fired-this-step flag
	m       *matcher.Matcher

	fieldPotentials []*field.Potential
	fieldsComputed  bool

	futureComputed bool
	future         []uint64
	potentials     *observe.Potentials
	search         *observe.Search
	replayIdx      int
}

// NewRewrite constructs a rewrite node. Its RNG stream is assigned later,
// once per run, via SetRNG — the loader builds the tree once but a
// program may be run under many seeds (spec §5).
func NewRewrite(mode Mode, rules []*rule.Rule) *Rewrite {
	return &Rewrite{
		Mode:  mode,
		Rules: rules,
		last:  make([]bool, len(rules)),
	}
}

// SetRNG installs this node's PRNG stream. Called once per Run, with a
// stream jumped from the interpreter's single run seed so the whole
// node tree is deterministic from (program, seed) alone (spec §5).
func (n *Rewrite) SetRNG(r *rng.Source) { n.RNG = r }

func (n *Rewrite) Reset() {
	n.counter = 0
	for i := range n.last {
		n.last[i] = false
	}
	n.m = nil
	n.fieldsComputed = false
	n.futureComputed = false
	n.future = nil
	n.potentials = nil
	n.search = nil
	n.replayIdx = 0
}

// LastFired reports whether rule i was applied during the previous
// successful step.
func (n *Rewrite) LastFired(i int) bool { return n.last[i] }

func (n *Rewrite) Run(ctx *RunContext) core.RunState {
	// Step 1: step-limit check.
	if n.Steps > 0 && n.counter >= n.Steps {
		return core.FAIL
	}

	// Step 2: observations / search.
	if len(n.Observations) > 0 {
		if !n.futureComputed {
			future, err := observe.FutureSet(ctx.Grid, n.Observations)
			if err != nil {
				return core.FAIL
			}
			n.future = future
			n.potentials = observe.ComputeBackwardPotentials(ctx.Grid, n.Rules, future, ctx.Grid.Len())
			n.futureComputed = true
		}
		if n.Search {
			if st, done := n.stepSearch(ctx); !done {
				return st
			}
			if n.search.Result() == nil {
				return core.FAIL
			}
			return n.replayTrajectory(ctx)
		}
	}

	if n.futureComputed && n.Search {
		// Search already finished in a prior call; keep replaying.
		return n.replayTrajectory(ctx)
	}

	// Step 3: refresh matches.
	if n.m == nil {
		n.m = matcher.New(n.Rules, ctx.Grid)
	}
	n.m.Rescan(ctx.Grid.Turn())

	// Step 4: fields.
	if len(n.Fields) > 0 {
		if !n.fieldsComputed || n.anyRecompute() {
			pots := make([]*field.Potential, len(n.Fields))
			anySucceeded := false
			for i, fs := range n.Fields {
				p, err := field.Compute(ctx.Grid, fs.Field)
				pots[i] = p
				if err != nil {
					if fs.Field.Essential {
						return core.FAIL
					}
					continue
				}
				anySucceeded = true
			}
			if !anySucceeded {
				return core.FAIL
			}
			n.fieldPotentials = pots
			n.fieldsComputed = true
		}
	}

	// Step 5/6: select & apply.
	for i := range n.last {
		n.last[i] = false
	}
	applied := n.apply(ctx)
	if !applied {
		return core.FAIL
	}
	n.counter++
	ctx.Grid.NextTurn()
	return core.SUCCESS
}

func (n *Rewrite) anyRecompute() bool {
	for _, fs := range n.Fields {
		if fs.Field.Recompute {
			return true
		}
	}
	return false
}

// bias sums every configured potential source's contribution at the
// output footprint of rule r anchored at (x,y,z); missing contributions
// count as 0 (spec §9 open question resolution).
func (n *Rewrite) bias(r *rule.Rule, x, y, z int, ctx *RunContext) float64 {
	var sum int32
	var sources []PotentialSource
	for _, p := range n.fieldPotentials {
		if p != nil {
			sources = append(sources, p)
		}
	}
	if n.potentials != nil {
		sources = append(sources, n.potentials)
	}
	if len(sources) == 0 {
		return 0
	}
	for k := range r.OMZ {
		for j := range r.OMY {
			for i := range r.OMX {
				w := r.Output[i+j*r.OMX+k*r.OMX*r.OMY]
				if w == core.DontWrite {
					continue
				}
				cell := ctx.Grid.Index(x+i, y+j, z+k)
				for _, src := range sources {
					if v, ok := src.Bias(cell, w); ok {
						sum += v
					}
				}
			}
		}
	}
	return float64(sum)
}

func (n *Rewrite) apply(ctx *RunContext) bool {
	switch n.Mode {
	case One:
		return n.applyOne(ctx)
	case All:
		return n.applyAll(ctx)
	default:
		return n.applyPrl(ctx)
	}
}

// applyOne implements spec §4.5 "One": weight each valid match by
// rule.p · exp(bias/temperature) (or rule.p alone if temperature is 0),
// sample one, re-verifying and resampling on staleness.
func (n *Rewrite) applyOne(ctx *RunContext) bool {
	for n.m.Count() > 0 {
		weights := make([]float64, n.m.Count())
		total := 0.0
		for i := range weights {
			mt := n.m.At(i)
			r := n.Rules[mt.Rule]
			w := r.P
			if n.Temperature > 0 {
				w *= math.Exp(n.bias(r, mt.X, mt.Y, mt.Z, ctx) / n.Temperature)
			}
			weights[i] = w
			total += w
		}
		if total <= 0 {
			return false
		}
		pick := n.RNG.Float64() * total
		idx := 0
		for i, w := range weights {
			pick -= w
			if pick <= 0 {
				idx = i
				break
			}
			idx = i
		}
		if !n.m.Revalidate(idx) {
			continue // stale: swap-removed, resample
		}
		mt := n.m.At(idx)
		r := n.Rules[mt.Rule]
		matcher.Apply(ctx.Grid, r, mt.X, mt.Y, mt.Z, nil)
		n.last[mt.Rule] = true
		n.m.RemoveAt(idx)
		return true
	}
	return false
}

// applyAll implements spec §4.5 "All": shuffle, then apply in order,
// skipping matches whose output footprint overlaps cells already written
// this step.
func (n *Rewrite) applyAll(ctx *RunContext) bool {
	count := n.m.Count()
	if count == 0 {
		return false
	}
	order := make([]int, count)
	for i := range order {
		order[i] = i
	}
	for i := count - 1; i > 0; i-- {
		j := n.RNG.Intn(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	written := matcher.NewConflictMask(ctx.Grid.Len())
	applied := false
	// Copy the matches in shuffled order before applying any of them, and
	// re-verify each against the grid as it is reached, since earlier
	// applications in this step may have invalidated it.
	pending := make([]matcher.Match, 0, count)
	for _, idx := range order {
		pending = append(pending, n.m.At(idx))
	}
	for _, mt := range pending {
		r := n.Rules[mt.Rule]
		if !ctx.Grid.Matches(r.IMX, r.IMY, r.IMZ, r.Input, mt.X, mt.Y, mt.Z) {
			continue
		}
		if matcher.Footprint(ctx.Grid, r, mt.X, mt.Y, mt.Z, written) {
			continue
		}
		matcher.Apply(ctx.Grid, r, mt.X, mt.Y, mt.Z, written)
		n.last[mt.Rule] = true
		applied = true
	}
	n.m.Reset()
	return applied
}

// applyPrl implements spec §4.5 "Prl": apply every valid match
// independently; write-order deterministic by (rule-index, z, y, x).
func (n *Rewrite) applyPrl(ctx *RunContext) bool {
	count := n.m.Count()
	if count == 0 {
		return false
	}
	pending := make([]matcher.Match, count)
	for i := range pending {
		pending[i] = n.m.At(i)
	}
	sortMatches(pending)

	applied := false
	for _, mt := range pending {
		r := n.Rules[mt.Rule]
		if !ctx.Grid.Matches(r.IMX, r.IMY, r.IMZ, r.Input, mt.X, mt.Y, mt.Z) {
			continue
		}
		matcher.Apply(ctx.Grid, r, mt.X, mt.Y, mt.Z, nil)
		n.last[mt.Rule] = true
		applied = true
	}
	n.m.Reset()
	return applied
}

func sortMatches(ms []matcher.Match) {
	// Insertion sort: match lists are small relative to grid size in
	// practice, and this keeps ordering stable without importing sort
	// for a simple lexicographic key.
	less := func(a, b matcher.Match) bool {
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		if a.Z != b.Z {
			return a.Z < b.Z
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	}
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && less(ms[j], ms[j-1]); j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}

func (n *Rewrite) stepSearch(ctx *RunContext) (core.RunState, bool) {
	if n.search == nil {
		n.search = observe.NewSearch(ctx.Grid, n.Rules, n.future, n.potentials, n.DepthCoeff, n.SearchLimit)
	}
	if n.search.Done() {
		return core.SUCCESS, true
	}
	interval := n.YieldInterval
	if interval <= 0 {
		interval = observe.DefaultYieldInterval
	}
	done := n.search.Step(interval)
	if !done {
		return core.HALT, false
	}
	return core.SUCCESS, true
}

// replayTrajectory advances the grid to the next snapshot of a completed
// search trajectory, one per Run call, returning FAIL once exhausted.
func (n *Rewrite) replayTrajectory(ctx *RunContext) core.RunState {
	traj := n.search.Result()
	if n.replayIdx+1 >= len(traj) {
		return core.FAIL
	}
	next := traj[n.replayIdx+1]
	for i, v := range next {
		x := i % ctx.Grid.MX
		y := (i / ctx.Grid.MX) % ctx.Grid.MY
		z := i / (ctx.Grid.MX * ctx.Grid.MY)
		ctx.Grid.Set(x, y, z, v)
	}
	n.replayIdx++
	n.counter++
	ctx.Grid.NextTurn()
	return core.SUCCESS
}
