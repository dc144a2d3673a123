package node

import (
	"testing"

	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/observe"
	"github.com/termfx/markovgo/internal/pattern"
	"github.com/termfx/markovgo/internal/rng"
	"github.com/termfx/markovgo/internal/rule"
)

func newTestGrid(t *testing.T, mx, my int, fill func(g *grid.Grid, a *pattern.Alphabet)) (*grid.Grid, *pattern.Alphabet) {
	t.Helper()
	a, err := pattern.NewAlphabet([]rune("BW"), nil)
	if err != nil {
		t.Fatalf("NewAlphabet: %v", err)
	}
	g := grid.New(mx, my, 1, a)
	if fill != nil {
		fill(g, a)
	}
	return g, a
}

func mustRules(t *testing.T, spec rule.Spec, a *pattern.Alphabet) []*rule.Rule {
	t.Helper()
	rules, err := rule.Build(spec, a, false, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rules
}

func TestRewriteOneAppliesSingleMatch(t *testing.T) {
	g, a := newTestGrid(t, 1, 1, nil) // single B cell
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(One, rules)
	n.SetRNG(rng.New(1))
	ctx := &RunContext{Grid: g}

	if got := n.Run(ctx); got != core.SUCCESS {
		t.Fatalf("Run = %v, want SUCCESS", got)
	}
	if g.At(0, 0, 0) != a.Values['W'] {
		t.Fatalf("want cell rewritten to W")
	}
	if !n.LastFired(0) {
		t.Fatalf("want rule 0 marked as fired")
	}
}

func TestRewriteFailsWithNoMatch(t *testing.T) {
	g, a := newTestGrid(t, 1, 1, func(g *grid.Grid, a *pattern.Alphabet) {
		g.Set(0, 0, 0, a.Values['W'])
	})
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(One, rules)
	n.SetRNG(rng.New(1))
	ctx := &RunContext{Grid: g}

	if got := n.Run(ctx); got != core.FAIL {
		t.Fatalf("Run = %v, want FAIL: no B cell to match", got)
	}
}

func TestRewriteStepsLimitsApplications(t *testing.T) {
	g, a := newTestGrid(t, 3, 1, nil) // all B
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(One, rules)
	n.Steps = 1
	n.SetRNG(rng.New(1))
	ctx := &RunContext{Grid: g}

	if got := n.Run(ctx); got != core.SUCCESS {
		t.Fatalf("first Run = %v, want SUCCESS", got)
	}
	if got := n.Run(ctx); got != core.FAIL {
		t.Fatalf("second Run = %v, want FAIL: step limit of 1 reached", got)
	}
}

func TestRewriteAllAppliesEveryNonConflictingMatch(t *testing.T) {
	g, a := newTestGrid(t, 3, 1, nil) // BBB
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(All, rules)
	n.SetRNG(rng.New(1))
	ctx := &RunContext{Grid: g}

	if got := n.Run(ctx); got != core.SUCCESS {
		t.Fatalf("Run = %v, want SUCCESS", got)
	}
	for x := range 3 {
		if g.At(x, 0, 0) != a.Values['W'] {
			t.Fatalf("cell %d not rewritten under All mode", x)
		}
	}
}

func TestRewritePrlAppliesEveryMatchDeterministically(t *testing.T) {
	g, a := newTestGrid(t, 3, 1, nil)
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(Prl, rules)
	n.SetRNG(rng.New(1))
	ctx := &RunContext{Grid: g}

	if got := n.Run(ctx); got != core.SUCCESS {
		t.Fatalf("Run = %v, want SUCCESS", got)
	}
	for x := range 3 {
		if g.At(x, 0, 0) != a.Values['W'] {
			t.Fatalf("cell %d not rewritten under Prl mode", x)
		}
	}
}

func TestRewriteResetClearsStepCounterAndCursor(t *testing.T) {
	g, a := newTestGrid(t, 1, 1, nil)
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(One, rules)
	n.Steps = 1
	n.SetRNG(rng.New(1))
	ctx := &RunContext{Grid: g}

	n.Run(ctx)
	n.Reset()
	g.Set(0, 0, 0, a.Values['B']) // put the grid back so there is a match again

	if got := n.Run(ctx); got != core.SUCCESS {
		t.Fatalf("Run after Reset = %v, want SUCCESS", got)
	}
}

func TestRewriteSearchReplaysTrajectoryToGoal(t *testing.T) {
	g, a := newTestGrid(t, 1, 1, nil) // B
	rules := mustRules(t, rule.Spec{In: "B", Out: "W"}, a)

	n := NewRewrite(One, rules)
	n.SetRNG(rng.New(1))
	n.Observations = []observe.Observation{{Value: a.Values['B'], To: 1 << a.Values['W']}}
	n.Search = true

	ctx := &RunContext{Grid: g}
	got := n.Run(ctx)
	if got != core.SUCCESS {
		t.Fatalf("Run = %v, want SUCCESS once the search replays a step", got)
	}
	if g.At(0, 0, 0) != a.Values['W'] {
		t.Fatalf("want the grid advanced to the goal state W")
	}
}
