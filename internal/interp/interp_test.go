package interp

import (
	"testing"

	"github.com/termfx/markovgo/internal/core"
	"github.com/termfx/markovgo/internal/grid"
	"github.com/termfx/markovgo/internal/node"
	"github.com/termfx/markovgo/internal/pattern"
	"github.com/termfx/markovgo/internal/rule"
)

func buildBWProgram(t *testing.T, mx, my int) *Program {
	t.Helper()
	a, err := pattern.NewAlphabet([]rune("BW"), nil)
	if err != nil {
		t.Fatalf("NewAlphabet: %v", err)
	}
	tmpl := grid.New(mx, my, 1, a)

	rules, err := rule.Build(rule.Spec{In: "B", Out: "W"}, a, false, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rw := node.NewRewrite(node.All, rules)

	return &Program{
		Alphabet:  a,
		Template:  tmpl,
		Root:      rw,
		rewriters: []*node.Rewrite{rw},
	}
}

func drain(r *Run) (*Snapshot, core.RunState) {
	var last *Snapshot
	for {
		snap, state := r.Next()
		if snap != nil {
			last = snap
		}
		if state == core.FAIL {
			return last, state
		}
	}
}

func TestRunFillsGridThenFails(t *testing.T) {
	p := buildBWProgram(t, 3, 1)
	r := NewRun(p, 1, 0)

	snap, state := drain(r)
	if state != core.FAIL {
		t.Fatalf("final state = %v, want FAIL once no B cells remain", state)
	}
	for i, v := range snap.State {
		if v != p.Alphabet.Values['W'] {
			t.Fatalf("cell %d = %d, want W after the grid fills", i, v)
		}
	}
}

func TestRunIsDeterministicAcrossIdenticalSeeds(t *testing.T) {
	p := buildBWProgram(t, 5, 5)

	r1 := NewRun(p, 42, 0)
	snap1, _ := drain(r1)

	r2 := NewRun(p, 42, 0)
	snap2, _ := drain(r2)

	if len(snap1.State) != len(snap2.State) {
		t.Fatalf("snapshot lengths differ")
	}
	for i := range snap1.State {
		if snap1.State[i] != snap2.State[i] {
			t.Fatalf("cell %d differs between two runs with the same seed: %d vs %d", i, snap1.State[i], snap2.State[i])
		}
	}
}

func TestRunHonorsStepCap(t *testing.T) {
	// All mode applies every match in a single tick, so use One mode (one
	// rule application per tick) to exercise a multi-tick step cap.
	a, err := pattern.NewAlphabet([]rune("BW"), nil)
	if err != nil {
		t.Fatalf("NewAlphabet: %v", err)
	}
	tmpl := grid.New(3, 1, 1, a)
	rules, err := rule.Build(rule.Spec{In: "B", Out: "W"}, a, false, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rw := node.NewRewrite(node.One, rules)
	p := &Program{Alphabet: a, Template: tmpl, Root: rw, rewriters: []*node.Rewrite{rw}}

	run := NewRun(p, 7, 2)
	successes := 0
	for {
		_, state := run.Next()
		if state == core.SUCCESS {
			successes++
		}
		if state == core.FAIL {
			break
		}
	}
	if successes != 2 {
		t.Fatalf("want exactly 2 successful ticks under a step cap of 2, got %d", successes)
	}
}

func TestRunDoneIsStickyAfterFail(t *testing.T) {
	p := buildBWProgram(t, 1, 1)
	r := NewRun(p, 3, 0)
	for !r.Done() {
		r.Next()
	}
	snap, state := r.Next()
	if snap != nil || state != core.FAIL {
		t.Fatalf("Next after Done must return (nil, FAIL), got (%v, %v)", snap, state)
	}
}
